package imaging

import "image"

// Recipe IDs. They are stable: the ledger and debug output refer to them.
const (
	RecipeBlurOtsuClose    = "blur-otsu-close"
	RecipeFixed127         = "fixed-127"
	RecipeAdaptiveGaussian = "adaptive-gaussian"
	RecipeErodeDilate      = "erode-dilate"
	RecipeCannyInverted    = "canny-inverted"
	RecipeX3Otsu           = "x3-otsu"
	RecipeX3Adaptive       = "x3-adaptive"
	RecipeX3Fixed120       = "x3-fixed-120"
	RecipeX3Fixed140       = "x3-fixed-140"
	RecipeX3OtsuClose      = "x3-otsu-close"
	RecipeX3AdaptiveClose  = "x3-adaptive-close"
)

// Recipe is a named, deterministic cleanup: an optional integer upscale
// followed by a filter chain over the grayscale image.
type Recipe struct {
	// ID is the variant_id reported for images produced by this recipe.
	ID string

	// Scale is the integer upscale factor applied before filtering.
	// Zero and one both mean no scaling.
	Scale int

	filter Filter
}

// NewRecipe builds a Recipe from a filter chain.
func NewRecipe(id string, scale int, filters ...Filter) Recipe {
	return Recipe{ID: id, Scale: scale, filter: Chain(filters...)}
}

// apply runs the filter chain on an already scaled grayscale image. The result
// never aliases src.
func (r Recipe) apply(src *image.Gray) *image.Gray {
	out := src
	if r.filter != nil {
		out = r.filter(src)
	}
	if out == src {
		out = newLike(src)
		copy(out.Pix, src.Pix)
	}
	return out
}

func (r Recipe) scale() int {
	if r.Scale < 1 {
		return 1
	}
	return r.Scale
}

var defaultRecipes = []Recipe{
	NewRecipe(RecipeBlurOtsuClose, 1, GaussianBlur5(), Otsu(), Close(2), Contrast(2.0), Median3()),
	NewRecipe(RecipeFixed127, 1, Threshold(127)),
	NewRecipe(RecipeAdaptiveGaussian, 1, AdaptiveGaussian(11, 2)),
	NewRecipe(RecipeErodeDilate, 1, Erode(2), Dilate(2)),
	NewRecipe(RecipeCannyInverted, 1, Canny(50, 150), Invert()),
	NewRecipe(RecipeX3Otsu, 3, Otsu()),
	NewRecipe(RecipeX3Adaptive, 3, AdaptiveGaussian(11, 2)),
	NewRecipe(RecipeX3Fixed120, 3, Threshold(120)),
	NewRecipe(RecipeX3Fixed140, 3, Threshold(140)),
	NewRecipe(RecipeX3OtsuClose, 3, Otsu(), Close(2)),
	NewRecipe(RecipeX3AdaptiveClose, 3, AdaptiveGaussian(11, 2), Close(2)),
}

// DefaultRecipes returns every built-in recipe in generation order.
func DefaultRecipes() []Recipe {
	return append([]Recipe(nil), defaultRecipes...)
}

// RecipeByID looks up a built-in recipe.
func RecipeByID(id string) (Recipe, bool) {
	for _, r := range defaultRecipes {
		if r.ID == id {
			return r, true
		}
	}
	return Recipe{}, false
}

// MustRecipes resolves built-in recipe IDs in order and panics on an unknown
// ID. It is meant for package-level tier tables.
func MustRecipes(ids ...string) []Recipe {
	out := make([]Recipe, 0, len(ids))
	for _, id := range ids {
		r, ok := RecipeByID(id)
		if !ok {
			panic("imaging: unknown recipe " + id)
		}
		out = append(out, r)
	}
	return out
}
