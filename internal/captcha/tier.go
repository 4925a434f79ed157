package captcha

import (
	"github.com/nao1215/cinfetch/internal/imaging"
	"github.com/nao1215/cinfetch/internal/ocr"
)

// TierName identifies a solving tier.
type TierName string

// Built-in tiers, cheapest first.
const (
	TierFast       TierName = "fast"
	TierBroad      TierName = "broad"
	TierExhaustive TierName = "exhaustive"
)

// Tier is one escalation level: every recipe is recognized under every mode,
// recipe-major.
type Tier struct {
	Name    TierName
	Recipes []imaging.Recipe
	Modes   []ocr.Mode
}

// Passes returns the number of recognition passes the tier performs.
func (t Tier) Passes() int {
	return len(t.Recipes) * len(t.Modes)
}

// DefaultTiers returns the fast, broad and exhaustive tiers.
func DefaultTiers() []Tier {
	return []Tier{
		{
			Name:    TierFast,
			Recipes: imaging.MustRecipes(imaging.RecipeBlurOtsuClose),
			Modes:   []ocr.Mode{ocr.ModeSingleWord},
		},
		{
			Name: TierBroad,
			Recipes: imaging.MustRecipes(
				imaging.RecipeFixed127,
				imaging.RecipeAdaptiveGaussian,
				imaging.RecipeErodeDilate,
				imaging.RecipeCannyInverted,
			),
			Modes: ocr.AllModes(),
		},
		{
			Name: TierExhaustive,
			Recipes: imaging.MustRecipes(
				imaging.RecipeX3Otsu,
				imaging.RecipeX3Adaptive,
				imaging.RecipeX3Fixed120,
				imaging.RecipeX3Fixed140,
				imaging.RecipeX3OtsuClose,
				imaging.RecipeX3AdaptiveClose,
			),
			Modes: ocr.AllModes(),
		},
	}
}
