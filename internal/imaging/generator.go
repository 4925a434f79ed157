package imaging

import (
	"image"
	"log/slog"
)

// Generator produces preprocessing variants from captcha images.
// A Generator holds no per-image state and may be reused.
type Generator struct {
	logger *slog.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithGeneratorLogger sets the logger used for debug output.
func WithGeneratorLogger(logger *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		g.logger = logger
	}
}

// NewGenerator creates a Generator.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// Generate decodes raw once and returns one variant per recipe, in recipe
// order. With no recipes, DefaultRecipes is used.
//
// Upscaled grayscale bases are shared between recipes with the same factor
// within one call; recipes never write to the shared base.
func (g *Generator) Generate(raw RawImage, recipes ...Recipe) ([]Variant, error) {
	if len(recipes) == 0 {
		recipes = defaultRecipes
	}
	img, err := raw.decode()
	if err != nil {
		return nil, err
	}
	gray := toGray(img)

	bases := map[int]*image.Gray{1: gray}
	variants := make([]Variant, 0, len(recipes))
	for _, r := range recipes {
		factor := r.scale()
		base, ok := bases[factor]
		if !ok {
			base = upscale(gray, factor)
			bases[factor] = base
		}
		out := r.apply(base)
		variants = append(variants, Variant{ID: r.ID, Image: out})
		g.logger.Debug("variant generated",
			"variant", r.ID,
			"width", out.Rect.Dx(),
			"height", out.Rect.Dy(),
		)
	}
	return variants, nil
}
