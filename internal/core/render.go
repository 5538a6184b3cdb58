package core

import (
	"context"
	"strings"

	"recipealmanac/pkg/measure"
)

// RenderOptions controls how a recipe is presented.
type RenderOptions struct {
	// Scale multiplies every ingredient amount and the serving count.
	// Zero or negative means render as written.
	Scale float64 `json:"scale,omitempty"`
	// UnitOverrides maps lowercase ingredient names to the unit the caller
	// wants that ingredient shown in, replacing the stored display unit.
	UnitOverrides map[string]string `json:"unit_overrides,omitempty"`
}

// RenderedIngredient is an ingredient converted into its display unit.
type RenderedIngredient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
	// Display is the human-readable measurement string.
	Display string `json:"display"`
	// Approximate marks weight-to-volume conversions, which rely on the
	// ingredient density table rather than an exact factor.
	Approximate bool `json:"approximate,omitempty"`
}

// RenderedRecipe is a recipe prepared for presentation at a given scale.
type RenderedRecipe struct {
	Recipe      Recipe               `json:"recipe"`
	Servings    int                  `json:"servings"`
	Scale       float64              `json:"scale"`
	Ingredients []RenderedIngredient `json:"ingredients"`
}

// ComposeIngredient builds a stored ingredient from a user-entered
// measurement. Amounts are canonicalized to grams; the entered unit is kept
// as the display unit so the recipe renders the way its author wrote it.
func ComposeIngredient(name string, amount float64, unit string) Ingredient {
	return Ingredient{
		Name:        name,
		Grams:       measure.Convert(amount, unit, "g", name),
		DisplayUnit: unit,
	}
}

// RenderRecipe converts a recipe's canonical gram amounts back into display
// units, applying the requested scale and any per-ingredient unit overrides.
func (s *Service) RenderRecipe(ctx context.Context, id string, opts RenderOptions) (RenderedRecipe, error) {
	var rendered RenderedRecipe
	err := s.instrument(ctx, "render_recipe", func(context.Context) error {
		recipe, ok := s.store.GetRecipe(id)
		if !ok {
			return ErrNotFound{Entity: EntityRecipe, ID: id}
		}

		scale := opts.Scale
		if scale <= 0 {
			scale = 1
		}

		rendered = RenderedRecipe{
			Recipe:      recipe,
			Servings:    int(float64(recipe.Servings)*scale + 0.5),
			Scale:       scale,
			Ingredients: make([]RenderedIngredient, 0, len(recipe.Ingredients)),
		}

		for _, ing := range recipe.Ingredients {
			unit := ing.DisplayUnit
			if override, ok := opts.UnitOverrides[strings.ToLower(strings.TrimSpace(ing.Name))]; ok && override != "" {
				unit = override
			}
			if unit == "" {
				unit = "g"
			}
			scaled := measure.Scale(measure.Measurement{Amount: ing.Grams, Unit: "g"}, scale)
			amount := measure.Convert(scaled.Amount, "g", unit, ing.Name)
			rendered.Ingredients = append(rendered.Ingredients, RenderedIngredient{
				Name:        ing.Name,
				Amount:      amount,
				Unit:        unit,
				Display:     measure.Format(amount, unit),
				Approximate: measure.IsVolumeUnit(unit),
			})
		}
		return nil
	})
	if err != nil {
		return RenderedRecipe{}, err
	}
	return rendered, nil
}
