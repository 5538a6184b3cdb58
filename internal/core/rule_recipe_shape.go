package core

import (
	"context"
	"fmt"
	"strings"

	"recipealmanac/pkg/domain"
)

// RecipeShapeRule enforces the structural invariants of a recipe record:
// a non-empty title, a positive serving count, a known author, and
// non-negative canonical gram amounts on every ingredient.
func RecipeShapeRule() domain.Rule {
	return recipeShapeRule{}
}

type recipeShapeRule struct{}

func (recipeShapeRule) Name() string { return "recipe_shape" }

func (recipeShapeRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}

	for _, change := range changes {
		if change.Entity != domain.EntityRecipe || change.After == nil {
			continue
		}
		recipe, ok := change.After.(domain.Recipe)
		if !ok {
			continue
		}
		if strings.TrimSpace(recipe.Title) == "" {
			res.Violations = append(res.Violations, recipeShapeViolation(recipe.ID, fmt.Sprintf("recipe %s has an empty title", recipe.ID)))
		}
		if recipe.Servings <= 0 {
			res.Violations = append(res.Violations, recipeShapeViolation(recipe.ID, fmt.Sprintf("recipe %s must serve at least one", recipe.ID)))
		}
		if _, ok := view.FindUser(recipe.AuthorID); !ok {
			res.Violations = append(res.Violations, recipeShapeViolation(recipe.ID, fmt.Sprintf("recipe %s references missing author %s", recipe.ID, recipe.AuthorID)))
		}
		for _, ing := range recipe.Ingredients {
			if strings.TrimSpace(ing.Name) == "" {
				res.Violations = append(res.Violations, recipeShapeViolation(recipe.ID, fmt.Sprintf("recipe %s has an unnamed ingredient", recipe.ID)))
			}
			if ing.Grams < 0 {
				res.Violations = append(res.Violations, recipeShapeViolation(recipe.ID, fmt.Sprintf("recipe %s ingredient %s has a negative amount", recipe.ID, ing.Name)))
			}
		}
	}

	return res, nil
}

func recipeShapeViolation(entityID, message string) domain.Violation {
	return domain.Violation{
		Rule:     "recipe_shape",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   domain.EntityRecipe,
		EntityID: entityID,
	}
}
