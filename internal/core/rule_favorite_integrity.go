package core

import (
	"context"
	"fmt"

	"recipealmanac/pkg/domain"
)

// FavoriteIntegrityRule enforces referential integrity and uniqueness of
// favorites: both endpoints must exist and a user may favorite a recipe at
// most once.
func FavoriteIntegrityRule() domain.Rule {
	return favoriteIntegrityRule{}
}

type favoriteIntegrityRule struct{}

func (favoriteIntegrityRule) Name() string { return "favorite_integrity" }

func (favoriteIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}

	seen := make(map[string]struct{})
	for _, fav := range view.ListFavorites() {
		if _, ok := view.FindUser(fav.UserID); !ok {
			res.Violations = append(res.Violations, favoriteViolation(fav.ID, fmt.Sprintf("favorite %s references missing user %s", fav.ID, fav.UserID)))
		}
		if _, ok := view.FindRecipe(fav.RecipeID); !ok {
			res.Violations = append(res.Violations, favoriteViolation(fav.ID, fmt.Sprintf("favorite %s references missing recipe %s", fav.ID, fav.RecipeID)))
		}
		key := fav.UserID + "\x00" + fav.RecipeID
		if _, dup := seen[key]; dup {
			res.Violations = append(res.Violations, favoriteViolation(fav.ID, fmt.Sprintf("user %s already favorited recipe %s", fav.UserID, fav.RecipeID)))
			continue
		}
		seen[key] = struct{}{}
	}

	return res, nil
}

func favoriteViolation(entityID, message string) domain.Violation {
	return domain.Violation{
		Rule:     "favorite_integrity",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   domain.EntityFavorite,
		EntityID: entityID,
	}
}
