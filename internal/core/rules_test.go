package core

import (
	"context"
	"errors"
	"testing"
)

func TestUserProfileRuleBlocksDuplicateHandle(t *testing.T) {
	store := newTestStore(t)
	existing := mustCreateUser(t, store, "ada")

	var imposterID string
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		imposter, txErr := tx.CreateUser(User{Handle: "Ada", DisplayName: "imposter"})
		if txErr != nil {
			return txErr
		}
		imposterID = imposter.ID
		return nil
	})
	var rve RuleViolationError
	if !errors.As(err, &rve) {
		t.Fatalf("err = %v, want RuleViolationError", err)
	}
	if len(rve.Result.Violations) == 0 {
		t.Fatal("expected violations in error result")
	}
	v := rve.Result.Violations[0]
	if v.Rule != "user_profile" {
		t.Fatalf("rule = %q", v.Rule)
	}
	// the violation belongs to the user being written, not the handle holder
	if v.EntityID != imposterID {
		t.Fatalf("violation entity = %s, want %s", v.EntityID, imposterID)
	}
	if v.EntityID == existing.ID {
		t.Fatal("violation attributed to the pre-existing user")
	}
}

func TestUserProfileRuleIgnoresUntouchedUsers(t *testing.T) {
	store := newTestStore(t)
	user := mustCreateUser(t, store, "ada")
	recipe := mustCreateRecipe(t, store, user.ID, "Soup")

	// a recipe-only transaction must not rescan handles
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, txErr := tx.UpdateRecipe(recipe.ID, func(r *Recipe) error {
			r.Title = "Stew"
			return nil
		})
		return txErr
	})
	if err != nil {
		t.Fatalf("recipe update: %v", err)
	}
}

func TestRecipeShapeRuleReportsEveryDefect(t *testing.T) {
	store := newTestStore(t)

	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, txErr := tx.CreateRecipe(Recipe{
			AuthorID: "missing",
			Title:    "  ",
			Servings: 0,
			Ingredients: []Ingredient{
				{Name: "", Grams: -5},
			},
		})
		return txErr
	})
	var rve RuleViolationError
	if !errors.As(err, &rve) {
		t.Fatalf("err = %v, want RuleViolationError", err)
	}
	// empty title, zero servings, missing author, unnamed ingredient, negative grams
	if got := len(rve.Result.Violations); got != 5 {
		t.Fatalf("violations = %d, want 5", got)
	}
}

func TestForkLineageRuleAllowsValidFork(t *testing.T) {
	store := newTestStore(t)
	user := mustCreateUser(t, store, "ada")
	parent := mustCreateRecipe(t, store, user.ID, "Soup")

	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, txErr := tx.CreateRecipe(Recipe{
			AuthorID:     user.ID,
			Title:        "Soup (fork)",
			Servings:     4,
			ForkedFromID: &parent.ID,
		})
		return txErr
	})
	if err != nil {
		t.Fatalf("valid fork blocked: %v", err)
	}
}

func TestForkLineageRuleBlocksMissingParent(t *testing.T) {
	store := newTestStore(t)
	user := mustCreateUser(t, store, "ada")
	missing := "missing-parent"

	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, txErr := tx.CreateRecipe(Recipe{
			AuthorID:     user.ID,
			Title:        "Orphan",
			Servings:     2,
			ForkedFromID: &missing,
		})
		return txErr
	})
	var rve RuleViolationError
	if !errors.As(err, &rve) {
		t.Fatalf("err = %v, want RuleViolationError", err)
	}
}
