package core

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewInMemoryService(NewDefaultRulesEngine())
}

func seedUser(t *testing.T, svc *Service, handle string) User {
	t.Helper()
	user, _, err := svc.CreateUser(context.Background(), User{Handle: handle, DisplayName: handle})
	if err != nil {
		t.Fatalf("seed user %s: %v", handle, err)
	}
	return user
}

func seedRecipe(t *testing.T, svc *Service, authorID, title string, ingredients ...Ingredient) Recipe {
	t.Helper()
	recipe, _, err := svc.CreateRecipe(context.Background(), Recipe{
		AuthorID:    authorID,
		Title:       title,
		Servings:    4,
		Tags:        []string{"dinner"},
		Ingredients: ingredients,
	})
	if err != nil {
		t.Fatalf("seed recipe %s: %v", title, err)
	}
	return recipe
}

func TestServiceUserLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user := seedUser(t, svc, "ada")
	updated, _, err := svc.UpdateUser(ctx, user.ID, func(u *User) error {
		bio := "cooks with precision"
		u.Bio = &bio
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Bio == nil || *updated.Bio != "cooks with precision" {
		t.Fatalf("bio = %v", updated.Bio)
	}

	if _, err := svc.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := svc.GetUser(user.ID); ok {
		t.Fatal("user still present after delete")
	}
}

func TestServiceDeleteUserCascades(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	author := seedUser(t, svc, "ada")
	fan := seedUser(t, svc, "brie")
	recipe := seedRecipe(t, svc, author.ID, "Soup")

	if _, _, err := svc.FavoriteRecipe(ctx, fan.ID, recipe.ID); err != nil {
		t.Fatalf("favorite: %v", err)
	}
	if _, _, err := svc.FavoriteRecipe(ctx, author.ID, recipe.ID); err != nil {
		t.Fatalf("self favorite: %v", err)
	}

	if _, err := svc.DeleteUser(ctx, author.ID); err != nil {
		t.Fatalf("delete author: %v", err)
	}
	if got := svc.ListRecipes("", ""); len(got) != 0 {
		t.Fatalf("recipes remaining = %d", len(got))
	}
	if got := svc.ListUserFavorites(fan.ID); len(got) != 0 {
		t.Fatalf("fan favorites remaining = %d", len(got))
	}
}

func TestServiceDeleteRecipeCascadesFavorites(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	author := seedUser(t, svc, "ada")
	fan := seedUser(t, svc, "brie")
	recipe := seedRecipe(t, svc, author.ID, "Soup")
	if _, _, err := svc.FavoriteRecipe(ctx, fan.ID, recipe.ID); err != nil {
		t.Fatalf("favorite: %v", err)
	}

	if _, err := svc.DeleteRecipe(ctx, recipe.ID); err != nil {
		t.Fatalf("delete recipe: %v", err)
	}
	if got := svc.ListUserFavorites(fan.ID); len(got) != 0 {
		t.Fatalf("favorites remaining = %d", len(got))
	}
}

func TestServiceDeleteMissing(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	var nf ErrNotFound
	if _, err := svc.DeleteUser(ctx, "missing"); !errors.As(err, &nf) {
		t.Fatalf("delete user err = %v", err)
	}
	if _, err := svc.DeleteRecipe(ctx, "missing"); !errors.As(err, &nf) {
		t.Fatalf("delete recipe err = %v", err)
	}
	if !strings.Contains(nf.Error(), "not found") {
		t.Fatalf("error text = %q", nf.Error())
	}
}

func TestServiceListRecipesFilters(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ada := seedUser(t, svc, "ada")
	brie := seedUser(t, svc, "brie")
	seedRecipe(t, svc, ada.ID, "Soup")
	if _, _, err := svc.CreateRecipe(ctx, Recipe{AuthorID: brie.ID, Title: "Cake", Servings: 8, Tags: []string{"dessert"}}); err != nil {
		t.Fatalf("create cake: %v", err)
	}

	if got := svc.ListRecipes("", ""); len(got) != 2 {
		t.Fatalf("all recipes = %d", len(got))
	}
	if got := svc.ListRecipes(ada.ID, ""); len(got) != 1 || got[0].Title != "Soup" {
		t.Fatalf("ada recipes = %+v", got)
	}
	if got := svc.ListRecipes("", "dessert"); len(got) != 1 || got[0].Title != "Cake" {
		t.Fatalf("dessert recipes = %+v", got)
	}
	if got := svc.ListRecipes(ada.ID, "dessert"); len(got) != 0 {
		t.Fatalf("mismatched filter recipes = %d", len(got))
	}
}

func TestServiceForkRecipe(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ada := seedUser(t, svc, "ada")
	brie := seedUser(t, svc, "brie")
	original := seedRecipe(t, svc, ada.ID, "Soup", ComposeIngredient("flour", 1, "cup"))

	fork, _, err := svc.ForkRecipe(ctx, original.ID, brie.ID)
	if err != nil {
		t.Fatalf("fork: %v", err)
	}
	if fork.ID == original.ID {
		t.Fatal("fork shares id with original")
	}
	if fork.AuthorID != brie.ID {
		t.Fatalf("fork author = %s", fork.AuthorID)
	}
	if fork.ForkedFromID == nil || *fork.ForkedFromID != original.ID {
		t.Fatalf("fork lineage = %v", fork.ForkedFromID)
	}
	if len(fork.Ingredients) != 1 || fork.Ingredients[0].Name != "flour" {
		t.Fatalf("fork ingredients = %+v", fork.Ingredients)
	}
	if fork.PhotoKey != nil {
		t.Fatal("fork should not inherit photo")
	}

	if _, _, err := svc.ForkRecipe(ctx, "missing", brie.ID); err == nil {
		t.Fatal("expected error forking missing recipe")
	}
	if _, _, err := svc.ForkRecipe(ctx, original.ID, "missing"); err == nil {
		t.Fatal("expected error forking to missing author")
	}
}

func TestServiceFavorites(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ada := seedUser(t, svc, "ada")
	recipe := seedRecipe(t, svc, ada.ID, "Soup")

	if _, _, err := svc.FavoriteRecipe(ctx, ada.ID, recipe.ID); err != nil {
		t.Fatalf("favorite: %v", err)
	}
	if got := svc.ListUserFavorites(ada.ID); len(got) != 1 || got[0].ID != recipe.ID {
		t.Fatalf("favorites = %+v", got)
	}

	if _, _, err := svc.FavoriteRecipe(ctx, ada.ID, recipe.ID); err == nil {
		t.Fatal("expected duplicate favorite to be blocked")
	}

	if _, err := svc.UnfavoriteRecipe(ctx, ada.ID, recipe.ID); err != nil {
		t.Fatalf("unfavorite: %v", err)
	}
	if got := svc.ListUserFavorites(ada.ID); len(got) != 0 {
		t.Fatalf("favorites after removal = %d", len(got))
	}

	// removing again is a no-op
	if _, err := svc.UnfavoriteRecipe(ctx, ada.ID, recipe.ID); err != nil {
		t.Fatalf("repeat unfavorite: %v", err)
	}
}

func TestServiceInstrumentation(t *testing.T) {
	tracer := NewJSONTracer(nil)
	metrics := NewExpvarMetricsRecorder("")
	svc := NewInMemoryService(NewDefaultRulesEngine(), WithMetricsRecorder(metrics), WithTracer(tracer))

	seedUser(t, svc, "ada")
	if _, _, err := svc.CreateUser(context.Background(), User{Handle: ""}); err == nil {
		t.Fatal("expected blank handle to be blocked")
	}

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("trace entries = %d, want 2", len(entries))
	}
	if entries[0].Operation != "create_user" || entries[0].Status != "success" {
		t.Fatalf("first entry = %+v", entries[0])
	}
	if entries[1].Status != "error" || entries[1].Error == "" {
		t.Fatalf("second entry = %+v", entries[1])
	}

	snap := metrics.Snapshot()
	if snap.Results["create_user"]["success"] != 1 || snap.Results["create_user"]["error"] != 1 {
		t.Fatalf("metrics = %+v", snap.Results)
	}
}
