package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"recipealmanac/internal/core"
	"recipealmanac/pkg/domain"
)

func TestSQLiteStorePersistAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.db")
	store, err := NewStore(path, core.NewDefaultRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	var user domain.User
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var txErr error
		user, txErr = tx.CreateUser(domain.User{Handle: "ada", DisplayName: "Ada"})
		return txErr
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, txErr := tx.CreateRecipe(domain.Recipe{AuthorID: user.ID, Title: "Soup", Servings: 2})
		return txErr
	}); err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	reloaded, err := NewStore(path, core.NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	if got := len(reloaded.ListUsers()); got != 1 {
		t.Fatalf("users after reload = %d", got)
	}
	if got := len(reloaded.ListRecipes()); got != 1 {
		t.Fatalf("recipes after reload = %d", got)
	}
	got, ok := reloaded.GetUser(user.ID)
	if !ok || got.Handle != "ada" {
		t.Fatalf("reloaded user = %+v ok = %v", got, ok)
	}
}

func TestSQLiteStoreBlockedCommitNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := NewStore(path, core.NewDefaultRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, txErr := tx.CreateRecipe(domain.Recipe{AuthorID: "missing", Title: "", Servings: 0})
		return txErr
	})
	var rve domain.RuleViolationError
	if !errors.As(err, &rve) {
		t.Fatalf("err = %v, want RuleViolationError", err)
	}

	reloaded, err := NewStore(path, core.NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	if got := len(reloaded.ListRecipes()); got != 0 {
		t.Fatalf("recipes after blocked commit = %d", got)
	}
}

func TestSQLiteStoreCreatesStateTable(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"), core.NewDefaultRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	var name string
	if err := store.DB().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='state'").Scan(&name); err != nil {
		t.Fatalf("lookup state table: %v", err)
	}
	if name != "state" {
		t.Fatalf("table = %q", name)
	}
	if store.Path() == "" {
		t.Fatal("expected configured path")
	}
}
