package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateUser(User) (User, error)
	UpdateUser(id string, mutator func(*User) error) (User, error)
	DeleteUser(id string) error
	CreateRecipe(Recipe) (Recipe, error)
	UpdateRecipe(id string, mutator func(*Recipe) error) (Recipe, error)
	DeleteRecipe(id string) error
	CreateFavorite(Favorite) (Favorite, error)
	DeleteFavorite(id string) error
	FindUser(id string) (User, bool)
	FindRecipe(id string) (Recipe, bool)
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	ListUsers() []User
	ListRecipes() []Recipe
	ListFavorites() []Favorite
	FindUser(id string) (User, bool)
	FindRecipe(id string) (Recipe, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetUser(id string) (User, bool)
	ListUsers() []User
	GetRecipe(id string) (Recipe, bool)
	ListRecipes() []Recipe
	ListFavorites() []Favorite
}
