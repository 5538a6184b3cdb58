package core

import (
	"context"
	"fmt"
	"time"
)

// Service exposes higher-level transactional CRUD operations for the
// almanac schema: users, recipes (including forks), and favorites.
type Service struct {
	store   PersistentStore
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
}

// ServiceOption customises service construction.
type ServiceOption func(*Service)

// WithLogger attaches an operational logger.
func WithLogger(l Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetricsRecorder attaches a metrics recorder observing every operation.
func WithMetricsRecorder(m MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer attaches a tracer spanning every operation.
func WithTracer(t Tracer) ServiceOption {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:   store,
		logger:  noopLogger{},
		metrics: noopMetrics{},
		tracer:  noopTracer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service and in-memory store with the given rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	return NewService(NewMemoryStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// instrument wraps an operation with tracing and metrics bookkeeping.
func (s *Service) instrument(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, operation)
	err := fn(ctx)
	span.End(err)
	s.metrics.Observe(ctx, operation, err == nil, time.Since(start))
	if err != nil {
		s.logger.Printf("%s failed: %v", operation, err)
	}
	return err
}

// ErrNotFound reports a missing entity, either from a store lookup or a
// reference check inside a transaction.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// CreateUser persists a new user profile.
func (s *Service) CreateUser(ctx context.Context, user User) (User, Result, error) {
	var created User
	var res Result
	err := s.instrument(ctx, "create_user", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			created, txErr = tx.CreateUser(user)
			return txErr
		})
		return err
	})
	return created, res, err
}

// UpdateUser mutates a user using the provided mutator.
func (s *Service) UpdateUser(ctx context.Context, id string, mutator func(*User) error) (User, Result, error) {
	var updated User
	var res Result
	err := s.instrument(ctx, "update_user", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			updated, txErr = tx.UpdateUser(id, mutator)
			return txErr
		})
		return err
	})
	return updated, res, err
}

// DeleteUser removes a user along with their recipes and favorites. Favorites
// held by other users on the removed recipes are deleted within the same
// transaction so referential integrity holds at commit.
func (s *Service) DeleteUser(ctx context.Context, id string) (Result, error) {
	var res Result
	err := s.instrument(ctx, "delete_user", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindUser(id); !ok {
				return ErrNotFound{Entity: EntityUser, ID: id}
			}
			removed := make(map[string]struct{})
			for _, recipe := range tx.Snapshot().ListRecipes() {
				if recipe.AuthorID != id {
					continue
				}
				if err := tx.DeleteRecipe(recipe.ID); err != nil {
					return err
				}
				removed[recipe.ID] = struct{}{}
			}
			for _, fav := range tx.Snapshot().ListFavorites() {
				_, orphaned := removed[fav.RecipeID]
				if fav.UserID != id && !orphaned {
					continue
				}
				if err := tx.DeleteFavorite(fav.ID); err != nil {
					return err
				}
			}
			return tx.DeleteUser(id)
		})
		return err
	})
	return res, err
}

// GetUser retrieves a user by ID.
func (s *Service) GetUser(id string) (User, bool) {
	return s.store.GetUser(id)
}

// ListUsers returns all user profiles.
func (s *Service) ListUsers() []User {
	return s.store.ListUsers()
}

// CreateRecipe persists a new recipe.
func (s *Service) CreateRecipe(ctx context.Context, recipe Recipe) (Recipe, Result, error) {
	var created Recipe
	var res Result
	err := s.instrument(ctx, "create_recipe", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			created, txErr = tx.CreateRecipe(recipe)
			return txErr
		})
		return err
	})
	return created, res, err
}

// UpdateRecipe mutates a recipe using the provided mutator.
func (s *Service) UpdateRecipe(ctx context.Context, id string, mutator func(*Recipe) error) (Recipe, Result, error) {
	var updated Recipe
	var res Result
	err := s.instrument(ctx, "update_recipe", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			updated, txErr = tx.UpdateRecipe(id, mutator)
			return txErr
		})
		return err
	})
	return updated, res, err
}

// DeleteRecipe removes a recipe and any favorites pointing at it.
func (s *Service) DeleteRecipe(ctx context.Context, id string) (Result, error) {
	var res Result
	err := s.instrument(ctx, "delete_recipe", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindRecipe(id); !ok {
				return ErrNotFound{Entity: EntityRecipe, ID: id}
			}
			for _, fav := range tx.Snapshot().ListFavorites() {
				if fav.RecipeID != id {
					continue
				}
				if err := tx.DeleteFavorite(fav.ID); err != nil {
					return err
				}
			}
			return tx.DeleteRecipe(id)
		})
		return err
	})
	return res, err
}

// GetRecipe retrieves a recipe by ID.
func (s *Service) GetRecipe(id string) (Recipe, bool) {
	return s.store.GetRecipe(id)
}

// ListRecipes returns recipes, optionally filtered by author and tag.
func (s *Service) ListRecipes(authorID, tag string) []Recipe {
	all := s.store.ListRecipes()
	if authorID == "" && tag == "" {
		return all
	}
	out := make([]Recipe, 0, len(all))
	for _, recipe := range all {
		if authorID != "" && recipe.AuthorID != authorID {
			continue
		}
		if tag != "" && !hasTag(recipe.Tags, tag) {
			continue
		}
		out = append(out, recipe)
	}
	return out
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ForkRecipe copies an existing recipe under a new author, recording the
// lineage in ForkedFromID. Title, instructions, tags and ingredients carry
// over; the photo does not.
func (s *Service) ForkRecipe(ctx context.Context, recipeID, authorID string) (Recipe, Result, error) {
	var forked Recipe
	var res Result
	err := s.instrument(ctx, "fork_recipe", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			source, ok := tx.FindRecipe(recipeID)
			if !ok {
				return ErrNotFound{Entity: EntityRecipe, ID: recipeID}
			}
			if _, ok := tx.FindUser(authorID); !ok {
				return ErrNotFound{Entity: EntityUser, ID: authorID}
			}
			copy := Recipe{
				AuthorID:     authorID,
				Title:        source.Title,
				Summary:      source.Summary,
				Instructions: append([]string(nil), source.Instructions...),
				Servings:     source.Servings,
				Tags:         append([]string(nil), source.Tags...),
				Ingredients:  append([]Ingredient(nil), source.Ingredients...),
				ForkedFromID: &source.ID,
			}
			var txErr error
			forked, txErr = tx.CreateRecipe(copy)
			return txErr
		})
		return err
	})
	return forked, res, err
}

// FavoriteRecipe bookmarks a recipe for a user.
func (s *Service) FavoriteRecipe(ctx context.Context, userID, recipeID string) (Favorite, Result, error) {
	var created Favorite
	var res Result
	err := s.instrument(ctx, "favorite_recipe", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindUser(userID); !ok {
				return ErrNotFound{Entity: EntityUser, ID: userID}
			}
			if _, ok := tx.FindRecipe(recipeID); !ok {
				return ErrNotFound{Entity: EntityRecipe, ID: recipeID}
			}
			var txErr error
			created, txErr = tx.CreateFavorite(Favorite{UserID: userID, RecipeID: recipeID})
			return txErr
		})
		return err
	})
	return created, res, err
}

// UnfavoriteRecipe removes a user's bookmark on a recipe. Removing a
// bookmark that does not exist is not an error.
func (s *Service) UnfavoriteRecipe(ctx context.Context, userID, recipeID string) (Result, error) {
	var res Result
	err := s.instrument(ctx, "unfavorite_recipe", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			for _, fav := range tx.Snapshot().ListFavorites() {
				if fav.UserID == userID && fav.RecipeID == recipeID {
					return tx.DeleteFavorite(fav.ID)
				}
			}
			return nil
		})
		return err
	})
	return res, err
}

// ListUserFavorites returns the recipes a user has bookmarked.
func (s *Service) ListUserFavorites(userID string) []Recipe {
	out := []Recipe{}
	for _, fav := range s.store.ListFavorites() {
		if fav.UserID != userID {
			continue
		}
		if recipe, ok := s.store.GetRecipe(fav.RecipeID); ok {
			out = append(out, recipe)
		}
	}
	return out
}
