package core

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"recipealmanac/pkg/domain"
)

type memoryState struct {
	users     map[string]User
	recipes   map[string]Recipe
	favorites map[string]Favorite
}

func newMemoryState() memoryState {
	return memoryState{
		users:     make(map[string]User),
		recipes:   make(map[string]Recipe),
		favorites: make(map[string]Favorite),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.users {
		cloned.users[k] = cloneUser(v)
	}
	for k, v := range s.recipes {
		cloned.recipes[k] = cloneRecipe(v)
	}
	for k, v := range s.favorites {
		cloned.favorites[k] = cloneFavorite(v)
	}
	return cloned
}

func cloneUser(u User) User { return u }

func cloneRecipe(r Recipe) Recipe {
	cp := r
	cp.Instructions = append([]string(nil), r.Instructions...)
	cp.Tags = append([]string(nil), r.Tags...)
	cp.Ingredients = append([]Ingredient(nil), r.Ingredients...)
	return cp
}

func cloneFavorite(f Favorite) Favorite { return f }

// Snapshot is a serializable full-state copy used by durable drivers.
type Snapshot struct {
	Users     []User     `json:"users"`
	Recipes   []Recipe   `json:"recipes"`
	Favorites []Favorite `json:"favorites"`
}

// MemoryStore provides an in-memory transactional store for the core domain.
type MemoryStore struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*MemoryStore)(nil)

// NewMemoryStore constructs an in-memory store backed by the provided rules engine.
func NewMemoryStore(engine *RulesEngine) *MemoryStore {
	if engine == nil {
		engine = NewRulesEngine()
	}
	return &MemoryStore{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// Engine returns the rules engine evaluated at commit time.
func (s *MemoryStore) Engine() *RulesEngine { return s.engine }

func (s *MemoryStore) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// transaction is the mutation set applied to the store state.
type transaction struct {
	store   *MemoryStore
	state   memoryState
	changes []Change
	now     time.Time
}

var _ domain.Transaction = (*transaction)(nil)

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
}

var _ domain.TransactionView = transactionView{}
var _ domain.RuleView = transactionView{}

// ListUsers returns all users within the snapshot.
func (v transactionView) ListUsers() []User {
	out := make([]User, 0, len(v.state.users))
	for _, u := range v.state.users {
		out = append(out, cloneUser(u))
	}
	return out
}

// ListRecipes returns all recipes within the snapshot.
func (v transactionView) ListRecipes() []Recipe {
	out := make([]Recipe, 0, len(v.state.recipes))
	for _, r := range v.state.recipes {
		out = append(out, cloneRecipe(r))
	}
	return out
}

// ListFavorites returns all favorites within the snapshot.
func (v transactionView) ListFavorites() []Favorite {
	out := make([]Favorite, 0, len(v.state.favorites))
	for _, f := range v.state.favorites {
		out = append(out, cloneFavorite(f))
	}
	return out
}

// FindUser retrieves a user by ID from the snapshot.
func (v transactionView) FindUser(id string) (User, bool) {
	u, ok := v.state.users[id]
	if !ok {
		return User{}, false
	}
	return cloneUser(u), true
}

// FindRecipe retrieves a recipe by ID from the snapshot.
func (v transactionView) FindRecipe(id string) (Recipe, bool) {
	r, ok := v.state.recipes[id]
	if !ok {
		return Recipe{}, false
	}
	return cloneRecipe(r), true
}

// RunInTransaction executes fn within a transactional copy of the store state.
// Registered rules are evaluated against the resulting snapshot before commit;
// a blocking violation aborts the transaction with RuleViolationError.
func (s *MemoryStore) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := transactionView{state: &tx.state}
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *MemoryStore) View(ctx context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(transactionView{state: &snapshot})
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot exposes the transactional state as a read-only view.
func (tx *transaction) Snapshot() TransactionView {
	return transactionView{state: &tx.state}
}

// CreateUser stores a new user within the transaction.
func (tx *transaction) CreateUser(u User) (User, error) {
	if u.ID == "" {
		u.ID = tx.store.newID()
	}
	if _, exists := tx.state.users[u.ID]; exists {
		return User{}, fmt.Errorf("user %q already exists", u.ID)
	}
	u.CreatedAt = tx.now
	u.UpdatedAt = tx.now
	tx.state.users[u.ID] = cloneUser(u)
	tx.recordChange(Change{Entity: EntityUser, Action: ActionCreate, After: cloneUser(u)})
	return cloneUser(u), nil
}

// UpdateUser mutates a user using the provided mutator function.
func (tx *transaction) UpdateUser(id string, mutator func(*User) error) (User, error) {
	current, ok := tx.state.users[id]
	if !ok {
		return User{}, ErrNotFound{Entity: EntityUser, ID: id}
	}
	before := cloneUser(current)
	if err := mutator(&current); err != nil {
		return User{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.users[id] = cloneUser(current)
	tx.recordChange(Change{Entity: EntityUser, Action: ActionUpdate, Before: before, After: cloneUser(current)})
	return cloneUser(current), nil
}

// DeleteUser removes a user from the transaction state.
func (tx *transaction) DeleteUser(id string) error {
	current, ok := tx.state.users[id]
	if !ok {
		return ErrNotFound{Entity: EntityUser, ID: id}
	}
	delete(tx.state.users, id)
	tx.recordChange(Change{Entity: EntityUser, Action: ActionDelete, Before: cloneUser(current)})
	return nil
}

// CreateRecipe stores a new recipe within the transaction.
func (tx *transaction) CreateRecipe(r Recipe) (Recipe, error) {
	if r.ID == "" {
		r.ID = tx.store.newID()
	}
	if _, exists := tx.state.recipes[r.ID]; exists {
		return Recipe{}, fmt.Errorf("recipe %q already exists", r.ID)
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	if r.Ingredients == nil {
		r.Ingredients = []Ingredient{}
	}
	tx.state.recipes[r.ID] = cloneRecipe(r)
	tx.recordChange(Change{Entity: EntityRecipe, Action: ActionCreate, After: cloneRecipe(r)})
	return cloneRecipe(r), nil
}

// UpdateRecipe mutates a recipe using the provided mutator function.
func (tx *transaction) UpdateRecipe(id string, mutator func(*Recipe) error) (Recipe, error) {
	current, ok := tx.state.recipes[id]
	if !ok {
		return Recipe{}, ErrNotFound{Entity: EntityRecipe, ID: id}
	}
	before := cloneRecipe(current)
	if err := mutator(&current); err != nil {
		return Recipe{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.recipes[id] = cloneRecipe(current)
	tx.recordChange(Change{Entity: EntityRecipe, Action: ActionUpdate, Before: before, After: cloneRecipe(current)})
	return cloneRecipe(current), nil
}

// DeleteRecipe removes a recipe from the transaction state.
func (tx *transaction) DeleteRecipe(id string) error {
	current, ok := tx.state.recipes[id]
	if !ok {
		return ErrNotFound{Entity: EntityRecipe, ID: id}
	}
	delete(tx.state.recipes, id)
	tx.recordChange(Change{Entity: EntityRecipe, Action: ActionDelete, Before: cloneRecipe(current)})
	return nil
}

// CreateFavorite stores a new favorite record.
func (tx *transaction) CreateFavorite(f Favorite) (Favorite, error) {
	if f.ID == "" {
		f.ID = tx.store.newID()
	}
	if _, exists := tx.state.favorites[f.ID]; exists {
		return Favorite{}, fmt.Errorf("favorite %q already exists", f.ID)
	}
	f.CreatedAt = tx.now
	f.UpdatedAt = tx.now
	tx.state.favorites[f.ID] = cloneFavorite(f)
	tx.recordChange(Change{Entity: EntityFavorite, Action: ActionCreate, After: cloneFavorite(f)})
	return cloneFavorite(f), nil
}

// DeleteFavorite removes a favorite record.
func (tx *transaction) DeleteFavorite(id string) error {
	current, ok := tx.state.favorites[id]
	if !ok {
		return ErrNotFound{Entity: EntityFavorite, ID: id}
	}
	delete(tx.state.favorites, id)
	tx.recordChange(Change{Entity: EntityFavorite, Action: ActionDelete, Before: cloneFavorite(current)})
	return nil
}

// FindUser retrieves a user by ID from the transactional state.
func (tx *transaction) FindUser(id string) (User, bool) {
	return tx.Snapshot().FindUser(id)
}

// FindRecipe retrieves a recipe by ID from the transactional state.
func (tx *transaction) FindRecipe(id string) (Recipe, bool) {
	return tx.Snapshot().FindRecipe(id)
}

// Read helpers ---------------------------------------------------------------

// GetUser retrieves a user by ID from committed state.
func (s *MemoryStore) GetUser(id string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.state.users[id]
	if !ok {
		return User{}, false
	}
	return cloneUser(u), true
}

// ListUsers returns all users from committed state.
func (s *MemoryStore) ListUsers() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.state.users))
	for _, u := range s.state.users {
		out = append(out, cloneUser(u))
	}
	return out
}

// GetRecipe retrieves a recipe by ID from committed state.
func (s *MemoryStore) GetRecipe(id string) (Recipe, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.state.recipes[id]
	if !ok {
		return Recipe{}, false
	}
	return cloneRecipe(r), true
}

// ListRecipes returns all recipes from committed state.
func (s *MemoryStore) ListRecipes() []Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Recipe, 0, len(s.state.recipes))
	for _, r := range s.state.recipes {
		out = append(out, cloneRecipe(r))
	}
	return out
}

// ListFavorites returns all favorites from committed state.
func (s *MemoryStore) ListFavorites() []Favorite {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Favorite, 0, len(s.state.favorites))
	for _, f := range s.state.favorites {
		out = append(out, cloneFavorite(f))
	}
	return out
}

// ExportState returns a serializable copy of the committed state.
func (s *MemoryStore) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := Snapshot{
		Users:     make([]User, 0, len(s.state.users)),
		Recipes:   make([]Recipe, 0, len(s.state.recipes)),
		Favorites: make([]Favorite, 0, len(s.state.favorites)),
	}
	for _, u := range s.state.users {
		snapshot.Users = append(snapshot.Users, cloneUser(u))
	}
	for _, r := range s.state.recipes {
		snapshot.Recipes = append(snapshot.Recipes, cloneRecipe(r))
	}
	for _, f := range s.state.favorites {
		snapshot.Favorites = append(snapshot.Favorites, cloneFavorite(f))
	}
	return snapshot
}

// ImportState replaces committed state with the snapshot contents. Used by
// durable drivers to rehydrate on open.
func (s *MemoryStore) ImportState(snapshot Snapshot) {
	state := newMemoryState()
	for _, u := range snapshot.Users {
		state.users[u.ID] = cloneUser(u)
	}
	for _, r := range snapshot.Recipes {
		state.recipes[r.ID] = cloneRecipe(r)
	}
	for _, f := range snapshot.Favorites {
		state.favorites[f.ID] = cloneFavorite(f)
	}
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
