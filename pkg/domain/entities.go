// Package domain defines the persistent entities, value types, and rule
// evaluation primitives used by recipealmanac.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityUser identifies a user profile record.
	EntityUser EntityType = "user"
	// EntityRecipe identifies a recipe record.
	EntityRecipe EntityType = "recipe"
	// EntityFavorite identifies a favorite (user bookmarks recipe) record.
	EntityFavorite EntityType = "favorite"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User represents a cook with a public profile.
type User struct {
	Base
	Handle      string  `json:"handle"`
	DisplayName string  `json:"display_name"`
	Bio         *string `json:"bio,omitempty"`
	AvatarKey   *string `json:"avatar_key,omitempty"`
}

// Ingredient is a recipe line item. Grams holds the canonical weight from
// which any display unit can be derived; DisplayUnit records the unit the
// author originally entered the quantity in.
type Ingredient struct {
	Name        string  `json:"name"`
	Grams       float64 `json:"grams"`
	DisplayUnit string  `json:"display_unit"`
}

// Recipe represents an authored recipe, possibly forked from another.
type Recipe struct {
	Base
	AuthorID     string       `json:"author_id"`
	Title        string       `json:"title"`
	Summary      *string      `json:"summary,omitempty"`
	Instructions []string     `json:"instructions"`
	Servings     int          `json:"servings"`
	Tags         []string     `json:"tags"`
	Ingredients  []Ingredient `json:"ingredients"`
	PhotoKey     *string      `json:"photo_key,omitempty"`
	ForkedFromID *string      `json:"forked_from_id,omitempty"`
}

// Favorite records that a user bookmarked a recipe.
type Favorite struct {
	Base
	UserID   string `json:"user_id"`
	RecipeID string `json:"recipe_id"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in the audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
