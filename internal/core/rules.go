package core

import "recipealmanac/pkg/domain"

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(UserProfileRule())
	engine.Register(RecipeShapeRule())
	engine.Register(ForkLineageRule())
	engine.Register(FavoriteIntegrityRule())
	return engine
}

// ensure rule constructors satisfy the domain contract
var (
	_ domain.Rule = userProfileRule{}
	_ domain.Rule = recipeShapeRule{}
	_ domain.Rule = forkLineageRule{}
	_ domain.Rule = favoriteIntegrityRule{}
)
