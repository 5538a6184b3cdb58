package core

import (
	"context"
	"fmt"

	"recipealmanac/pkg/domain"
)

// ForkLineageRule enforces fork ancestry constraints: a recipe claiming a
// fork parent must reference an existing recipe other than itself.
func ForkLineageRule() domain.Rule {
	return forkLineageRule{}
}

type forkLineageRule struct{}

func (forkLineageRule) Name() string { return "fork_lineage" }

func (forkLineageRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}

	for _, change := range changes {
		if change.Entity != domain.EntityRecipe || change.After == nil {
			continue
		}
		recipe, ok := change.After.(domain.Recipe)
		if !ok || recipe.ForkedFromID == nil {
			continue
		}
		parentID := *recipe.ForkedFromID
		if parentID == recipe.ID {
			res.Violations = append(res.Violations, forkLineageViolation(recipe.ID, fmt.Sprintf("recipe %s references itself as fork parent", recipe.ID)))
			continue
		}
		if _, ok := view.FindRecipe(parentID); !ok {
			res.Violations = append(res.Violations, forkLineageViolation(recipe.ID, fmt.Sprintf("recipe %s references missing fork parent %s", recipe.ID, parentID)))
		}
	}

	return res, nil
}

func forkLineageViolation(entityID, message string) domain.Violation {
	return domain.Violation{
		Rule:     "fork_lineage",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   domain.EntityRecipe,
		EntityID: entityID,
	}
}
