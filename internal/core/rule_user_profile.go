package core

import (
	"context"
	"fmt"
	"strings"

	"recipealmanac/pkg/domain"
)

// UserProfileRule enforces user handle constraints: handles are required and
// unique across all users.
func UserProfileRule() domain.Rule {
	return userProfileRule{}
}

type userProfileRule struct{}

func (userProfileRule) Name() string { return "user_profile" }

func (userProfileRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}

	var written []domain.User
	for _, change := range changes {
		if change.Entity != domain.EntityUser || change.After == nil {
			continue
		}
		user, ok := change.After.(domain.User)
		if !ok {
			continue
		}
		written = append(written, user)
		if strings.TrimSpace(user.Handle) == "" {
			res.Violations = append(res.Violations, userProfileViolation(user.ID, fmt.Sprintf("user %s has an empty handle", user.ID)))
		}
	}

	// duplicate handles are attributed to the user being written, never to
	// the pre-existing holder
	for _, user := range written {
		handle := strings.ToLower(strings.TrimSpace(user.Handle))
		if handle == "" {
			continue
		}
		for _, other := range view.ListUsers() {
			if other.ID == user.ID {
				continue
			}
			if strings.ToLower(strings.TrimSpace(other.Handle)) == handle {
				res.Violations = append(res.Violations, userProfileViolation(user.ID, fmt.Sprintf("handle %q is already taken by user %s", user.Handle, other.ID)))
				break
			}
		}
	}

	return res, nil
}

func userProfileViolation(entityID, message string) domain.Violation {
	return domain.Violation{
		Rule:     "user_profile",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   domain.EntityUser,
		EntityID: entityID,
	}
}
