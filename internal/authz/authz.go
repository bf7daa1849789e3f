// Package authz holds every permission rule in one auditable table.
//
// The rest of the codebase never writes its own permission conditionals:
// services build a Resource describing what is being touched and call
// Authorize(actor, action, resource). The decision is pure — no database,
// no HTTP — so the whole rule table is unit-testable in isolation.
//
// One predicate backs the recurring "contributor or author" check for
// projects, issues, and comments (ProjectScope.IsContributor), so the
// three gates cannot drift apart.
package authz

import (
	"fmt"

	"github.com/softdeskhq/softdesk/internal/apperror"
)

// Action names the operation being attempted on a resource.
type Action string

const (
	ActionRead               Action = "read"
	ActionReadContact        Action = "read_contact"
	ActionCreate             Action = "create"
	ActionUpdate             Action = "update"
	ActionDelete             Action = "delete"
	ActionUpdateStatus       Action = "update_status"
	ActionManageContributors Action = "manage_contributors"
)

// Kind names the type of resource an action targets.
type Kind string

const (
	KindUser    Kind = "user"
	KindProject Kind = "project"
	KindIssue   Kind = "issue"
	KindComment Kind = "comment"
)

// ProjectScope carries the membership facts needed to decide project-level
// access: who authored the project and which users hold an explicit
// membership row. Services load it once per request from the repository.
type ProjectScope struct {
	AuthorID  string
	MemberIDs []string
}

// IsContributor reports whether userID may act within the project.
// The author always counts as a contributor, with or without an explicit
// membership row.
func (s ProjectScope) IsContributor(userID string) bool {
	if userID == "" {
		return false
	}
	if userID == s.AuthorID {
		return true
	}
	for _, id := range s.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Resource describes the target of an access check. Only the fields
// relevant to the Kind need to be set:
//
//	user:    OwnerID (the profile's user), DataShared, ContactShared
//	project: OwnerID (author), Scope
//	issue:   OwnerID (author), AssigneeID, Scope
//	comment: OwnerID (author), Scope
type Resource struct {
	Kind          Kind
	OwnerID       string
	AssigneeID    string
	Scope         ProjectScope
	DataShared    bool
	ContactShared bool
}

// rule decides whether an actor may perform one (kind, action) pair.
type rule func(actorID string, r Resource) bool

func isOwner(actorID string, r Resource) bool       { return actorID == r.OwnerID }
func isContributor(actorID string, r Resource) bool { return r.Scope.IsContributor(actorID) }

// rules is the complete permission table. A (kind, action) pair absent
// from the table is denied — new operations must be added here explicitly.
var rules = map[Kind]map[Action]rule{
	KindUser: {
		// Own profile is always fully visible; others see it only with
		// data-sharing consent, and contact detail needs a second consent.
		ActionRead: func(actorID string, r Resource) bool {
			return isOwner(actorID, r) || r.DataShared
		},
		ActionReadContact: func(actorID string, r Resource) bool {
			return isOwner(actorID, r) || (r.DataShared && r.ContactShared)
		},
		ActionUpdate: isOwner,
		ActionDelete: isOwner,
	},
	KindProject: {
		ActionRead:               isContributor,
		ActionUpdate:             isOwner,
		ActionDelete:             isOwner,
		ActionManageContributors: isOwner,
	},
	KindIssue: {
		ActionCreate: isContributor,
		ActionRead:   isContributor,
		ActionUpdate: isOwner,
		ActionDelete: isOwner,
		// Status is the one field the assignee may change too.
		ActionUpdateStatus: func(actorID string, r Resource) bool {
			return isOwner(actorID, r) || (r.AssigneeID != "" && actorID == r.AssigneeID)
		},
	},
	KindComment: {
		ActionCreate: isContributor,
		ActionRead:   isContributor,
		ActionUpdate: isOwner,
		ActionDelete: isOwner,
	},
}

// Authorize returns nil if the actor may perform the action on the
// resource, or an apperror.Forbidden describing the denial otherwise.
func Authorize(actorID string, action Action, r Resource) error {
	kindRules, ok := rules[r.Kind]
	if !ok {
		return apperror.Forbidden(fmt.Sprintf("no permissions defined for resource %q", r.Kind))
	}
	allow, ok := kindRules[action]
	if !ok {
		return apperror.Forbidden(fmt.Sprintf("%s is not permitted on %s", action, r.Kind))
	}
	if !allow(actorID, r) {
		return apperror.Forbidden(fmt.Sprintf("you are not allowed to %s this %s", action, r.Kind))
	}
	return nil
}
