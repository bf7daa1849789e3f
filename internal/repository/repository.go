// Package repository defines the storage interfaces consumed by the
// service layer. The sqlite subpackage provides the concrete
// implementation; services only ever see these interfaces.
package repository

import (
	"context"

	"github.com/softdeskhq/softdesk/internal/model"
)

// ListOptions carries pagination for list queries.
type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository persists accounts. Create returns apperror.Conflict when
// the username is already taken.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context, opts ListOptions) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}

// ProjectRepository persists projects and their contributor memberships.
//
// Create inserts the project, the author's implicit membership, and one
// membership per contributor ID in a single transaction. Deleting a
// project cascades to its memberships, issues, and those issues' comments
// (enforced by the schema).
type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project, contributorIDs []string) error
	GetByID(ctx context.Context, id string) (*model.Project, error)
	ListVisible(ctx context.Context, userID string, opts ListOptions) ([]model.Project, error)
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id string) error

	// AddContributor returns apperror.Conflict if the (project, user)
	// pair already exists; RemoveContributor returns apperror.NotFound
	// if it does not.
	AddContributor(ctx context.Context, projectID, userID string) (*model.Contributor, error)
	RemoveContributor(ctx context.Context, projectID, userID string) error
	ListContributors(ctx context.Context, projectID string) ([]model.Contributor, error)
}

// IssueRepository persists issues. ListVisible returns issues belonging to
// projects the user authored or holds a membership in.
type IssueRepository interface {
	Create(ctx context.Context, issue *model.Issue) error
	GetByID(ctx context.Context, id string) (*model.Issue, error)
	ListByProject(ctx context.Context, projectID string) ([]model.Issue, error)
	ListVisible(ctx context.Context, userID string, opts ListOptions) ([]model.Issue, error)
	Update(ctx context.Context, issue *model.Issue) error
	Delete(ctx context.Context, id string) error
}

// CommentRepository persists comments. ListVisible applies the same
// project-visibility rule as issues, one join further out.
type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, id string) (*model.Comment, error)
	ListByIssue(ctx context.Context, issueID string) ([]model.Comment, error)
	ListVisible(ctx context.Context, userID string, opts ListOptions) ([]model.Comment, error)
	Update(ctx context.Context, comment *model.Comment) error
	Delete(ctx context.Context, id string) error
}
