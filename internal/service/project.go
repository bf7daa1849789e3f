package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/softdeskhq/softdesk/internal/apperror"
	"github.com/softdeskhq/softdesk/internal/authz"
	"github.com/softdeskhq/softdesk/internal/model"
	"github.com/softdeskhq/softdesk/internal/repository"
)

const maxProjectNameLength = 255

// ProjectService handles projects and their contributor memberships.
type ProjectService struct {
	projects repository.ProjectRepository
	users    repository.UserRepository
	issues   repository.IssueRepository
	logger   *slog.Logger
}

// NewProjectService creates a ProjectService.
func NewProjectService(
	projects repository.ProjectRepository,
	users repository.UserRepository,
	issues repository.IssueRepository,
	logger *slog.Logger,
) *ProjectService {
	return &ProjectService{projects: projects, users: users, issues: issues, logger: logger}
}

// ProjectSummary is the reduced list shape: identity plus who is involved.
type ProjectSummary struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Author       string   `json:"author"`
	Contributors []string `json:"contributors"`
}

// ProjectDetail is the retrieve shape: the full project plus reduced
// summaries of its issues.
type ProjectDetail struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Type         model.ProjectType `json:"type"`
	Author       string            `json:"author"`
	Contributors []string          `json:"contributors"`
	CreatedAt    time.Time         `json:"createdAt"`
	Issues       []IssueSummary    `json:"issues"`
}

// IssueSummary is the reduced issue shape nested in ProjectDetail.
type IssueSummary struct {
	Title    string              `json:"title"`
	Author   string              `json:"author"`
	Assignee string              `json:"assignee,omitempty"`
	Priority model.IssuePriority `json:"priority"`
}

// CreateProjectInput carries the new project's fields plus the usernames
// to register as contributors alongside the author.
type CreateProjectInput struct {
	Name         string
	Description  string
	Type         model.ProjectType
	Contributors []string
}

// Create validates the fields, resolves every contributor username, and
// creates the project with its memberships in one transaction. The caller
// becomes the author and an implicit contributor. An unresolvable
// username fails the whole call with NotFound and nothing is created.
func (s *ProjectService) Create(ctx context.Context, actorID string, in CreateProjectInput) (*ProjectDetail, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "project name is required")
	}
	if len(name) > maxProjectNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("project name must be %d characters or less", maxProjectNameLength))
	}
	if !in.Type.Valid() {
		return nil, apperror.ValidationFailed("type",
			"type must be one of BACK_END, FRONT_END, IOS, ANDROID")
	}

	contributorIDs := make([]string, 0, len(in.Contributors))
	for _, username := range in.Contributors {
		user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
		if err != nil {
			return nil, err // NotFound names the missing username
		}
		contributorIDs = append(contributorIDs, user.ID)
	}

	project := &model.Project{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Type:        in.Type,
		AuthorID:    actorID,
	}

	if err := s.projects.Create(ctx, project, contributorIDs); err != nil {
		return nil, err
	}

	s.logger.Info("project created",
		slog.String("projectID", project.ID),
		slog.String("authorID", actorID),
	)

	return s.detail(ctx, project)
}

// Get returns the full project shape. Readable by any contributor.
func (s *ProjectService) Get(ctx context.Context, actorID, projectID string) (*ProjectDetail, error) {
	project, scope, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if err := authz.Authorize(actorID, authz.ActionRead, projectResource(project, scope)); err != nil {
		return nil, err
	}

	return s.detail(ctx, project)
}

// List returns the reduced shape for every project the actor can view.
func (s *ProjectService) List(ctx context.Context, actorID string, limit, offset int) ([]ProjectSummary, error) {
	projects, err := s.projects.ListVisible(ctx, actorID, repository.ListOptions{
		Limit:  clampLimit(limit),
		Offset: clampOffset(offset),
	})
	if err != nil {
		return nil, fmt.Errorf("service/project: listing projects: %w", err)
	}

	summaries := []ProjectSummary{}
	for i := range projects {
		summary, err := s.summary(ctx, &projects[i])
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}

	return summaries, nil
}

// UpdateProjectInput carries a partial project edit; nil means unchanged.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	Type        *model.ProjectType
}

// Update edits project fields. Author only; the author itself is
// immutable.
func (s *ProjectService) Update(ctx context.Context, actorID, projectID string, in UpdateProjectInput) (*ProjectDetail, error) {
	project, scope, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if err := authz.Authorize(actorID, authz.ActionUpdate, projectResource(project, scope)); err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperror.ValidationFailed("name", "project name cannot be empty")
		}
		if len(name) > maxProjectNameLength {
			return nil, apperror.ValidationFailed("name",
				fmt.Sprintf("project name must be %d characters or less", maxProjectNameLength))
		}
		project.Name = name
	}
	if in.Description != nil {
		project.Description = strings.TrimSpace(*in.Description)
	}
	if in.Type != nil {
		if !in.Type.Valid() {
			return nil, apperror.ValidationFailed("type",
				"type must be one of BACK_END, FRONT_END, IOS, ANDROID")
		}
		project.Type = *in.Type
	}

	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("project updated", slog.String("projectID", project.ID))

	return s.detail(ctx, project)
}

// Delete removes a project and, by cascade, its memberships, issues, and
// comments. Author only.
func (s *ProjectService) Delete(ctx context.Context, actorID, projectID string) error {
	project, scope, err := s.load(ctx, projectID)
	if err != nil {
		return err
	}

	if err := authz.Authorize(actorID, authz.ActionDelete, projectResource(project, scope)); err != nil {
		return err
	}

	if err := s.projects.Delete(ctx, projectID); err != nil {
		return err
	}

	s.logger.Info("project deleted", slog.String("projectID", projectID))

	return nil
}

// AddContributors registers the named users as contributors. Author only.
// Idempotent per username — already-members are skipped, and the returned
// slice holds only the usernames actually added.
func (s *ProjectService) AddContributors(ctx context.Context, actorID, projectID string, usernames []string) ([]string, error) {
	project, scope, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if err := authz.Authorize(actorID, authz.ActionManageContributors, projectResource(project, scope)); err != nil {
		return nil, err
	}

	added := []string{}
	for _, username := range usernames {
		user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
		if err != nil {
			return nil, err
		}

		if _, err := s.projects.AddContributor(ctx, projectID, user.ID); err != nil {
			if errors.Is(err, apperror.ErrConflict) {
				continue // already a member — skip silently
			}
			return nil, err
		}
		added = append(added, user.Username)
	}

	s.logger.Info("contributors added",
		slog.String("projectID", projectID),
		slog.Int("count", len(added)),
	)

	return added, nil
}

// RemoveContributors drops the named users' memberships. Author only.
// A username that does not resolve, or resolves to a non-member, fails
// with NotFound; memberships removed before the failure stay removed.
// Removing the author is refused — their access is structural, and
// dropping their bookkeeping row would only make listings lie.
func (s *ProjectService) RemoveContributors(ctx context.Context, actorID, projectID string, usernames []string) ([]string, error) {
	project, scope, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if err := authz.Authorize(actorID, authz.ActionManageContributors, projectResource(project, scope)); err != nil {
		return nil, err
	}

	removed := []string{}
	for _, username := range usernames {
		user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
		if err != nil {
			return nil, err
		}
		if user.ID == project.AuthorID {
			return nil, apperror.ValidationFailed("contributors",
				"the project author cannot be removed from their own project")
		}

		if err := s.projects.RemoveContributor(ctx, projectID, user.ID); err != nil {
			return nil, err
		}
		removed = append(removed, user.Username)
	}

	s.logger.Info("contributors removed",
		slog.String("projectID", projectID),
		slog.Int("count", len(removed)),
	)

	return removed, nil
}

// load fetches a project together with its membership scope.
func (s *ProjectService) load(ctx context.Context, projectID string) (*model.Project, authz.ProjectScope, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, authz.ProjectScope{}, err
	}

	scope, err := s.scope(ctx, project)
	if err != nil {
		return nil, authz.ProjectScope{}, err
	}

	return project, scope, nil
}

func (s *ProjectService) scope(ctx context.Context, project *model.Project) (authz.ProjectScope, error) {
	contributors, err := s.projects.ListContributors(ctx, project.ID)
	if err != nil {
		return authz.ProjectScope{}, fmt.Errorf("service/project: loading members of %s: %w", project.ID, err)
	}

	memberIDs := make([]string, 0, len(contributors))
	for _, c := range contributors {
		memberIDs = append(memberIDs, c.UserID)
	}

	return authz.ProjectScope{AuthorID: project.AuthorID, MemberIDs: memberIDs}, nil
}

func (s *ProjectService) summary(ctx context.Context, project *model.Project) (*ProjectSummary, error) {
	author, contributors, err := s.names(ctx, project)
	if err != nil {
		return nil, err
	}

	return &ProjectSummary{
		ID:           project.ID,
		Name:         project.Name,
		Author:       author,
		Contributors: contributors,
	}, nil
}

func (s *ProjectService) detail(ctx context.Context, project *model.Project) (*ProjectDetail, error) {
	author, contributors, err := s.names(ctx, project)
	if err != nil {
		return nil, err
	}

	issues, err := s.issues.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("service/project: loading issues of %s: %w", project.ID, err)
	}

	summaries := make([]IssueSummary, 0, len(issues))
	for _, issue := range issues {
		summary := IssueSummary{Title: issue.Title, Priority: issue.Priority}
		if summary.Author, err = s.username(ctx, issue.AuthorID); err != nil {
			return nil, err
		}
		if issue.AssigneeID != "" {
			if summary.Assignee, err = s.username(ctx, issue.AssigneeID); err != nil {
				return nil, err
			}
		}
		summaries = append(summaries, summary)
	}

	return &ProjectDetail{
		ID:           project.ID,
		Name:         project.Name,
		Description:  project.Description,
		Type:         project.Type,
		Author:       author,
		Contributors: contributors,
		CreatedAt:    project.CreatedAt,
		Issues:       summaries,
	}, nil
}

// names resolves the author username and the contributor username list.
func (s *ProjectService) names(ctx context.Context, project *model.Project) (string, []string, error) {
	author, err := s.username(ctx, project.AuthorID)
	if err != nil {
		return "", nil, err
	}

	contributors, err := s.projects.ListContributors(ctx, project.ID)
	if err != nil {
		return "", nil, fmt.Errorf("service/project: loading members of %s: %w", project.ID, err)
	}

	usernames := make([]string, 0, len(contributors))
	for _, c := range contributors {
		name, err := s.username(ctx, c.UserID)
		if err != nil {
			return "", nil, err
		}
		usernames = append(usernames, name)
	}

	return author, usernames, nil
}

func (s *ProjectService) username(ctx context.Context, userID string) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("service/project: resolving username of %s: %w", userID, err)
	}
	return user.Username, nil
}

func projectResource(project *model.Project, scope authz.ProjectScope) authz.Resource {
	return authz.Resource{
		Kind:    authz.KindProject,
		OwnerID: project.AuthorID,
		Scope:   scope,
	}
}
