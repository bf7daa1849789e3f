package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/softdeskhq/softdesk/internal/apperror"
	"github.com/softdeskhq/softdesk/internal/authz"
	"github.com/softdeskhq/softdesk/internal/model"
	"github.com/softdeskhq/softdesk/internal/repository"
)

const maxIssueTitleLength = 255

// IssueService handles the issue lifecycle: creation by contributors,
// field edits by the author, status updates by the author or assignee.
type IssueService struct {
	issues   repository.IssueRepository
	projects repository.ProjectRepository
	users    repository.UserRepository
	logger   *slog.Logger
}

// NewIssueService creates an IssueService.
func NewIssueService(
	issues repository.IssueRepository,
	projects repository.ProjectRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *IssueService {
	return &IssueService{issues: issues, projects: projects, users: users, logger: logger}
}

// IssueView is the API shape of an issue: author and assignee appear as
// usernames, never internal IDs.
type IssueView struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	ProjectID   string              `json:"projectId"`
	Author      string              `json:"author"`
	Assignee    string              `json:"assignee,omitempty"`
	Status      model.IssueStatus   `json:"status"`
	Priority    model.IssuePriority `json:"priority"`
	Tag         model.IssueTag      `json:"tag"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// CreateIssueInput carries a new issue. Assignee is an optional username;
// Status and Priority fall back to TODO and MEDIUM when empty.
type CreateIssueInput struct {
	ProjectID   string
	Title       string
	Description string
	Assignee    string
	Status      model.IssueStatus
	Priority    model.IssuePriority
	Tag         model.IssueTag
}

// Create files a new issue on a project.
//
// The requester must be a contributor (or the author) of the project. If
// an assignee is named, they must be a contributor too — assigning work
// to a stranger is a validation error, not a permission one.
func (s *IssueService) Create(ctx context.Context, actorID string, in CreateIssueInput) (*IssueView, error) {
	project, scope, err := s.load(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}

	createRes := authz.Resource{Kind: authz.KindIssue, Scope: scope}
	if err := authz.Authorize(actorID, authz.ActionCreate, createRes); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "issue title is required")
	}
	if len(title) > maxIssueTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("issue title must be %d characters or less", maxIssueTitleLength))
	}

	if in.Status == "" {
		in.Status = model.StatusTodo
	}
	if !in.Status.Valid() {
		return nil, apperror.ValidationFailed("status", "status must be one of TODO, IN_PROGRESS, DONE")
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, apperror.ValidationFailed("priority", "priority must be one of LOW, MEDIUM, HIGH")
	}
	if !in.Tag.Valid() {
		return nil, apperror.ValidationFailed("tag", "tag must be one of BUG, TASK, IMPROVEMENT")
	}

	assigneeID := ""
	if in.Assignee != "" {
		assigneeID, err = s.resolveAssignee(ctx, in.Assignee, scope)
		if err != nil {
			return nil, err
		}
	}

	issue := &model.Issue{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		ProjectID:   project.ID,
		AuthorID:    actorID,
		AssigneeID:  assigneeID,
		Status:      in.Status,
		Priority:    in.Priority,
		Tag:         in.Tag,
	}

	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, err
	}

	s.logger.Info("issue created",
		slog.String("issueID", issue.ID),
		slog.String("projectID", project.ID),
		slog.String("authorID", actorID),
	)

	return s.view(ctx, issue)
}

// Get returns an issue. Readable by any contributor of its project.
func (s *IssueService) Get(ctx context.Context, actorID, issueID string) (*IssueView, error) {
	issue, scope, err := s.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}

	if err := authz.Authorize(actorID, authz.ActionRead, issueResource(issue, scope)); err != nil {
		return nil, err
	}

	return s.view(ctx, issue)
}

// List returns issues in every project the actor can view.
func (s *IssueService) List(ctx context.Context, actorID string, limit, offset int) ([]IssueView, error) {
	issues, err := s.issues.ListVisible(ctx, actorID, repository.ListOptions{
		Limit:  clampLimit(limit),
		Offset: clampOffset(offset),
	})
	if err != nil {
		return nil, fmt.Errorf("service/issue: listing issues: %w", err)
	}

	views := []IssueView{}
	for i := range issues {
		v, err := s.view(ctx, &issues[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}

	return views, nil
}

// UpdateIssueInput carries a partial issue edit; nil means unchanged.
// Setting Assignee to a pointer at "" clears the assignment.
type UpdateIssueInput struct {
	Title       *string
	Description *string
	Assignee    *string
	Status      *model.IssueStatus
	Priority    *model.IssuePriority
	Tag         *model.IssueTag
}

// Update edits issue fields. Issue author only — the assignee's one write
// right is UpdateStatus. A new assignee must be a project contributor.
func (s *IssueService) Update(ctx context.Context, actorID, issueID string, in UpdateIssueInput) (*IssueView, error) {
	issue, scope, err := s.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}

	if err := authz.Authorize(actorID, authz.ActionUpdate, issueResource(issue, scope)); err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperror.ValidationFailed("title", "issue title cannot be empty")
		}
		if len(title) > maxIssueTitleLength {
			return nil, apperror.ValidationFailed("title",
				fmt.Sprintf("issue title must be %d characters or less", maxIssueTitleLength))
		}
		issue.Title = title
	}
	if in.Description != nil {
		issue.Description = strings.TrimSpace(*in.Description)
	}
	if in.Assignee != nil {
		if *in.Assignee == "" {
			issue.AssigneeID = ""
		} else {
			assigneeID, err := s.resolveAssignee(ctx, *in.Assignee, scope)
			if err != nil {
				return nil, err
			}
			issue.AssigneeID = assigneeID
		}
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperror.ValidationFailed("status", "status must be one of TODO, IN_PROGRESS, DONE")
		}
		issue.Status = *in.Status
	}
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return nil, apperror.ValidationFailed("priority", "priority must be one of LOW, MEDIUM, HIGH")
		}
		issue.Priority = *in.Priority
	}
	if in.Tag != nil {
		if !in.Tag.Valid() {
			return nil, apperror.ValidationFailed("tag", "tag must be one of BUG, TASK, IMPROVEMENT")
		}
		issue.Tag = *in.Tag
	}

	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, err
	}

	s.logger.Info("issue updated", slog.String("issueID", issue.ID))

	return s.view(ctx, issue)
}

// UpdateStatus moves the issue to a new workflow status. The current
// assignee and the issue author may do this; nobody else.
func (s *IssueService) UpdateStatus(ctx context.Context, actorID, issueID string, status model.IssueStatus) (*IssueView, error) {
	issue, scope, err := s.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}

	if err := authz.Authorize(actorID, authz.ActionUpdateStatus, issueResource(issue, scope)); err != nil {
		return nil, err
	}

	if !status.Valid() {
		return nil, apperror.ValidationFailed("status", "status must be one of TODO, IN_PROGRESS, DONE")
	}

	issue.Status = status
	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, err
	}

	s.logger.Info("issue status updated",
		slog.String("issueID", issue.ID),
		slog.String("status", string(status)),
	)

	return s.view(ctx, issue)
}

// Delete removes an issue and its comments. Issue author only.
func (s *IssueService) Delete(ctx context.Context, actorID, issueID string) error {
	issue, scope, err := s.loadIssue(ctx, issueID)
	if err != nil {
		return err
	}

	if err := authz.Authorize(actorID, authz.ActionDelete, issueResource(issue, scope)); err != nil {
		return err
	}

	if err := s.issues.Delete(ctx, issueID); err != nil {
		return err
	}

	s.logger.Info("issue deleted", slog.String("issueID", issueID))

	return nil
}

// resolveAssignee maps an assignee username to a user ID, requiring them
// to be a contributor (or the author) of the project.
func (s *IssueService) resolveAssignee(ctx context.Context, username string, scope authz.ProjectScope) (string, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", apperror.ValidationFailed("assignee",
			fmt.Sprintf("assignee %q does not exist", username))
	}
	if !scope.IsContributor(user.ID) {
		return "", apperror.ValidationFailed("assignee",
			fmt.Sprintf("assignee %q is not a contributor of this project", username))
	}
	return user.ID, nil
}

// load fetches the project and its membership scope.
func (s *IssueService) load(ctx context.Context, projectID string) (*model.Project, authz.ProjectScope, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, authz.ProjectScope{}, err
	}

	contributors, err := s.projects.ListContributors(ctx, project.ID)
	if err != nil {
		return nil, authz.ProjectScope{}, fmt.Errorf("service/issue: loading members of %s: %w", project.ID, err)
	}

	memberIDs := make([]string, 0, len(contributors))
	for _, c := range contributors {
		memberIDs = append(memberIDs, c.UserID)
	}

	return project, authz.ProjectScope{AuthorID: project.AuthorID, MemberIDs: memberIDs}, nil
}

// loadIssue fetches an issue together with its project's scope.
func (s *IssueService) loadIssue(ctx context.Context, issueID string) (*model.Issue, authz.ProjectScope, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, authz.ProjectScope{}, err
	}

	_, scope, err := s.load(ctx, issue.ProjectID)
	if err != nil {
		return nil, authz.ProjectScope{}, err
	}

	return issue, scope, nil
}

func (s *IssueService) view(ctx context.Context, issue *model.Issue) (*IssueView, error) {
	v := &IssueView{
		ID:          issue.ID,
		Title:       issue.Title,
		Description: issue.Description,
		ProjectID:   issue.ProjectID,
		Status:      issue.Status,
		Priority:    issue.Priority,
		Tag:         issue.Tag,
		CreatedAt:   issue.CreatedAt,
		UpdatedAt:   issue.UpdatedAt,
	}

	author, err := s.users.GetByID(ctx, issue.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("service/issue: resolving author of %s: %w", issue.ID, err)
	}
	v.Author = author.Username

	if issue.AssigneeID != "" {
		assignee, err := s.users.GetByID(ctx, issue.AssigneeID)
		if err != nil {
			return nil, fmt.Errorf("service/issue: resolving assignee of %s: %w", issue.ID, err)
		}
		v.Assignee = assignee.Username
	}

	return v, nil
}

func issueResource(issue *model.Issue, scope authz.ProjectScope) authz.Resource {
	return authz.Resource{
		Kind:       authz.KindIssue,
		OwnerID:    issue.AuthorID,
		AssigneeID: issue.AssigneeID,
		Scope:      scope,
	}
}
