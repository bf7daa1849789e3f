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

const maxCommentLength = 10000

// CommentService handles the comment lifecycle. Creation follows the
// issue's project membership; edits and deletes are author-only.
type CommentService struct {
	comments repository.CommentRepository
	issues   repository.IssueRepository
	projects repository.ProjectRepository
	users    repository.UserRepository
	logger   *slog.Logger
}

// NewCommentService creates a CommentService.
func NewCommentService(
	comments repository.CommentRepository,
	issues repository.IssueRepository,
	projects repository.ProjectRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *CommentService {
	return &CommentService{
		comments: comments,
		issues:   issues,
		projects: projects,
		users:    users,
		logger:   logger,
	}
}

// CommentView is the API shape of a comment; the author appears as a
// username.
type CommentView struct {
	ID        string    `json:"id"`
	IssueID   string    `json:"issueId"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Create adds a comment to an issue. The requester must be a contributor
// (or the author) of the issue's project.
func (s *CommentService) Create(ctx context.Context, actorID, issueID, content string) (*CommentView, error) {
	_, scope, err := s.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}

	createRes := authz.Resource{Kind: authz.KindComment, Scope: scope}
	if err := authz.Authorize(actorID, authz.ActionCreate, createRes); err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "comment content is required")
	}
	if len(content) > maxCommentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("comment must be %d characters or less", maxCommentLength))
	}

	comment := &model.Comment{
		IssueID:  issueID,
		AuthorID: actorID,
		Content:  content,
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.logger.Info("comment created",
		slog.String("commentID", comment.ID),
		slog.String("issueID", issueID),
	)

	return s.view(ctx, comment)
}

// Get returns a comment. Readable by any contributor of the issue's
// project.
func (s *CommentService) Get(ctx context.Context, actorID, commentID string) (*CommentView, error) {
	comment, scope, err := s.loadComment(ctx, commentID)
	if err != nil {
		return nil, err
	}

	if err := authz.Authorize(actorID, authz.ActionRead, commentResource(comment, scope)); err != nil {
		return nil, err
	}

	return s.view(ctx, comment)
}

// List returns comments on issues in every project the actor can view.
func (s *CommentService) List(ctx context.Context, actorID string, limit, offset int) ([]CommentView, error) {
	comments, err := s.comments.ListVisible(ctx, actorID, repository.ListOptions{
		Limit:  clampLimit(limit),
		Offset: clampOffset(offset),
	})
	if err != nil {
		return nil, fmt.Errorf("service/comment: listing comments: %w", err)
	}

	views := []CommentView{}
	for i := range comments {
		v, err := s.view(ctx, &comments[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}

	return views, nil
}

// Update edits a comment's content. Comment author only.
func (s *CommentService) Update(ctx context.Context, actorID, commentID, content string) (*CommentView, error) {
	comment, scope, err := s.loadComment(ctx, commentID)
	if err != nil {
		return nil, err
	}

	if err := authz.Authorize(actorID, authz.ActionUpdate, commentResource(comment, scope)); err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "comment content cannot be empty")
	}
	if len(content) > maxCommentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("comment must be %d characters or less", maxCommentLength))
	}

	comment.Content = content
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, err
	}

	s.logger.Info("comment updated", slog.String("commentID", comment.ID))

	return s.view(ctx, comment)
}

// Delete removes a comment. Comment author only.
func (s *CommentService) Delete(ctx context.Context, actorID, commentID string) error {
	comment, scope, err := s.loadComment(ctx, commentID)
	if err != nil {
		return err
	}

	if err := authz.Authorize(actorID, authz.ActionDelete, commentResource(comment, scope)); err != nil {
		return err
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		return err
	}

	s.logger.Info("comment deleted", slog.String("commentID", commentID))

	return nil
}

// loadIssue fetches an issue and its project's membership scope.
func (s *CommentService) loadIssue(ctx context.Context, issueID string) (*model.Issue, authz.ProjectScope, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, authz.ProjectScope{}, err
	}

	project, err := s.projects.GetByID(ctx, issue.ProjectID)
	if err != nil {
		return nil, authz.ProjectScope{}, err
	}

	contributors, err := s.projects.ListContributors(ctx, project.ID)
	if err != nil {
		return nil, authz.ProjectScope{}, fmt.Errorf("service/comment: loading members of %s: %w", project.ID, err)
	}

	memberIDs := make([]string, 0, len(contributors))
	for _, c := range contributors {
		memberIDs = append(memberIDs, c.UserID)
	}

	return issue, authz.ProjectScope{AuthorID: project.AuthorID, MemberIDs: memberIDs}, nil
}

func (s *CommentService) loadComment(ctx context.Context, commentID string) (*model.Comment, authz.ProjectScope, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, authz.ProjectScope{}, err
	}

	_, scope, err := s.loadIssue(ctx, comment.IssueID)
	if err != nil {
		return nil, authz.ProjectScope{}, err
	}

	return comment, scope, nil
}

func (s *CommentService) view(ctx context.Context, comment *model.Comment) (*CommentView, error) {
	author, err := s.users.GetByID(ctx, comment.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("service/comment: resolving author of %s: %w", comment.ID, err)
	}

	return &CommentView{
		ID:        comment.ID,
		IssueID:   comment.IssueID,
		Author:    author.Username,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}, nil
}

func commentResource(comment *model.Comment, scope authz.ProjectScope) authz.Resource {
	return authz.Resource{
		Kind:    authz.KindComment,
		OwnerID: comment.AuthorID,
		Scope:   scope,
	}
}
