package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/softdeskhq/softdesk/internal/apperror"
	"github.com/softdeskhq/softdesk/internal/model"
	"github.com/softdeskhq/softdesk/internal/repository"
)

// IssueRepo persists issues.
type IssueRepo struct {
	conn *sql.DB
}

var _ repository.IssueRepository = (*IssueRepo)(nil)

const issueColumns = `id, title, description, project_id, author_id,
	assignee_id, status, priority, tag, created_at, updated_at`

func scanIssue(row interface{ Scan(...any) error }) (*model.Issue, error) {
	var (
		i        model.Issue
		assignee sql.NullString
	)
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Description,
		&i.ProjectID,
		&i.AuthorID,
		&assignee,
		&i.Status,
		&i.Priority,
		&i.Tag,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	i.AssigneeID = assignee.String // empty when NULL (unassigned)
	return &i, nil
}

// nullable converts an empty assignee ID to SQL NULL so the
// ON DELETE SET NULL clause has a NULL to set.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Create inserts a new issue. ID and both timestamps are set here.
func (r *IssueRepo) Create(ctx context.Context, issue *model.Issue) error {
	now := time.Now()
	issue.ID = xid.New().String()
	issue.CreatedAt = now
	issue.UpdatedAt = now

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO issues (id, title, description, project_id, author_id,
			assignee_id, status, priority, tag, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		issue.ID,
		issue.Title,
		issue.Description,
		issue.ProjectID,
		issue.AuthorID,
		nullable(issue.AssigneeID),
		issue.Status,
		issue.Priority,
		issue.Tag,
		issue.CreatedAt,
		issue.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting issue %q: %w", issue.Title, err)
	}

	return nil
}

// GetByID retrieves an issue by ID.
func (r *IssueRepo) GetByID(ctx context.Context, id string) (*model.Issue, error) {
	i, err := scanIssue(r.conn.QueryRowContext(ctx,
		`SELECT `+issueColumns+` FROM issues WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("issue", id)
		}
		return nil, fmt.Errorf("sqlite: getting issue %s: %w", id, err)
	}
	return i, nil
}

// ListByProject returns every issue of one project, newest first.
// Used for the nested summaries in the project retrieve shape.
func (r *IssueRepo) ListByProject(ctx context.Context, projectID string) ([]model.Issue, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+issueColumns+` FROM issues
		 WHERE project_id = ? ORDER BY created_at DESC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing issues of project %s: %w", projectID, err)
	}
	defer rows.Close()

	return collectIssues(rows)
}

// ListVisible returns issues in projects the user authored or holds a
// membership in.
func (r *IssueRepo) ListVisible(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Issue, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+issueColumns+` FROM issues
		 WHERE project_id IN (
			SELECT id FROM projects WHERE author_id = ?
			UNION
			SELECT project_id FROM contributors WHERE user_id = ?
		 )
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		userID, userID, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing issues for user %s: %w", userID, err)
	}
	defer rows.Close()

	return collectIssues(rows)
}

func collectIssues(rows *sql.Rows) ([]model.Issue, error) {
	issues := []model.Issue{}
	for rows.Next() {
		i, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning issue row: %w", err)
		}
		issues = append(issues, *i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating issue rows: %w", err)
	}
	return issues, nil
}

// Update persists issue changes and bumps updated_at. Project and author
// are immutable and absent from the SET clause.
func (r *IssueRepo) Update(ctx context.Context, issue *model.Issue) error {
	issue.UpdatedAt = time.Now()

	res, err := r.conn.ExecContext(ctx,
		`UPDATE issues SET title = ?, description = ?, assignee_id = ?,
			status = ?, priority = ?, tag = ?, updated_at = ?
		 WHERE id = ?`,
		issue.Title,
		issue.Description,
		nullable(issue.AssigneeID),
		issue.Status,
		issue.Priority,
		issue.Tag,
		issue.UpdatedAt,
		issue.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating issue %s: %w", issue.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking update of issue %s: %w", issue.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("issue", issue.ID)
	}

	return nil
}

// Delete removes an issue; its comments cascade.
func (r *IssueRepo) Delete(ctx context.Context, id string) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM issues WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting issue %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking delete of issue %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("issue", id)
	}

	return nil
}
