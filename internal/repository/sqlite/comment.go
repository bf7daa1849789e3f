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

// CommentRepo persists comments.
type CommentRepo struct {
	conn *sql.DB
}

var _ repository.CommentRepository = (*CommentRepo)(nil)

const commentColumns = `id, issue_id, author_id, content, created_at`

func scanComment(row interface{ Scan(...any) error }) (*model.Comment, error) {
	var c model.Comment
	err := row.Scan(
		&c.ID,
		&c.IssueID,
		&c.AuthorID,
		&c.Content,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new comment. The xid ID doubles as the non-sequential
// public token the API exposes.
func (r *CommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	comment.ID = xid.New().String()
	comment.CreatedAt = time.Now()

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO comments (id, issue_id, author_id, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		comment.ID,
		comment.IssueID,
		comment.AuthorID,
		comment.Content,
		comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting comment on issue %s: %w", comment.IssueID, err)
	}

	return nil
}

// GetByID retrieves a comment by ID.
func (r *CommentRepo) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	c, err := scanComment(r.conn.QueryRowContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("comment", id)
		}
		return nil, fmt.Errorf("sqlite: getting comment %s: %w", id, err)
	}
	return c, nil
}

// ListByIssue returns the comments of one issue, oldest first.
func (r *CommentRepo) ListByIssue(ctx context.Context, issueID string) ([]model.Comment, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+commentColumns+` FROM comments
		 WHERE issue_id = ? ORDER BY created_at`,
		issueID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments of issue %s: %w", issueID, err)
	}
	defer rows.Close()

	return collectComments(rows)
}

// ListVisible returns comments on issues in projects the user authored or
// contributes to — the issue visibility rule, one join further out.
func (r *CommentRepo) ListVisible(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Comment, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT c.id, c.issue_id, c.author_id, c.content, c.created_at
		 FROM comments c
		 JOIN issues i ON i.id = c.issue_id
		 WHERE i.project_id IN (
			SELECT id FROM projects WHERE author_id = ?
			UNION
			SELECT project_id FROM contributors WHERE user_id = ?
		 )
		 ORDER BY c.created_at DESC LIMIT ? OFFSET ?`,
		userID, userID, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments for user %s: %w", userID, err)
	}
	defer rows.Close()

	return collectComments(rows)
}

func collectComments(rows *sql.Rows) ([]model.Comment, error) {
	comments := []model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comment rows: %w", err)
	}
	return comments, nil
}

// Update persists content changes only — issue and author are immutable.
func (r *CommentRepo) Update(ctx context.Context, comment *model.Comment) error {
	res, err := r.conn.ExecContext(ctx,
		`UPDATE comments SET content = ? WHERE id = ?`,
		comment.Content, comment.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating comment %s: %w", comment.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking update of comment %s: %w", comment.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("comment", comment.ID)
	}

	return nil
}

// Delete removes a comment.
func (r *CommentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting comment %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking delete of comment %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("comment", id)
	}

	return nil
}
