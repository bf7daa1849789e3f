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

// ProjectRepo persists projects and contributor memberships.
type ProjectRepo struct {
	conn *sql.DB
}

var _ repository.ProjectRepository = (*ProjectRepo)(nil)

const projectColumns = `id, name, description, type, author_id, created_at`

func scanProject(row interface{ Scan(...any) error }) (*model.Project, error) {
	var p model.Project
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Type,
		&p.AuthorID,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts the project, the author's implicit membership, and one
// membership per contributor in a single transaction. If anything fails
// the whole create rolls back — no half-registered contributor sets.
func (r *ProjectRepo) Create(ctx context.Context, project *model.Project, contributorIDs []string) error {
	now := time.Now()
	project.ID = xid.New().String()
	project.CreatedAt = now

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning project create: %w", err)
	}
	defer tx.Rollback() // no-op after Commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO projects (id, name, description, type, author_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		project.ID,
		project.Name,
		project.Description,
		project.Type,
		project.AuthorID,
		project.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting project %q: %w", project.Name, err)
	}

	// The author gets an explicit membership row too. Authorization never
	// depends on it, but it keeps contributor listings complete.
	members := append([]string{project.AuthorID}, contributorIDs...)
	seen := make(map[string]bool, len(members))
	for _, userID := range members {
		if seen[userID] {
			continue
		}
		seen[userID] = true

		_, err = tx.ExecContext(ctx,
			`INSERT INTO contributors (id, project_id, user_id, created_at)
			 VALUES (?, ?, ?, ?)`,
			xid.New().String(), project.ID, userID, now,
		)
		if err != nil {
			return fmt.Errorf("sqlite: adding contributor %s to project %s: %w", userID, project.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing project create: %w", err)
	}

	return nil
}

// GetByID retrieves a project by ID.
func (r *ProjectRepo) GetByID(ctx context.Context, id string) (*model.Project, error) {
	p, err := scanProject(r.conn.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("project", id)
		}
		return nil, fmt.Errorf("sqlite: getting project %s: %w", id, err)
	}
	return p, nil
}

// ListVisible returns projects the user authored or contributes to —
// the union the visibility rule is defined as.
func (r *ProjectRepo) ListVisible(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Project, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects
		 WHERE author_id = ?
		    OR id IN (SELECT project_id FROM contributors WHERE user_id = ?)
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		userID, userID, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing projects for user %s: %w", userID, err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning project row: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating project rows: %w", err)
	}

	return projects, nil
}

// Update persists name/description/type changes. The author is immutable
// and deliberately absent from the SET clause.
func (r *ProjectRepo) Update(ctx context.Context, project *model.Project) error {
	res, err := r.conn.ExecContext(ctx,
		`UPDATE projects SET name = ?, description = ?, type = ? WHERE id = ?`,
		project.Name,
		project.Description,
		project.Type,
		project.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating project %s: %w", project.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking update of project %s: %w", project.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("project", project.ID)
	}

	return nil
}

// Delete removes a project. Memberships, issues, and those issues'
// comments cascade via the schema.
func (r *ProjectRepo) Delete(ctx context.Context, id string) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting project %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking delete of project %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("project", id)
	}

	return nil
}

// AddContributor inserts a membership row. The UNIQUE(project_id, user_id)
// constraint turns a duplicate into apperror.Conflict, which the service
// treats as "already a member".
func (r *ProjectRepo) AddContributor(ctx context.Context, projectID, userID string) (*model.Contributor, error) {
	c := &model.Contributor{
		ID:        xid.New().String(),
		ProjectID: projectID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO contributors (id, project_id, user_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		c.ID, c.ProjectID, c.UserID, c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("contributor", userID)
		}
		return nil, fmt.Errorf("sqlite: adding contributor %s to project %s: %w", userID, projectID, err)
	}

	return c, nil
}

// RemoveContributor deletes a membership row, returning apperror.NotFound
// if the user was not a contributor.
func (r *ProjectRepo) RemoveContributor(ctx context.Context, projectID, userID string) error {
	res, err := r.conn.ExecContext(ctx,
		`DELETE FROM contributors WHERE project_id = ? AND user_id = ?`,
		projectID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing contributor %s from project %s: %w", userID, projectID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking contributor removal: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("contributor", userID)
	}

	return nil
}

// ListContributors returns the project's membership rows in join order.
func (r *ProjectRepo) ListContributors(ctx context.Context, projectID string) ([]model.Contributor, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT id, project_id, user_id, created_at FROM contributors
		 WHERE project_id = ? ORDER BY created_at`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing contributors of project %s: %w", projectID, err)
	}
	defer rows.Close()

	contributors := []model.Contributor{}
	for rows.Next() {
		var c model.Contributor
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.UserID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning contributor row: %w", err)
		}
		contributors = append(contributors, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating contributor rows: %w", err)
	}

	return contributors, nil
}
