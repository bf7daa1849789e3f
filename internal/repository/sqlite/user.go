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

// UserRepo persists accounts.
type UserRepo struct {
	conn *sql.DB
}

// compile-time interface check
var _ repository.UserRepository = (*UserRepo)(nil)

const userColumns = `id, username, password_hash, date_of_birth,
	can_be_contacted, can_data_be_shared, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.DateOfBirth,
		&u.CanBeContacted,
		&u.CanDataBeShared,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user. The ID and timestamps are set here; a
// duplicate username surfaces as apperror.Conflict.
func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, date_of_birth,
			can_be_contacted, can_data_be_shared, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.DateOfBirth,
		user.CanBeContacted,
		user.CanDataBeShared,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	return nil
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(r.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetByUsername retrieves a user by their unique username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(r.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: getting user by username %q: %w", username, err)
	}
	return u, nil
}

// List returns users ordered by username.
func (r *UserRepo) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY username LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user rows: %w", err)
	}

	return users, nil
}

// Update persists profile and credential changes. The username stays
// subject to the UNIQUE constraint.
func (r *UserRepo) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	res, err := r.conn.ExecContext(ctx,
		`UPDATE users SET username = ?, password_hash = ?, date_of_birth = ?,
			can_be_contacted = ?, can_data_be_shared = ?, updated_at = ?
		 WHERE id = ?`,
		user.Username,
		user.PasswordHash,
		user.DateOfBirth,
		user.CanBeContacted,
		user.CanDataBeShared,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking update of user %s: %w", user.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// Delete removes a user. Authored projects (and everything under them),
// memberships, and authored comments cascade; issue assignments are
// nulled — all via the schema's ON DELETE clauses.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking delete of user %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", id)
	}

	return nil
}
