// Package sqlite implements the repository interfaces on SQLite.
//
// modernc.org/sqlite is a pure Go translation of the SQLite C code — no
// CGo, no C compiler, cross-compiles everywhere Go does. The blank import
// below registers it with database/sql as the "sqlite" driver.
//
// The schema carries the relationship-consistency rules the services rely
// on: foreign keys are ON, project deletion cascades to memberships and
// issues (and from issues to comments), deleting a user nulls issue
// assignees, and the UNIQUE(project_id, user_id) pair stops duplicate
// memberships at the storage layer even under concurrent requests.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and exposes one repository per
// entity. The repositories share the pool, so cross-entity integrity
// (cascades, the visibility joins) lives in one database.
type DB struct {
	conn *sql.DB

	Users    *UserRepo
	Projects *ProjectRepo
	Issues   *IssueRepo
	Comments *CommentRepo
}

// New opens the database at dbPath (":memory:" for tests), enables WAL
// mode and foreign keys, and runs migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// PRAGMAs apply per connection, and ":memory:" gives every pooled
	// connection its own empty database. One connection sidesteps both,
	// and SQLite only ever has one writer anyway.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight — one writer,
	// many readers, which is exactly the request pattern here.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. The cascade and SET NULL
	// behavior below depends on them, so this is not optional.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{
		conn:     conn,
		Users:    &UserRepo{conn: conn},
		Projects: &ProjectRepo{conn: conn},
		Issues:   &IssueRepo{conn: conn},
		Comments: &CommentRepo{conn: conn},
	}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Always defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id                 TEXT PRIMARY KEY,
			username           TEXT NOT NULL UNIQUE,
			password_hash      TEXT NOT NULL,
			date_of_birth      DATETIME NOT NULL,
			can_be_contacted   INTEGER NOT NULL DEFAULT 0,
			can_data_be_shared INTEGER NOT NULL DEFAULT 0,
			created_at         DATETIME NOT NULL,
			updated_at         DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS projects (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			type        TEXT NOT NULL,
			author_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at  DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_projects_author_id ON projects(author_id);

		CREATE TABLE IF NOT EXISTS contributors (
			id         TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at DATETIME NOT NULL,
			UNIQUE (project_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_contributors_user_id ON contributors(user_id);

		CREATE TABLE IF NOT EXISTS issues (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			author_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			assignee_id TEXT REFERENCES users(id) ON DELETE SET NULL,
			status      TEXT NOT NULL DEFAULT 'TODO',
			priority    TEXT NOT NULL DEFAULT 'MEDIUM',
			tag         TEXT NOT NULL,
			created_at  DATETIME NOT NULL,
			updated_at  DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_issues_project_id ON issues(project_id);

		CREATE TABLE IF NOT EXISTS comments (
			id         TEXT PRIMARY KEY,
			issue_id   TEXT NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
			author_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			content    TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_comments_issue_id ON comments(issue_id);
	`)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// modernc.org/sqlite does not export a typed error for this, so the
// message is the stable surface to match on.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
