package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/softdeskhq/softdesk/internal/model"
)

// newTestDB opens a fresh in-memory database per test. t.Cleanup closes
// it, which also drops the data.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		PasswordHash: "$2a$12$fakefakefakefakefakefake",
		DateOfBirth:  time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC),
	}
	if err := db.Users.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user %q: %v", username, err)
	}
	return user
}

func createTestProject(t *testing.T, db *DB, author *model.User, name string, contributorIDs ...string) *model.Project {
	t.Helper()
	project := &model.Project{
		Name:     name,
		Type:     model.ProjectBackEnd,
		AuthorID: author.ID,
	}
	if err := db.Projects.Create(context.Background(), project, contributorIDs); err != nil {
		t.Fatalf("failed to create test project %q: %v", name, err)
	}
	return project
}

func createTestIssue(t *testing.T, db *DB, project *model.Project, author *model.User, title string) *model.Issue {
	t.Helper()
	issue := &model.Issue{
		Title:     title,
		ProjectID: project.ID,
		AuthorID:  author.ID,
		Status:    model.StatusTodo,
		Priority:  model.PriorityMedium,
		Tag:       model.TagTask,
	}
	if err := db.Issues.Create(context.Background(), issue); err != nil {
		t.Fatalf("failed to create test issue %q: %v", title, err)
	}
	return issue
}

func createTestComment(t *testing.T, db *DB, issue *model.Issue, author *model.User, content string) *model.Comment {
	t.Helper()
	comment := &model.Comment{
		IssueID:  issue.ID,
		AuthorID: author.ID,
		Content:  content,
	}
	if err := db.Comments.Create(context.Background(), comment); err != nil {
		t.Fatalf("failed to create test comment: %v", err)
	}
	return comment
}
