package service

import (
	"context"
	"testing"
	"time"

	"github.com/softdeskhq/softdesk/internal/auth"
	"github.com/softdeskhq/softdesk/internal/model"
)

// strongPassword clears the entropy policy without being anyone's real
// password.
const strongPassword = "plum-Trumpet77$vault"

// referenceNow pins "today" so age assertions don't rot.
var referenceNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

// adultDOB is comfortably over the age floor at referenceNow.
var adultDOB = time.Date(1995, time.June, 15, 0, 0, 0, 0, time.UTC)

type testEnv struct {
	users    *mockUserRepo
	projects *mockProjectRepo
	issues   *mockIssueRepo
	comments *mockCommentRepo

	authSvc    *AuthService
	userSvc    *UserService
	projectSvc *ProjectService
	issueSvc   *IssueService
	commentSvc *CommentService
}

// newTestEnv builds every service on shared in-memory mocks, a cheap
// bcrypt cost, and a frozen clock.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := newMockUserRepo()
	projects := newMockProjectRepo()
	issues := newMockIssueRepo(projects)
	comments := newMockCommentRepo(issues)

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	passwords := auth.NewPasswordServiceForTest(4)

	logger := testLogger()

	env := &testEnv{
		users:      users,
		projects:   projects,
		issues:     issues,
		comments:   comments,
		authSvc:    NewAuthService(users, tokens, passwords, logger),
		userSvc:    NewUserService(users, logger),
		projectSvc: NewProjectService(projects, users, issues, logger),
		issueSvc:   NewIssueService(issues, projects, users, logger),
		commentSvc: NewCommentService(comments, issues, projects, users, logger),
	}
	env.authSvc.now = func() time.Time { return referenceNow }
	env.userSvc.now = func() time.Time { return referenceNow }
	return env
}

// register creates an account through the real registration path so the
// password hash is genuine.
func (env *testEnv) register(t *testing.T, username string) *model.User {
	t.Helper()
	user, err := env.authSvc.Register(context.Background(), RegisterInput{
		Username:    username,
		Password:    strongPassword,
		Password2:   strongPassword,
		DateOfBirth: adultDOB,
	})
	if err != nil {
		t.Fatalf("Register(%q): %v", username, err)
	}
	return user
}

// registerSharing creates an account that consented to data sharing (and
// optionally contact).
func (env *testEnv) registerSharing(t *testing.T, username string, contact bool) *model.User {
	t.Helper()
	user, err := env.authSvc.Register(context.Background(), RegisterInput{
		Username:        username,
		Password:        strongPassword,
		Password2:       strongPassword,
		DateOfBirth:     adultDOB,
		CanBeContacted:  contact,
		CanDataBeShared: true,
	})
	if err != nil {
		t.Fatalf("Register(%q): %v", username, err)
	}
	return user
}

// createProject makes a project through the service so memberships are
// set up the real way. Contributor usernames must already exist.
func (env *testEnv) createProject(t *testing.T, authorID, name string, contributors ...string) *ProjectDetail {
	t.Helper()
	detail, err := env.projectSvc.Create(context.Background(), authorID, CreateProjectInput{
		Name:         name,
		Type:         model.ProjectBackEnd,
		Contributors: contributors,
	})
	if err != nil {
		t.Fatalf("project Create(%q): %v", name, err)
	}
	return detail
}

// createIssue files an issue through the service.
func (env *testEnv) createIssue(t *testing.T, authorID, projectID, title string) *IssueView {
	t.Helper()
	view, err := env.issueSvc.Create(context.Background(), authorID, CreateIssueInput{
		ProjectID: projectID,
		Title:     title,
		Tag:       model.TagTask,
	})
	if err != nil {
		t.Fatalf("issue Create(%q): %v", title, err)
	}
	return view
}
