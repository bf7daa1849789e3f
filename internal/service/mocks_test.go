package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/softdeskhq/softdesk/internal/apperror"
	"github.com/softdeskhq/softdesk/internal/model"
	"github.com/softdeskhq/softdesk/internal/repository"
)

// Hand-written in-memory mocks for the repository interfaces. They store
// copies so tests cannot mutate repo state through returned pointers, and
// they return the same apperror sentinels the sqlite implementations do.

type mockUserRepo struct {
	users  map[string]*model.User
	nextID int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Username == user.Username {
			return apperror.Conflict("user", user.Username)
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (m *mockUserRepo) List(_ context.Context, opts repository.ListOptions) ([]model.User, error) {
	result := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return paginate(result, opts), nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	for id, u := range m.users {
		if id != user.ID && u.Username == user.Username {
			return apperror.Conflict("user", user.Username)
		}
	}
	user.UpdatedAt = time.Now()
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(m.users, id)
	return nil
}

type mockProjectRepo struct {
	projects map[string]*model.Project
	members  map[string]map[string]bool // projectID → userID set
	nextID   int
}

func newMockProjectRepo() *mockProjectRepo {
	return &mockProjectRepo{
		projects: make(map[string]*model.Project),
		members:  make(map[string]map[string]bool),
	}
}

func (m *mockProjectRepo) Create(_ context.Context, project *model.Project, contributorIDs []string) error {
	m.nextID++
	project.ID = fmt.Sprintf("project-%d", m.nextID)
	project.CreatedAt = time.Now()
	stored := *project
	m.projects[project.ID] = &stored

	set := map[string]bool{project.AuthorID: true}
	for _, id := range contributorIDs {
		set[id] = true
	}
	m.members[project.ID] = set
	return nil
}

func (m *mockProjectRepo) GetByID(_ context.Context, id string) (*model.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, apperror.NotFound("project", id)
	}
	result := *p
	return &result, nil
}

func (m *mockProjectRepo) ListVisible(_ context.Context, userID string, opts repository.ListOptions) ([]model.Project, error) {
	result := []model.Project{}
	for id, p := range m.projects {
		if p.AuthorID == userID || m.members[id][userID] {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return paginate(result, opts), nil
}

func (m *mockProjectRepo) Update(_ context.Context, project *model.Project) error {
	if _, ok := m.projects[project.ID]; !ok {
		return apperror.NotFound("project", project.ID)
	}
	stored := *project
	m.projects[project.ID] = &stored
	return nil
}

func (m *mockProjectRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.projects[id]; !ok {
		return apperror.NotFound("project", id)
	}
	delete(m.projects, id)
	delete(m.members, id)
	return nil
}

func (m *mockProjectRepo) AddContributor(_ context.Context, projectID, userID string) (*model.Contributor, error) {
	set, ok := m.members[projectID]
	if !ok {
		return nil, apperror.NotFound("project", projectID)
	}
	if set[userID] {
		return nil, apperror.Conflict("contributor", userID)
	}
	set[userID] = true
	return &model.Contributor{
		ID:        fmt.Sprintf("member-%s-%s", projectID, userID),
		ProjectID: projectID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}, nil
}

func (m *mockProjectRepo) RemoveContributor(_ context.Context, projectID, userID string) error {
	set := m.members[projectID]
	if !set[userID] {
		return apperror.NotFound("contributor", userID)
	}
	delete(set, userID)
	return nil
}

func (m *mockProjectRepo) ListContributors(_ context.Context, projectID string) ([]model.Contributor, error) {
	ids := make([]string, 0, len(m.members[projectID]))
	for id := range m.members[projectID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := make([]model.Contributor, 0, len(ids))
	for _, id := range ids {
		result = append(result, model.Contributor{
			ID:        fmt.Sprintf("member-%s-%s", projectID, id),
			ProjectID: projectID,
			UserID:    id,
		})
	}
	return result, nil
}

type mockIssueRepo struct {
	issues   map[string]*model.Issue
	projects *mockProjectRepo // shared, for the visibility rule
	nextID   int
}

func newMockIssueRepo(projects *mockProjectRepo) *mockIssueRepo {
	return &mockIssueRepo{issues: make(map[string]*model.Issue), projects: projects}
}

func (m *mockIssueRepo) Create(_ context.Context, issue *model.Issue) error {
	m.nextID++
	issue.ID = fmt.Sprintf("issue-%d", m.nextID)
	now := time.Now()
	issue.CreatedAt = now
	issue.UpdatedAt = now
	stored := *issue
	m.issues[issue.ID] = &stored
	return nil
}

func (m *mockIssueRepo) GetByID(_ context.Context, id string) (*model.Issue, error) {
	i, ok := m.issues[id]
	if !ok {
		return nil, apperror.NotFound("issue", id)
	}
	result := *i
	return &result, nil
}

func (m *mockIssueRepo) ListByProject(_ context.Context, projectID string) ([]model.Issue, error) {
	result := []model.Issue{}
	for _, i := range m.issues {
		if i.ProjectID == projectID {
			result = append(result, *i)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockIssueRepo) ListVisible(_ context.Context, userID string, opts repository.ListOptions) ([]model.Issue, error) {
	result := []model.Issue{}
	for _, i := range m.issues {
		p := m.projects.projects[i.ProjectID]
		if p == nil {
			continue
		}
		if p.AuthorID == userID || m.projects.members[i.ProjectID][userID] {
			result = append(result, *i)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return paginate(result, opts), nil
}

func (m *mockIssueRepo) Update(_ context.Context, issue *model.Issue) error {
	if _, ok := m.issues[issue.ID]; !ok {
		return apperror.NotFound("issue", issue.ID)
	}
	issue.UpdatedAt = time.Now()
	stored := *issue
	m.issues[issue.ID] = &stored
	return nil
}

func (m *mockIssueRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.issues[id]; !ok {
		return apperror.NotFound("issue", id)
	}
	delete(m.issues, id)
	return nil
}

type mockCommentRepo struct {
	comments map[string]*model.Comment
	issues   *mockIssueRepo // shared, for the visibility rule
	nextID   int
}

func newMockCommentRepo(issues *mockIssueRepo) *mockCommentRepo {
	return &mockCommentRepo{comments: make(map[string]*model.Comment), issues: issues}
}

func (m *mockCommentRepo) Create(_ context.Context, comment *model.Comment) error {
	m.nextID++
	comment.ID = fmt.Sprintf("comment-%d", m.nextID)
	comment.CreatedAt = time.Now()
	stored := *comment
	m.comments[comment.ID] = &stored
	return nil
}

func (m *mockCommentRepo) GetByID(_ context.Context, id string) (*model.Comment, error) {
	c, ok := m.comments[id]
	if !ok {
		return nil, apperror.NotFound("comment", id)
	}
	result := *c
	return &result, nil
}

func (m *mockCommentRepo) ListByIssue(_ context.Context, issueID string) ([]model.Comment, error) {
	result := []model.Comment{}
	for _, c := range m.comments {
		if c.IssueID == issueID {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockCommentRepo) ListVisible(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Comment, error) {
	visible, err := m.issues.ListVisible(ctx, userID, repository.ListOptions{Limit: len(m.issues.issues) + 1})
	if err != nil {
		return nil, err
	}
	visibleIssues := make(map[string]bool, len(visible))
	for _, i := range visible {
		visibleIssues[i.ID] = true
	}

	result := []model.Comment{}
	for _, c := range m.comments {
		if visibleIssues[c.IssueID] {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return paginate(result, opts), nil
}

func (m *mockCommentRepo) Update(_ context.Context, comment *model.Comment) error {
	if _, ok := m.comments[comment.ID]; !ok {
		return apperror.NotFound("comment", comment.ID)
	}
	stored := *comment
	m.comments[comment.ID] = &stored
	return nil
}

func (m *mockCommentRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.comments[id]; !ok {
		return apperror.NotFound("comment", id)
	}
	delete(m.comments, id)
	return nil
}

func paginate[T any](items []T, opts repository.ListOptions) []T {
	if opts.Offset >= len(items) {
		return []T{}
	}
	items = items[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(items) {
		items = items[:opts.Limit]
	}
	return items
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
