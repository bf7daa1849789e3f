package service

import (
	"context"
	"errors"
	"testing"

	"github.com/softdeskhq/softdesk/internal/apperror"
	"github.com/softdeskhq/softdesk/internal/model"
)

func TestProjectCreate(t *testing.T) {
	env := newTestEnv(t)

	author := env.register(t, "author")
	env.register(t, "member")

	detail := env.createProject(t, author.ID, "Tracker", "member")

	if detail.Author != "author" {
		t.Errorf("Author = %q, want %q", detail.Author, "author")
	}
	got := map[string]bool{}
	for _, c := range detail.Contributors {
		got[c] = true
	}
	if !got["author"] || !got["member"] || len(got) != 2 {
		t.Errorf("Contributors = %v, want [author member]", detail.Contributors)
	}
}

func TestProjectCreate_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.register(t, "author")

	_, err := env.projectSvc.Create(ctx, author.ID, CreateProjectInput{Name: " ", Type: model.ProjectBackEnd})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Create(blank name) error = %v, want ErrValidation", err)
	}

	_, err = env.projectSvc.Create(ctx, author.ID, CreateProjectInput{Name: "Tracker", Type: "MAINFRAME"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Create(bad type) error = %v, want ErrValidation", err)
	}
}

func TestProjectCreate_UnknownContributorFailsWholeCall(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.register(t, "author")

	_, err := env.projectSvc.Create(ctx, author.ID, CreateProjectInput{
		Name:         "Tracker",
		Type:         model.ProjectBackEnd,
		Contributors: []string{"nobody"},
	})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Create(unknown contributor) error = %v, want ErrNotFound", err)
	}

	// Nothing was created.
	summaries, err := env.projectSvc.List(ctx, author.ID, 0, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("List() after failed create = %v, want empty", summaries)
	}
}

func TestProjectGet_ContributorsOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.register(t, "author")
	member := env.register(t, "member")
	outsider := env.register(t, "outsider")

	detail := env.createProject(t, author.ID, "Tracker", "member")

	if _, err := env.projectSvc.Get(ctx, member.ID, detail.ID); err != nil {
		t.Errorf("Get(as member) error = %v", err)
	}
	if _, err := env.projectSvc.Get(ctx, outsider.ID, detail.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Get(as outsider) error = %v, want ErrForbidden", err)
	}
}

func TestProjectGet_NestsIssueSummaries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.register(t, "author")
	env.register(t, "member")
	project := env.createProject(t, author.ID, "Tracker", "member")

	if _, err := env.issueSvc.Create(ctx, author.ID, CreateIssueInput{
		ProjectID: project.ID,
		Title:     "Crash on save",
		Assignee:  "member",
		Priority:  model.PriorityHigh,
		Tag:       model.TagBug,
	}); err != nil {
		t.Fatalf("issue Create() error = %v", err)
	}

	detail, err := env.projectSvc.Get(ctx, author.ID, project.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if len(detail.Issues) != 1 {
		t.Fatalf("Issues = %v, want one summary", detail.Issues)
	}
	summary := detail.Issues[0]
	if summary.Title != "Crash on save" || summary.Author != "author" ||
		summary.Assignee != "member" || summary.Priority != model.PriorityHigh {
		t.Errorf("issue summary = %+v, want title/author/assignee/priority", summary)
	}
}

func TestProjectUpdate_AuthorOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.register(t, "author")
	member := env.register(t, "member")
	project := env.createProject(t, author.ID, "Tracker", "member")

	newName := "Renamed"
	if _, err := env.projectSvc.Update(ctx, member.ID, project.ID, UpdateProjectInput{Name: &newName}); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Update(as member) error = %v, want ErrForbidden", err)
	}

	detail, err := env.projectSvc.Update(ctx, author.ID, project.ID, UpdateProjectInput{Name: &newName})
	if err != nil {
		t.Fatalf("Update(as author) error = %v", err)
	}
	if detail.Name != "Renamed" {
		t.Errorf("Name = %q, want %q", detail.Name, "Renamed")
	}
}

func TestProjectDelete_AuthorOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.register(t, "author")
	member := env.register(t, "member")
	project := env.createProject(t, author.ID, "Tracker", "member")

	if err := env.projectSvc.Delete(ctx, member.ID, project.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Delete(as member) error = %v, want ErrForbidden", err)
	}
	if err := env.projectSvc.Delete(ctx, author.ID, project.ID); err != nil {
		t.Fatalf("Delete(as author) error = %v", err)
	}
	if _, err := env.projectSvc.Get(ctx, author.ID, project.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get(deleted) error = %v, want ErrNotFound", err)
	}
}

func TestAddContributors_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.register(t, "author")
	env.register(t, "member")
	env.register(t, "newbie")
	project := env.createProject(t, author.ID, "Tracker", "member")

	// "member" is already in; only "newbie" is actually added.
	added, err := env.projectSvc.AddContributors(ctx, author.ID, project.ID, []string{"member", "newbie"})
	if err != nil {
		t.Fatalf("AddContributors() error = %v", err)
	}
	if len(added) != 1 || added[0] != "newbie" {
		t.Errorf("added = %v, want [newbie]", added)
	}

	// Running the same call again adds nothing and still succeeds.
	added, err = env.projectSvc.AddContributors(ctx, author.ID, project.ID, []string{"member", "newbie"})
	if err != nil {
		t.Fatalf("AddContributors(repeat) error = %v", err)
	}
	if len(added) != 0 {
		t.Errorf("added on repeat = %v, want empty", added)
	}
}

func TestAddContributors_AuthorOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.register(t, "author")
	member := env.register(t, "member")
	env.register(t, "newbie")
	project := env.createProject(t, author.ID, "Tracker", "member")

	_, err := env.projectSvc.AddContributors(ctx, member.ID, project.ID, []string{"newbie"})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("AddContributors(as member) error = %v, want ErrForbidden", err)
	}
}

func TestRemoveContributors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.register(t, "author")
	member := env.register(t, "member")
	project := env.createProject(t, author.ID, "Tracker", "member")

	removed, err := env.projectSvc.RemoveContributors(ctx, author.ID, project.ID, []string{"member"})
	if err != nil {
		t.Fatalf("RemoveContributors() error = %v", err)
	}
	if len(removed) != 1 || removed[0] != "member" {
		t.Errorf("removed = %v, want [member]", removed)
	}

	// The ex-member can no longer see the project.
	if _, err := env.projectSvc.Get(ctx, member.ID, project.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Get(after removal) error = %v, want ErrForbidden", err)
	}

	// Removing them again is NotFound — they are not a member anymore.
	if _, err := env.projectSvc.RemoveContributors(ctx, author.ID, project.ID, []string{"member"}); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("RemoveContributors(again) error = %v, want ErrNotFound", err)
	}
}

func TestRemoveContributors_AuthorIsNotRemovable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.register(t, "author")
	env.register(t, "member")
	project := env.createProject(t, author.ID, "Tracker", "member")

	_, err := env.projectSvc.RemoveContributors(ctx, author.ID, project.ID, []string{"author"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("RemoveContributors(author) error = %v, want ErrValidation", err)
	}

	// The author's membership row is untouched.
	detail, err := env.projectSvc.Get(ctx, author.ID, project.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	found := false
	for _, c := range detail.Contributors {
		if c == "author" {
			found = true
		}
	}
	if !found {
		t.Error("author missing from contributor list")
	}
}

func TestProjectList_OnlyVisible(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.register(t, "author")
	member := env.register(t, "member")
	outsider := env.register(t, "outsider")

	env.createProject(t, author.ID, "Shared", "member")
	env.createProject(t, outsider.ID, "Hidden")

	summaries, err := env.projectSvc.List(ctx, member.ID, 0, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(summaries) != 1 || summaries[0].Name != "Shared" {
		t.Errorf("List() = %v, want only Shared", summaries)
	}
}
