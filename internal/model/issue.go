package model

import "time"

// IssueStatus is the issue's position in its workflow.
// Any status may move to any other — there is no ordering constraint and
// DONE is not terminal.
type IssueStatus string

const (
	StatusTodo       IssueStatus = "TODO"
	StatusInProgress IssueStatus = "IN_PROGRESS"
	StatusDone       IssueStatus = "DONE"
)

// Valid reports whether s is one of the defined statuses.
func (s IssueStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// IssuePriority ranks how urgently an issue should be addressed.
type IssuePriority string

const (
	PriorityLow    IssuePriority = "LOW"
	PriorityMedium IssuePriority = "MEDIUM"
	PriorityHigh   IssuePriority = "HIGH"
)

// Valid reports whether p is one of the defined priorities.
func (p IssuePriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// IssueTag classifies the nature of the work.
type IssueTag string

const (
	TagBug         IssueTag = "BUG"
	TagTask        IssueTag = "TASK"
	TagImprovement IssueTag = "IMPROVEMENT"
)

// Valid reports whether t is one of the defined tags.
func (t IssueTag) Valid() bool {
	switch t {
	case TagBug, TagTask, TagImprovement:
		return true
	}
	return false
}

// Issue is a unit of work attached to exactly one project.
//
// AssigneeID is optional (empty string means unassigned). When set it must
// reference a contributor (or the author) of the issue's project — the
// service layer enforces this before any write. The author is the creator
// and is immutable; UpdatedAt is bumped on every mutation.
type Issue struct {
	ID          string        `json:"id"          db:"id"`
	Title       string        `json:"title"       db:"title"`
	Description string        `json:"description" db:"description"`
	ProjectID   string        `json:"projectId"   db:"project_id"`
	AuthorID    string        `json:"authorId"    db:"author_id"`
	AssigneeID  string        `json:"assigneeId,omitempty" db:"assignee_id"`
	Status      IssueStatus   `json:"status"      db:"status"`
	Priority    IssuePriority `json:"priority"    db:"priority"`
	Tag         IssueTag      `json:"tag"         db:"tag"`
	CreatedAt   time.Time     `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time     `json:"updatedAt"   db:"updated_at"`
}
