package model

import "time"

// ProjectType classifies what kind of codebase a project tracks.
type ProjectType string

const (
	ProjectBackEnd  ProjectType = "BACK_END"
	ProjectFrontEnd ProjectType = "FRONT_END"
	ProjectIOS      ProjectType = "IOS"
	ProjectAndroid  ProjectType = "ANDROID"
)

// Valid reports whether t is one of the defined project types.
func (t ProjectType) Valid() bool {
	switch t {
	case ProjectBackEnd, ProjectFrontEnd, ProjectIOS, ProjectAndroid:
		return true
	}
	return false
}

// Project is the top-level unit of collaboration. The author owns it:
// only they may update or delete it, and deletion cascades to the
// project's memberships, issues, and those issues' comments.
type Project struct {
	ID          string      `json:"id"          db:"id"`
	Name        string      `json:"name"        db:"name"`
	Description string      `json:"description" db:"description"`
	Type        ProjectType `json:"type"        db:"type"`
	AuthorID    string      `json:"authorId"    db:"author_id"`
	CreatedAt   time.Time   `json:"createdAt"   db:"created_at"`
}

// Contributor links a user to a project. The pair (ProjectID, UserID) is
// unique — a user cannot be added to the same project twice.
//
// The project author is a contributor whether or not a row exists for
// them; authorization checks must never rely on the author having one.
type Contributor struct {
	ID        string    `json:"id"        db:"id"`
	ProjectID string    `json:"projectId" db:"project_id"`
	UserID    string    `json:"userId"    db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
