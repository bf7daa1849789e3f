package model

import "time"

// Comment is a remark attached to exactly one issue.
//
// The ID is an xid — a globally unique token, deliberately not a
// sequential integer, so comment identifiers cannot be enumerated.
// Only the author may edit or delete a comment, and comments are
// cascade-deleted with their issue.
type Comment struct {
	ID        string    `json:"id"        db:"id"`
	IssueID   string    `json:"issueId"   db:"issue_id"`
	AuthorID  string    `json:"authorId"  db:"author_id"`
	Content   string    `json:"content"   db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
