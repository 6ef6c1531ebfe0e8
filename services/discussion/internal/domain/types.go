// Package domain holds the discussion aggregates: threads, comments and their vote ledgers.
package domain

import "time"

// Action is an operation an actor may attempt.
type Action string

const (
	ActionRead     Action = "read"
	ActionCreate   Action = "create"
	ActionEdit     Action = "edit"
	ActionDelete   Action = "delete"
	ActionUndelete Action = "undelete"
	ActionUpvote   Action = "upvote"
	ActionDownvote Action = "downvote"
	ActionUnvote   Action = "unvote"
)

// Thread is the container comments attach to. It is bound to an arbitrary
// parent resource identified by (ParentType, ParentID).
type Thread struct {
	ID         string     `json:"id"`
	ParentType string     `json:"parent_type"`
	ParentID   string     `json:"parent_id"`
	IsOpen     bool       `json:"is_open"`
	ClosedBy   string     `json:"closed_by,omitempty"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func NewThread(parentType, parentID string) Thread {
	return Thread{ParentType: parentType, ParentID: parentID, IsOpen: true}
}

// Close stops the thread from accepting comments and votes.
func (t *Thread) Close(by string, at time.Time) {
	t.IsOpen = false
	t.ClosedBy = by
	t.ClosedAt = &at
}

func (t *Thread) Reopen() {
	t.IsOpen = true
	t.ClosedBy = ""
	t.ClosedAt = nil
}

func (t *Thread) AcceptsNewComments() bool {
	return t != nil && t.IsOpen
}

// State is the lifecycle state of a comment.
type State string

const (
	StateActive  State = "active"
	StateDeleted State = "deleted"
)

// Comment is a unit of user-authored content. ThreadID and CreatorID never
// change after creation; comments are soft deleted only.
type Comment struct {
	ID        string
	ThreadID  string
	CreatorID string
	Body      string
	IsDeleted bool
	DeleterID string
	EditorID  string
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	// Version is bumped by the store on every persist.
	Version int64
	Votes   *VoteLedger
}

func (c *Comment) State() State {
	if c.IsDeleted {
		return StateDeleted
	}
	return StateActive
}

// Ledger returns the comment's vote ledger, creating an empty one if needed.
func (c *Comment) Ledger() *VoteLedger {
	if c.Votes == nil {
		c.Votes = NewVoteLedger()
	}
	return c.Votes
}

// Clone returns a deep copy that shares no mutable state with c.
func (c Comment) Clone() Comment {
	out := c
	out.Votes = c.Votes.Clone()
	if c.UpdatedAt != nil {
		t := *c.UpdatedAt
		out.UpdatedAt = &t
	}
	if c.DeletedAt != nil {
		t := *c.DeletedAt
		out.DeletedAt = &t
	}
	return out
}
