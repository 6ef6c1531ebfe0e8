package service

import (
	"time"

	"github.com/example/discussion-platform/services/discussion/internal/domain"
	"github.com/example/discussion-platform/services/discussion/internal/policy"
)

// CommentView is the snapshot of a comment returned to callers.
type CommentView struct {
	ID        string     `json:"id"`
	ThreadID  string     `json:"thread_id"`
	CreatorID string     `json:"creator_id"`
	Body      string     `json:"body"`
	IsDeleted bool       `json:"is_deleted"`
	DeleterID string     `json:"deleter_id,omitempty"`
	EditorID  string     `json:"editor_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	Version   int64      `json:"version"`
	Upvotes   int        `json:"upvotes"`
	Downvotes int        `json:"downvotes"`
	Score     int        `json:"score"`
	// MyVote is the requesting actor's current vote, if any.
	MyVote domain.Direction `json:"my_vote,omitempty"`
}

// ThreadView is a thread with its comments in insertion order.
type ThreadView struct {
	domain.Thread
	Comments []CommentView `json:"comments"`
}

func newCommentView(c domain.Comment, viewer *domain.Actor) CommentView {
	v := CommentView{
		ID:        c.ID,
		ThreadID:  c.ThreadID,
		CreatorID: c.CreatorID,
		Body:      c.Body,
		IsDeleted: c.IsDeleted,
		DeleterID: c.DeleterID,
		EditorID:  c.EditorID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		DeletedAt: c.DeletedAt,
		Version:   c.Version,
		Upvotes:   c.Votes.Count(domain.Up),
		Downvotes: c.Votes.Count(domain.Down),
		Score:     c.Votes.Score(),
	}
	if viewer != nil {
		if d, ok := c.Votes.VoteOf(viewer.ID); ok {
			v.MyVote = d
		}
	}
	return v
}

// listedView hides the body of a deleted comment from viewers who could not undelete it.
func listedView(p policy.Policy, c domain.Comment, viewer *domain.Actor) CommentView {
	v := newCommentView(c, viewer)
	if c.IsDeleted && !p.Permitted(viewer, domain.ActionUndelete, policy.Target{Comment: &c}) {
		v.Body = ""
	}
	return v
}
