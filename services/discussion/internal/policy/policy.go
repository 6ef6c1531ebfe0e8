// Package policy decides whether an actor may perform an action on a thread
// or comment. Decisions are pure: they never mutate their inputs.
package policy

import "github.com/example/discussion-platform/services/discussion/internal/domain"

// Options tune the optional rules of the policy.
type Options struct {
	// ForbidSelfVote denies vote actions on the actor's own comments.
	ForbidSelfVote bool
	// AllowEditDeleted lets a soft-deleted comment still be edited.
	AllowEditDeleted bool
}

// DefaultOptions reproduces the historical rule set.
func DefaultOptions() Options {
	return Options{AllowEditDeleted: true}
}

// Target is what an action is aimed at. Create needs Thread; comment actions
// need Comment; votes also consult Thread.
type Target struct {
	Thread  *domain.Thread
	Comment *domain.Comment
}

type Policy struct {
	opts Options
}

func New(opts Options) Policy {
	return Policy{opts: opts}
}

func (p Policy) Options() Options {
	return p.opts
}

// Permitted reports whether actor may perform action on target.
// Anonymous actors are always denied.
func (p Policy) Permitted(actor *domain.Actor, action domain.Action, target Target) bool {
	if actor == nil || !actor.Can(domain.CapabilityRead) {
		return false
	}

	switch action {
	case domain.ActionRead:
		return true
	case domain.ActionCreate:
		return target.Thread.AcceptsNewComments()
	case domain.ActionEdit:
		return p.canEdit(actor, target.Comment)
	case domain.ActionDelete:
		return target.Comment != nil && !target.Comment.IsDeleted && moderates(actor, target.Comment)
	case domain.ActionUndelete:
		return target.Comment != nil && target.Comment.IsDeleted && moderates(actor, target.Comment)
	case domain.ActionUpvote, domain.ActionDownvote, domain.ActionUnvote:
		return p.canVote(actor, target)
	default:
		return false
	}
}

// canEdit is the single place deciding whether deleted comments are editable.
func (p Policy) canEdit(actor *domain.Actor, c *domain.Comment) bool {
	if c == nil {
		return false
	}
	if c.IsDeleted && !p.opts.AllowEditDeleted {
		return false
	}
	return moderates(actor, c)
}

func (p Policy) canVote(actor *domain.Actor, target Target) bool {
	if target.Comment == nil || !target.Thread.AcceptsNewComments() {
		return false
	}
	if p.opts.ForbidSelfVote && actor.Is(target.Comment.CreatorID) {
		return false
	}
	return true
}

// moderates reports whether actor owns c or holds edit or admin rights.
func moderates(actor *domain.Actor, c *domain.Comment) bool {
	return actor.Is(c.CreatorID) ||
		actor.Can(domain.CapabilityEdit) ||
		actor.Can(domain.CapabilityAdmin)
}
