// Package lifecycle applies comment state transitions once the policy grants them.
package lifecycle

import (
	"time"

	"github.com/example/discussion-platform/services/discussion/internal/domain"
	"github.com/example/discussion-platform/services/discussion/internal/policy"
)

// Outcome is the result of attempting a transition.
type Outcome uint8

const (
	Applied Outcome = iota
	Denied
	Invalid
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Denied:
		return "denied"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Decision reports how a transition ended. Invalid is set only when
// Outcome is Invalid.
type Decision struct {
	Outcome Outcome
	Invalid *ValidationError
}

func (d Decision) Applied() bool { return d.Outcome == Applied }

var (
	applied = Decision{Outcome: Applied}
	denied  = Decision{Outcome: Denied}
)

func invalid(v *ValidationError) Decision {
	return Decision{Outcome: Invalid, Invalid: v}
}

// Lifecycle owns the create/edit/delete/undelete and vote transitions.
// The policy is always consulted before the comment is touched, and
// validation only runs after the policy granted the action.
type Lifecycle struct {
	policy    policy.Policy
	validator *BodyValidator
	now       func() time.Time
}

func New(p policy.Policy, v *BodyValidator, now func() time.Time) *Lifecycle {
	if v == nil {
		v = NewBodyValidator(DefaultMaxBodyLength)
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Lifecycle{policy: p, validator: v, now: now}
}

func (l *Lifecycle) Policy() policy.Policy { return l.policy }

// Create builds a new active comment in thread. The comment has no ID yet;
// the store assigns one when it is inserted.
func (l *Lifecycle) Create(thread *domain.Thread, creator *domain.Actor, body string) (domain.Comment, Decision) {
	if !l.policy.Permitted(creator, domain.ActionCreate, policy.Target{Thread: thread}) {
		return domain.Comment{}, denied
	}
	if v := l.validator.Validate(body); v != nil {
		return domain.Comment{}, invalid(v)
	}
	return domain.Comment{
		ThreadID:  thread.ID,
		CreatorID: creator.ID,
		Body:      body,
		CreatedAt: l.now(),
		Votes:     domain.NewVoteLedger(),
	}, applied
}

// Edit replaces the body. The lifecycle state is left unchanged.
func (l *Lifecycle) Edit(c *domain.Comment, actor *domain.Actor, body string) Decision {
	if !l.policy.Permitted(actor, domain.ActionEdit, policy.Target{Comment: c}) {
		return denied
	}
	if v := l.validator.Validate(body); v != nil {
		return invalid(v)
	}
	now := l.now()
	c.Body = body
	c.EditorID = actor.ID
	c.UpdatedAt = &now
	return applied
}

func (l *Lifecycle) Delete(c *domain.Comment, actor *domain.Actor) Decision {
	if c == nil || c.State() != domain.StateActive {
		return denied
	}
	if !l.policy.Permitted(actor, domain.ActionDelete, policy.Target{Comment: c}) {
		return denied
	}
	now := l.now()
	c.IsDeleted = true
	c.DeleterID = actor.ID
	c.DeletedAt = &now
	return applied
}

func (l *Lifecycle) Undelete(c *domain.Comment, actor *domain.Actor) Decision {
	if c == nil || c.State() != domain.StateDeleted {
		return denied
	}
	if !l.policy.Permitted(actor, domain.ActionUndelete, policy.Target{Comment: c}) {
		return denied
	}
	restore(c)
	return applied
}

// Restore undeletes without an actor. It skips the policy but still
// requires the comment to be deleted.
func (l *Lifecycle) Restore(c *domain.Comment) Decision {
	if c == nil || c.State() != domain.StateDeleted {
		return denied
	}
	restore(c)
	return applied
}

func restore(c *domain.Comment) {
	c.IsDeleted = false
	c.DeleterID = ""
	c.DeletedAt = nil
}

// Vote applies an upvote, downvote or unvote for actor on c.
func (l *Lifecycle) Vote(thread *domain.Thread, c *domain.Comment, actor *domain.Actor, action domain.Action) Decision {
	if !l.policy.Permitted(actor, action, policy.Target{Thread: thread, Comment: c}) {
		return denied
	}
	ledger := c.Ledger()
	var ok bool
	switch action {
	case domain.ActionUpvote:
		ok = ledger.UpvoteFrom(actor.ID)
	case domain.ActionDownvote:
		ok = ledger.DownvoteFrom(actor.ID)
	case domain.ActionUnvote:
		ok = ledger.UnvoteFrom(actor.ID)
	}
	if !ok {
		return denied
	}
	return applied
}
