package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/example/discussion-platform/internal/platform/events"
	"github.com/example/discussion-platform/services/discussion/internal/domain"
	"github.com/example/discussion-platform/services/discussion/internal/lifecycle"
	"github.com/example/discussion-platform/services/discussion/internal/policy"
)

// Create adds a comment by actor to the thread. The thread's lock is held so
// a concurrent close is observed before the comment is inserted.
func (s *Service) Create(ctx context.Context, actor *domain.Actor, threadID, body string) (CommentView, error) {
	var view CommentView
	err := s.locker.WithLock(ctx, "thread:"+threadID, func(ctx context.Context) error {
		th, err := s.store.FindThread(ctx, threadID)
		if err != nil {
			return err
		}
		c, d := s.lifecycle.Create(&th, actor, body)
		if err := s.outcome(d, domain.ActionCreate, actor, threadID); err != nil {
			return err
		}
		saved, err := s.store.InsertComment(ctx, c)
		if err != nil {
			return err
		}
		view = newCommentView(saved, actor)
		s.publish(events.Event{
			Subject:   events.SubjectCommentCreated,
			ActorID:   actor.ID,
			ThreadID:  saved.ThreadID,
			CommentID: saved.ID,
		})
		return nil
	})
	return view, s.classify("create comment", err)
}

func (s *Service) Edit(ctx context.Context, actor *domain.Actor, commentID, body string) (CommentView, error) {
	return s.mutate(ctx, domain.ActionEdit, actor, commentID, events.SubjectCommentEdited,
		func(_ *domain.Thread, c *domain.Comment) lifecycle.Decision {
			return s.lifecycle.Edit(c, actor, body)
		})
}

func (s *Service) Delete(ctx context.Context, actor *domain.Actor, commentID string) (CommentView, error) {
	return s.mutate(ctx, domain.ActionDelete, actor, commentID, events.SubjectCommentDeleted,
		func(_ *domain.Thread, c *domain.Comment) lifecycle.Decision {
			return s.lifecycle.Delete(c, actor)
		})
}

func (s *Service) Undelete(ctx context.Context, actor *domain.Actor, commentID string) (CommentView, error) {
	return s.mutate(ctx, domain.ActionUndelete, actor, commentID, events.SubjectCommentUndeleted,
		func(_ *domain.Thread, c *domain.Comment) lifecycle.Decision {
			return s.lifecycle.Undelete(c, actor)
		})
}

// Restore undeletes a comment without an actor. It is meant for corrective
// resets by the system and performs no authorization.
func (s *Service) Restore(ctx context.Context, commentID string) (CommentView, error) {
	return s.mutate(ctx, domain.ActionUndelete, nil, commentID, events.SubjectCommentRestored,
		func(_ *domain.Thread, c *domain.Comment) lifecycle.Decision {
			return s.lifecycle.Restore(c)
		})
}

func (s *Service) Upvote(ctx context.Context, actor *domain.Actor, commentID string) (CommentView, error) {
	return s.vote(ctx, actor, commentID, domain.ActionUpvote)
}

func (s *Service) Downvote(ctx context.Context, actor *domain.Actor, commentID string) (CommentView, error) {
	return s.vote(ctx, actor, commentID, domain.ActionDownvote)
}

func (s *Service) Unvote(ctx context.Context, actor *domain.Actor, commentID string) (CommentView, error) {
	return s.vote(ctx, actor, commentID, domain.ActionUnvote)
}

func (s *Service) vote(ctx context.Context, actor *domain.Actor, commentID string, action domain.Action) (CommentView, error) {
	subject := events.SubjectCommentVoted
	if action == domain.ActionUnvote {
		subject = events.SubjectCommentUnvoted
	}
	return s.mutate(ctx, action, actor, commentID, subject,
		func(th *domain.Thread, c *domain.Comment) lifecycle.Decision {
			return s.lifecycle.Vote(th, c, actor, action)
		})
}

// CanCreate reports whether actor may add a comment to the thread.
func (s *Service) CanCreate(ctx context.Context, actor *domain.Actor, threadID string) error {
	th, err := s.store.FindThread(ctx, threadID)
	if err != nil {
		return s.classify("find thread", err)
	}
	if !s.policy.Permitted(actor, domain.ActionCreate, policy.Target{Thread: &th}) {
		return ErrForbidden
	}
	return nil
}

// CanEdit reports whether actor may edit the comment.
func (s *Service) CanEdit(ctx context.Context, actor *domain.Actor, commentID string) error {
	c, err := s.store.FindComment(ctx, commentID)
	if err != nil {
		return s.classify("find comment", err)
	}
	if !s.policy.Permitted(actor, domain.ActionEdit, policy.Target{Comment: &c}) {
		return ErrForbidden
	}
	return nil
}

// mutate runs one comment transition under the comment's lock: load, decide,
// apply, persist. Nothing is written unless the transition was applied.
func (s *Service) mutate(
	ctx context.Context,
	action domain.Action,
	actor *domain.Actor,
	commentID, subject string,
	apply func(th *domain.Thread, c *domain.Comment) lifecycle.Decision,
) (CommentView, error) {
	var view CommentView
	err := s.locker.WithLock(ctx, "comment:"+commentID, func(ctx context.Context) error {
		c, err := s.store.FindComment(ctx, commentID)
		if err != nil {
			return err
		}
		th, err := s.store.FindThread(ctx, c.ThreadID)
		if err != nil {
			return err
		}
		if err := s.outcome(apply(&th, &c), action, actor, commentID); err != nil {
			return err
		}
		saved, err := s.store.Persist(ctx, c)
		if err != nil {
			return err
		}
		view = newCommentView(saved, actor)

		ev := events.Event{
			Subject:   subject,
			ActorID:   actorID(actor),
			ThreadID:  saved.ThreadID,
			CommentID: saved.ID,
		}
		if action == domain.ActionUpvote || action == domain.ActionDownvote || action == domain.ActionUnvote {
			ev.Properties = map[string]any{
				"action":    string(action),
				"upvotes":   view.Upvotes,
				"downvotes": view.Downvotes,
			}
		}
		s.publish(ev)
		return nil
	})
	return view, s.classify(string(action)+" comment", err)
}

// outcome turns a lifecycle decision into the error returned to callers.
func (s *Service) outcome(d lifecycle.Decision, action domain.Action, actor *domain.Actor, targetID string) error {
	fields := []zap.Field{
		zap.String("action", string(action)),
		zap.String("actor_id", actorID(actor)),
		zap.String("target_id", targetID),
	}
	switch d.Outcome {
	case lifecycle.Applied:
		s.log.Debug("transition applied", fields...)
		return nil
	case lifecycle.Invalid:
		s.log.Debug("transition invalid", append(fields, zap.Error(d.Invalid))...)
		return d.Invalid
	default:
		s.log.Debug("transition denied", fields...)
		return ErrForbidden
	}
}
