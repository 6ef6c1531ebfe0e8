package service

import (
	"context"
	"errors"

	"github.com/example/discussion-platform/internal/platform/events"
	"github.com/example/discussion-platform/services/discussion/internal/domain"
	"github.com/example/discussion-platform/services/discussion/internal/policy"
	"github.com/example/discussion-platform/services/discussion/internal/store"
)

// CreateThread returns the thread bound to the parent resource, creating an
// open one when none exists yet.
func (s *Service) CreateThread(ctx context.Context, parentType, parentID string) (domain.Thread, error) {
	var out domain.Thread
	err := s.locker.WithLock(ctx, "parent:"+parentType+"|"+parentID, func(ctx context.Context) error {
		th, err := s.store.FindThreadByParent(ctx, parentType, parentID)
		if err == nil {
			out = th
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		th, err = s.store.CreateThread(ctx, domain.NewThread(parentType, parentID))
		if errors.Is(err, store.ErrConflict) {
			// another replica created it first
			th, err = s.store.FindThreadByParent(ctx, parentType, parentID)
		}
		if err != nil {
			return err
		}
		out = th
		s.publish(events.Event{
			Subject:    events.SubjectThreadCreated,
			ThreadID:   th.ID,
			Properties: map[string]any{"parent_type": parentType, "parent_id": parentID},
		})
		return nil
	})
	return out, s.classify("create thread", err)
}

// Thread returns the thread and its comments as seen by actor.
func (s *Service) Thread(ctx context.Context, actor *domain.Actor, threadID string) (ThreadView, error) {
	th, err := s.store.FindThread(ctx, threadID)
	if err != nil {
		return ThreadView{}, s.classify("find thread", err)
	}
	if !s.policy.Permitted(actor, domain.ActionRead, policy.Target{Thread: &th}) {
		return ThreadView{}, ErrForbidden
	}
	comments, err := s.store.ListComments(ctx, threadID)
	if err != nil {
		return ThreadView{}, s.classify("list comments", err)
	}

	view := ThreadView{Thread: th, Comments: make([]CommentView, 0, len(comments))}
	for _, c := range comments {
		view.Comments = append(view.Comments, listedView(s.policy, c, actor))
	}
	return view, nil
}

// CloseThread stops the thread from accepting comments and votes. Closing a
// closed thread keeps the original closer.
func (s *Service) CloseThread(ctx context.Context, threadID, by string) (domain.Thread, error) {
	return s.gate(ctx, threadID, events.SubjectThreadClosed, by, func(th *domain.Thread) bool {
		if !th.IsOpen {
			return false
		}
		th.Close(by, s.now())
		return true
	})
}

func (s *Service) ReopenThread(ctx context.Context, threadID string) (domain.Thread, error) {
	return s.gate(ctx, threadID, events.SubjectThreadReopened, "", func(th *domain.Thread) bool {
		if th.IsOpen {
			return false
		}
		th.Reopen()
		return true
	})
}

func (s *Service) gate(ctx context.Context, threadID, subject, by string, change func(*domain.Thread) bool) (domain.Thread, error) {
	var out domain.Thread
	err := s.locker.WithLock(ctx, "thread:"+threadID, func(ctx context.Context) error {
		th, err := s.store.FindThread(ctx, threadID)
		if err != nil {
			return err
		}
		if !change(&th) {
			out = th
			return nil
		}
		if err := s.store.SaveThread(ctx, th); err != nil {
			return err
		}
		out = th
		s.publish(events.Event{Subject: subject, ActorID: by, ThreadID: th.ID})
		return nil
	})
	return out, s.classify("save thread", err)
}
