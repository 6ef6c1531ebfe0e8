// Package service is the entry point the request layer calls for every
// discussion action. It loads state, consults the policy, applies the
// transition and persists it while holding the aggregate's lock.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/discussion-platform/internal/platform/events"
	"github.com/example/discussion-platform/services/discussion/internal/domain"
	"github.com/example/discussion-platform/services/discussion/internal/lifecycle"
	"github.com/example/discussion-platform/services/discussion/internal/lock"
	"github.com/example/discussion-platform/services/discussion/internal/policy"
	"github.com/example/discussion-platform/services/discussion/internal/store"
)

var (
	// ErrForbidden means the actor may not perform the action. It never says why.
	ErrForbidden = errors.New("forbidden")
	ErrNotFound  = store.ErrNotFound
	// ErrConflict means the aggregate changed concurrently or its lock was busy.
	ErrConflict = store.ErrConflict
)

// StorageError wraps an unexpected failure of the storage collaborator.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Publisher receives domain events after a transition was persisted.
type Publisher interface {
	Publish(ev events.Event)
}

type Options struct {
	Store     store.Store
	Lifecycle *lifecycle.Lifecycle
	// Locker defaults to an in-process locker.
	Locker lock.Locker
	// Events may be nil.
	Events Publisher
	Logger *zap.Logger
	Now    func() time.Time
}

type Service struct {
	store     store.Store
	lifecycle *lifecycle.Lifecycle
	policy    policy.Policy
	locker    lock.Locker
	events    Publisher
	log       *zap.Logger
	now       func() time.Time
}

func New(opts Options) *Service {
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.Lifecycle == nil {
		opts.Lifecycle = lifecycle.New(policy.New(policy.DefaultOptions()), nil, opts.Now)
	}
	if opts.Locker == nil {
		opts.Locker = lock.NewLocal(0)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		store:     opts.Store,
		lifecycle: opts.Lifecycle,
		policy:    opts.Lifecycle.Policy(),
		locker:    opts.Locker,
		events:    opts.Events,
		log:       opts.Logger,
		now:       opts.Now,
	}
}

// Ping reports whether the storage collaborator is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) publish(ev events.Event) {
	if s.events == nil {
		return
	}
	s.events.Publish(ev)
}

// classify maps an error from inside a locked section onto the public taxonomy.
func (s *Service) classify(op string, err error) error {
	var invalid *lifecycle.ValidationError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrForbidden),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.As(err, &invalid),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, lock.ErrNotAcquired):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	default:
		s.log.Error("storage failure", zap.String("op", op), zap.Error(err))
		return &StorageError{Op: op, Err: err}
	}
}

func actorID(a *domain.Actor) string {
	if a == nil {
		return ""
	}
	return a.ID
}
