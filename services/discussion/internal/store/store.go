package store

import (
	"context"
	"errors"

	"github.com/example/discussion-platform/services/discussion/internal/domain"
)

// Sentinel errors
var (
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a persisted aggregate changed since it was loaded,
	// or when a thread already exists for a parent.
	ErrConflict = errors.New("conflict")
)

// Store defines the contract for thread and comment persistence.
// Persist is atomic per comment aggregate (comment row plus its votes) and
// rejects a comment whose Version no longer matches the stored one.
type Store interface {
	CreateThread(ctx context.Context, t domain.Thread) (domain.Thread, error)
	FindThread(ctx context.Context, id string) (domain.Thread, error)
	FindThreadByParent(ctx context.Context, parentType, parentID string) (domain.Thread, error)
	SaveThread(ctx context.Context, t domain.Thread) error

	InsertComment(ctx context.Context, c domain.Comment) (domain.Comment, error)
	FindComment(ctx context.Context, id string) (domain.Comment, error)
	// ListComments returns a thread's comments in insertion order.
	ListComments(ctx context.Context, threadID string) ([]domain.Comment, error)
	Persist(ctx context.Context, c domain.Comment) (domain.Comment, error)

	Ping(ctx context.Context) error
}
