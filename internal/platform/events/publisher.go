// Package events provides a fire-and-forget NATS JetStream publisher for
// discussion domain events.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// StreamName is the JetStream stream that captures every discussion.* subject.
const StreamName = "DISCUSSION"

// Subjects for every event the discussion service emits.
const (
	SubjectThreadCreated  = "discussion.thread.created"
	SubjectThreadClosed   = "discussion.thread.closed"
	SubjectThreadReopened = "discussion.thread.reopened"

	SubjectCommentCreated   = "discussion.comment.created"
	SubjectCommentEdited    = "discussion.comment.edited"
	SubjectCommentDeleted   = "discussion.comment.deleted"
	SubjectCommentUndeleted = "discussion.comment.undeleted"
	SubjectCommentRestored  = "discussion.comment.restored"
	SubjectCommentVoted     = "discussion.comment.voted"
	SubjectCommentUnvoted   = "discussion.comment.unvoted"
)

// Event is the envelope sent to all discussion.* subjects.
type Event struct {
	EventID    string         `json:"event_id"`
	Subject    string         `json:"subject"`
	ActorID    string         `json:"actor_id,omitempty"`
	ThreadID   string         `json:"thread_id,omitempty"`
	CommentID  string         `json:"comment_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Properties map[string]any `json:"properties,omitempty"`
}

// jetStream is the subset of nats.JetStreamContext the publisher needs.
type jetStream interface {
	PublishAsync(subj string, data []byte, opts ...nats.PubOpt) (nats.PubAckFuture, error)
}

// Publisher publishes events to NATS JetStream.
// A nil pointer and a publisher without a stream are both no-op stubs.
type Publisher struct {
	js  jetStream
	log *zap.Logger
	now func() time.Time
}

// New creates a Publisher using an existing JetStream context.
// Pass js=nil to get a no-op stub.
func New(js nats.JetStreamContext, log *zap.Logger) *Publisher {
	p := &Publisher{log: log, now: func() time.Time { return time.Now().UTC() }}
	if js != nil {
		p.js = js
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	return p
}

// EnsureStream creates the DISCUSSION stream if it does not exist yet.
func EnsureStream(js nats.JetStreamContext, log *zap.Logger) {
	_, err := js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{"discussion.>"},
		Storage:  nats.FileStorage,
	})
	if err != nil {
		log.Warn("events: failed to create stream (may already exist)", zap.String("stream", StreamName), zap.Error(err))
	}
}

// Publish sends ev asynchronously. Failures are logged and never reach the caller.
func (p *Publisher) Publish(ev Event) {
	if p == nil || p.js == nil {
		return
	}
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = p.now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("events: marshal failed", zap.String("subject", ev.Subject), zap.Error(err))
		return
	}
	if _, err := p.js.PublishAsync(ev.Subject, data); err != nil {
		p.log.Warn("events: publish failed", zap.String("subject", ev.Subject), zap.Error(err))
	}
}
