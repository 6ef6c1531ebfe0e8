// Package grpcapi serves the discussion service's gRPC health endpoint.
package grpcapi

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the name health checks are reported under.
const ServiceName = "discussion.v1.DiscussionService"

// Pinger is anything whose reachability decides readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health reports SERVING while the pinger answers.
type Health struct {
	srv    *health.Server
	pinger Pinger
	log    *zap.Logger
}

func NewHealth(p Pinger, log *zap.Logger) *Health {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Health{srv: health.NewServer(), pinger: p, log: log}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// NewServer returns a gRPC server exposing the health service and reflection.
func NewServer(h *Health) *grpc.Server {
	s := grpc.NewServer()
	healthpb.RegisterHealthServer(s, h.srv)
	reflection.Register(s)
	return s
}

func (h *Health) set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.srv.SetServingStatus("", status)
	h.srv.SetServingStatus(ServiceName, status)
}

// Probe pings once and updates the reported status.
func (h *Health) Probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.pinger.Ping(ctx); err != nil {
		h.log.Warn("health: store unreachable", zap.Error(err))
		h.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	h.set(healthpb.HealthCheckResponse_SERVING)
}

// Watch probes every interval until ctx is done, then marks the service as shutting down.
func (h *Health) Watch(ctx context.Context, interval time.Duration) {
	h.Probe(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			h.srv.Shutdown()
			return
		case <-t.C:
			h.Probe(ctx)
		}
	}
}
