// Package natsconn opens the NATS connection events are published on.
package natsconn

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	DefaultMaxReconnects = 5
	DefaultReconnectWait = 2 * time.Second
)

// Options configures the connection. Zero fields are filled from
// NATS_URL, NATS_MAX_RECONNECTS, NATS_RECONNECT_WAIT and SERVICE_NAME.
type Options struct {
	URL           string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
	Logger        *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.URL == "" {
		o.URL = strings.TrimSpace(os.Getenv("NATS_URL"))
	}
	if o.URL == "" {
		o.URL = nats.DefaultURL
	}
	if o.Name == "" {
		o.Name = strings.TrimSpace(os.Getenv("SERVICE_NAME"))
	}
	if o.MaxReconnects == 0 {
		o.MaxReconnects = intFromEnv("NATS_MAX_RECONNECTS", DefaultMaxReconnects)
	}
	if o.ReconnectWait == 0 {
		o.ReconnectWait = durationFromEnv("NATS_RECONNECT_WAIT", DefaultReconnectWait)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Connect dials NATS once; it does not retry the initial connection so the
// caller can decide whether running without events is acceptable.
func Connect(opts Options) (*nats.Conn, error) {
	opts = opts.withDefaults()
	log := opts.Logger.With(zap.String("nats_url", opts.URL))

	nc, err := nats.Connect(opts.URL,
		nats.Name(opts.Name),
		nats.MaxReconnects(opts.MaxReconnects),
		nats.ReconnectWait(opts.ReconnectWait),
		nats.RetryOnFailedConnect(false),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(*nats.Conn) {
			log.Info("nats reconnected")
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			log.Info("nats connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s (max_reconnects=%d, wait=%s): %w",
			opts.URL, opts.MaxReconnects, opts.ReconnectWait, err)
	}
	log.Info("nats connected", zap.String("client", opts.Name))
	return nc, nil
}

func intFromEnv(key string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
