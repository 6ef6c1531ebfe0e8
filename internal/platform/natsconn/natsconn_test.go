package natsconn

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go"
)

func TestWithDefaults_FromEnv(t *testing.T) {
	t.Setenv("NATS_URL", "nats://events:4222")
	t.Setenv("SERVICE_NAME", "discussion")
	t.Setenv("NATS_MAX_RECONNECTS", "9")
	t.Setenv("NATS_RECONNECT_WAIT", "750ms")

	o := Options{}.withDefaults()
	if o.URL != "nats://events:4222" || o.Name != "discussion" {
		t.Fatalf("unexpected url/name: %+v", o)
	}
	if o.MaxReconnects != 9 || o.ReconnectWait != 750*time.Millisecond {
		t.Fatalf("unexpected reconnect policy: %d %s", o.MaxReconnects, o.ReconnectWait)
	}
	if o.Logger == nil {
		t.Fatal("expected a logger")
	}
}

func TestWithDefaults_ExplicitWins(t *testing.T) {
	t.Setenv("NATS_URL", "nats://ignored:4222")
	t.Setenv("NATS_MAX_RECONNECTS", "9")

	o := Options{URL: "nats://explicit:4222", MaxReconnects: 2}.withDefaults()
	if o.URL != "nats://explicit:4222" || o.MaxReconnects != 2 {
		t.Fatalf("explicit options overridden: %+v", o)
	}
}

func TestWithDefaults_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("NATS_URL", "")
	t.Setenv("NATS_MAX_RECONNECTS", "-3")
	t.Setenv("NATS_RECONNECT_WAIT", "soon")

	o := Options{}.withDefaults()
	if o.URL != nats.DefaultURL {
		t.Fatalf("expected default url, got %q", o.URL)
	}
	if o.MaxReconnects != DefaultMaxReconnects || o.ReconnectWait != DefaultReconnectWait {
		t.Fatalf("expected defaults, got %d %s", o.MaxReconnects, o.ReconnectWait)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(Options{
		URL:           "nats://127.0.0.1:19999",
		MaxReconnects: 1,
		ReconnectWait: 10 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected error connecting to an unreachable server")
	}
}
