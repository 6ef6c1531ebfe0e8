package httpserver

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNew_Defaults(t *testing.T) {
	s := New(Options{Addr: ":0", ServiceName: "discussion", Logger: zap.NewNop()})
	if s.HTTP.Handler == nil {
		t.Fatal("expected a default router")
	}
	if s.HTTP.WriteTimeout != 15*time.Second {
		t.Fatalf("expected 15s write timeout, got %s", s.HTTP.WriteTimeout)
	}
	if s.HTTP.ErrorLog == nil {
		t.Fatal("expected error log bridged to zap")
	}
}
