package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestUnprocessable_Envelope(t *testing.T) {
	rr := httptest.NewRecorder()
	Unprocessable(rr, "VALIDATION_FAILED", "validation failed", "rid-1", map[string]any{"body": "must not be blank"})

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("unexpected content type %q", ct)
	}
	var resp Envelope
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != "VALIDATION_FAILED" || resp.Error.RequestID != "rid-1" {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	if resp.Error.Details["body"] != "must not be blank" {
		t.Fatalf("unexpected details: %+v", resp.Error.Details)
	}
}

func TestInternal(t *testing.T) {
	rr := httptest.NewRecorder()
	Internal(rr, "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestFail_ZeroStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	Fail(rr, Problem{Code: "BROKEN", Message: "broken"})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "Status") {
		t.Fatalf("status leaked into body: %s", rr.Body.String())
	}
	if got := (Problem{Code: "X", Message: "y"}).Error(); got != "X: y" {
		t.Fatalf("unexpected error string %q", got)
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Body string `json:"body"`
	}
	cases := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"body":"hi"}`, false},
		{"empty", ``, true},
		{"unknown field", `{"body":"hi","extra":1}`, true},
		{"trailing object", `{"body":"hi"}{"body":"again"}`, true},
		{"malformed", `{"body":`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var p payload
			err := DecodeJSON(httptest.NewRecorder(), req, &p)
			if (err != nil) != tc.wantErr {
				t.Fatalf("wantErr=%v, got %v", tc.wantErr, err)
			}
			if !tc.wantErr && p.Body != "hi" {
				t.Fatalf("unexpected payload %+v", p)
			}
		})
	}
}
