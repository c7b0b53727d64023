package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestQR(t *testing.T) {
	env := newTestEnv(t)
	created := env.createSession(t)

	rec := env.do(t, http.MethodGet, "/api/sessions/"+created.ID+"/qr.png", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content-type = %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("body is not a PNG")
	}

	expectError(t, env.do(t, http.MethodGet, "/api/sessions/NOPE99/qr.png", nil), http.StatusNotFound, "not_found")
}

func TestJoinURL(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://api.local/api/sessions/ABC234/qr.png", nil)

	tests := []struct {
		name  string
		base  string
		proto string
		want  string
	}{
		{"configured", "https://play.example/", "", "https://play.example/join/ABC234"},
		{"derived", "", "", "http://api.local/join/ABC234"},
		{"behind proxy", "", "https", "https://api.local/join/ABC234"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := req.Clone(req.Context())
			if tt.proto != "" {
				r.Header.Set("X-Forwarded-Proto", tt.proto)
			}
			if got := joinURL(tt.base, r, "ABC234"); got != tt.want {
				t.Errorf("joinURL = %q, want %q", got, tt.want)
			}
		})
	}
}
