package trace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWrapInjectsRequestID(t *testing.T) {
	m := NewMiddleware(nil)

	var seen string
	h := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summary", nil))

	if seen == "" {
		t.Fatal("expected a request ID in handler context")
	}
	if !strings.HasPrefix(seen, "req_") {
		t.Errorf("unexpected request ID format %q", seen)
	}
}

func TestRequestIDsAreUnique(t *testing.T) {
	a := GenerateRequestID()
	b := GenerateRequestID()
	if a == b {
		t.Fatalf("expected distinct IDs, got %q twice", a)
	}
}

func TestGetRequestIDWithoutValue(t *testing.T) {
	if id := GetRequestID(context.Background()); id != "" {
		t.Fatalf("expected empty ID, got %q", id)
	}
}
