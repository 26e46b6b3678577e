package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestIndex(t *testing.T) {
	rr := httptest.NewRecorder()
	Index(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/html") {
		t.Errorf("Expected HTML, got %q", rr.Header().Get("Content-Type"))
	}
	body := rr.Body.String()
	for _, want := range []string{`type="password"`, `id="messages"`, `id="prompt"`} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected page to contain %s", want)
		}
	}
}
