package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
)

// MockProviderServer is a test server whose routes are keyed by URL path. Unknown
// paths answer 404. Every request is counted so tests can assert "no network".
type MockProviderServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc

	mu    sync.Mutex
	calls atomic.Int64
}

// NewMockProviderServer starts a new mock provider server.
func NewMockProviderServer(t *testing.T) *MockProviderServer {
	t.Helper()
	m := &MockProviderServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.calls.Add(1)
		m.mu.Lock()
		handler, ok := m.Handlers[r.URL.Path]
		m.mu.Unlock()
		if ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// Handle registers h for path.
func (m *MockProviderServer) Handle(path string, h http.HandlerFunc) {
	m.mu.Lock()
	m.Handlers[path] = h
	m.mu.Unlock()
}

// Calls returns the number of requests served so far.
func (m *MockProviderServer) Calls() int { return int(m.calls.Load()) }

// RedirectClient returns a client that sends every request to the mock server,
// whatever host the URL names. Paths and queries are kept.
func (m *MockProviderServer) RedirectClient() *http.Client {
	target, _ := url.Parse(m.URL)
	base := m.Client().Transport
	return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		r = r.Clone(r.Context())
		r.URL.Scheme = target.Scheme
		r.URL.Host = target.Host
		r.Host = target.Host
		return base.RoundTrip(r)
	})}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// MockPage serves an HTML page at path.
func (m *MockProviderServer) MockPage(path, html string) {
	m.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, html) //nolint:errcheck // test mock response
	})
}

// MockTokenResponse serves a client-credentials token endpoint at path.
func (m *MockProviderServer) MockTokenResponse(path, accessToken string, expiresIn int) {
	m.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		response := map[string]interface{}{
			"access_token": accessToken,
			"expires_in":   expiresIn,
			"token_type":   "bearer",
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	})
}

// MockJSON serves body encoded as JSON at path.
func (m *MockProviderServer) MockJSON(path string, body interface{}) {
	m.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body) //nolint:errcheck // test mock response
	})
}

// BandcampPage renders a minimal Bandcamp-like album page.
func BandcampPage(title, description, credits string) string {
	out := "<html><head><title>" + title + "</title>"
	if description != "" {
		out += `<meta name="description" content="` + description + `">`
	}
	out += "</head><body>"
	if credits != "" {
		out += `<div class="tralbumData tralbum-credits">` + credits + `</div>`
	}
	return out + "</body></html>"
}
