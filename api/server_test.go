package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/b0bbywan/go-mpris-hub/backend"
	"github.com/b0bbywan/go-mpris-hub/config"
	"github.com/b0bbywan/go-mpris-hub/events"
)

// TestServerDisabled verifies that NewServer returns nil when API is disabled
func TestServerDisabled(t *testing.T) {
	cfg := &config.ApiConfig{
		Enabled: false,
		Port:    8018,
		Listens: []string{"127.0.0.1:8018"},
	}

	b := &backend.Backend{}
	if server := NewServer(context.Background(), cfg, b); server != nil {
		t.Error("NewServer should return nil when API is disabled")
	}

	if server := NewServer(context.Background(), nil, b); server != nil {
		t.Error("NewServer should return nil with a nil config")
	}
}

// TestServerEnabled verifies that NewServer returns a valid server when enabled
func TestServerEnabled(t *testing.T) {
	cfg := &config.ApiConfig{
		Enabled: true,
		Port:    8018,
		Listens: []string{"127.0.0.1:8018"},
	}

	server := NewServer(context.Background(), cfg, &backend.Backend{})
	if server == nil {
		t.Fatal("NewServer should return a non-nil server when API is enabled")
		return
	}

	if server.mux == nil {
		t.Error("Server mux should be initialized")
	}
}

// TestRoutesWithDisabledBackends verifies that routes are not registered for disabled backends
func TestRoutesWithDisabledBackends(t *testing.T) {
	cfg := &config.ApiConfig{
		Enabled: true,
		Port:    8018,
		Listens: []string{"127.0.0.1:8018"},
		SSE:     true,
	}

	// Backend with MPRIS disabled (nil) and no broadcaster
	b := &backend.Backend{
		MPRIS:    nil,
		Zeroconf: nil,
	}

	server := NewServer(context.Background(), cfg, b)
	if server == nil {
		t.Fatal("NewServer should return a non-nil server")
		return
	}

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
		description    string
	}{
		// Server route should always exist
		{
			name:           "server route exists",
			method:         "GET",
			path:           "/server",
			expectedStatus: http.StatusOK,
			description:    "Server info route should always be available",
		},
		// MPRIS routes should not exist
		{
			name:           "players route disabled",
			method:         "GET",
			path:           "/players",
			expectedStatus: http.StatusNotFound,
			description:    "MPRIS routes should not exist when backend is disabled",
		},
		{
			name:           "player detail route disabled",
			method:         "GET",
			path:           "/players/org.mpris.MediaPlayer2.spotify",
			expectedStatus: http.StatusNotFound,
			description:    "MPRIS routes should not exist when backend is disabled",
		},
		{
			name:           "player play_pause route disabled",
			method:         "POST",
			path:           "/players/org.mpris.MediaPlayer2.spotify/play_pause",
			expectedStatus: http.StatusNotFound,
			description:    "MPRIS routes should not exist when backend is disabled",
		},
		// SSE requires a broadcaster, which a bare backend does not carry
		{
			name:           "events route disabled without broadcaster",
			method:         "GET",
			path:           "/events",
			expectedStatus: http.StatusNotFound,
			description:    "SSE route should not exist without a broadcaster",
		},
		// Root must 404
		{
			name:           "root returns 404",
			method:         "GET",
			path:           "/",
			expectedStatus: http.StatusNotFound,
			description:    "Root route should not expose anything",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			server.mux.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("%s: got status %d, want %d - %s",
					tt.name, w.Code, tt.expectedStatus, tt.description)
			}
		})
	}
}

// TestNilBackendHandling verifies server handles nil backend gracefully
func TestNilBackendHandling(t *testing.T) {
	cfg := &config.ApiConfig{
		Enabled: true,
		Port:    8018,
		Listens: []string{"127.0.0.1:8018"},
	}

	// Nil backend
	server := NewServer(context.Background(), cfg, nil)
	if server == nil {
		t.Fatal("NewServer should return a non-nil server even with nil backend")
		return
	}

	// Should not panic when accessing routes
	req := httptest.NewRequest("GET", "/server", nil)
	w := httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)

	// Without backend, /server route won't be registered either
	if w.Code != http.StatusNotFound {
		t.Logf("Server route not registered when backend is nil")
	}
}

// TestServerRouteAlwaysRegistered verifies /server route is always registered
func TestServerRouteAlwaysRegistered(t *testing.T) {
	cfg := &config.ApiConfig{
		Enabled: true,
		Port:    8018,
		Listens: []string{"127.0.0.1:8018"},
	}

	// Backend with no sub-backends but should still have server info
	b := &backend.Backend{}

	server := NewServer(context.Background(), cfg, b)
	if server == nil {
		t.Fatal("NewServer should return a non-nil server")
	}

	req := httptest.NewRequest("GET", "/server", nil)
	w := httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)

	// /server route should exist and return 200
	if w.Code != http.StatusOK {
		t.Errorf("GET /server should return 200, got %d", w.Code)
	}
}

// TestSSERouteRegistered verifies /events is registered when SSE is enabled
// and a broadcaster is available
func TestSSERouteRegistered(t *testing.T) {
	cfg := &config.ApiConfig{
		Enabled: true,
		Port:    8018,
		Listens: []string{"127.0.0.1:8018"},
		SSE:     true,
	}

	upstream := make(chan events.Event)
	b := &backend.Backend{
		Broadcaster: backend.NewBroadcaster(context.Background(), upstream),
	}

	server := NewServer(context.Background(), cfg, b)
	if server == nil {
		t.Fatal("NewServer should return a non-nil server")
	}

	// Pre-cancelled request context: the handler sends the greeting then
	// exits instead of streaming forever.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest("GET", "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("GET /events should return 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
}

// TestRouteMethodRestrictions verifies method restrictions (GET vs POST)
func TestRouteMethodRestrictions(t *testing.T) {
	cfg := &config.ApiConfig{
		Enabled: true,
		Port:    8018,
		Listens: []string{"127.0.0.1:8018"},
	}

	b := &backend.Backend{}
	server := NewServer(context.Background(), cfg, b)

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{
			name:           "GET /server allowed",
			method:         "GET",
			path:           "/server",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "POST /server allowed (no method restriction)",
			method:         "POST",
			path:           "/server",
			expectedStatus: http.StatusOK,
			// Note: /server route has no method restriction, accepts all HTTP methods
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			server.mux.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("got status %d, want %d", w.Code, tt.expectedStatus)
			}
		})
	}
}
