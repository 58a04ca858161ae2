package api

import (
	"net/http"

	"github.com/b0bbywan/go-mpris-hub/backend"
	"github.com/b0bbywan/go-mpris-hub/backend/mpris"
	"github.com/b0bbywan/go-mpris-hub/logger"
)

func (s *Server) registerServerRoutes(b *backend.Backend) {
	s.mux.HandleFunc(
		"/server",
		JSONHandler(func(w http.ResponseWriter, r *http.Request) (any, error) {
			return b.GetServerDeviceInfo()
		}),
	)

	// SSE event stream
	if s.sse {
		s.mux.HandleFunc("GET /events", sseHandler(s.broadcaster))
		logger.Info("[api] SSE route registered at /events")
	}
}

func (s *Server) registerMPRISRoutes(m *mpris.Registry) {
	s.mux.HandleFunc(
		"GET /players",
		ListPlayersHandler(m),
	)
	s.mux.HandleFunc(
		"GET /players/{player}",
		GetPlayerHandler(m),
	)
	s.mux.HandleFunc(
		"GET /players/{player}/position",
		GetPositionHandler(m),
	)
	s.mux.HandleFunc(
		"POST /players/{player}/play_pause",
		PlayPauseHandler(m),
	)
	s.mux.HandleFunc(
		"POST /players/{player}/next",
		NextHandler(m),
	)
	s.mux.HandleFunc(
		"POST /players/{player}/previous",
		PreviousHandler(m),
	)
	s.mux.HandleFunc(
		"POST /players/{player}/position",
		SetPositionHandler(m),
	)
	s.mux.HandleFunc(
		"POST /players/{player}/shuffle",
		ToggleShuffleHandler(m),
	)
	s.mux.HandleFunc(
		"POST /players/{player}/loop",
		CycleLoopHandler(m),
	)
}
