package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/b0bbywan/go-mpris-hub/backend/mpris"
)

// PlayerSummary est l'état d'un lecteur tel qu'exposé par GET /players
type PlayerSummary struct {
	BusName      string            `json:"bus_name"`
	Identity     string            `json:"identity"`
	Label        string            `json:"label"`
	DesktopEntry string            `json:"desktop_entry,omitempty"`
	Current      bool              `json:"current"`
	Info         *mpris.PlayerInfo `json:"info,omitempty"`
}

type positionResponse struct {
	BusName  string `json:"bus_name"`
	Position int64  `json:"position"`
	Length   int64  `json:"length,omitempty"`
}

type positionRequest struct {
	TrackID string `json:"track_id"`
	// Position is in seconds, fractional values allowed
	Position float64 `json:"position"`
}

func summarize(m *mpris.Registry, busName string) PlayerSummary {
	return PlayerSummary{
		BusName:      busName,
		Identity:     m.GetPlayerIdentity(busName),
		Label:        m.GetDisplayLabel(busName),
		DesktopEntry: m.GetDesktopEntry(busName),
		Current:      m.Current() == busName,
		Info:         m.GetPlayerInfo(busName),
	}
}

// ListPlayersHandler retourne la liste de tous les lecteurs MPRIS
func ListPlayersHandler(m *mpris.Registry) http.HandlerFunc {
	return JSONHandler(func(w http.ResponseWriter, r *http.Request) (any, error) {
		names := m.GetPlayers()
		players := make([]PlayerSummary, 0, len(names))
		for _, name := range names {
			players = append(players, summarize(m, name))
		}
		return players, nil
	})
}

// GetPlayerHandler retourne l'état d'un seul lecteur
func GetPlayerHandler(m *mpris.Registry) http.HandlerFunc {
	return withPlayer(func(w http.ResponseWriter, r *http.Request, busName string) {
		if _, err := m.Position(busName); err != nil {
			handleMPRISError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(summarize(m, busName)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

// GetPositionHandler retourne la position interpolée (en microsecondes)
func GetPositionHandler(m *mpris.Registry) http.HandlerFunc {
	return withPlayer(func(w http.ResponseWriter, r *http.Request, busName string) {
		pos, err := m.Position(busName)
		if err != nil {
			handleMPRISError(w, err)
			return
		}
		var length int64
		if info := m.GetPlayerInfo(busName); info != nil {
			length = info.Length
		}
		w.Header().Set("Content-Type", "application/json")
		resp := positionResponse{BusName: busName, Position: pos, Length: length}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

// withPlayer extrait le busName et appelle next
func withPlayer(
	next func(w http.ResponseWriter, r *http.Request, busName string),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		busName := r.PathValue("player")
		next(w, r, busName)
	}
}

// withBody parse et valide le body JSON, puis appelle next
func withBody[T any](
	validate func(*T) error,
	next func(w http.ResponseWriter, r *http.Request, req *T),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var req T
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON payload", http.StatusBadRequest)
			return
		}

		if validate != nil {
			if err := validate(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}

		next(w, r, &req)
	}
}

// handleMPRISError gère les erreurs MPRIS et retourne la réponse HTTP appropriée
func handleMPRISError(w http.ResponseWriter, err error) {
	if err == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	// Gérer les erreurs de busName invalide
	var invalidBusNameErr *mpris.InvalidBusNameError
	if errors.As(err, &invalidBusNameErr) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Gérer les erreurs de paramètres invalides
	var validationErr *mpris.ValidationError
	if errors.As(err, &validationErr) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Gérer les erreurs de player not found
	var notFoundErr *mpris.PlayerNotFoundError
	if errors.As(err, &notFoundErr) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	// Un appel D-Bus qui échoue est un problème du lecteur, pas du client
	var callErr *mpris.CallError
	if errors.As(err, &callErr) {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// Handlers pour actions simples
func PlayPauseHandler(m *mpris.Registry) http.HandlerFunc {
	return withPlayer(func(w http.ResponseWriter, r *http.Request, busName string) {
		handleMPRISError(w, m.PlayPause(busName))
	})
}

func NextHandler(m *mpris.Registry) http.HandlerFunc {
	return withPlayer(func(w http.ResponseWriter, r *http.Request, busName string) {
		handleMPRISError(w, m.Next(busName))
	})
}

func PreviousHandler(m *mpris.Registry) http.HandlerFunc {
	return withPlayer(func(w http.ResponseWriter, r *http.Request, busName string) {
		handleMPRISError(w, m.Previous(busName))
	})
}

func ToggleShuffleHandler(m *mpris.Registry) http.HandlerFunc {
	return withPlayer(func(w http.ResponseWriter, r *http.Request, busName string) {
		handleMPRISError(w, m.ToggleShuffle(busName))
	})
}

func CycleLoopHandler(m *mpris.Registry) http.HandlerFunc {
	return withPlayer(func(w http.ResponseWriter, r *http.Request, busName string) {
		handleMPRISError(w, m.CycleLoopStatus(busName))
	})
}

// Handlers pour actions avec body
func SetPositionHandler(m *mpris.Registry) http.HandlerFunc {
	return withPlayer(func(w http.ResponseWriter, r *http.Request, busName string) {
		withBody(
			func(req *positionRequest) error {
				if req.TrackID == "" {
					return &validationError{"missing track_id"}
				}
				if req.Position < 0 {
					return &validationError{"position cannot be negative"}
				}
				return nil
			},
			func(w http.ResponseWriter, r *http.Request, req *positionRequest) {
				handleMPRISError(w, m.SetPosition(busName, req.TrackID, req.Position))
			},
		)(w, r)
	})
}

type validationError struct {
	message string
}

func (e *validationError) Error() string {
	return e.message
}
