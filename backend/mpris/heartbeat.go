package mpris

import (
	"context"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/b0bbywan/go-mpris-hub/events"
	"github.com/b0bbywan/go-mpris-hub/logger"
)

// Heartbeat periodically re-reads the Position of playing players and feeds
// the result through the clock's drift-resync rule, catching external seeks
// whose Seeked signal never arrived. It starts whenever a player enters
// Playing and stops itself once nothing is playing anymore. Consumers get a
// player.position event per sample with the interpolated position.
type Heartbeat struct {
	reg      *Registry
	interval time.Duration

	mu     sync.Mutex
	active bool
	cancel context.CancelFunc
}

func NewHeartbeat(r *Registry, interval time.Duration) *Heartbeat {
	return &Heartbeat{
		reg:      r,
		interval: interval,
	}
}

// Start launches the heartbeat if it is not already running. Idempotent.
func (h *Heartbeat) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.active {
		return
	}
	h.active = true
	ctx, cancel := context.WithCancel(h.reg.ctx)
	h.cancel = cancel
	go h.run(ctx)
}

// StartIfAnyPlaying launches the heartbeat if at least one tracked player
// is already playing, used right after the initial scan.
func (h *Heartbeat) StartIfAnyPlaying() {
	for _, name := range h.reg.GetPlayers() {
		info := h.reg.GetPlayerInfo(name)
		if info != nil && info.Status == StatusPlaying {
			logger.Debug("[mpris] player %s already playing, starting heartbeat", name)
			h.Start()
			return
		}
	}
}

// Stop halts the heartbeat.
func (h *Heartbeat) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// IsRunning reports whether the heartbeat loop is active.
func (h *Heartbeat) IsRunning() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

func (h *Heartbeat) run(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		h.active = false
		h.mu.Unlock()
		logger.Debug("[mpris] position heartbeat stopped")
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	logger.Debug("[mpris] position heartbeat started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !h.samplePlayingPositions() {
				// Auto-stop: nothing is playing anymore.
				return
			}
		}
	}
}

// samplePlayingPositions polls the live Position of every playing player.
// Returns false once no tracked player is playing.
func (h *Heartbeat) samplePlayingPositions() bool {
	r := h.reg

	r.mu.RLock()
	playing := make([]string, 0, len(r.order))
	for _, name := range r.order {
		if clock := r.clocks[name]; clock != nil && clock.playing {
			playing = append(playing, name)
		}
	}
	r.mu.RUnlock()

	if len(playing) == 0 {
		return false
	}

	for _, name := range playing {
		r.mu.RLock()
		proxy := r.players[name]
		r.mu.RUnlock()
		if proxy == nil {
			continue
		}

		// Bus read without the registry lock held.
		reported, err := proxy.readPosition()
		if err != nil {
			logger.Debug("[mpris] failed to read position for %s: %v", name, err)
			continue
		}
		proxy.setCached("Position", dbus.MakeVariant(reported))

		now := time.Now()
		r.mu.Lock()
		clock := r.clocks[name]
		if clock == nil {
			r.mu.Unlock()
			continue
		}
		clock.applyPositionReport(reported, now)
		position := clock.positionAt(now)
		length := clock.length
		r.mu.Unlock()

		r.emit(events.TypePlayerPosition, PositionEvent{
			BusName:  name,
			Position: position,
			Length:   length,
		})
	}
	return true
}
