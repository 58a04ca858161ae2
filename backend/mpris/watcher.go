package mpris

import (
	"context"
	"strings"

	"github.com/godbus/dbus/v5"

	idbus "github.com/b0bbywan/go-mpris-hub/backend/internal/dbus"
	"github.com/b0bbywan/go-mpris-hub/logger"
)

// watcher bridges session-bus signals into registry lifecycle and state
// events: NameOwnerChanged drives add/remove, PropertiesChanged and Seeked
// drive per-player updates.
type watcher struct {
	reg    *Registry
	ctx    context.Context
	cancel context.CancelFunc

	ch    chan *dbus.Signal
	rules []string
}

func newWatcher(r *Registry) *watcher {
	ctx, cancel := context.WithCancel(r.ctx)
	return &watcher{
		reg:    r,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes the match rules and launches the signal loop.
func (w *watcher) Start() error {
	conn := w.reg.conn

	rules := []string{
		"type='signal',interface='" + idbus.DBUS_INTERFACE + "',member='NameOwnerChanged',arg0namespace='" + MPRIS_PREFIX + "'",
		"type='signal',interface='" + idbus.DBUS_PROP_IFACE + "',member='PropertiesChanged',path='" + MPRIS_PATH + "'",
		"type='signal',interface='" + MPRIS_PLAYER_IFACE + "',member='Seeked',path='" + MPRIS_PATH + "'",
	}
	for _, rule := range rules {
		if err := idbus.AddMatchRule(conn, rule); err != nil {
			w.removeRules()
			return err
		}
		w.rules = append(w.rules, rule)
	}

	w.ch = make(chan *dbus.Signal, 32)
	conn.Signal(w.ch)
	go w.listen()

	logger.Info("[mpris] bus watcher started")
	return nil
}

func (w *watcher) listen() {
	for {
		select {
		case <-w.ctx.Done():
			return
		case sig, ok := <-w.ch:
			if !ok {
				return
			}
			w.handleSignal(sig)
		}
	}
}

func (w *watcher) handleSignal(sig *dbus.Signal) {
	switch sig.Name {
	case idbus.NAME_OWNER_CHANGED_SIGNAL:
		w.handleNameOwnerChanged(sig)
	case idbus.PROP_CHANGED_SIGNAL:
		w.handlePropertiesChanged(sig)
	case MPRIS_SEEKED_SIGNAL:
		w.handleSeeked(sig)
	default:
		logger.Debug("[mpris] unhandled signal: %s", sig.Name)
	}
}

// handleNameOwnerChanged detects when a player appears or disappears.
// Adding a name already tracked and removing an untracked one are no-ops;
// an owner replaced directly (old and new both set) is ignored, MPRIS names
// don't change hands in practice.
func (w *watcher) handleNameOwnerChanged(sig *dbus.Signal) {
	// Body[0] = bus name, Body[1] = old owner, Body[2] = new owner
	if len(sig.Body) < 3 {
		return
	}
	busName, ok := sig.Body[0].(string)
	if !ok || !strings.HasPrefix(busName, MPRIS_PREFIX+".") {
		return
	}
	oldOwner, _ := sig.Body[1].(string)
	newOwner, _ := sig.Body[2].(string)

	if oldOwner == "" && newOwner != "" {
		logger.Info("[mpris] new player detected: %s", busName)
		if err := w.reg.addPlayer(busName); err != nil {
			logger.Warn("[mpris] failed to add player %s: %v", busName, err)
		}
	} else if oldOwner != "" && newOwner == "" {
		w.reg.removePlayer(busName)
	}
}

func (w *watcher) handlePropertiesChanged(sig *dbus.Signal) {
	changed, iface, err := idbus.FilterSignal(sig)
	if err != nil {
		logger.Debug("[mpris] malformed PropertiesChanged: %v", err)
		return
	}
	if iface != MPRIS_PLAYER_IFACE {
		// We only care about Player changes
		return
	}
	w.reg.handlePropertiesChanged(sig.Sender, changed)
}

func (w *watcher) handleSeeked(sig *dbus.Signal) {
	if len(sig.Body) < 1 {
		return
	}
	position, ok := idbus.CoerceInt64(dbus.MakeVariant(sig.Body[0]))
	if !ok {
		logger.Debug("[mpris] malformed Seeked signal from %s", sig.Sender)
		return
	}
	w.reg.handleSeeked(sig.Sender, position)
}

func (w *watcher) removeRules() {
	conn := w.reg.conn
	if conn == nil {
		return
	}
	for _, rule := range w.rules {
		if err := idbus.RemoveMatchRule(conn, rule); err != nil {
			// Teardown must complete; a dangling rule is logged, not fatal.
			logger.Warn("[mpris] failed to remove match rule: %v", err)
		}
	}
	w.rules = nil
}

// Stop unsubscribes every bus-level subscription and stops the loop. Safe
// to call from the signal loop itself (it does not wait for loop exit).
func (w *watcher) Stop() {
	logger.Info("[mpris] stopping bus watcher")
	w.cancel()
	w.removeRules()
	if w.ch != nil && w.reg.conn != nil {
		w.reg.conn.RemoveSignal(w.ch)
	}
}
