package mpris

import (
	"context"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"

	idbus "github.com/b0bbywan/go-mpris-hub/backend/internal/dbus"
	"github.com/b0bbywan/go-mpris-hub/cache"
	"github.com/b0bbywan/go-mpris-hub/events"
	"github.com/b0bbywan/go-mpris-hub/logger"
)

// New connects to the session bus and builds an empty Registry. Nothing is
// tracked until Start runs the initial scan.
func New(ctx context.Context, clockCfg ClockConfig, heartbeatInterval time.Duration) (*Registry, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, err
	}
	r := newRegistry(ctx, conn, clockCfg, heartbeatInterval)
	return r, nil
}

func newRegistry(ctx context.Context, conn *dbus.Conn, clockCfg ClockConfig, heartbeatInterval time.Duration) *Registry {
	if heartbeatInterval <= 0 {
		heartbeatInterval = 2 * time.Second
	}
	r := &Registry{
		conn:       conn,
		ctx:        ctx,
		clockCfg:   clockCfg,
		players:    make(map[string]*playerProxy),
		clocks:     make(map[string]*playbackClock),
		pending:    make(map[string]bool),
		infoCache:  cache.New[*PlayerInfo](0), // TTL=0 = no expiration
		eventCh:    make(chan events.Event, 64),
		buildProxy: newPlayerProxy,
	}
	r.heartbeat = NewHeartbeat(r, heartbeatInterval)
	return r
}

// Events returns the registry's event stream, consumed by the broadcaster.
func (r *Registry) Events() <-chan events.Event {
	return r.eventCh
}

// Start installs the observer set, scans the bus for players that already
// exist and then begins listening for ownership changes. It returns once
// the initial scan completes; scan errors are logged, never fatal.
func (r *Registry) Start(callbacks Callbacks) error {
	logger.Debug("[mpris] starting registry")

	r.mu.Lock()
	r.callbacks = callbacks
	r.mu.Unlock()

	// Scan before listening so players that predate the subscription are
	// seen; the add path is idempotent, so the overlap with early signals
	// is harmless.
	names, err := idbus.ListNames(r.conn)
	if err != nil {
		logger.Error("[mpris] initial scan failed: %v", err)
	} else {
		for _, name := range names {
			if strings.HasPrefix(name, MPRIS_PREFIX+".") {
				if err := r.addPlayer(name); err != nil {
					logger.Warn("[mpris] failed to add player %s: %v", name, err)
				}
			}
		}
	}

	w := newWatcher(r)
	if err := w.Start(); err != nil {
		return err
	}
	r.mu.Lock()
	r.watcher = w
	r.mu.Unlock()

	r.heartbeat.StartIfAnyPlaying()

	logger.Info("[mpris] registry started, tracking %d players", len(r.GetPlayers()))
	return nil
}

// emit pushes an event without ever blocking a signal handler.
func (r *Registry) emit(typ string, data any) {
	select {
	case r.eventCh <- events.Event{Type: typ, Data: data}:
	default:
		logger.Debug("[mpris] event channel full, dropping %s", typ)
	}
}

// addPlayer tracks a new bus name. Idempotent: a name already tracked, or
// whose proxy is still under construction, is a no-op. When the name is
// removed while construction is in flight, the finished proxy is discarded
// instead of installed.
func (r *Registry) addPlayer(busName string) error {
	if err := validateBusName(busName); err != nil {
		return err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	if _, ok := r.players[busName]; ok {
		r.mu.Unlock()
		return nil
	}
	if _, ok := r.pending[busName]; ok {
		r.mu.Unlock()
		return nil
	}
	r.pending[busName] = false
	r.mu.Unlock()

	// Bus I/O happens without the lock held.
	proxy, err := r.buildProxy(r, busName)

	r.mu.Lock()
	cancelled := r.pending[busName]
	delete(r.pending, busName)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	if cancelled || r.closed {
		// The name vanished while the proxy was being built.
		r.mu.Unlock()
		logger.Debug("[mpris] dropping proxy for %s, removed during construction", busName)
		return nil
	}

	r.players[busName] = proxy
	r.order = append(r.order, busName)
	clock := newPlaybackClock(r.clockCfg)
	r.clocks[busName] = clock

	info := decodePlayerInfo(proxy.snapshot())
	if info != nil {
		clock.applySnapshot(info, time.Now())
		r.infoCache.Set(busName, info)
	}
	becameCurrent := r.selectOnAdded(busName, info)
	added := r.callbacks.Added
	r.mu.Unlock()

	logger.Info("[mpris] new player tracked: %s", busName)
	if added != nil {
		added(busName)
	}
	r.emit(events.TypePlayerAdded, PlayerEvent{BusName: busName, Info: info})
	if becameCurrent {
		r.emit(events.TypePlayerCurrent, CurrentEvent{BusName: busName})
	}
	if info != nil && info.Status == StatusPlaying {
		r.heartbeat.Start()
	}
	return nil
}

// removePlayer stops tracking a bus name. Removing an untracked name is a
// no-op; an in-flight construction for the name is cancelled.
func (r *Registry) removePlayer(busName string) {
	r.mu.Lock()
	if _, ok := r.pending[busName]; ok {
		r.pending[busName] = true
	}
	if _, ok := r.players[busName]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.players, busName)
	delete(r.clocks, busName)
	if idx := slices.Index(r.order, busName); idx >= 0 {
		r.order = slices.Delete(r.order, idx, idx+1)
	}
	r.infoCache.Delete(busName)
	newCurrent, currentChanged := r.selectOnRemoved(busName)
	removed := r.callbacks.Removed
	r.mu.Unlock()

	logger.Info("[mpris] player removed: %s", busName)
	if removed != nil {
		removed(busName)
	}
	r.emit(events.TypePlayerRemoved, PlayerEvent{BusName: busName})
	if currentChanged {
		r.emit(events.TypePlayerCurrent, CurrentEvent{BusName: newCurrent})
	}
}

// handlePropertiesChanged routes a PropertiesChanged payload from the bus
// to the owning proxy and, when a playback-relevant field changed, refreshes
// the clock and selection and fires the changed callback.
func (r *Registry) handlePropertiesChanged(sender string, changed map[string]dbus.Variant) {
	busName, proxy := r.findByUniqueName(sender)
	if proxy == nil {
		// Signal from an untracked player, ignore
		return
	}
	if !proxy.applyChanged(changed) {
		return
	}

	info := decodePlayerInfo(proxy.snapshot())

	r.mu.Lock()
	if _, ok := r.players[busName]; !ok {
		// Removed while the payload was being decoded.
		r.mu.Unlock()
		return
	}
	r.infoCache.Delete(busName)
	if info != nil {
		if clock := r.clocks[busName]; clock != nil {
			clock.applySnapshot(info, time.Now())
		}
		r.infoCache.Set(busName, info)
	}
	stolen := r.selectOnChanged(busName, info)
	changedCb := r.callbacks.Changed
	r.mu.Unlock()

	if changedCb != nil {
		changedCb(busName)
	}
	r.emit(events.TypePlayerUpdated, PlayerEvent{BusName: busName, Info: info})
	if stolen {
		r.emit(events.TypePlayerCurrent, CurrentEvent{BusName: busName})
	}
	if info != nil && info.Status == StatusPlaying {
		r.heartbeat.Start()
	}
}

// handleSeeked applies a player's authoritative Seeked signal.
func (r *Registry) handleSeeked(sender string, position int64) {
	busName, proxy := r.findByUniqueName(sender)
	if proxy == nil {
		return
	}
	proxy.setCached("Position", dbus.MakeVariant(position))

	r.mu.Lock()
	if _, ok := r.players[busName]; !ok {
		r.mu.Unlock()
		return
	}
	if clock := r.clocks[busName]; clock != nil {
		clock.applySeeked(position, time.Now())
	}
	r.infoCache.Delete(busName)
	seeked := r.callbacks.Seeked
	r.mu.Unlock()

	logger.Debug("[mpris] %s seeked to %dµs", busName, position)
	if seeked != nil {
		seeked(busName, position)
	}
	r.emit(events.TypePlayerSeeked, SeekEvent{BusName: busName, Position: position})
}

// findByUniqueName maps a signal sender (unique connection name) back to
// the tracked well-known name.
func (r *Registry) findByUniqueName(sender string) (string, *playerProxy) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, p := range r.players {
		if p.uniqueName == sender || name == sender {
			return name, p
		}
	}
	return "", nil
}

// GetPlayers returns the tracked bus names in insertion order. The returned
// slice is a copy, callers may mutate it freely.
func (r *Registry) GetPlayers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// GetPlayerInfo returns the latest decoded snapshot for a tracked name, or
// nil when the name is untracked or its state is not decodable.
func (r *Registry) GetPlayerInfo(busName string) *PlayerInfo {
	r.mu.RLock()
	proxy := r.players[busName]
	r.mu.RUnlock()
	if proxy == nil {
		return nil
	}
	info, _ := r.infoCache.GetOrCompute(busName, func() (*PlayerInfo, bool) {
		decoded := decodePlayerInfo(proxy.snapshot())
		return decoded, decoded != nil
	})
	return info
}

// GetPlayerIdentity returns the player's human-readable identity, falling
// back to the prefix-stripped bus name.
func (r *Registry) GetPlayerIdentity(busName string) string {
	r.mu.RLock()
	proxy := r.players[busName]
	r.mu.RUnlock()
	if proxy == nil || proxy.identity == "" {
		return shortName(busName)
	}
	return proxy.identity
}

// GetDesktopEntry returns the player's desktop entry name, or "" when the
// player doesn't expose one. Icon resolution is the consumer's concern.
func (r *Registry) GetDesktopEntry(busName string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if proxy := r.players[busName]; proxy != nil {
		return proxy.desktopEntry
	}
	return ""
}

// GetGroupedPlayers groups tracked names by base application, collapsing
// the .instance_<pid>_<serial> suffix multi-window apps append.
func (r *Registry) GetGroupedPlayers() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	groups := make(map[string][]string)
	for _, name := range r.order {
		base := baseAppName(name)
		groups[base] = append(groups[base], name)
	}
	return groups
}

// GetDisplayLabel returns a label for one player instance. When several
// instances of the same base app are tracked, the current title is appended
// so they can be told apart.
func (r *Registry) GetDisplayLabel(busName string) string {
	identity := r.GetPlayerIdentity(busName)

	base := baseAppName(busName)
	instances := 0
	r.mu.RLock()
	for _, name := range r.order {
		if baseAppName(name) == base {
			instances++
		}
	}
	r.mu.RUnlock()
	if instances <= 1 {
		return identity
	}

	info := r.GetPlayerInfo(busName)
	if info == nil || info.Title == "" {
		return identity
	}
	title := info.Title
	if runes := []rune(title); len(runes) > 25 {
		title = string(runes[:25]) + "..."
	}
	return identity + ": " + title
}

// Current returns the bus name of the current player, or "" when none is
// tracked.
func (r *Registry) Current() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Position returns the interpolated playback position of a tracked player
// in microseconds.
func (r *Registry) Position(busName string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clock := r.clocks[busName]
	if clock == nil {
		return 0, &PlayerNotFoundError{BusName: busName}
	}
	return clock.positionAt(time.Now()), nil
}

func (r *Registry) getProxy(busName string) (*playerProxy, error) {
	if err := validateBusName(busName); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	proxy := r.players[busName]
	if proxy == nil {
		return nil, &PlayerNotFoundError{BusName: busName}
	}
	return proxy, nil
}

// PlayPause toggles playback on a player.
func (r *Registry) PlayPause(busName string) error {
	proxy, err := r.getProxy(busName)
	if err != nil {
		return err
	}
	logger.Debug("[mpris] toggling play/pause for %s", busName)
	return proxy.call(MPRIS_METHOD_PLAY_PAUSE)
}

// Next skips to the next track.
func (r *Registry) Next(busName string) error {
	proxy, err := r.getProxy(busName)
	if err != nil {
		return err
	}
	logger.Debug("[mpris] next track for %s", busName)
	return proxy.call(MPRIS_METHOD_NEXT)
}

// Previous goes back to the previous track.
func (r *Registry) Previous(busName string) error {
	proxy, err := r.getProxy(busName)
	if err != nil {
		return err
	}
	logger.Debug("[mpris] previous track for %s", busName)
	return proxy.call(MPRIS_METHOD_PREVIOUS)
}

// SetPosition seeks a player to an absolute position given in seconds. The
// clock is updated optimistically before the remote call so the displayed
// position never waits for the bus round trip. For the NoTrack sentinel
// track id, SetPosition would be a silent no-op, so a relative Seek is
// issued instead.
func (r *Registry) SetPosition(busName, trackID string, seconds float64) error {
	if trackID == "" {
		return &ValidationError{Field: "track_id", Message: "cannot be empty"}
	}
	if seconds < 0 {
		return &ValidationError{Field: "position", Message: "cannot be negative"}
	}
	proxy, err := r.getProxy(busName)
	if err != nil {
		return err
	}
	target := int64(math.Floor(seconds * 1e6))

	now := time.Now()
	r.mu.Lock()
	var interpolated int64
	if clock := r.clocks[busName]; clock != nil {
		interpolated = clock.positionAt(now)
		clock.seekTo(target, now)
	}
	r.mu.Unlock()

	logger.Debug("[mpris] setting position to %dµs for %s", target, busName)
	if trackID == MPRIS_NO_TRACK {
		return proxy.call(MPRIS_METHOD_SEEK, target-interpolated)
	}
	return proxy.call(MPRIS_METHOD_SET_POSITION, dbus.ObjectPath(trackID), target)
}

// BeginDrag marks a live slider drag on a player: until EndDrag, even the
// authoritative Seeked signal leaves the displayed position alone.
func (r *Registry) BeginDrag(busName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clock := r.clocks[busName]
	if clock == nil {
		return &PlayerNotFoundError{BusName: busName}
	}
	clock.beginDrag()
	return nil
}

// EndDrag releases a drag at the given position (seconds) and issues the
// seek against the player's current track.
func (r *Registry) EndDrag(busName string, seconds float64) error {
	proxy, err := r.getProxy(busName)
	if err != nil {
		return err
	}
	info := r.GetPlayerInfo(busName)
	target := int64(math.Floor(seconds * 1e6))

	now := time.Now()
	r.mu.Lock()
	clock := r.clocks[busName]
	if clock == nil {
		r.mu.Unlock()
		return &PlayerNotFoundError{BusName: busName}
	}
	interpolated := clock.positionAt(now)
	clock.endDrag(target, now)
	r.mu.Unlock()

	if info == nil || info.TrackID == "" || info.TrackID == "/" || info.TrackID == MPRIS_NO_TRACK {
		return proxy.call(MPRIS_METHOD_SEEK, target-interpolated)
	}
	return proxy.call(MPRIS_METHOD_SET_POSITION, dbus.ObjectPath(info.TrackID), target)
}

// ToggleShuffle reads the current shuffle state and writes its negation.
// Read-then-write is not atomic: a rapid double invocation can race against
// the player's own notification, last write wins.
func (r *Registry) ToggleShuffle(busName string) error {
	proxy, err := r.getProxy(busName)
	if err != nil {
		return err
	}
	info := r.GetPlayerInfo(busName)
	if info == nil {
		return &ValidationError{Field: "shuffle", Message: "player state not available"}
	}
	logger.Debug("[mpris] setting shuffle to %v for %s", !info.Shuffle, busName)
	return proxy.setProperty("Shuffle", !info.Shuffle)
}

// CycleLoopStatus advances the loop mode None -> Track -> Playlist -> None.
// An unknown current value is treated as None before advancing.
func (r *Registry) CycleLoopStatus(busName string) error {
	proxy, err := r.getProxy(busName)
	if err != nil {
		return err
	}
	info := r.GetPlayerInfo(busName)
	if info == nil {
		return &ValidationError{Field: "loop", Message: "player state not available"}
	}
	idx := slices.Index(loopCycle, info.LoopStatus)
	if idx < 0 {
		idx = 0
	}
	next := loopCycle[(idx+1)%len(loopCycle)]
	logger.Debug("[mpris] setting loop status to %s for %s", next, busName)
	return proxy.setProperty("LoopStatus", string(next))
}

// Close tears the registry down: unsubscribes every bus-level subscription,
// releases every proxy and clears every mapping. Safe to call more than
// once and safe to call from within a callback the registry fired.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	for name := range r.pending {
		r.pending[name] = true
	}
	names := slices.Clone(r.order)
	r.players = make(map[string]*playerProxy)
	r.clocks = make(map[string]*playbackClock)
	r.order = nil
	r.current = ""
	r.callbacks = Callbacks{}
	w := r.watcher
	r.watcher = nil
	hb := r.heartbeat
	r.mu.Unlock()

	if hb != nil {
		hb.Stop()
	}
	// The watcher unsubscribes through the connection, so it stops first.
	if w != nil {
		w.Stop()
	}
	r.infoCache.Clear()

	r.mu.Lock()
	conn := r.conn
	r.conn = nil
	r.mu.Unlock()
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Warn("[mpris] failed to close bus connection: %v", err)
		}
	}
	logger.Debug("[mpris] registry closed, released %d players", len(names))
}
