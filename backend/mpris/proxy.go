package mpris

import (
	"slices"
	"sync"

	"github.com/godbus/dbus/v5"

	idbus "github.com/b0bbywan/go-mpris-hub/backend/internal/dbus"
	"github.com/b0bbywan/go-mpris-hub/logger"
)

// playerProxy wraps one player's remote object: it caches the Player
// interface properties, merges PropertiesChanged payloads into that cache
// and issues method calls and property writes scoped to its own bus name.
type playerProxy struct {
	conn    *dbus.Conn
	busName string

	// unique connection name (e.g. :1.107), used to route incoming signals
	// back to the well-known name
	uniqueName string

	identity     string
	desktopEntry string

	mu    sync.RWMutex
	props map[string]dbus.Variant
}

// newPlayerProxy builds a proxy for busName. Construction does bus I/O (the
// initial property fetch plus identity lookups) and fails when the name
// vanished mid-build; the caller logs and drops the player, there is no
// automatic retry.
func newPlayerProxy(r *Registry, busName string) (*playerProxy, error) {
	p := &playerProxy{
		conn:    r.conn,
		busName: busName,
	}

	props, err := idbus.GetAllProperties(p.obj(), MPRIS_PLAYER_IFACE)
	if err != nil {
		return nil, err
	}
	p.props = props

	// Signals arrive with the sender's unique name; resolve it once.
	owner, err := idbus.GetNameOwner(p.conn, busName)
	if err != nil {
		logger.Debug("[mpris] no owner for %s: %v", busName, err)
	}
	p.uniqueName = owner

	p.identity = p.fetchIdentity()
	p.desktopEntry = p.fetchDesktopEntry()

	return p, nil
}

func (p *playerProxy) obj() dbus.BusObject {
	return idbus.GetObject(p.conn, p.busName, MPRIS_PATH)
}

// fetchIdentity reads the root interface's Identity property, falling back
// to the prefix-stripped bus name when the player doesn't expose one.
func (p *playerProxy) fetchIdentity() string {
	v, err := idbus.GetProperty(p.obj(), MPRIS_INTERFACE, "Identity")
	if err != nil {
		return shortName(p.busName)
	}
	identity, ok := idbus.ExtractString(v)
	if !ok || identity == "" {
		return shortName(p.busName)
	}
	return identity
}

// fetchDesktopEntry reads the optional DesktopEntry root property.
func (p *playerProxy) fetchDesktopEntry() string {
	v, err := idbus.GetProperty(p.obj(), MPRIS_INTERFACE, "DesktopEntry")
	if err != nil {
		// Desktop entry is optional
		return ""
	}
	entry, _ := idbus.ExtractString(v)
	return entry
}

// snapshot returns a copy of the cached property set.
func (p *playerProxy) snapshot() map[string]dbus.Variant {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]dbus.Variant, len(p.props))
	for k, v := range p.props {
		out[k] = v
	}
	return out
}

// applyChanged merges a PropertiesChanged payload into the cache and
// reports whether any playback-relevant property changed. Irrelevant
// property churn (Volume, CanSeek, ...) is cached but not reported.
func (p *playerProxy) applyChanged(changed map[string]dbus.Variant) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	relevant := false
	for name, value := range changed {
		p.props[name] = value
		if slices.Contains(playbackProps, name) {
			relevant = true
		}
	}
	return relevant
}

// setCached overwrites a single cached property, used by the heartbeat to
// fold a fresh Position read into the cache.
func (p *playerProxy) setCached(name string, value dbus.Variant) {
	p.mu.Lock()
	p.props[name] = value
	p.mu.Unlock()
}

// call invokes a Player interface method, wrapping failures with the
// method and target so one bad player never takes the aggregation down.
func (p *playerProxy) call(method string, args ...interface{}) error {
	if err := idbus.CallMethod(p.obj(), method, args...); err != nil {
		return &CallError{BusName: p.busName, Method: method, Err: err}
	}
	return nil
}

// setProperty writes a Player interface property (Shuffle, LoopStatus) via
// the standard property-set mechanism.
func (p *playerProxy) setProperty(name string, value interface{}) error {
	if err := idbus.SetProperty(p.obj(), MPRIS_PLAYER_IFACE, name, value); err != nil {
		return &CallError{BusName: p.busName, Method: "Properties.Set " + name, Err: err}
	}
	return nil
}

// readPosition fetches the live Position property from the bus.
func (p *playerProxy) readPosition() (int64, error) {
	v, err := idbus.GetProperty(p.obj(), MPRIS_PLAYER_IFACE, "Position")
	if err != nil {
		return 0, err
	}
	pos, ok := idbus.CoerceInt64(v)
	if !ok {
		return 0, &ValidationError{Field: "Position", Message: "unexpected variant type"}
	}
	return pos, nil
}

// status returns the cached playback status, or "" when unset.
func (p *playerProxy) status() PlaybackStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.props["PlaybackStatus"]; ok {
		if s, ok := idbus.ExtractString(v); ok {
			return PlaybackStatus(s)
		}
	}
	return ""
}
