package mpris

import (
	"context"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/b0bbywan/go-mpris-hub/cache"
	"github.com/b0bbywan/go-mpris-hub/events"
)

// PlaybackStatus represents the current playback state
type PlaybackStatus string

// LoopStatus represents the current loop/repeat state
type LoopStatus string

// PlayerInfo is an immutable snapshot decoded from a player's cached
// properties at one point in time. Positions and lengths are in microseconds.
type PlayerInfo struct {
	Title          string         `json:"title,omitempty"`
	Artists        []string       `json:"artists,omitempty"`
	Album          string         `json:"album,omitempty"`
	ArtURL         string         `json:"art_url,omitempty"`
	TrackID        string         `json:"track_id,omitempty"`
	TrackNumber    int32          `json:"track_number,omitempty"`
	DiscNumber     int32          `json:"disc_number,omitempty"`
	Genres         []string       `json:"genres,omitempty"`
	ContentCreated string         `json:"content_created,omitempty"`
	Status         PlaybackStatus `json:"status"`
	Position       int64          `json:"position"`
	Length         int64          `json:"length"`
	Shuffle        bool           `json:"shuffle"`
	LoopStatus     LoopStatus     `json:"loop_status"`
}

// Callbacks is the observer set installed by Start. All callbacks are
// invoked synchronously relative to the detection event; consumers needing
// batching must debounce themselves. Any field may be nil.
type Callbacks struct {
	Added   func(busName string)
	Removed func(busName string)
	Changed func(busName string)
	Seeked  func(busName string, position int64)
}

// Registry aggregates every MPRIS player on the session bus into one live
// view: it owns the player proxies, their playback clocks and the "current
// player" selection, and dispatches commands back to individual players.
type Registry struct {
	conn     *dbus.Conn
	ctx      context.Context
	clockCfg ClockConfig

	mu      sync.RWMutex
	players map[string]*playerProxy
	clocks  map[string]*playbackClock
	order   []string // insertion order, gives selection a stable fallback
	// pending guards in-flight proxy construction: presence means a build is
	// running, value true means a remove arrived meanwhile and the result
	// must be discarded.
	pending map[string]bool
	current string
	closed  bool

	callbacks Callbacks

	// decoded-snapshot memo, invalidated on every relevant property change
	infoCache *cache.Cache[*PlayerInfo]

	eventCh chan events.Event

	watcher   *watcher
	heartbeat *Heartbeat

	// construction seam, replaced in tests
	buildProxy func(r *Registry, busName string) (*playerProxy, error)
}

// Event payloads carried in events.Event.Data

type PlayerEvent struct {
	BusName string      `json:"bus_name"`
	Info    *PlayerInfo `json:"info,omitempty"`
}

type SeekEvent struct {
	BusName  string `json:"bus_name"`
	Position int64  `json:"position"`
}

type PositionEvent struct {
	BusName  string `json:"bus_name"`
	Position int64  `json:"position"`
	Length   int64  `json:"length"`
}

type CurrentEvent struct {
	BusName string `json:"bus_name"`
}
