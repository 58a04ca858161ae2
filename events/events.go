package events

import "slices"

const (
	TypeServerInfo     = "server.info"
	TypePlayerAdded    = "player.added"
	TypePlayerRemoved  = "player.removed"
	TypePlayerUpdated  = "player.updated"
	TypePlayerSeeked   = "player.seeked"
	TypePlayerPosition = "player.position"
	TypePlayerCurrent  = "player.current"
)

// BackendTypes maps a backend name (as used in the ?backend= SSE filter)
// to the event types it emits.
var BackendTypes = map[string][]string{
	"mpris": {
		TypePlayerAdded,
		TypePlayerRemoved,
		TypePlayerUpdated,
		TypePlayerSeeked,
		TypePlayerPosition,
		TypePlayerCurrent,
	},
}

type Event struct {
	Type string
	Data any
}

// FilterTypes returns a filter passing only the given event types.
// Nil or empty input returns nil, meaning "pass everything".
func FilterTypes(types []string) func(Event) bool {
	if len(types) == 0 {
		return nil
	}
	return func(e Event) bool {
		return slices.Contains(types, e.Type)
	}
}

// FilterBackend returns a filter passing the event types of the named
// backends. Unknown names contribute nothing; if nothing is resolved the
// result is nil (pass everything).
func FilterBackend(names []string) func(Event) bool {
	var types []string
	for _, name := range names {
		types = append(types, BackendTypes[name]...)
	}
	return FilterTypes(types)
}

// NewFilter combines include and exclude type lists into a single filter.
// include empty means "all types"; exclude is applied on top.
func NewFilter(include, exclude []string) func(Event) bool {
	includeFilter := FilterTypes(include)
	if len(exclude) == 0 {
		return includeFilter
	}
	return func(e Event) bool {
		if slices.Contains(exclude, e.Type) {
			return false
		}
		return includeFilter == nil || includeFilter(e)
	}
}
