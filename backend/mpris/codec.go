package mpris

import (
	"strings"

	"github.com/godbus/dbus/v5"

	idbus "github.com/b0bbywan/go-mpris-hub/backend/internal/dbus"
)

// decodePlayerInfo turns a player's cached property set into a PlayerInfo
// snapshot. It is pure and never panics: every field is extracted
// defensively, so one malformed value degrades that field only. The whole
// decode yields nil in exactly two cases: a PlaybackStatus outside
// Playing/Paused/Stopped (player in a transient state), or an absent/empty
// Metadata dictionary (player exists but has no media loaded).
func decodePlayerInfo(props map[string]dbus.Variant) *PlayerInfo {
	statusV, ok := props["PlaybackStatus"]
	if !ok {
		return nil
	}
	status, ok := idbus.ExtractString(statusV)
	if !ok {
		return nil
	}
	switch PlaybackStatus(status) {
	case StatusPlaying, StatusPaused, StatusStopped:
	default:
		return nil
	}

	metaV, ok := props["Metadata"]
	if !ok {
		return nil
	}
	meta, ok := idbus.ExtractVariantMap(metaV)
	if !ok || len(meta) == 0 {
		return nil
	}

	info := &PlayerInfo{
		Status:         PlaybackStatus(status),
		Title:          metaString(meta, metaTitle),
		Album:          metaString(meta, metaAlbum),
		ArtURL:         metaString(meta, metaArtURL),
		ContentCreated: metaString(meta, metaContentCreated),
		LoopStatus:     LoopNone,
	}

	if v, ok := meta[metaTrackID]; ok {
		if id, ok := idbus.ExtractObjectPath(v); ok {
			info.TrackID = id
		}
	}
	if info.TrackID == "" {
		info.TrackID = "/"
	}

	// nil when absent, distinct from an empty list
	if v, ok := meta[metaArtist]; ok {
		info.Artists, _ = idbus.ExtractStringSlice(v)
	}
	if v, ok := meta[metaGenre]; ok {
		info.Genres, _ = idbus.ExtractStringSlice(v)
	}

	if v, ok := meta[metaLength]; ok {
		if length, ok := idbus.CoerceInt64(v); ok && length > 0 {
			info.Length = length
		}
	}
	if v, ok := meta[metaTrackNumber]; ok {
		if n, ok := idbus.CoerceInt64(v); ok {
			info.TrackNumber = int32(n)
		}
	}
	if v, ok := meta[metaDiscNumber]; ok {
		if n, ok := idbus.CoerceInt64(v); ok {
			info.DiscNumber = int32(n)
		}
	}

	if v, ok := props["Position"]; ok {
		if pos, ok := idbus.CoerceInt64(v); ok && pos > 0 {
			info.Position = pos
		}
	}
	info.Shuffle = idbus.MapBool(props, "Shuffle")
	if v, ok := props["LoopStatus"]; ok {
		if loop, ok := idbus.ExtractString(v); ok {
			switch LoopStatus(loop) {
			case LoopNone, LoopTrack, LoopPlaylist:
				info.LoopStatus = LoopStatus(loop)
			}
		}
	}

	return info
}

func metaString(meta map[string]dbus.Variant, key string) string {
	v, ok := meta[key]
	if !ok {
		return ""
	}
	s, _ := idbus.ExtractString(v)
	return s
}

// validateBusName validates that a busName is MPRIS-compliant
func validateBusName(busName string) error {
	if busName == "" {
		return &InvalidBusNameError{BusName: busName, Reason: "empty bus name"}
	}
	if !strings.HasPrefix(busName, MPRIS_PREFIX+".") {
		return &InvalidBusNameError{BusName: busName, Reason: "must start with org.mpris.MediaPlayer2."}
	}
	// Check that it doesn't contain dangerous characters
	if strings.Contains(busName, "..") || strings.Contains(busName, "/") || strings.ContainsAny(busName, "\x00\r\n") {
		return &InvalidBusNameError{BusName: busName, Reason: "contains illegal characters"}
	}
	return nil
}

// baseAppName strips the .instance_<pid>_<serial> suffix some players
// (browser tabs mostly) append, so several windows of one application group
// under the same base name.
func baseAppName(busName string) string {
	idx := strings.Index(busName, ".instance_")
	if idx < 0 {
		return busName
	}
	suffix := busName[idx+len(".instance_"):]
	first, rest, ok := strings.Cut(suffix, "_")
	if !ok || !allDigits(first) || !allDigits(rest) {
		return busName
	}
	return busName[:idx]
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// shortName strips the MPRIS prefix, used as the identity fallback.
func shortName(busName string) string {
	return strings.TrimPrefix(busName, MPRIS_PREFIX+".")
}
