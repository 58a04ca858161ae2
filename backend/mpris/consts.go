package mpris

const (
	// MPRIS D-Bus constants
	MPRIS_PREFIX       = "org.mpris.MediaPlayer2"
	MPRIS_PATH         = "/org/mpris/MediaPlayer2"
	MPRIS_INTERFACE    = "org.mpris.MediaPlayer2"
	MPRIS_PLAYER_IFACE = "org.mpris.MediaPlayer2.Player"

	// MPRIS Player methods
	MPRIS_METHOD_PLAY_PAUSE   = MPRIS_PLAYER_IFACE + ".PlayPause"
	MPRIS_METHOD_NEXT         = MPRIS_PLAYER_IFACE + ".Next"
	MPRIS_METHOD_PREVIOUS     = MPRIS_PLAYER_IFACE + ".Previous"
	MPRIS_METHOD_SEEK         = MPRIS_PLAYER_IFACE + ".Seek"
	MPRIS_METHOD_SET_POSITION = MPRIS_PLAYER_IFACE + ".SetPosition"

	// Seeked signal carries the authoritative absolute position in microseconds
	MPRIS_SEEKED_SIGNAL = MPRIS_PLAYER_IFACE + ".Seeked"
)

// MPRIS_NO_TRACK is the well-known track ID meaning "no current track".
// SetPosition is a no-op for this value, so we fall back to relative Seek.
const MPRIS_NO_TRACK = "/org/mpris/MediaPlayer2/TrackList/NoTrack"

const (
	StatusPlaying PlaybackStatus = "Playing"
	StatusPaused  PlaybackStatus = "Paused"
	StatusStopped PlaybackStatus = "Stopped"
)

const (
	LoopNone     LoopStatus = "None"
	LoopTrack    LoopStatus = "Track"
	LoopPlaylist LoopStatus = "Playlist"
)

// loopCycle is the order CycleLoopStatus advances through.
var loopCycle = []LoopStatus{LoopNone, LoopTrack, LoopPlaylist}

// Metadata dictionary keys consumed by the codec.
const (
	metaTitle          = "xesam:title"
	metaArtist         = "xesam:artist"
	metaAlbum          = "xesam:album"
	metaGenre          = "xesam:genre"
	metaTrackNumber    = "xesam:trackNumber"
	metaDiscNumber     = "xesam:discNumber"
	metaContentCreated = "xesam:contentCreated"
	metaLength         = "mpris:length"
	metaArtURL         = "mpris:artUrl"
	metaTrackID        = "mpris:trackid"
)

// Cached property names relevant for playback state. Changes to anything
// else never fire the "changed" callback.
var playbackProps = []string{"Metadata", "PlaybackStatus", "Shuffle", "LoopStatus", "Position"}
