package mpris

import "time"

// ClockConfig holds the tuning constants of the playback clock. The values
// are empirical; they are configurable rather than derived.
type ClockConfig struct {
	// DriftThreshold is the minimum divergence between the interpolated and
	// the reported position before a resync while playing.
	DriftThreshold time.Duration
	// ResyncInterval is the minimum time between two drift resyncs.
	ResyncInterval time.Duration
	// ResumeGuard suppresses external re-syncs right after a pause->play
	// transition, when remote Position reads are frequently stale.
	ResumeGuard time.Duration
	// SeekSuppression suppresses snapshot positions right after a local
	// seek, so the remote's lagging readback cannot overwrite it.
	SeekSuppression time.Duration
}

// DefaultClockConfig returns the stock tuning constants.
func DefaultClockConfig() ClockConfig {
	return ClockConfig{
		DriftThreshold:  2 * time.Second,
		ResyncInterval:  2 * time.Second,
		ResumeGuard:     100 * time.Millisecond,
		SeekSuppression: 500 * time.Millisecond,
	}
}

// playbackClock interpolates a smooth playback position between the
// infrequent Position updates a player actually sends. One per tracked
// player, rebuilt from zero whenever the player reappears on the bus.
//
// All methods take the current time explicitly; the Registry passes
// time.Now() and tests pass fixed instants. Not safe for concurrent use,
// callers hold the Registry lock.
type playbackClock struct {
	cfg ClockConfig

	started bool
	base    int64 // position in microseconds at baseAt
	baseAt  time.Time
	playing bool
	length  int64 // microseconds, 0 when unknown

	lastResync    time.Time
	resumedAt     time.Time
	suppressUntil time.Time
	dragging      bool
}

func newPlaybackClock(cfg ClockConfig) *playbackClock {
	return &playbackClock{cfg: cfg}
}

// positionAt returns the interpolated position at time now: advancing while
// playing, frozen while paused, clamped to [0, length] when the length is
// known.
func (c *playbackClock) positionAt(now time.Time) int64 {
	pos := c.base
	if c.playing && c.started {
		pos += now.Sub(c.baseAt).Microseconds()
	}
	return c.clamp(pos)
}

func (c *playbackClock) clamp(pos int64) int64 {
	if pos < 0 {
		return 0
	}
	if c.length > 0 && pos > c.length {
		return c.length
	}
	return pos
}

func (c *playbackClock) suppressed(now time.Time) bool {
	return now.Before(c.suppressUntil)
}

func (c *playbackClock) inResumeGuard(now time.Time) bool {
	return !c.resumedAt.IsZero() && now.Sub(c.resumedAt) < c.cfg.ResumeGuard
}

// applySnapshot feeds a decoded property snapshot into the clock.
func (c *playbackClock) applySnapshot(info *PlayerInfo, now time.Time) {
	if info == nil {
		return
	}
	if info.Length > 0 {
		c.length = info.Length
	}
	playing := info.Status == StatusPlaying

	switch {
	case !c.started:
		c.started = true
		c.base = c.clamp(info.Position)
		c.baseAt = now
		c.playing = playing
		c.lastResync = now

	case c.playing && !playing:
		// Freeze. The reported position is trustworthy on the pause edge
		// (the player just stopped its own clock), so prefer it over the
		// interpolated value unless a local seek is being protected.
		if c.suppressed(now) {
			c.base = c.positionAt(now)
		} else {
			c.base = c.clamp(info.Position)
		}
		c.baseAt = now
		c.playing = false

	case !c.playing && playing:
		// Resume. Remote Position reads on this edge are frequently stale
		// or zero; keep the frozen base and restart the clock from it.
		c.baseAt = now
		c.playing = true
		c.resumedAt = now

	case playing:
		c.applyPositionReport(info.Position, now)

	default:
		// Paused refresh: nothing interpolates, the report is authoritative.
		if !c.suppressed(now) {
			c.base = c.clamp(info.Position)
			c.baseAt = now
		}
	}
}

// applyPositionReport handles a reported position while already playing:
// resync only on genuine desync (drift above threshold), rate limited, and
// never inside a suppression or resume-guard window. Minor reporting jitter
// must not cause visible stutter.
func (c *playbackClock) applyPositionReport(reported int64, now time.Time) {
	if !c.started || !c.playing {
		return
	}
	if c.suppressed(now) || c.inResumeGuard(now) {
		return
	}
	drift := c.positionAt(now) - reported
	if drift < 0 {
		drift = -drift
	}
	if drift > c.cfg.DriftThreshold.Microseconds() &&
		now.Sub(c.lastResync) >= c.cfg.ResyncInterval {
		c.base = c.clamp(reported)
		c.baseAt = now
		c.lastResync = now
	}
}

// applySeeked handles the player's Seeked signal: an authoritative absolute
// position that always wins, clearing any pending suppression. The one
// exception is a live user drag, which wins until release.
func (c *playbackClock) applySeeked(position int64, now time.Time) {
	if c.dragging {
		return
	}
	c.started = true
	c.base = c.clamp(position)
	c.baseAt = now
	c.suppressUntil = time.Time{}
	c.lastResync = now
}

// seekTo records a local, optimistic seek: the target becomes the base
// immediately and snapshot positions are suppressed for a short window so a
// lagging remote readback cannot drag the display back.
func (c *playbackClock) seekTo(position int64, now time.Time) {
	c.started = true
	c.base = c.clamp(position)
	c.baseAt = now
	c.suppressUntil = now.Add(c.cfg.SeekSuppression)
	c.lastResync = now
}

// beginDrag / endDrag bracket a live slider drag. While dragging, even the
// authoritative Seeked signal is ignored.
func (c *playbackClock) beginDrag() {
	c.dragging = true
}

func (c *playbackClock) endDrag(position int64, now time.Time) {
	c.dragging = false
	c.seekTo(position, now)
}
