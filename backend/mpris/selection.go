package mpris

// Selection policy: which player is "current". All helpers run with the
// registry lock held and return whether the current player changed, so the
// caller can notify consumers after releasing the lock.

// selectOnAdded makes a newcomer current when nothing is, or when it is
// already playing (starting playback in another app switches focus).
func (r *Registry) selectOnAdded(busName string, info *PlayerInfo) bool {
	if r.current == busName {
		return false
	}
	if r.current == "" || (info != nil && info.Status == StatusPlaying) {
		r.current = busName
		return true
	}
	return false
}

// selectOnRemoved re-picks the current player after a removal: first any
// other playing player in registry order, else the first tracked player,
// else none.
func (r *Registry) selectOnRemoved(busName string) (string, bool) {
	if r.current != busName {
		return "", false
	}
	r.current = ""
	for _, name := range r.order {
		if p := r.players[name]; p != nil && p.status() == StatusPlaying {
			r.current = name
			return name, true
		}
	}
	if len(r.order) > 0 {
		r.current = r.order[0]
	}
	return r.current, true
}

// selectOnChanged lets a non-current player that transitioned to Playing
// take over; for the current player the snapshot just propagates.
func (r *Registry) selectOnChanged(busName string, info *PlayerInfo) bool {
	if busName == r.current || info == nil || info.Status != StatusPlaying {
		return false
	}
	r.current = busName
	return true
}
