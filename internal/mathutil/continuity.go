package mathutil

// QuatTrack keeps a sampled rotation free of sign flips. q and -q encode
// the same orientation, but interpolating between samples of opposite sign
// swings the long way round, which shows up as a 360° spin and breaks
// motion blur. Samples must be fed strictly in time order.
type QuatTrack struct {
	prev    Quat
	started bool
}

// Next returns q or -q, whichever is closer to the previously emitted sample.
func (t *QuatTrack) Next(q Quat) Quat {
	if t.started && t.prev.Dot(q) < 0 {
		q = q.Neg()
	}
	t.prev = q
	t.started = true
	return q
}

// Reset forgets the previous sample.
func (t *QuatTrack) Reset() {
	*t = QuatTrack{}
}
