package auth

import "sync/atomic"

// Watermark is the global revocation threshold in unix milliseconds.
// Tokens issued strictly before it are rejected no matter which user
// signed them. It starts at zero (nothing revoked), lives only in memory
// and does not survive a restart. Writes race and the last one wins;
// lowering the threshold widens the set of accepted tokens again.
type Watermark struct {
	olderThan atomic.Int64
}

func (w *Watermark) Set(ms int64) {
	w.olderThan.Store(ms)
}

func (w *Watermark) Threshold() int64 {
	return w.olderThan.Load()
}
