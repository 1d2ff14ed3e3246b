package playback

import (
	"context"
	"time"
)

// Tick is one position/duration report from an open media resource.
// Err is set for mid-stream decode/network failures so callers can tell
// them apart from ordinary ticks.
type Tick struct {
	Position float64
	Duration float64
	Err      error
}

// Resource is one open piece of media. A controller holds at most one
// Resource at a time.
type Resource interface {
	Play()
	Pause()
	Seek(seconds float64)
	Position() float64
	Duration() float64
	Ready() bool
	Ticks() <-chan Tick
	Close() error
}

// ReadyNotifier is optionally implemented by resources that can signal
// readiness instead of being polled.
type ReadyNotifier interface {
	ReadyCh() <-chan struct{}
}

// Engine opens media resources by URI.
type Engine interface {
	Open(ctx context.Context, uri string) (Resource, error)
}

// Snapshot is the playback state published on every engine tick. It is
// the sole channel through which callers learn of position, duration
// and playing changes.
type Snapshot struct {
	SessionID string  `json:"sessionId"`
	ItemID    int64   `json:"itemId"`
	Position  float64 `json:"position"`
	Duration  float64 `json:"duration"`
	Playing   bool    `json:"playing"`
	State     string  `json:"state"`
	Error     string  `json:"error,omitempty"`
	At        time.Time `json:"at"`
}
