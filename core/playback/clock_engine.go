package playback

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Prober checks that a media URI is playable and reports its duration
// in seconds (0 when unknown).
type Prober interface {
	Probe(ctx context.Context, uri string) (float64, error)
}

// ClockEngine is the production media engine. It verifies the media
// object exists through the prober, then advances the playback position
// in wall time while playing, emitting a tick per interval. The clients
// stream the actual bytes from /media/{key}; the engine tracks the
// session position server-side.
type ClockEngine struct {
	prober   Prober
	interval time.Duration
}

// NewClockEngine creates a clock engine ticking at the given interval.
// Intervals outside (0, 5s] fall back to one second.
func NewClockEngine(prober Prober, interval time.Duration) *ClockEngine {
	if interval <= 0 || interval > 5*time.Second {
		interval = time.Second
	}
	return &ClockEngine{prober: prober, interval: interval}
}

// Open probes the URI and returns a running clock resource.
func (e *ClockEngine) Open(ctx context.Context, uri string) (Resource, error) {
	duration, err := e.prober.Probe(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("probe media %q: %w", uri, err)
	}

	r := &clockResource{
		duration: duration,
		interval: e.interval,
		ticks:    make(chan Tick, 8),
		closed:   make(chan struct{}),
	}
	go r.run()
	return r, nil
}

type clockResource struct {
	mu        sync.Mutex
	playing   bool
	position  float64
	duration  float64
	interval  time.Duration
	ticks     chan Tick
	closed    chan struct{}
	closeOnce sync.Once
}

func (r *clockResource) run() {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-r.closed:
			return
		case <-t.C:
			r.mu.Lock()
			if !r.playing {
				r.mu.Unlock()
				continue
			}
			r.position += r.interval.Seconds()
			if r.duration > 0 && r.position > r.duration {
				r.position = r.duration
			}
			tick := Tick{Position: r.position, Duration: r.duration}
			if r.duration > 0 && r.position >= r.duration {
				r.playing = false
			}
			r.mu.Unlock()

			select {
			case r.ticks <- tick:
			default:
				// slow consumer, drop the tick
			}
		}
	}
}

func (r *clockResource) Play() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playing = true
}

func (r *clockResource) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playing = false
}

func (r *clockResource) Seek(seconds float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seconds < 0 {
		seconds = 0
	}
	if r.duration > 0 && seconds > r.duration {
		seconds = r.duration
	}
	r.position = seconds
}

func (r *clockResource) Position() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.position
}

func (r *clockResource) Duration() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.duration
}

// Ready is immediate for the clock engine; the probe already confirmed
// the object exists.
func (r *clockResource) Ready() bool {
	return true
}

func (r *clockResource) Ticks() <-chan Tick {
	return r.ticks
}

func (r *clockResource) Close() error {
	r.closeOnce.Do(func() {
		close(r.closed)
	})
	return nil
}
