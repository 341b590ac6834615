package pipeline

import (
	"context"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/eonet-event-tracker/internal/domain"
	"github.com/couchcryptid/eonet-event-tracker/internal/observability"
)

// DefaultInterval is the pacing of a live feed.
const DefaultInterval = 500 * time.Millisecond

// EmitterOptions configures an Emitter. Zero values select the defaults.
type EmitterOptions struct {
	Interval time.Duration
	// RewriteTimestamps dates every geometry of an emitted event with the
	// emission time. Only the emitted copy is changed.
	RewriteTimestamps bool
	Clock             clockwork.Clock
	Metrics           *observability.Metrics
}

// Emitter turns a finite batch of events into an endless paced feed.
//
// Each tick emits the last event of the working list and removes it, so a
// batch [A, B, C] is emitted C, B, A, C, B, A, ... When the working list runs
// out it is refilled from the original batch on the same tick. An empty batch
// emits the zero Event on every tick.
//
// An Emitter belongs to a single feed and is not safe for concurrent use.
type Emitter struct {
	working []domain.Event
	backup  []domain.Event
	opts    EmitterOptions
}

// NewEmitter copies events into a new Emitter.
func NewEmitter(events []domain.Event, opts EmitterOptions) *Emitter {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Emitter{
		working: slices.Clone(events),
		backup:  slices.Clone(events),
		opts:    opts,
	}
}

// Next advances the feed by one event without waiting for a tick.
func (e *Emitter) Next() domain.Event {
	ev := e.peek()
	e.advance()
	return e.prepare(ev)
}

// Run emits one event per tick to emit until ctx is cancelled or emit returns
// an error. A slow emit delays the next tick rather than queueing events.
func (e *Emitter) Run(ctx context.Context, emit func(domain.Event) error) error {
	e.trackStream(1)
	defer e.trackStream(-1)

	ticker := e.opts.Clock.NewTicker(e.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
		}
		if ctx.Err() != nil {
			return nil
		}
		if err := emit(e.Next()); err != nil {
			return err
		}
		e.countEmitted()
	}
}

// Events returns a channel receiving one event per tick. The channel is
// closed once ctx is cancelled. An event is only consumed from the working
// list when a receiver actually takes it.
func (e *Emitter) Events(ctx context.Context) <-chan domain.Event {
	out := make(chan domain.Event)
	go func() {
		defer close(out)
		e.trackStream(1)
		defer e.trackStream(-1)

		ticker := e.opts.Clock.NewTicker(e.opts.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
			}
			select {
			case out <- e.prepare(e.peek()):
				e.advance()
				e.countEmitted()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (e *Emitter) peek() domain.Event {
	if len(e.backup) == 0 {
		return domain.Event{}
	}
	if len(e.working) == 0 {
		e.working = slices.Clone(e.backup)
	}
	return e.working[len(e.working)-1]
}

func (e *Emitter) advance() {
	if n := len(e.working); n > 0 {
		e.working = e.working[:n-1]
	}
}

func (e *Emitter) prepare(ev domain.Event) domain.Event {
	if e.opts.RewriteTimestamps {
		return ev.WithGeometryDates(e.opts.Clock.Now().UTC().Truncate(time.Second))
	}
	return ev
}

func (e *Emitter) trackStream(delta float64) {
	if e.opts.Metrics != nil {
		e.opts.Metrics.ActiveStreams.Add(delta)
	}
}

func (e *Emitter) countEmitted() {
	if e.opts.Metrics != nil {
		e.opts.Metrics.StreamEventsEmitted.Inc()
	}
}
