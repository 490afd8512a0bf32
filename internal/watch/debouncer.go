package watch

import (
	"context"
	"sync"
	"time"
)

// Trigger summarizes the change requests folded into one build.
type Trigger struct {
	Count int    // Requests coalesced
	Last  string // Most recent reason, usually a changed path
	First time.Time
}

// BuildFunc runs one build. It is never called concurrently.
type BuildFunc func(ctx context.Context, t Trigger)

// Debouncer coalesces bursts of requests into single builds. A build runs
// once no request has arrived for the quiet window. Requests arriving while a
// build runs are folded into exactly one follow-up build.
type Debouncer struct {
	quiet    time.Duration
	build    BuildFunc
	requests chan string

	mu      sync.Mutex
	pending Trigger
	signal  chan struct{}
}

// NewDebouncer returns a Debouncer; quiet <= 0 builds on the next request
// without waiting.
func NewDebouncer(quiet time.Duration, build BuildFunc) *Debouncer {
	return &Debouncer{
		quiet:    quiet,
		build:    build,
		requests: make(chan string, 64),
		signal:   make(chan struct{}, 1),
	}
}

// Request asks for a build. It never blocks; when the queue is full the
// request is dropped since a build is already due.
func (d *Debouncer) Request(reason string) {
	select {
	case d.requests <- reason:
	default:
	}
}

// Run processes requests until ctx is done, then waits for a running build
// to return.
func (d *Debouncer) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.runBuilds(ctx)
	}()
	defer wg.Wait()

	timer := time.NewTimer(time.Hour)
	stopTimer(timer)
	var (
		quietC <-chan time.Time
		batch  Trigger
	)

	for {
		select {
		case <-ctx.Done():
			stopTimer(timer)
			return
		case reason := <-d.requests:
			if batch.Count == 0 {
				batch.First = time.Now()
			}
			batch.Count++
			batch.Last = reason
			if d.quiet <= 0 {
				d.enqueue(batch)
				batch = Trigger{}
				continue
			}
			stopTimer(timer)
			timer.Reset(d.quiet)
			quietC = timer.C
		case <-quietC:
			quietC = nil
			d.enqueue(batch)
			batch = Trigger{}
		}
	}
}

// enqueue merges batch into the pending build and wakes the runner.
func (d *Debouncer) enqueue(batch Trigger) {
	d.mu.Lock()
	if d.pending.Count == 0 {
		d.pending.First = batch.First
	}
	d.pending.Count += batch.Count
	d.pending.Last = batch.Last
	d.mu.Unlock()

	select {
	case d.signal <- struct{}{}:
	default:
	}
}

func (d *Debouncer) runBuilds(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.signal:
			d.mu.Lock()
			t := d.pending
			d.pending = Trigger{}
			d.mu.Unlock()
			if t.Count > 0 && ctx.Err() == nil {
				d.build(ctx, t)
			}
		}
	}
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
