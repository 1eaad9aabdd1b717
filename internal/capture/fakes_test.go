package capture

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"unitcam/internal/services"
	"unitcam/internal/services/ocrapi"
)

type fakeClock struct {
	mu        sync.Mutex
	now       time.Duration
	timers    []*fakeTimer
	scheduled int
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	c.scheduled++
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves virtual time forward and runs every timer that came due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []func()
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()
	for _, f := range due {
		f()
	}
}

func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (c *fakeClock) Scheduled() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scheduled
}

// countingSource returns a frame whose width equals the call number.
type countingSource struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *countingSource) Frame(context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return image.NewRGBA(image.Rect(0, 0, s.calls, 1)), nil
}

func (s *countingSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type reply struct {
	result ocrapi.ExtractionResult
	err    error
}

// scriptedRecognizer replays replies in order; the last reply repeats.
type scriptedRecognizer struct {
	mu       sync.Mutex
	replies  []reply
	calls    int
	inFlight int
	maxIn    int
	release  chan struct{}
}

func (r *scriptedRecognizer) Submit(ctx context.Context, _ string) (ocrapi.ExtractionResult, error) {
	r.mu.Lock()
	idx := r.calls
	r.calls++
	r.inFlight++
	if r.inFlight > r.maxIn {
		r.maxIn = r.inFlight
	}
	release := r.release
	r.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight--
	if len(r.replies) == 0 {
		return ocrapi.ExtractionResult{}, errors.New("no scripted reply")
	}
	if idx >= len(r.replies) {
		idx = len(r.replies) - 1
	}
	return r.replies[idx].result, r.replies[idx].err
}

func (r *scriptedRecognizer) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *scriptedRecognizer) MaxInFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxIn
}

type recordingDisplay struct {
	mu       sync.Mutex
	statuses []Status
	previews []int
}

func (d *recordingDisplay) Status(s Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statuses = append(d.statuses, s)
}

func (d *recordingDisplay) Preview(img image.Image) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.previews = append(d.previews, img.Bounds().Dx())
}

func (d *recordingDisplay) count(kind StatusKind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, s := range d.statuses {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

func (d *recordingDisplay) last(kind StatusKind) Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := len(d.statuses) - 1; i >= 0; i-- {
		if d.statuses[i].Kind == kind {
			return d.statuses[i]
		}
	}
	return Status{}
}

func (d *recordingDisplay) Previews() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int(nil), d.previews...)
}

func accepted(values ...string) ocrapi.ExtractionResult {
	result := ocrapi.ExtractionResult{Inserted: []ocrapi.Item{}, Skipped: []ocrapi.SkippedItem{}}
	for i := 0; i+1 < len(values); i += 2 {
		result.Inserted = append(result.Inserted, ocrapi.Item{Value: ocrapi.TextValue(values[i]), Unit: values[i+1]})
	}
	return result
}

func empty() ocrapi.ExtractionResult {
	return ocrapi.ExtractionResult{Inserted: []ocrapi.Item{}, Skipped: []ocrapi.SkippedItem{}}
}

func serverError(msg string) error {
	return &services.ServerError{Operation: "submit", StatusCode: 200, Message: msg}
}

type harness struct {
	ctrl       *Controller
	clock      *fakeClock
	source     *countingSource
	recognizer *scriptedRecognizer
	display    *recordingDisplay

	mu          sync.Mutex
	transitions []Transition
}

func newHarness(t *testing.T, recognizer *scriptedRecognizer, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		clock:      &fakeClock{},
		source:     &countingSource{},
		recognizer: recognizer,
		display:    &recordingDisplay{},
	}
	base := []Option{
		WithClock(h.clock),
		WithTransitionHook(func(tr Transition) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.transitions = append(h.transitions, tr)
		}),
	}
	h.ctrl = NewController(h.source, recognizer, h.display, append(base, opts...)...)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = h.ctrl.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return h
}

func (h *harness) Transitions() []Transition {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Transition(nil), h.transitions...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

type ocrResult = ocrapi.ExtractionResult

func cancelableContext() (context.Context, context.CancelFunc) {
	return context.WithCancel(context.Background())
}
