package analytics

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"unitcam/internal/services"
	"unitcam/internal/services/ocrapi"
)

type fetchReply struct {
	data ocrapi.Dataset
	err  error
}

type scriptedFetcher struct {
	mu      sync.Mutex
	replies []fetchReply
	calls   int
}

func (f *scriptedFetcher) AnalysisData(context.Context) (ocrapi.Dataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	f.calls++
	if idx >= len(f.replies) {
		idx = len(f.replies) - 1
	}
	return f.replies[idx].data, f.replies[idx].err
}

type manualTicker struct {
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
	period  time.Duration
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
}

func (m *manualTicker) factory(d time.Duration) (<-chan time.Time, func()) {
	m.period = d
	return m.ch, func() { m.once.Do(func() { close(m.stopped) }) }
}

func (m *manualTicker) tick() { m.ch <- time.Now() }

func startPoller(t *testing.T, fetcher Fetcher, opts ...Option) (*Poller, *manualTicker, chan Update) {
	t.Helper()
	ticker := newManualTicker()
	updates := make(chan Update, 16)
	opts = append([]Option{WithTicker(ticker.factory)}, opts...)
	p := NewPoller(fetcher, ViewFunc(func(u Update) { updates <- u }), opts...)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(p.Stop)
	return p, ticker, updates
}

func next(t *testing.T, updates <-chan Update) Update {
	t.Helper()
	select {
	case u := <-updates:
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for poll")
		return Update{}
	}
}

func TestPollsImmediatelyThenOnEveryTick(t *testing.T) {
	fetcher := &scriptedFetcher{replies: []fetchReply{{data: ocrapi.Dataset{"kg": {1, 2, 3}, "lb": {4, 5}}}}}
	_, ticker, updates := startPoller(t, fetcher, WithInterval(5*time.Second))

	first := next(t, updates)
	if first.Seq != 1 || first.Err != nil {
		t.Fatalf("unexpected first update %+v", first)
	}
	if ticker.period != 5*time.Second {
		t.Fatalf("unexpected interval %s", ticker.period)
	}
	if len(first.Series) != 2 || first.Series[0].Label != "kg" || len(first.Series[0].Points) != 3 {
		t.Fatalf("unexpected series %+v", first.Series)
	}

	ticker.tick()
	second := next(t, updates)
	if second.Seq != 2 {
		t.Fatalf("expected second poll, got %+v", second)
	}
	if !reflect.DeepEqual(first.Series, second.Series) {
		t.Fatalf("identical dataset produced different series: %+v vs %+v", first.Series, second.Series)
	}
}

func TestPollReplacesDataset(t *testing.T) {
	fetcher := &scriptedFetcher{replies: []fetchReply{
		{data: ocrapi.Dataset{"kg": {1}}},
		{data: ocrapi.Dataset{"lb": {2}, "kg": {1, 2}}},
	}}
	p, ticker, updates := startPoller(t, fetcher)

	first := next(t, updates)
	ticker.tick()
	second := next(t, updates)

	if len(p.Current()) != 2 || len(p.Current()["kg"]) != 2 {
		t.Fatalf("expected dataset replaced wholesale, got %v", p.Current())
	}
	if first.Series[0].Color != second.Series[0].Color || second.Series[0].Label != "kg" {
		t.Fatalf("kg color changed between polls: %+v vs %+v", first.Series, second.Series)
	}
}

func TestFetchErrorKeepsPolling(t *testing.T) {
	fetcher := &scriptedFetcher{replies: []fetchReply{
		{data: ocrapi.Dataset{"kg": {1}}},
		{err: errors.New("connection refused")},
		{data: ocrapi.Dataset{"kg": {1, 2}}},
	}}
	p, ticker, updates := startPoller(t, fetcher)

	_ = next(t, updates)
	ticker.tick()
	failed := next(t, updates)
	if failed.Err == nil || !errors.Is(failed.Err, services.ErrFetch) {
		t.Fatalf("expected fetch error, got %+v", failed)
	}
	if failed.Series != nil {
		t.Fatalf("expected no series on failure, got %+v", failed.Series)
	}
	if len(p.Current()["kg"]) != 1 {
		t.Fatalf("expected previous dataset kept, got %v", p.Current())
	}

	ticker.tick()
	recovered := next(t, updates)
	if recovered.Err != nil || len(recovered.Series[0].Points) != 2 {
		t.Fatalf("expected recovery on next tick, got %+v", recovered)
	}
}

func TestStopReleasesTicker(t *testing.T) {
	fetcher := &scriptedFetcher{replies: []fetchReply{{data: ocrapi.Dataset{}}}}
	ticker := newManualTicker()
	p := NewPoller(fetcher, nil, WithTicker(ticker.factory))
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}
	p.Stop()
	p.Stop()

	select {
	case <-ticker.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("expected ticker stopped")
	}
	if p.Running() {
		t.Fatal("expected poller stopped")
	}
}

func TestPollOnceWithoutStart(t *testing.T) {
	fetcher := &scriptedFetcher{replies: []fetchReply{{data: nil}}}
	p := NewPoller(fetcher, nil)
	u := p.PollOnce(context.Background())
	if u.Err != nil || u.Dataset == nil || len(u.Series) != 0 {
		t.Fatalf("unexpected update %+v", u)
	}
}
