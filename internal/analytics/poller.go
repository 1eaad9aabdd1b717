package analytics

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"unitcam/internal/chart"
	"unitcam/internal/logging"
	"unitcam/internal/services"
	"unitcam/internal/services/ocrapi"
)

const defaultInterval = 5 * time.Second

// Fetcher reads the current dataset.
type Fetcher interface {
	AnalysisData(ctx context.Context) (ocrapi.Dataset, error)
}

// Update is the outcome of one poll. On failure Err is set and Dataset and
// Series are nil; the previous dataset stays available through Current.
type Update struct {
	Seq       int
	FetchedAt time.Time
	Dataset   ocrapi.Dataset
	Series    []chart.Series
	Err       error
}

// View receives every poll outcome. Show runs on the poller goroutine.
type View interface {
	Show(u Update)
}

// ViewFunc adapts a function to View.
type ViewFunc func(Update)

func (f ViewFunc) Show(u Update) { f(u) }

// TickerFunc creates the interval source. stop releases it.
type TickerFunc func(d time.Duration) (ticks <-chan time.Time, stop func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Poller fetches immediately on Start, then on every tick until Stop.
type Poller struct {
	fetcher   Fetcher
	view      View
	interval  time.Duration
	newTicker TickerFunc
	now       func() time.Time
	logger    *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	current ocrapi.Dataset
	seq     int
}

// Option customizes a Poller.
type Option func(*Poller)

// WithInterval sets the poll interval.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithTicker overrides the interval source.
func WithTicker(fn TickerFunc) Option {
	return func(p *Poller) {
		if fn != nil {
			p.newTicker = fn
		}
	}
}

// WithLogger sets the poller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) { p.logger = logger }
}

// NewPoller constructs a poller.
func NewPoller(fetcher Fetcher, view View, opts ...Option) *Poller {
	p := &Poller{
		fetcher:   fetcher,
		view:      view,
		interval:  defaultInterval,
		newTicker: realTicker,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.logger, "analytics")
	return p
}

// Start begins polling in the background.
func (p *Poller) Start(ctx context.Context) error {
	if p == nil {
		return errors.New("analytics poller unavailable")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return errors.New("analytics poller already running")
	}
	if p.fetcher == nil {
		return errors.New("analytics poller: fetcher required")
	}

	session := services.NewID()
	runCtx, cancel := context.WithCancel(services.WithSessionID(ctx, session))
	p.cancel = cancel
	p.running = true

	ticks, stop := p.newTicker(p.interval)
	p.wg.Add(1)
	go p.loop(runCtx, ticks, stop)

	logging.WithContext(runCtx, p.logger).Info("analytics polling started",
		logging.String(logging.FieldEventType, "analytics_started"),
		logging.Duration("interval", p.interval),
	)
	return nil
}

// Stop cancels polling and waits for the loop to exit. Safe to call when not
// running.
func (p *Poller) Stop() {
	if p == nil {
		return
	}
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
	p.logger.Info("analytics polling stopped",
		logging.String(logging.FieldEventType, "analytics_stopped"),
	)
}

// Running reports whether the poll loop is active.
func (p *Poller) Running() bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Current returns the most recent successfully fetched dataset.
func (p *Poller) Current() ocrapi.Dataset {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// PollOnce performs a single fetch, updates Current and notifies the view.
func (p *Poller) PollOnce(ctx context.Context) Update {
	dataset, err := p.fetcher.AnalysisData(ctx)
	if err != nil && ctx.Err() != nil {
		return Update{Err: ctx.Err()}
	}

	p.mu.Lock()
	p.seq++
	update := Update{Seq: p.seq, FetchedAt: p.now()}
	if err == nil {
		if dataset == nil {
			dataset = ocrapi.Dataset{}
		}
		p.current = dataset
		update.Dataset = dataset
	}
	p.mu.Unlock()

	logger := logging.WithContext(ctx, p.logger)
	if err != nil {
		if !errors.Is(err, services.ErrFetch) {
			err = services.Wrap(services.ErrFetch, "analytics", "poll", "", err)
		}
		update.Err = err
		logging.WarnWithContext(logger, "analytics fetch failed; will retry", "analytics_fetch_failed",
			logging.Error(err),
			logging.Int("seq", update.Seq),
			logging.String(logging.FieldErrorHint, "check server.base_url and the extraction service"),
			logging.String(logging.FieldImpact, "chart not refreshed this interval"),
		)
	} else {
		update.Series = chart.Render(dataset)
		logger.Debug("analytics dataset fetched",
			logging.Int("seq", update.Seq),
			logging.Int("units", len(dataset)),
		)
	}

	if p.view != nil {
		p.view.Show(update)
	}
	return update
}

func (p *Poller) loop(ctx context.Context, ticks <-chan time.Time, stop func()) {
	defer p.wg.Done()
	defer stop()

	p.PollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			if ctx.Err() != nil {
				return
			}
			p.PollOnce(ctx)
		}
	}
}
