package capture

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"strings"
	"sync"

	"unitcam/internal/logging"
	"unitcam/internal/services"
	"unitcam/internal/services/ocrapi"
)

const component = "capture"

// VideoSource yields the frame current at call time.
type VideoSource interface {
	Frame(ctx context.Context) (image.Image, error)
}

// Recognizer submits an encoded frame for extraction.
type Recognizer interface {
	Submit(ctx context.Context, image string) (ocrapi.ExtractionResult, error)
}

// Transition records one state change.
type Transition struct {
	From State
	To   State
}

// Controller is the capture state machine. Run must be called exactly once.
type Controller struct {
	source      VideoSource
	recognizer  Recognizer
	display     Display
	clock       Clock
	policy      RetryPolicy
	logger      *slog.Logger
	onAccepted  func(ocrapi.ExtractionResult)
	onExhausted func(attempts int, cause error)
	onChange    func(Transition)

	events chan event
	done   chan struct{}
	wg     sync.WaitGroup

	// loop-owned
	state    State
	attempts int
	timer    Timer
	timerGen uint64
	cycle    string

	mu       sync.Mutex
	snapshot State
}

type eventKind int

const (
	evTrigger eventKind = iota
	evRetry
	evSubmitted
)

type event struct {
	kind   eventKind
	gen    uint64
	cycle  string
	result ocrapi.ExtractionResult
	err    error
}

// Option customizes a Controller.
type Option func(*Controller)

// WithClock overrides the clock used for retry timers.
func WithClock(clock Clock) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Controller) { c.policy = p }
}

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithOnAccepted registers a callback for every result with accepted pairs.
// It runs on the event loop and must not block.
func WithOnAccepted(fn func(ocrapi.ExtractionResult)) Option {
	return func(c *Controller) { c.onAccepted = fn }
}

// WithOnExhausted registers a callback for when the retry policy gives up. It
// runs on the event loop and must not block.
func WithOnExhausted(fn func(attempts int, cause error)) Option {
	return func(c *Controller) { c.onExhausted = fn }
}

// WithTransitionHook registers a callback for every state change. It runs on
// the event loop and must not block.
func WithTransitionHook(fn func(Transition)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// NewController constructs a controller in the Idle state.
func NewController(source VideoSource, recognizer Recognizer, display Display, opts ...Option) *Controller {
	c := &Controller{
		source:     source,
		recognizer: recognizer,
		display:    display,
		clock:      RealClock(),
		policy:     DefaultRetryPolicy(),
		events:     make(chan event, 16),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, component)
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// Trigger requests a manual capture. It cancels a pending retry and is
// ignored while a cycle is already in progress.
func (c *Controller) Trigger() {
	c.post(event{kind: evTrigger})
}

// Run processes events until ctx is canceled. A pending retry timer is
// stopped and any in-flight submission is awaited before Run returns.
func (c *Controller) Run(ctx context.Context) error {
	loopCtx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		c.cancelRetry()
		close(c.done)
		c.wg.Wait()
	}()

	c.logger.Debug("capture loop started", logging.String(logging.FieldEventType, "capture_loop_started"))
	for {
		select {
		case <-loopCtx.Done():
			c.logger.Debug("capture loop stopped", logging.String(logging.FieldEventType, "capture_loop_stopped"))
			return nil
		case ev := <-c.events:
			c.handle(loopCtx, ev)
		}
	}
}

func (c *Controller) post(ev event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Controller) handle(ctx context.Context, ev event) {
	switch ev.kind {
	case evTrigger:
		if c.state.busy() {
			c.logger.Debug("capture already in progress; trigger ignored",
				logging.String(logging.FieldState, c.state.String()),
			)
			return
		}
		if c.cancelRetry() {
			c.logger.Info("pending retry canceled by manual trigger",
				logging.String(logging.FieldEventType, "retry_canceled"),
			)
		}
		c.attempts = 0
		c.startCycle(ctx)
	case evRetry:
		if ev.gen != c.timerGen || c.state != StateRetryScheduled {
			return
		}
		c.timer = nil
		c.startCycle(ctx)
	case evSubmitted:
		if ev.cycle != c.cycle || c.state != StateSubmitting {
			return
		}
		c.interpret(ctx, ev.result, ev.err)
	}
}

func (c *Controller) startCycle(ctx context.Context) {
	c.cycle = services.NewID()
	cycleCtx := services.WithCycleID(ctx, c.cycle)
	logger := logging.WithContext(cycleCtx, c.logger)
	c.setState(StateCapturing)

	frame, err := c.grab(cycleCtx)
	if err != nil {
		logger.Error("frame capture failed",
			logging.String(logging.FieldEventType, "capture_frame_failed"),
			logging.Error(err),
		)
		c.setState(StateErrorIdle)
		c.show(Status{Kind: StatusError, Lines: failureLines(err), ErrKind: services.Classify(err)})
		return
	}
	if c.display != nil {
		c.display.Preview(frame)
	}

	encoded, err := EncodeDataURL(frame)
	if err != nil {
		err = services.Wrap(services.ErrValidation, component, "encode", "", err)
		logger.Error("frame encode failed", logging.Error(err))
		c.setState(StateErrorIdle)
		c.show(Status{Kind: StatusError, Lines: failureLines(err), ErrKind: services.Classify(err)})
		return
	}

	c.setState(StateSubmitting)
	c.show(Status{Kind: StatusInfo, Lines: []string{"Submitting frame..."}})
	logger.Debug("frame submitted",
		logging.Int("width", frame.Bounds().Dx()),
		logging.Int("height", frame.Bounds().Dy()),
		logging.Int("attempt", c.attempts),
	)

	cycle := c.cycle
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		result, err := c.recognizer.Submit(cycleCtx, encoded)
		c.post(event{kind: evSubmitted, cycle: cycle, result: result, err: err})
	}()
}

func (c *Controller) grab(ctx context.Context) (image.Image, error) {
	if c.source == nil {
		return nil, services.Wrap(services.ErrDeviceUnavailable, component, "capture", "no video source", nil)
	}
	frame, err := c.source.Frame(ctx)
	if err != nil {
		if !errors.Is(err, services.ErrDeviceUnavailable) {
			err = services.Wrap(services.ErrDeviceUnavailable, component, "capture", "", err)
		}
		return nil, err
	}
	if frame == nil {
		return nil, services.Wrap(services.ErrDeviceUnavailable, component, "capture", "no frame", nil)
	}
	return frame, nil
}

func (c *Controller) interpret(ctx context.Context, result ocrapi.ExtractionResult, err error) {
	logger := logging.WithContext(services.WithCycleID(ctx, c.cycle), c.logger)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		kind := services.Classify(err)
		impact := "frame not recorded; retry scheduled"
		if !kind.Retryable() {
			impact = "frame not recorded; automatic capture stopped"
		}
		logging.WarnWithContext(logger, "submission failed", "submit_failed",
			logging.Error(err),
			logging.String("kind", kind.String()),
			logging.String(logging.FieldErrorHint, "check server.base_url and the extraction service logs"),
			logging.String(logging.FieldImpact, impact),
		)
		c.setState(StateErrorIdle)
		c.scheduleRetry(err, failureLines(err))
		return
	}

	c.setState(StateInterpreting)
	if result.Empty() {
		logger.Info("no valid value/unit found",
			logging.String(logging.FieldEventType, "capture_empty"),
			logging.Int("skipped", len(result.Skipped)),
		)
		c.scheduleRetry(services.ErrEmptyResult, []string{emptyMessage})
		return
	}

	lines := RenderResult(result)
	logger.Info("values captured",
		logging.String(logging.FieldEventType, "capture_accepted"),
		logging.Int("inserted", len(result.Inserted)),
		logging.Int("skipped", len(result.Skipped)),
	)
	c.attempts = 0
	c.setState(StateIdle)
	c.show(Status{Kind: StatusSuccess, Lines: lines})
	if c.onAccepted != nil {
		c.onAccepted(result)
	}
}

// scheduleRetry arms exactly one retry timer, or gives up when the policy is
// exhausted or the failure kind is not retryable.
func (c *Controller) scheduleRetry(cause error, lines []string) {
	kind := services.Classify(cause)
	if !kind.Retryable() {
		c.setState(StateErrorIdle)
		c.show(Status{Kind: StatusError, Lines: lines, ErrKind: kind})
		c.attempts = 0
		return
	}
	c.attempts++
	delay, ok := c.policy.Next(c.attempts)
	if !ok {
		c.logger.Warn("retry limit reached",
			logging.String(logging.FieldEventType, "retry_exhausted"),
			logging.Int("attempts", c.attempts-1),
			logging.String(logging.FieldErrorHint, "trigger a capture manually or adjust capture.retry_max_attempts"),
			logging.String(logging.FieldImpact, "automatic capture stopped"),
		)
		if kind == services.KindEmptyResult {
			lines = []string{strings.TrimSuffix(emptyMessage, " Retrying...")}
		}
		c.setState(StateErrorIdle)
		if c.onExhausted != nil {
			c.onExhausted(c.attempts-1, cause)
		}
		c.show(Status{Kind: StatusError, Lines: append(lines, exhaustedLine(c.attempts-1)), ErrKind: kind})
		c.attempts = 0
		return
	}

	c.cancelRetry()
	c.timerGen++
	gen := c.timerGen
	c.setState(StateRetryScheduled)
	c.timer = c.clock.AfterFunc(delay, func() {
		c.post(event{kind: evRetry, gen: gen})
	})
	if kind != services.KindEmptyResult {
		lines = append(lines, retryLine(delay, c.attempts))
	}
	c.show(Status{Kind: StatusError, Lines: lines, ErrKind: kind})
	c.logger.Debug("retry scheduled",
		logging.Duration("delay", delay),
		logging.Int("attempt", c.attempts),
	)
}

// cancelRetry stops a pending retry timer. It reports whether one was pending.
func (c *Controller) cancelRetry() bool {
	if c.timer == nil {
		return false
	}
	c.timer.Stop()
	c.timer = nil
	c.timerGen++
	return true
}

func (c *Controller) setState(next State) {
	prev := c.state
	c.state = next
	c.mu.Lock()
	c.snapshot = next
	c.mu.Unlock()
	if prev != next && c.onChange != nil {
		c.onChange(Transition{From: prev, To: next})
	}
}

func (c *Controller) show(s Status) {
	s.State = c.state
	if c.display != nil {
		c.display.Status(s)
	}
}
