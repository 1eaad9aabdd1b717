package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"unitcam/internal/logging"
	"unitcam/internal/services"
)

const component = "camera"

var errDeviceLocked = errors.New("device locked by another process")

// Manager owns at most one live stream.
type Manager struct {
	opener  Opener
	sink    Sink
	logger  *slog.Logger
	lockDir string
	width   int
	height  int

	mu         sync.Mutex
	preferBack bool
	stream     Stream
	facing     Facing
	lock       *flock.Flock
}

// Option customizes the manager.
type Option func(*Manager)

// WithSink wires acquired streams to a preview sink.
func WithSink(s Sink) Option {
	return func(m *Manager) { m.sink = s }
}

// WithLogger sets the manager logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithLockDir enables per-device file locks under dir so two processes never
// hold the same camera.
func WithLockDir(dir string) Option {
	return func(m *Manager) { m.lockDir = strings.TrimSpace(dir) }
}

// WithResolution sets the requested capture size.
func WithResolution(width, height int) Option {
	return func(m *Manager) {
		m.width = width
		m.height = height
	}
}

// NewManager constructs a manager around opener.
func NewManager(opener Opener, opts ...Option) *Manager {
	m := &Manager{opener: opener, preferBack: true}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.NewComponentLogger(m.logger, component)
	return m
}

// Acquire opens a stream honoring preferBack. Any live stream is released
// first. When the exact facing request fails, a single unconstrained request
// follows; if that fails too the error is tagged services.ErrDeviceUnavailable.
func (m *Manager) Acquire(ctx context.Context, preferBack bool) (Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquireLocked(ctx, preferBack)
}

// Release stops the current stream, if any. Safe to call repeatedly.
func (m *Manager) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releaseLocked()
}

// Switch flips the facing preference, releases the current stream and
// acquires a new one.
func (m *Manager) Switch(ctx context.Context) (Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := !m.preferBack
	if err := m.releaseLocked(); err != nil {
		logging.WarnWithContext(m.logger, "camera release failed during switch", "camera_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the device may need to be reconnected"),
			logging.String(logging.FieldImpact, "switching continues with a fresh stream"),
		)
	}
	return m.acquireLocked(ctx, next)
}

// Frame returns the current frame of the live stream. It implements the
// capture controller's video source.
func (m *Manager) Frame(ctx context.Context) (image.Image, error) {
	m.mu.Lock()
	stream := m.stream
	m.mu.Unlock()
	if stream == nil {
		return nil, services.Wrap(services.ErrDeviceUnavailable, component, "frame", "no active camera", nil)
	}
	img, err := stream.Frame(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrDeviceUnavailable, component, "frame", "read failed", err)
	}
	return img, nil
}

// Session reports the current session state.
func (m *Manager) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Session{PreferBack: m.preferBack, Facing: FacingFor(m.preferBack)}
	if m.stream != nil {
		s.Active = true
		s.Facing = m.facing
		s.Device = m.stream.Device()
	}
	return s
}

func (m *Manager) acquireLocked(ctx context.Context, preferBack bool) (Stream, error) {
	if err := m.releaseLocked(); err != nil {
		m.logger.Debug("release before acquire failed", logging.Error(err))
	}
	m.preferBack = preferBack
	if m.opener == nil {
		return nil, services.Wrap(services.ErrDeviceUnavailable, component, "acquire", "no camera opener configured", nil)
	}

	exact := Constraint{Facing: FacingFor(preferBack), Exact: true, Width: m.width, Height: m.height}
	stream, exactErr := m.open(ctx, exact)
	if exactErr == nil {
		m.install(stream, exact.Facing)
		return stream, nil
	}
	logging.WarnWithContext(m.logger, "preferred camera not available, falling back", "camera_fallback",
		logging.String("facing", exact.Facing.String()),
		logging.Error(exactErr),
		logging.String(logging.FieldErrorHint, "check camera.environment_device and camera.user_device"),
		logging.String(logging.FieldImpact, "capturing from any available camera"),
	)
	if ctx.Err() != nil {
		return nil, services.Wrap(services.ErrDeviceUnavailable, component, "acquire", "canceled", ctx.Err())
	}

	anyCam := Constraint{Facing: FacingAny, Width: m.width, Height: m.height}
	stream, anyErr := m.open(ctx, anyCam)
	if anyErr == nil {
		m.install(stream, FacingAny)
		return stream, nil
	}
	m.logger.Error("camera access failed",
		logging.String(logging.FieldEventType, "camera_unavailable"),
		logging.Error(anyErr),
	)
	return nil, services.Wrap(services.ErrDeviceUnavailable, component, "acquire", "Camera Failed", errors.Join(exactErr, anyErr))
}

// open issues one request and takes the device lock for the resulting stream.
func (m *Manager) open(ctx context.Context, c Constraint) (Stream, error) {
	stream, err := m.opener.Open(ctx, c)
	if err != nil {
		return nil, err
	}
	if stream == nil {
		return nil, fmt.Errorf("open %s: no stream returned", c.Facing)
	}
	lock, err := m.lockDevice(stream.Device())
	if err != nil {
		_ = stream.Stop()
		return nil, err
	}
	m.lock = lock
	return stream, nil
}

func (m *Manager) lockDevice(device string) (*flock.Flock, error) {
	if m.lockDir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(m.lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	lock := flock.New(filepath.Join(m.lockDir, lockName(device)))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", device, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", device, errDeviceLocked)
	}
	return lock, nil
}

func (m *Manager) install(stream Stream, facing Facing) {
	m.stream = stream
	m.facing = facing
	if m.sink != nil {
		m.sink.Attach(stream)
	}
	m.logger.Info("camera acquired",
		logging.String(logging.FieldEventType, "camera_acquired"),
		logging.String("facing", facing.String()),
		logging.String("device", stream.Device()),
	)
}

func (m *Manager) releaseLocked() error {
	if m.stream == nil {
		return nil
	}
	if m.sink != nil {
		m.sink.Detach()
	}
	err := m.stream.Stop()
	device := m.stream.Device()
	m.stream = nil
	if m.lock != nil {
		if unlockErr := m.lock.Unlock(); unlockErr != nil {
			err = errors.Join(err, unlockErr)
		}
		m.lock = nil
	}
	m.logger.Debug("camera released", logging.String("device", device))
	return err
}

func lockName(device string) string {
	device = strings.TrimSpace(device)
	if device == "" {
		device = "default"
	}
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	return "camera" + replacer.Replace(device) + ".lock"
}
