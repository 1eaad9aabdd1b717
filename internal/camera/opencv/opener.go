// Package opencv opens capture devices through OpenCV (gocv).
package opencv

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
	"sync"

	"gocv.io/x/gocv"

	"unitcam/internal/camera"
)

// Config maps facing modes onto device nodes or indexes.
type Config struct {
	EnvironmentDevice string
	UserDevice        string
	// AnyDevices are probed in order by the unconstrained request. Empty means
	// the system default camera (index 0).
	AnyDevices []string
}

// Opener implements camera.Opener on top of gocv.VideoCapture.
type Opener struct {
	cfg  Config
	open func(device string) (capture, error)
}

// capture is the subset of *gocv.VideoCapture the stream needs.
type capture interface {
	Set(prop gocv.VideoCaptureProperties, value float64)
	Read(m *gocv.Mat) bool
	IsOpened() bool
	Close() error
}

// NewOpener constructs an opener for cfg.
func NewOpener(cfg Config) *Opener {
	return &Opener{cfg: cfg, open: openCapture}
}

// Candidates lists the devices tried for constraint c, in order.
func (o *Opener) Candidates(c camera.Constraint) []string {
	var devices []string
	switch c.Facing {
	case camera.FacingEnvironment:
		devices = []string{o.cfg.EnvironmentDevice}
	case camera.FacingUser:
		devices = []string{o.cfg.UserDevice}
	default:
		devices = o.cfg.AnyDevices
		if len(devices) == 0 {
			devices = []string{"0"}
		}
	}
	out := make([]string, 0, len(devices))
	for _, d := range devices {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}

// Open opens the first candidate device that yields a frame.
func (o *Opener) Open(ctx context.Context, c camera.Constraint) (camera.Stream, error) {
	candidates := o.Candidates(c)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no %s camera configured", c.Facing)
	}
	var errs []error
	for _, device := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stream, err := o.openDevice(device, c)
		if err == nil {
			return stream, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

func (o *Opener) openDevice(device string, c camera.Constraint) (*Stream, error) {
	vc, err := o.open(device)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	if !vc.IsOpened() {
		_ = vc.Close()
		return nil, fmt.Errorf("open %s: device not opened", device)
	}
	if c.Width > 0 && c.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(c.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(c.Height))
	}
	stream := &Stream{device: device, vc: vc}
	// A device that opens but never delivers a frame is treated as unavailable.
	if _, err := stream.Frame(context.Background()); err != nil {
		_ = vc.Close()
		return nil, err
	}
	return stream, nil
}

func openCapture(device string) (capture, error) {
	if index, err := strconv.Atoi(device); err == nil {
		return gocv.OpenVideoCapture(index)
	}
	return gocv.OpenVideoCapture(device)
}

// Stream is one open OpenCV capture.
type Stream struct {
	device string

	mu     sync.Mutex
	vc     capture
	closed bool
}

func (s *Stream) Device() string { return s.device }

// Frame reads the frame current at call time.
func (s *Stream) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("read %s: stream stopped", s.device)
	}
	mat := gocv.NewMat()
	defer mat.Close()
	if ok := s.vc.Read(&mat); !ok {
		return nil, fmt.Errorf("read %s: failed to read frame", s.device)
	}
	if mat.Empty() {
		return nil, fmt.Errorf("read %s: captured frame is empty", s.device)
	}
	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("read %s: convert frame: %w", s.device, err)
	}
	return img, nil
}

// Stop closes the capture. Further calls are no-ops.
func (s *Stream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.vc.Close()
}
