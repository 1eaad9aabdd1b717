package camera_test

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"

	"unitcam/internal/camera"
	"unitcam/internal/services"
)

type fakeStream struct {
	device  string
	mu      sync.Mutex
	stopped int
}

func (s *fakeStream) Frame(context.Context) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 2, 2)), nil
}

func (s *fakeStream) Device() string { return s.device }

func (s *fakeStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped++
	return nil
}

func (s *fakeStream) stops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// fakeOpener records every request and fails the facings listed in fail.
type fakeOpener struct {
	fail     map[camera.Facing]bool
	requests []camera.Constraint
	streams  []*fakeStream
	live     func() int
}

func (o *fakeOpener) Open(_ context.Context, c camera.Constraint) (camera.Stream, error) {
	o.requests = append(o.requests, c)
	if o.fail[c.Facing] {
		return nil, errors.New("overconstrained")
	}
	if o.live != nil && o.live() != 0 {
		return nil, errors.New("two live streams")
	}
	s := &fakeStream{device: "/dev/video-" + c.Facing.String()}
	o.streams = append(o.streams, s)
	return s, nil
}

func (o *fakeOpener) liveCount() int {
	n := 0
	for _, s := range o.streams {
		if s.stops() == 0 {
			n++
		}
	}
	return n
}

type recordingSink struct {
	attached []string
	detached int
}

func (s *recordingSink) Attach(st camera.Stream) { s.attached = append(s.attached, st.Device()) }
func (s *recordingSink) Detach()                 { s.detached++ }

func TestAcquireExactEnvironment(t *testing.T) {
	opener := &fakeOpener{}
	sink := &recordingSink{}
	mgr := camera.NewManager(opener, camera.WithSink(sink), camera.WithResolution(640, 480))

	stream, err := mgr.Acquire(context.Background(), true)
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	if stream.Device() != "/dev/video-environment" {
		t.Fatalf("unexpected device %q", stream.Device())
	}
	if len(opener.requests) != 1 {
		t.Fatalf("expected one request, got %d", len(opener.requests))
	}
	req := opener.requests[0]
	if !req.Exact || req.Facing != camera.FacingEnvironment || req.Width != 640 || req.Height != 480 {
		t.Fatalf("unexpected constraint %+v", req)
	}
	if len(sink.attached) != 1 {
		t.Fatalf("expected sink attached once, got %v", sink.attached)
	}
	if s := mgr.Session(); !s.Active || s.Facing != camera.FacingEnvironment {
		t.Fatalf("unexpected session %+v", s)
	}
}

func TestAcquireFallsBackExactlyOnce(t *testing.T) {
	opener := &fakeOpener{fail: map[camera.Facing]bool{camera.FacingEnvironment: true}}
	mgr := camera.NewManager(opener)

	stream, err := mgr.Acquire(context.Background(), true)
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	if stream.Device() != "/dev/video-any" {
		t.Fatalf("expected fallback stream, got %q", stream.Device())
	}
	if len(opener.requests) != 2 {
		t.Fatalf("expected exact then fallback, got %+v", opener.requests)
	}
	if opener.requests[1].Exact || opener.requests[1].Facing != camera.FacingAny {
		t.Fatalf("expected unconstrained fallback, got %+v", opener.requests[1])
	}
}

func TestAcquireReportsDeviceUnavailable(t *testing.T) {
	opener := &fakeOpener{fail: map[camera.Facing]bool{camera.FacingEnvironment: true, camera.FacingAny: true}}
	mgr := camera.NewManager(opener)

	_, err := mgr.Acquire(context.Background(), true)
	if !errors.Is(err, services.ErrDeviceUnavailable) {
		t.Fatalf("expected device unavailable, got %v", err)
	}
	if len(opener.requests) != 2 {
		t.Fatalf("expected exactly one fallback request, got %d requests", len(opener.requests))
	}
	if mgr.Session().Active {
		t.Fatal("expected no active session")
	}
	if _, err := mgr.Frame(context.Background()); !errors.Is(err, services.ErrDeviceUnavailable) {
		t.Fatalf("expected frame to report device unavailable, got %v", err)
	}
}

func TestSwitchReleasesBeforeAcquire(t *testing.T) {
	opener := &fakeOpener{}
	opener.live = opener.liveCount
	sink := &recordingSink{}
	mgr := camera.NewManager(opener, camera.WithSink(sink))

	first, err := mgr.Acquire(context.Background(), true)
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	second, err := mgr.Switch(context.Background())
	if err != nil {
		t.Fatalf("Switch returned error: %v", err)
	}
	if first.(*fakeStream).stops() != 1 {
		t.Fatal("expected first stream stopped")
	}
	if second.Device() != "/dev/video-user" {
		t.Fatalf("expected user camera after switch, got %q", second.Device())
	}
	if opener.liveCount() != 1 {
		t.Fatalf("expected one live stream, got %d", opener.liveCount())
	}
	if s := mgr.Session(); s.PreferBack {
		t.Fatalf("expected preference flipped, got %+v", s)
	}
	if sink.detached != 1 || len(sink.attached) != 2 {
		t.Fatalf("unexpected sink activity attached=%v detached=%d", sink.attached, sink.detached)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	opener := &fakeOpener{}
	mgr := camera.NewManager(opener)
	if err := mgr.Release(); err != nil {
		t.Fatalf("Release without stream: %v", err)
	}
	stream, err := mgr.Acquire(context.Background(), false)
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := mgr.Release(); err != nil {
			t.Fatalf("Release #%d: %v", i, err)
		}
	}
	if stream.(*fakeStream).stops() != 1 {
		t.Fatalf("expected a single stop, got %d", stream.(*fakeStream).stops())
	}
}

func TestAcquireReleasesPreviousStream(t *testing.T) {
	opener := &fakeOpener{}
	mgr := camera.NewManager(opener)
	first, err := mgr.Acquire(context.Background(), true)
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	if _, err := mgr.Acquire(context.Background(), true); err != nil {
		t.Fatalf("second Acquire returned error: %v", err)
	}
	if first.(*fakeStream).stops() != 1 {
		t.Fatal("expected previous stream stopped")
	}
}

func TestDeviceLockBlocksSecondManager(t *testing.T) {
	lockDir := t.TempDir()
	opener := &fakeOpener{}
	first := camera.NewManager(opener, camera.WithLockDir(lockDir))
	if _, err := first.Acquire(context.Background(), true); err != nil {
		t.Fatalf("first Acquire: %v", err)
	}

	// The rear device is locked, and the fallback lands on a different device.
	second := camera.NewManager(&fakeOpener{}, camera.WithLockDir(lockDir))
	stream, err := second.Acquire(context.Background(), true)
	if err != nil {
		t.Fatalf("second Acquire: %v", err)
	}
	if stream.Device() != "/dev/video-any" {
		t.Fatalf("expected fallback device while rear camera locked, got %q", stream.Device())
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	third := camera.NewManager(&fakeOpener{}, camera.WithLockDir(lockDir))
	stream, err = third.Acquire(context.Background(), true)
	if err != nil {
		t.Fatalf("third Acquire: %v", err)
	}
	if stream.Device() != "/dev/video-environment" {
		t.Fatalf("expected rear device after release, got %q", stream.Device())
	}
}
