package camera

import (
	"context"
	"image"
)

// Facing selects which physical camera is requested.
type Facing int

const (
	FacingEnvironment Facing = iota
	FacingUser
	FacingAny
)

func (f Facing) String() string {
	switch f {
	case FacingEnvironment:
		return "environment"
	case FacingUser:
		return "user"
	default:
		return "any"
	}
}

// FacingFor maps the rear-camera preference onto a facing mode.
func FacingFor(preferBack bool) Facing {
	if preferBack {
		return FacingEnvironment
	}
	return FacingUser
}

// Constraint describes one open request.
type Constraint struct {
	Facing Facing
	Exact  bool
	Width  int
	Height int
}

// Stream is a live capture stream.
type Stream interface {
	// Frame returns the frame current at call time.
	Frame(ctx context.Context) (image.Image, error)
	// Device names the underlying device node or index.
	Device() string
	Stop() error
}

// Opener turns a constraint into a live stream.
type Opener interface {
	Open(ctx context.Context, c Constraint) (Stream, error)
}

// Sink receives the live stream once acquired, for preview purposes.
type Sink interface {
	Attach(s Stream)
	Detach()
}

// Session describes the current capture session.
type Session struct {
	Active     bool
	PreferBack bool
	Facing     Facing
	Device     string
}
