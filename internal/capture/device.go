package capture

import (
	"context"
	"image"
)

// Facing selects which physical camera a capture session drives.
type Facing string

const (
	FacingEnvironment Facing = "environment"
	FacingUser        Facing = "user"
)

// Opposite returns the other camera facing.
func (f Facing) Opposite() Facing {
	if f == FacingUser {
		return FacingEnvironment
	}
	return FacingUser
}

// ParseFacing maps a label to a Facing, defaulting to the environment camera.
func ParseFacing(s string) Facing {
	if Facing(s) == FacingUser {
		return FacingUser
	}
	return FacingEnvironment
}

// Device is a live frame source. Frame returns the current frame, or false
// when the device has no frame yet. Close releases the underlying tracks.
type Device interface {
	Frame() (image.Image, bool)
	Close() error
}

// Opener acquires devices. An exact request must only match the requested
// facing; a non-exact request treats it as a best-effort preference.
type Opener interface {
	Open(ctx context.Context, facing Facing, exact bool) (Device, error)
}
