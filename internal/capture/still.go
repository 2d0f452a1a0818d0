package capture

import (
	"context"
	"image"
)

// StillDevice serves a single decoded image as the live frame. It backs the
// CLI judge path, where a photo file stands in for a camera.
type StillDevice struct {
	img    image.Image
	closed bool
}

// NewStillDevice wraps an image as a device.
func NewStillDevice(img image.Image) *StillDevice {
	return &StillDevice{img: img}
}

func (d *StillDevice) Frame() (image.Image, bool) {
	if d.closed || d.img == nil {
		return nil, false
	}
	return d.img, true
}

func (d *StillDevice) Close() error {
	d.closed = true
	return nil
}

// StillOpener hands out StillDevices for the same image regardless of the
// requested facing.
type StillOpener struct {
	img image.Image
}

func NewStillOpener(img image.Image) *StillOpener {
	return &StillOpener{img: img}
}

func (o *StillOpener) Open(ctx context.Context, facing Facing, exact bool) (Device, error) {
	return NewStillDevice(o.img), nil
}
