package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nanophoto/nanophoto/internal/aspect"
	"github.com/nanophoto/nanophoto/internal/imageutil"
)

// Prefs are the capture preferences read at the instant of capture. Mirroring
// and framing both derive from the same snapshot so they cannot disagree.
type Prefs struct {
	AspectRatio aspect.Key
	Flipped     bool
}

// PrefsSource supplies the current capture preferences. Settings stores
// implement this; tests pass a StaticPrefs.
type PrefsSource interface {
	CapturePrefs() Prefs
}

// StaticPrefs is a fixed PrefsSource.
type StaticPrefs Prefs

func (p StaticPrefs) CapturePrefs() Prefs { return Prefs(p) }

type state int

const (
	stateIdle state = iota
	stateStarting
	stateActive
)

// Pipeline owns at most one live device and turns its frames into encoded
// capture artifacts.
type Pipeline struct {
	opener Opener
	prefs  PrefsSource

	mu     sync.Mutex
	state  state
	device Device
	facing Facing
}

// NewPipeline creates an idle pipeline. The facing of the first Start call
// is remembered across facing switches.
func NewPipeline(opener Opener, prefs PrefsSource) *Pipeline {
	return &Pipeline{
		opener: opener,
		prefs:  prefs,
		facing: FacingEnvironment,
	}
}

// Start acquires a device for the requested facing. An exact match is tried
// first, then a best-effort match, then both again for the opposite facing.
// Calls while the pipeline is already starting or active are no-ops. On
// failure the pipeline reverts to idle and stays usable for a manual retry.
func (p *Pipeline) Start(ctx context.Context, facing Facing) error {
	p.mu.Lock()
	if p.state != stateIdle {
		p.mu.Unlock()
		return nil
	}
	// Any previous device is released before a new one is acquired.
	p.closeDeviceLocked()
	p.state = stateStarting
	p.mu.Unlock()

	device, got, err := p.acquire(ctx, facing)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.state = stateIdle
		return fmt.Errorf("camera permission denied or unavailable: %w", err)
	}
	if got != facing {
		slog.Info("Capture device fell back to opposite facing", "requested", facing, "got", got)
	}
	p.device = device
	p.facing = got
	p.state = stateActive
	return nil
}

func (p *Pipeline) acquire(ctx context.Context, facing Facing) (Device, Facing, error) {
	tryOpen := func(f Facing) (Device, error) {
		d, err := p.opener.Open(ctx, f, true)
		if err != nil {
			return p.opener.Open(ctx, f, false)
		}
		return d, nil
	}

	device, err := tryOpen(facing)
	if err == nil {
		return device, facing, nil
	}

	other := facing.Opposite()
	device, otherErr := tryOpen(other)
	if otherErr != nil {
		return nil, facing, err
	}
	return device, other, nil
}

// Stop releases the device and returns the pipeline to idle. Safe to call at
// any time, including when already idle.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeDeviceLocked()
	p.state = stateIdle
}

func (p *Pipeline) closeDeviceLocked() {
	if p.device == nil {
		return
	}
	if err := p.device.Close(); err != nil {
		slog.Warn("Failed to close capture device", "err", err)
	}
	p.device = nil
}

// SwitchFacing tears down the current device and restarts against the other
// camera. The old device is always released before the new one opens.
func (p *Pipeline) SwitchFacing(ctx context.Context) error {
	p.mu.Lock()
	next := p.facing.Opposite()
	p.mu.Unlock()
	p.Stop()
	return p.Start(ctx, next)
}

// Facing reports which camera the pipeline last acquired (or was asked for).
func (p *Pipeline) Facing() Facing {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.facing
}

// Active reports whether a device is live.
func (p *Pipeline) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == stateActive
}

// CapturePhoto reads the current frame, center-crops it to the preferred
// aspect ratio, applies the mirror preference, and encodes a JPEG artifact.
// It returns (nil, nil) when there is no active frame to capture.
func (p *Pipeline) CapturePhoto() ([]byte, error) {
	p.mu.Lock()
	device := p.device
	p.mu.Unlock()
	if device == nil {
		return nil, nil
	}

	frame, ok := device.Frame()
	if !ok {
		return nil, nil
	}
	b := frame.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, nil
	}

	prefs := p.prefs.CapturePrefs()
	return imageutil.RenderJPEG(frame, prefs.AspectRatio, prefs.Flipped)
}

// Session ties a pipeline to a mount/teardown lifecycle: the device starts
// with the last-used facing on creation and never outlives the session.
type Session struct {
	pipeline *Pipeline
}

// StartSession starts a pipeline with the given facing and returns a session
// that releases the device on Close.
func StartSession(ctx context.Context, opener Opener, prefs PrefsSource, facing Facing) (*Session, error) {
	p := NewPipeline(opener, prefs)
	if err := p.Start(ctx, facing); err != nil {
		return nil, err
	}
	return &Session{pipeline: p}, nil
}

// Pipeline exposes the running pipeline.
func (s *Session) Pipeline() *Pipeline { return s.pipeline }

// Close stops the pipeline.
func (s *Session) Close() {
	s.pipeline.Stop()
}
