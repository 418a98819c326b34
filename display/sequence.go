package display

import (
	"image"
	"time"
)

// FrameFunc paints one animation frame. dst is a region-sized buffer whose
// bounds are screen coordinates; g is the interpolated frame box for this
// step and t the eased parameter in [0,1]. Painters draw the moving outline
// on every frame and full content only at t == 1.
type FrameFunc func(dst *image.RGBA, g Geometry, t float64)

// SequenceConfig sets playback cadence and length. Zero values fall back to
// the package defaults (24fps, 1.5s).
type SequenceConfig struct {
	FPS      int
	Duration time.Duration
}

func (c SequenceConfig) fps() int {
	if c.FPS <= 0 {
		return DefaultFPS
	}
	return c.FPS
}

func (c SequenceConfig) duration() time.Duration {
	if c.Duration <= 0 {
		return DefaultDuration * time.Millisecond
	}
	return c.Duration
}

// Sequence is a fully pre-computed animation: every frame is rendered before
// playback starts, so the player only moves bytes. Frames share the same
// screen-space bounds (the dirty region).
type Sequence struct {
	Frames []*image.RGBA
	Region image.Rectangle
	FPS    int
}

// Len returns the number of frames.
func (s *Sequence) Len() int { return len(s.Frames) }

// FramePeriod returns the per-frame time budget.
func (s *Sequence) FramePeriod() time.Duration {
	return time.Second / time.Duration(s.FPS)
}

// GenerateSequence renders the full expand/collapse sequence from one frame
// box to another. The eased parameter table is computed once, each step's
// geometry is interpolated on it, and render paints the frame into a fresh
// region-sized buffer. The result is deterministic: the same inputs produce
// byte-identical frames, and nothing here reads the clock or touches the
// device.
func GenerateSequence(region image.Rectangle, from, to Geometry, cfg SequenceConfig, render FrameFunc) *Sequence {
	fps := cfg.fps()
	n := int(cfg.duration().Seconds()*float64(fps) + 0.5)
	if n < 2 {
		n = 2
	}
	ease := EaseTable(n)
	frames := make([]*image.RGBA, n)
	for i := 0; i < n; i++ {
		t := ease[i]
		dst := image.NewRGBA(region)
		render(dst, Interpolate(from, to, t), t)
		frames[i] = dst
	}
	return &Sequence{Frames: frames, Region: region, FPS: fps}
}
