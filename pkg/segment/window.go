package segment

import (
	"fmt"
	"iter"
	"math"
)

// WindowConfig configures a [SlidingWindow].
type WindowConfig struct {
	Duration float64  // window length in seconds, default 0.030
	Step     float64  // hop between consecutive windows, default 0.010
	Start    float64  // start time of the first window, default 0
	End      float64  // optional end of the covered range; 0 means unbounded
	Mode     CropMode // how windows crossing End are clamped, default CropIntersection
}

func (c *WindowConfig) setDefaults() {
	if c.Duration == 0 {
		c.Duration = 0.030
	}
	if c.Step == 0 {
		c.Step = 0.010
	}
	if c.End == 0 {
		c.End = math.Inf(1)
	}
	if c.Mode == "" {
		c.Mode = CropIntersection
	}
}

// SlidingWindow positions fixed-duration analysis windows at a regular step
// and converts between frame indices and time. Frame i covers
// [start+i*step, start+i*step+duration); for conversions each frame is
// attributed the step-long slice centered on its middle, so that
// consecutive frames tile the axis without overlap.
type SlidingWindow struct {
	duration float64
	step     float64
	start    float64
	end      float64
	mode     CropMode
}

// NewSlidingWindow validates cfg, fills in defaults, and returns the
// window. Duration and Step must be positive and a finite End must lie
// after Start.
func NewSlidingWindow(cfg WindowConfig) (*SlidingWindow, error) {
	cfg.setDefaults()
	if cfg.Duration < 0 {
		return nil, fmt.Errorf("segment: window duration must be positive, got %g", cfg.Duration)
	}
	if cfg.Step < 0 {
		return nil, fmt.Errorf("segment: window step must be positive, got %g", cfg.Step)
	}
	if !math.IsInf(cfg.End, 1) && cfg.End <= cfg.Start {
		return nil, fmt.Errorf("segment: window end %g must be after start %g", cfg.End, cfg.Start)
	}
	if !cfg.Mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, cfg.Mode)
	}
	return &SlidingWindow{
		duration: cfg.Duration,
		step:     cfg.Step,
		start:    cfg.Start,
		end:      cfg.End,
		mode:     cfg.Mode,
	}, nil
}

// Duration returns the window length in seconds.
func (w *SlidingWindow) Duration() float64 { return w.duration }

// Step returns the hop between consecutive windows in seconds.
func (w *SlidingWindow) Step() float64 { return w.step }

// Start returns the start time of the first window.
func (w *SlidingWindow) Start() float64 { return w.start }

// End returns the end of the covered range, +Inf when unbounded.
func (w *SlidingWindow) End() float64 { return w.end }

// ClosestFrame returns the index of the frame whose attributed step slice
// holds timestamp t. It is the inverse of the boundary mapping used by
// [SlidingWindow.RangeToSegment], so segment/range conversions round-trip.
// Rounding is half-to-even for stability at exact slice boundaries.
func (w *SlidingWindow) ClosestFrame(t float64) int {
	return int(math.RoundToEven(0.5 + (t-w.start-0.5*w.duration)/w.step))
}

// SegmentToRange converts a segment to the 0-indexed frame range (i0, n)
// covering it: i0 is the first frame, n the frame count.
func (w *SlidingWindow) SegmentToRange(s Segment) (i0, n int) {
	i0 = w.ClosestFrame(s.Start)
	j0 := w.ClosestFrame(s.End)
	if i0 < 0 {
		i0 = 0
	}
	return i0, j0 - i0
}

// RangeToSegment converts the frame range (i0, n) back to a segment. Each
// frame stands for a step-long slice centered on the frame middle, except
// the very first frame which extends back to the window start.
func (w *SlidingWindow) RangeToSegment(i0, n int) Segment {
	start := w.start + (float64(i0)-0.5)*w.step + 0.5*w.duration
	end := start + float64(n)*w.step
	if i0 == 0 {
		start = w.start
	}
	return Segment{Start: start, End: end}
}

// At returns the window at position i. Windows starting at or after End are
// empty; a window crossing End is clamped according to the configured crop
// mode (trimmed, dropped, or kept whole).
func (w *SlidingWindow) At(i int) Segment {
	start := w.start + float64(i)*w.step
	if start >= w.end {
		return Segment{Start: start, End: start}
	}
	end := start + w.duration
	if end > w.end {
		switch w.mode {
		case CropIntersection:
			end = w.end
		case CropStrict:
			start = end
		case CropLoose:
			// keep the full window
		}
	}
	return Segment{Start: start, End: end}
}

// All iterates the window positions in order, stopping at the first empty
// window. On an unbounded window the sequence never ends on its own.
func (w *SlidingWindow) All() iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		for i := 0; ; i++ {
			s := w.At(i)
			if s.IsEmpty() {
				return
			}
			if !yield(s) {
				return
			}
		}
	}
}
