package segment

import (
	"errors"
	"testing"
)

func TestNewSlidingWindow_Defaults(t *testing.T) {
	w, err := NewSlidingWindow(WindowConfig{})
	if err != nil {
		t.Fatalf("NewSlidingWindow error: %v", err)
	}
	if w.Duration() != 0.030 || w.Step() != 0.010 || w.Start() != 0 {
		t.Errorf("defaults = (%g, %g, %g); want (0.03, 0.01, 0)", w.Duration(), w.Step(), w.Start())
	}
}

func TestNewSlidingWindow_Validation(t *testing.T) {
	if _, err := NewSlidingWindow(WindowConfig{Duration: -1}); err == nil {
		t.Error("negative duration should fail")
	}
	if _, err := NewSlidingWindow(WindowConfig{Step: -1}); err == nil {
		t.Error("negative step should fail")
	}
	if _, err := NewSlidingWindow(WindowConfig{Start: 5, End: 3}); err == nil {
		t.Error("end before start should fail")
	}
	_, err := NewSlidingWindow(WindowConfig{Mode: "fuzzy"})
	if !errors.Is(err, ErrInvalidMode) {
		t.Errorf("unknown mode: got %v, want ErrInvalidMode", err)
	}
}

func TestSlidingWindow_RangeRoundTrip(t *testing.T) {
	w, err := NewSlidingWindow(WindowConfig{})
	if err != nil {
		t.Fatalf("NewSlidingWindow error: %v", err)
	}

	i0, n := w.SegmentToRange(New(10, 15))
	if i0 != 999 || n != 500 {
		t.Errorf("SegmentToRange = (%d, %d); want (999, 500)", i0, n)
	}

	s := w.RangeToSegment(i0, n)
	if !almostEqual(s.Start, 10) || !almostEqual(s.End, 15) {
		t.Errorf("RangeToSegment = %v; want [10, 15]", s)
	}
}

func TestSlidingWindow_RangeToSegment_FirstFrame(t *testing.T) {
	w, err := NewSlidingWindow(WindowConfig{})
	if err != nil {
		t.Fatalf("NewSlidingWindow error: %v", err)
	}

	// the first frame extends back to the window start
	s := w.RangeToSegment(0, 3)
	if !almostEqual(s.Start, 0) || !almostEqual(s.End, 0.04) {
		t.Errorf("RangeToSegment(0, 3) = %v; want [0, 0.04]", s)
	}
}

func TestSlidingWindow_At(t *testing.T) {
	w, err := NewSlidingWindow(WindowConfig{End: 0.1})
	if err != nil {
		t.Fatalf("NewSlidingWindow error: %v", err)
	}

	if got := w.At(0); !almostEqual(got.Start, 0) || !almostEqual(got.End, 0.03) {
		t.Errorf("At(0) = %v; want [0, 0.03]", got)
	}
	// window crossing the end is trimmed in intersection mode
	if got := w.At(8); !almostEqual(got.Start, 0.08) || !almostEqual(got.End, 0.1) {
		t.Errorf("At(8) = %v; want [0.08, 0.1]", got)
	}
	// windows beyond the end are empty
	if got := w.At(12); !got.IsEmpty() {
		t.Errorf("At(12) = %v; want empty", got)
	}
}

func TestSlidingWindow_At_Modes(t *testing.T) {
	strict, err := NewSlidingWindow(WindowConfig{End: 0.1, Mode: CropStrict})
	if err != nil {
		t.Fatalf("NewSlidingWindow error: %v", err)
	}
	if got := strict.At(8); !got.IsEmpty() {
		t.Errorf("strict At(8) = %v; want empty", got)
	}

	loose, err := NewSlidingWindow(WindowConfig{End: 0.1, Mode: CropLoose})
	if err != nil {
		t.Fatalf("NewSlidingWindow error: %v", err)
	}
	if got := loose.At(8); !almostEqual(got.End, 0.11) {
		t.Errorf("loose At(8) = %v; want [0.08, 0.11]", got)
	}
}

func TestSlidingWindow_All(t *testing.T) {
	w, err := NewSlidingWindow(WindowConfig{End: 0.1})
	if err != nil {
		t.Fatalf("NewSlidingWindow error: %v", err)
	}

	var got []Segment
	for s := range w.All() {
		got = append(got, s)
	}
	if len(got) != 10 {
		t.Fatalf("All() yielded %d windows; want 10", len(got))
	}
	if !almostEqual(got[0].Start, 0) || !almostEqual(got[0].End, 0.03) {
		t.Errorf("first window = %v; want [0, 0.03]", got[0])
	}
	if !almostEqual(got[9].Start, 0.09) || !almostEqual(got[9].End, 0.1) {
		t.Errorf("last window = %v; want [0.09, 0.1]", got[9])
	}
}

func TestSlidingWindow_ClosestFrame(t *testing.T) {
	w, err := NewSlidingWindow(WindowConfig{})
	if err != nil {
		t.Fatalf("NewSlidingWindow error: %v", err)
	}
	tests := []struct {
		t    float64
		want int
	}{
		{0, -1}, // before the slice attributed to frame 0
		{0.01, 0},
		{0.015, 0}, // middle of frame 0
		{0.02, 1},
		{0.255, 24},
		{10, 999},
	}
	for _, tc := range tests {
		if got := w.ClosestFrame(tc.t); got != tc.want {
			t.Errorf("ClosestFrame(%g) = %d; want %d", tc.t, got, tc.want)
		}
	}
}
