package annotation

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/chronoline/chronoline/pkg/segment"
	"github.com/chronoline/chronoline/pkg/timeline"
)

func seg(start, end float64) segment.Segment {
	return segment.New(start, end)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// makeReference builds the three-speaker reference used across tests.
func makeReference() *Annotation {
	ref := New("file1", "speaker")
	ref.SetLabel(seg(0, 10), "Bernard")
	ref.SetLabel(seg(9, 15), "Albert")
	ref.SetLabel(seg(15, 20), "Jean")
	ref.SetLabel(seg(20, 30), "Bernard")
	ref.SetLabel(seg(29, 33), "Jean")
	ref.SetLabel(seg(33, 40), "Albert")
	return ref
}

// makeHypothesis builds the four-cluster hypothesis used across tests.
func makeHypothesis() *Annotation {
	hyp := New("file1", "speaker")
	hyp.SetLabel(seg(1, 11), "speaker#1")
	hyp.SetLabel(seg(9, 15), "speaker#2")
	hyp.SetLabel(seg(15, 20), "speaker#3")
	hyp.SetLabel(seg(21, 31), "speaker#1")
	hyp.SetLabel(seg(29, 33), "speaker#2")
	hyp.SetLabel(seg(33, 40), "speaker#2")
	hyp.SetLabel(seg(40, 41), "speaker#4")
	return hyp
}

func TestAnnotation_SetGet(t *testing.T) {
	a := New("file1", "speaker")
	a.Set(seg(0, 10), "tr1", "Alice")
	a.Set(seg(0, 10), "tr2", "Bob")
	a.Set(seg(12, 15), "tr1", "Alice")

	if got := a.Len(); got != 2 {
		t.Fatalf("Len() = %d; want 2", got)
	}
	if got, ok := a.Get(seg(0, 10), "tr2"); !ok || got != "Bob" {
		t.Errorf("Get(tr2) = %q, %v; want Bob, true", got, ok)
	}
	if _, ok := a.Get(seg(0, 10), "tr3"); ok {
		t.Error("Get(tr3) reported present for missing track")
	}
	if got := a.TrackNames(seg(0, 10)); !slices.Equal(got, []string{"tr1", "tr2"}) {
		t.Errorf("TrackNames() = %v; want [tr1 tr2]", got)
	}
	if got := a.Tracks(seg(99, 100)); len(got) != 0 {
		t.Errorf("Tracks() on missing segment = %v; want empty", got)
	}
	if !a.Contains(seg(12, 15)) || a.Contains(seg(1, 2)) {
		t.Error("Contains() mismatch")
	}
	tl := a.Timeline()
	if tl.Len() != 2 || tl.At(0) != seg(0, 10) || tl.At(1) != seg(12, 15) {
		t.Errorf("Timeline() = %v", tl)
	}
}

func TestAnnotation_SetIgnoresEmptySegment(t *testing.T) {
	a := New("file1", "speaker")
	a.Set(seg(5, 3), "tr", "Alice")
	a.SetLabel(seg(2, 2), "Bob")
	if a.Len() != 0 {
		t.Errorf("Len() = %d after empty-segment writes; want 0", a.Len())
	}
}

func TestAnnotation_SetLabel_ReplacesTracks(t *testing.T) {
	a := New("file1", "speaker")
	a.Set(seg(0, 10), "tr1", "Alice")
	a.Set(seg(0, 10), "tr2", "Bob")
	a.SetLabel(seg(0, 10), "Carol")

	tracks := a.Tracks(seg(0, 10))
	if len(tracks) != 1 || tracks[DefaultTrack] != "Carol" {
		t.Errorf("Tracks() = %v; want {%s: Carol}", tracks, DefaultTrack)
	}
	if got, ok := a.GetLabel(seg(0, 10)); !ok || got != "Carol" {
		t.Errorf("GetLabel() = %q, %v; want Carol, true", got, ok)
	}
}

func TestAnnotation_SetTracks(t *testing.T) {
	a := New("file1", "speaker")
	a.SetTracks(seg(0, 10), map[string]string{"tr1": "Alice", "tr2": "Bob"})
	if got := a.Len(); got != 1 {
		t.Fatalf("Len() = %d; want 1", got)
	}

	// Replacing with an empty map removes the segment entirely.
	a.SetTracks(seg(0, 10), nil)
	if got := a.Len(); got != 0 {
		t.Errorf("Len() = %d after empty SetTracks; want 0", got)
	}
	if a.Timeline().Len() != 0 {
		t.Error("timeline retains segment after empty SetTracks")
	}
}

func TestAnnotation_Delete(t *testing.T) {
	a := New("file1", "speaker")
	a.Set(seg(0, 10), "tr1", "Alice")
	a.Set(seg(0, 10), "tr2", "Bob")

	if err := a.Delete(seg(0, 10), "tr1"); err != nil {
		t.Fatalf("Delete(tr1) = %v", err)
	}
	if a.Len() != 1 {
		t.Fatal("segment vanished while a track remained")
	}

	// Removing the last track removes the segment itself.
	if err := a.Delete(seg(0, 10), "tr2"); err != nil {
		t.Fatalf("Delete(tr2) = %v", err)
	}
	if a.Len() != 0 || a.Timeline().Len() != 0 {
		t.Error("segment survived deletion of its last track")
	}

	if err := a.Delete(seg(0, 10), "tr1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete on missing segment = %v; want ErrNotFound", err)
	}
	a.Set(seg(0, 10), "tr1", "Alice")
	if err := a.Delete(seg(0, 10), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete on missing track = %v; want ErrNotFound", err)
	}
	if err := a.DeleteSegment(seg(0, 10)); err != nil {
		t.Fatalf("DeleteSegment() = %v", err)
	}
	if err := a.DeleteSegment(seg(0, 10)); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteSegment on missing segment = %v; want ErrNotFound", err)
	}
}

func TestAnnotation_Labels(t *testing.T) {
	ref := makeReference()
	if got := ref.Labels(); !slices.Equal(got, []string{"Albert", "Bernard", "Jean"}) {
		t.Errorf("Labels() = %v; want [Albert Bernard Jean]", got)
	}

	a := New("file1", "speaker")
	a.Set(seg(0, 10), "tr1", "Bob")
	a.Set(seg(0, 10), "tr2", "Alice")
	if got := a.LabelsAt(seg(0, 10)); !slices.Equal(got, []string{"Alice", "Bob"}) {
		t.Errorf("LabelsAt() = %v; want [Alice Bob]", got)
	}
	if got := a.LabelsAt(seg(50, 60)); len(got) != 0 {
		t.Errorf("LabelsAt() on missing segment = %v; want empty", got)
	}
}

func TestAnnotation_LabelTimeline(t *testing.T) {
	ref := makeReference()
	tl := ref.LabelTimeline("Bernard")
	if tl.Len() != 2 || tl.At(0) != seg(0, 10) || tl.At(1) != seg(20, 30) {
		t.Errorf("LabelTimeline(Bernard) = %v", tl)
	}
	if got := ref.LabelDuration("Bernard"); !almostEqual(got, 20) {
		t.Errorf("LabelDuration(Bernard) = %g; want 20", got)
	}
	if got := ref.LabelTimeline("Nobody").Len(); got != 0 {
		t.Errorf("LabelTimeline(Nobody) has %d segments; want 0", got)
	}
}

func TestAnnotation_Subset(t *testing.T) {
	a := New("file1", "speaker")
	a.Set(seg(0, 10), "tr1", "Alice")
	a.Set(seg(0, 10), "tr2", "Bob")
	a.Set(seg(12, 15), "tr1", "Bob")

	sub := a.Subset("Alice")
	if sub.Len() != 1 {
		t.Fatalf("Subset(Alice).Len() = %d; want 1", sub.Len())
	}
	tracks := sub.Tracks(seg(0, 10))
	if len(tracks) != 1 || tracks["tr1"] != "Alice" {
		t.Errorf("Subset(Alice) tracks = %v; want {tr1: Alice}", tracks)
	}
	if got := sub.URI(); got != "file1" {
		t.Errorf("Subset URI = %q; want file1", got)
	}
}

func TestAnnotation_AutoTrackName(t *testing.T) {
	a := New("file1", "speaker")
	a.Set(seg(0, 10), "spk_0", "Alice")
	a.Set(seg(0, 10), "spk_1", "Bob")
	if got := a.AutoTrackName(seg(0, 10), "spk"); got != "spk_2" {
		t.Errorf("AutoTrackName() = %q; want spk_2", got)
	}
	if got := a.AutoTrackName(seg(50, 60), "spk"); got != "spk_0" {
		t.Errorf("AutoTrackName() on fresh segment = %q; want spk_0", got)
	}
}

func TestAnnotation_Crop(t *testing.T) {
	a := New("file1", "speaker")
	a.Set(seg(0, 4), "tr", "Alice")
	a.Set(seg(2, 6), "tr", "Bob")
	a.Set(seg(8, 9), "tr", "Carol")

	strict, err := a.Crop(seg(1, 7), segment.CropStrict)
	if err != nil {
		t.Fatalf("Crop(strict) = %v", err)
	}
	if strict.Len() != 1 || !strict.Contains(seg(2, 6)) {
		t.Errorf("strict crop kept %v", strict.Timeline())
	}

	loose, err := a.Crop(seg(1, 7), segment.CropLoose)
	if err != nil {
		t.Fatalf("Crop(loose) = %v", err)
	}
	if loose.Len() != 2 || !loose.Contains(seg(0, 4)) || !loose.Contains(seg(2, 6)) {
		t.Errorf("loose crop kept %v", loose.Timeline())
	}

	if _, err := a.Crop(seg(1, 7), segment.CropMode("fuzzy")); !errors.Is(err, segment.ErrInvalidMode) {
		t.Errorf("Crop(fuzzy) = %v; want ErrInvalidMode", err)
	}
}

func TestAnnotation_CropIntersection_RenamesOnCollision(t *testing.T) {
	a := New("file1", "speaker")
	a.Set(seg(0, 4), "tr", "Alice")
	a.Set(seg(2, 6), "tr", "Bob")

	// Both segments trim down to [2, 4]: the second track is renamed.
	out, err := a.Crop(seg(2, 4), segment.CropIntersection)
	if err != nil {
		t.Fatalf("Crop(intersection) = %v", err)
	}
	tracks := out.Tracks(seg(2, 4))
	if len(tracks) != 2 || tracks["tr"] != "Alice" || tracks["tr_0"] != "Bob" {
		t.Errorf("tracks = %v; want {tr: Alice, tr_0: Bob}", tracks)
	}
}

func TestAnnotation_CropTimeline(t *testing.T) {
	a := New("file1", "speaker")
	a.Set(seg(0, 4), "tr", "Alice")
	a.Set(seg(5, 9), "tr", "Bob")
	a.Set(seg(10, 12), "tr", "Carol")

	focus := timeline.FromSegments("file1", seg(1, 3), seg(6, 7), seg(7, 8))
	out, err := a.CropTimeline(focus, segment.CropIntersection)
	if err != nil {
		t.Fatalf("CropTimeline() = %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("Len() = %d; want 2", out.Len())
	}
	if got, _ := out.Get(seg(1, 3), "tr"); got != "Alice" {
		t.Errorf("trimmed [1,3] label = %q; want Alice", got)
	}
	// Touching focus segments merge through coverage before cropping.
	if got, _ := out.Get(seg(6, 8), "tr"); got != "Bob" {
		t.Errorf("trimmed [6,8] label = %q; want Bob", got)
	}
}

func TestAnnotation_Project(t *testing.T) {
	a := New("file1", "speaker")
	a.Set(seg(0, 10), "tr1", "Alice")
	a.Set(seg(5, 15), "tr2", "Bob")

	target := timeline.FromSegments("file1", seg(0, 5), seg(5, 10), seg(10, 15))
	out := a.Project(target)

	if got := out.Tracks(seg(0, 5)); len(got) != 1 || got["tr1"] != "Alice" {
		t.Errorf("tracks at [0,5] = %v; want {tr1: Alice}", got)
	}
	mid := out.Tracks(seg(5, 10))
	if len(mid) != 2 || mid["tr1"] != "Alice" || mid["tr2"] != "Bob" {
		t.Errorf("tracks at [5,10] = %v; want {tr1: Alice, tr2: Bob}", mid)
	}
	if got := out.Tracks(seg(10, 15)); len(got) != 1 || got["tr2"] != "Bob" {
		t.Errorf("tracks at [10,15] = %v; want {tr2: Bob}", got)
	}
}

func TestAnnotation_Project_RenamesOnCollision(t *testing.T) {
	a := New("file1", "speaker")
	a.Set(seg(0, 6), "tr", "Alice")
	a.Set(seg(4, 10), "tr", "Bob")

	target := timeline.FromSegments("file1", seg(0, 10))
	out := a.Project(target)
	tracks := out.Tracks(seg(0, 10))
	if len(tracks) != 2 || tracks["tr"] != "Alice" || tracks["tr_0"] != "Bob" {
		t.Errorf("tracks = %v; want {tr: Alice, tr_0: Bob}", tracks)
	}
}

func TestAnnotation_ProjectOntoOwnPartition(t *testing.T) {
	a := New("file1", "speaker")
	a.Set(seg(0, 10), "tr1", "Alice")
	a.Set(seg(5, 15), "tr2", "Bob")

	out := a.Project(a.Timeline().Partition())
	if !out.Timeline().IsPartition() {
		t.Error("projection onto own partition still overlaps")
	}
	want := []segment.Segment{seg(0, 5), seg(5, 10), seg(10, 15)}
	tl := out.Timeline()
	for i, s := range want {
		if tl.At(i) != s {
			t.Errorf("piece %d = %v; want %v", i, tl.At(i), s)
		}
	}
}

func TestAnnotation_Translate(t *testing.T) {
	ref := makeReference()
	out := ref.Translate(map[string]string{
		"Bernard": "speaker#1",
		"Albert":  "speaker#2",
		"Nobody":  "speaker#9",
		"Jean":    "",
	})

	if got := out.Labels(); !slices.Equal(got, []string{"Jean", "speaker#1", "speaker#2"}) {
		t.Errorf("Labels() = %v; want [Jean speaker#1 speaker#2]", got)
	}
	if got, _ := out.GetLabel(seg(0, 10)); got != "speaker#1" {
		t.Errorf("label at [0,10] = %q; want speaker#1", got)
	}
	// Labels mapped to the empty string pass through unchanged.
	if got, _ := out.GetLabel(seg(15, 20)); got != "Jean" {
		t.Errorf("label at [15,20] = %q; want Jean", got)
	}
}

func TestAnnotation_CopyEqual(t *testing.T) {
	ref := makeReference()
	cp := ref.Copy()
	if !ref.Equal(cp) {
		t.Fatal("copy not equal to original")
	}
	cp.Set(seg(50, 60), "tr", "Zoe")
	if ref.Equal(cp) {
		t.Error("mutating the copy affected equality")
	}
	if ref.Contains(seg(50, 60)) {
		t.Error("mutating the copy affected the original")
	}
}

func TestAnnotation_All_Order(t *testing.T) {
	a := New("file1", "speaker")
	a.Set(seg(5, 6), "b", "B")
	a.Set(seg(0, 1), "z", "Z")
	a.Set(seg(5, 6), "a", "A")

	var got []Entry
	for e := range a.All() {
		got = append(got, e)
	}
	want := []Entry{
		{seg(0, 1), "z", "Z"},
		{seg(5, 6), "a", "A"},
		{seg(5, 6), "b", "B"},
	}
	if !slices.Equal(got, want) {
		t.Errorf("All() = %v; want %v", got, want)
	}
}

func TestCooccurrence(t *testing.T) {
	m := Cooccurrence(makeReference(), makeHypothesis())

	if rows := m.RowLabels(); !slices.Equal(rows, []string{"Albert", "Bernard", "Jean"}) {
		t.Fatalf("RowLabels() = %v", rows)
	}
	if cols := m.ColLabels(); !slices.Equal(cols, []string{"speaker#1", "speaker#2", "speaker#3", "speaker#4"}) {
		t.Fatalf("ColLabels() = %v", cols)
	}

	cells := []struct {
		row, col string
		want     float64
	}{
		{"Albert", "speaker#1", 2},
		{"Albert", "speaker#2", 13},
		{"Albert", "speaker#3", 0},
		{"Bernard", "speaker#1", 18},
		{"Bernard", "speaker#2", 2},
		{"Jean", "speaker#1", 2},
		{"Jean", "speaker#2", 4},
		{"Jean", "speaker#3", 5},
		{"Jean", "speaker#4", 0},
	}
	for _, c := range cells {
		got, ok := m.Get(c.row, c.col)
		if !ok || !almostEqual(got, c.want) {
			t.Errorf("Get(%s, %s) = %g, %v; want %g", c.row, c.col, got, ok, c.want)
		}
	}

	if _, ok := m.Get("Nobody", "speaker#1"); ok {
		t.Error("Get() reported a cell for an unknown label")
	}
	if got := m.Sum(); !almostEqual(got, 46) {
		t.Errorf("Sum() = %g; want 46", got)
	}
	if got := m.Max(); !almostEqual(got, 18) {
		t.Errorf("Max() = %g; want 18", got)
	}
	if col, v, ok := m.ArgMax("Bernard"); !ok || col != "speaker#1" || !almostEqual(v, 18) {
		t.Errorf("ArgMax(Bernard) = %s, %g, %v; want speaker#1, 18", col, v, ok)
	}
	if got := m.RowMax("Albert"); !almostEqual(got, 13) {
		t.Errorf("RowMax(Albert) = %g; want 13", got)
	}
}

func TestCooccurrence_CountsOverlapOnce(t *testing.T) {
	// Two "Alice" tracks overlap each other; coverage keeps the shared
	// time from being counted twice.
	a := New("file1", "speaker")
	a.Set(seg(0, 6), "tr1", "Alice")
	a.Set(seg(4, 10), "tr2", "Alice")
	b := New("file1", "speaker")
	b.SetLabel(seg(0, 10), "Bob")

	m := Cooccurrence(a, b)
	got, _ := m.Get("Alice", "Bob")
	if !almostEqual(got, 10) {
		t.Errorf("Get(Alice, Bob) = %g; want 10", got)
	}
}

func TestCooccurrence_Empty(t *testing.T) {
	m := Cooccurrence(New("file1", "speaker"), makeHypothesis())
	if r, c := m.Dims(); r != 0 || c != 4 {
		t.Errorf("Dims() = %d, %d; want 0, 4", r, c)
	}
	if got := m.Sum(); got != 0 {
		t.Errorf("Sum() = %g; want 0", got)
	}
	if got := m.Max(); got != 0 {
		t.Errorf("Max() = %g; want 0", got)
	}
}

func TestLabelMatrix_Transpose(t *testing.T) {
	m := Cooccurrence(makeReference(), makeHypothesis()).Transpose()
	if rows := m.RowLabels(); !slices.Equal(rows, []string{"speaker#1", "speaker#2", "speaker#3", "speaker#4"}) {
		t.Fatalf("RowLabels() = %v", rows)
	}
	got, ok := m.Get("speaker#2", "Albert")
	if !ok || !almostEqual(got, 13) {
		t.Errorf("Get(speaker#2, Albert) = %g, %v; want 13", got, ok)
	}
}
