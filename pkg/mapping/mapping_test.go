package mapping

import (
	"errors"
	"maps"
	"slices"
	"testing"
)

func TestMapping_AddPair(t *testing.T) {
	m := New("speaker", "speaker")
	if err := m.AddPair([]string{"A", "B"}, []string{"x"}); err != nil {
		t.Fatalf("AddPair() = %v", err)
	}
	if err := m.AddPair([]string{"C"}, nil); err != nil {
		t.Fatalf("AddPair() with empty right = %v", err)
	}
	if err := m.AddPair(nil, []string{"y"}); err != nil {
		t.Fatalf("AddPair() with empty left = %v", err)
	}
	if got := m.Len(); got != 3 {
		t.Errorf("Len() = %d; want 3", got)
	}

	if err := m.AddPair([]string{"A"}, []string{"z"}); !errors.Is(err, ErrAlreadyMapped) {
		t.Errorf("remapping left label = %v; want ErrAlreadyMapped", err)
	}
	if err := m.AddPair([]string{"D"}, []string{"x"}); !errors.Is(err, ErrAlreadyMapped) {
		t.Errorf("remapping right label = %v; want ErrAlreadyMapped", err)
	}
	if err := m.AddPair(nil, nil); err == nil {
		t.Error("AddPair(nil, nil) succeeded; want error")
	}
}

func TestMapping_OneToOne(t *testing.T) {
	m := NewOneToOne("speaker", "speaker")
	if err := m.AddPair([]string{"A"}, []string{"x"}); err != nil {
		t.Fatalf("AddPair() = %v", err)
	}
	if err := m.AddPair([]string{"B", "C"}, []string{"y"}); !errors.Is(err, ErrNotOneToOne) {
		t.Errorf("AddPair() with group = %v; want ErrNotOneToOne", err)
	}
	if err := m.AddPair([]string{"B"}, []string{"y", "z"}); !errors.Is(err, ErrNotOneToOne) {
		t.Errorf("AddPair() with right group = %v; want ErrNotOneToOne", err)
	}
}

func TestMapping_Lookups(t *testing.T) {
	m := New("speaker", "speaker")
	m.AddPair([]string{"A", "B"}, []string{"x"})
	m.AddPair([]string{"C"}, nil)

	if got, ok := m.RightOf("A"); !ok || !slices.Equal(got, []string{"x"}) {
		t.Errorf("RightOf(A) = %v, %v; want [x], true", got, ok)
	}
	if got, ok := m.LeftOf("x"); !ok || !slices.Equal(got, []string{"A", "B"}) {
		t.Errorf("LeftOf(x) = %v, %v; want [A B], true", got, ok)
	}
	// C is known but explicitly unmatched.
	if got, ok := m.RightOf("C"); !ok || len(got) != 0 {
		t.Errorf("RightOf(C) = %v, %v; want empty, true", got, ok)
	}
	if _, ok := m.RightOf("Z"); ok {
		t.Error("RightOf(Z) reported an unknown label as mapped")
	}
	if _, ok := m.LeftOf("Z"); ok {
		t.Error("LeftOf(Z) reported an unknown label as mapped")
	}
}

func TestMapping_Translation(t *testing.T) {
	m := New("speaker", "speaker")
	m.AddPair([]string{"A", "B"}, []string{"x"})
	m.AddPair([]string{"C"}, []string{"y", "z"}) // ambiguous, not translated
	m.AddPair([]string{"D"}, nil)                // unmatched, not translated
	m.AddPair(nil, []string{"w"})

	got := m.Translation()
	want := map[string]string{"A": "x", "B": "x"}
	if !maps.Equal(got, want) {
		t.Errorf("Translation() = %v; want %v", got, want)
	}
}

func TestMapping_String(t *testing.T) {
	m := New("speaker", "speaker")
	m.AddPair([]string{"A", "B"}, []string{"x"})
	m.AddPair(nil, []string{"y"})

	want := "A, B --> x\n(nothing) --> y"
	if got := m.String(); got != want {
		t.Errorf("String() = %q; want %q", got, want)
	}
}

func TestMapping_PairsIsCopy(t *testing.T) {
	m := New("speaker", "speaker")
	m.AddPair([]string{"A"}, []string{"x"})
	pairs := m.Pairs()
	pairs[0].Left[0] = "mutated"
	if got, _ := m.RightOf("A"); !slices.Equal(got, []string{"x"}) {
		t.Error("mutating Pairs() result affected the mapping")
	}
	if _, ok := m.RightOf("mutated"); ok {
		t.Error("mutating Pairs() result affected the mapping index")
	}
}
