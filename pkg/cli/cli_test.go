package cli

import (
	"strings"
	"testing"
)

func TestStyles_Table(t *testing.T) {
	s := NewStyles(DefaultTheme)
	tab := Table{Headers: []string{"uri", "rate"}}
	tab.Add("file1", "0.214")
	tab.Add("a-much-longer-name", "0.000")

	got := s.Table(tab)
	lines := strings.Split(got, "\n")
	if len(lines) != 4 {
		t.Fatalf("rendered %d lines; want 4", len(lines))
	}
	if !strings.Contains(lines[2], "file1             ") {
		t.Errorf("short cell not padded to column width: %q", lines[2])
	}
	if !strings.HasSuffix(lines[3], "0.000") {
		t.Errorf("last column should be unpadded: %q", lines[3])
	}
}

func TestStyles_KeyValue(t *testing.T) {
	s := NewStyles(DefaultTheme)
	got := s.KeyValue("global", "0.214", 10)
	if !strings.Contains(got, "0.214") {
		t.Errorf("KeyValue() = %q; want value present", got)
	}
}
