package palette

import (
	"testing"

	"github.com/tapelight/tapelight-go/pkg/color"
)

func TestNewTable_HasFiveDefaultPalettes(t *testing.T) {
	tbl := NewTable()
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		if colors := tbl.Colors(name); len(colors) != 6 {
			t.Errorf("palette %s has %d colors, want 6", name, len(colors))
		}
	}
}

func TestLookup_ValidIndex(t *testing.T) {
	tbl := NewTable()
	got := tbl.Lookup("A", 0)
	want := color.RGB{R: 255, G: 0, B: 0}
	if got != want {
		t.Errorf("Lookup(A,0) = %+v, want %+v", got, want)
	}
}

func TestLookup_OutOfRangeReturnsErrorColor(t *testing.T) {
	tbl := NewTable()
	got := tbl.Lookup("A", 99)
	if got != color.ErrorColor {
		t.Errorf("Lookup out of range = %+v, want %+v", got, color.ErrorColor)
	}
}

func TestLookup_UnknownNameFallsBackToA(t *testing.T) {
	tbl := NewTable()
	got := tbl.Lookup("Z", 1)
	want := tbl.Lookup("A", 1)
	if got != want {
		t.Errorf("Lookup(Z,1) = %+v, want fallback %+v", got, want)
	}
}

func TestSetColors(t *testing.T) {
	tbl := NewTable()
	newColors := []color.RGB{{R: 1, G: 2, B: 3}}
	tbl.SetColors("A", newColors)

	got := tbl.Colors("A")
	if len(got) != 1 || got[0] != newColors[0] {
		t.Errorf("SetColors did not take effect, got %+v", got)
	}
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	tbl := NewTable()
	snap := tbl.Snapshot()
	snap["A"][0] = color.RGB{R: 9, G: 9, B: 9}

	original := tbl.Lookup("A", 0)
	if original == (color.RGB{R: 9, G: 9, B: 9}) {
		t.Error("mutating snapshot should not affect the table")
	}
}

func TestNewTableFrom(t *testing.T) {
	src := map[string][]color.RGB{"X": {{R: 1, G: 1, B: 1}}}
	tbl := NewTableFrom(src)

	src["X"][0] = color.RGB{R: 2, G: 2, B: 2}
	if got := tbl.Lookup("X", 0); got != (color.RGB{R: 1, G: 1, B: 1}) {
		t.Errorf("NewTableFrom should deep copy, got %+v", got)
	}
}
