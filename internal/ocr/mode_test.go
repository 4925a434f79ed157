package ocr

import (
	"strings"
	"testing"
)

func TestModes(t *testing.T) {
	t.Parallel()

	t.Run("full set in try order", func(t *testing.T) {
		t.Parallel()
		got := AllModes()
		want := []Mode{8, 7, 13, 6}
		if len(got) != len(want) {
			t.Fatalf("expected %d modes, got %d", len(want), len(got))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("mode %d: got %d, want %d", i, got[i], want[i])
			}
		}
	})

	t.Run("names", func(t *testing.T) {
		t.Parallel()
		if ModeSingleWord.String() != "single-word" {
			t.Errorf("unexpected name %q", ModeSingleWord.String())
		}
		if Mode(3).String() != "psm-3" {
			t.Errorf("unexpected name %q", Mode(3).String())
		}
	})

	t.Run("alphabet has no punctuation", func(t *testing.T) {
		t.Parallel()
		if len(Alphabet) != 62 {
			t.Errorf("expected 62 characters, got %d", len(Alphabet))
		}
		if strings.ContainsAny(Alphabet, " .,!?-_") {
			t.Error("alphabet contains punctuation")
		}
	})
}
