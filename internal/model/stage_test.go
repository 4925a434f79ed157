package model

import (
	"encoding/json"
	"testing"
)

// TestStageString tests the String method of Stage.
func TestStageString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		stage    Stage
		expected string
	}{
		{StageInit, "init"},
		{StageFirstCaptchaSubmitted, "first_captcha_submitted"},
		{StageExportTriggered, "export_triggered"},
		{StageDone, "done"},
		{StageFailed, "failed"},
		{Stage(99), "unknown"},
		{Stage(-1), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			if tc.stage.String() != tc.expected {
				t.Errorf("got %q, expected %q", tc.stage.String(), tc.expected)
			}
		})
	}
}

// TestStageOrder tests that stages are declared in workflow order.
func TestStageOrder(t *testing.T) {
	t.Parallel()

	stages := Stages()
	if len(stages) != 10 {
		t.Fatalf("expected 10 stages, got %d", len(stages))
	}
	if stages[0] != StageInit || stages[len(stages)-1] != StageDone {
		t.Errorf("unexpected ends %v .. %v", stages[0], stages[len(stages)-1])
	}
	for i := 1; i < len(stages); i++ {
		if stages[i] != stages[i-1]+1 {
			t.Errorf("stage %v does not follow %v", stages[i], stages[i-1])
		}
	}
}

// TestStageIsTerminal tests terminal detection.
func TestStageIsTerminal(t *testing.T) {
	t.Parallel()

	for _, s := range Stages() {
		if s.IsTerminal() != (s == StageDone) {
			t.Errorf("%v: IsTerminal() = %v", s, s.IsTerminal())
		}
	}
	if !StageFailed.IsTerminal() {
		t.Error("failed must be terminal")
	}
}

// TestStageText tests text round trips through JSON.
func TestStageText(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		rec := LookupRecord{Identifier: "CIN123", Stage: StageResultsParsed, Attempt: 2}
		data, err := json.Marshal(rec)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		want := `{"identifier":"CIN123","stage":"results_parsed","attempt":2}`
		if string(data) != want {
			t.Errorf("got %s, want %s", data, want)
		}
		var back LookupRecord
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if back != rec {
			t.Errorf("got %+v, want %+v", back, rec)
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		t.Parallel()
		if _, err := ParseStage("nowhere"); err == nil {
			t.Error("expected error")
		}
	})
}
