package model

import "fmt"

// Stage is a state of the lookup workflow.
//
// Design decision: Stages are iota constants in workflow order so that
// "how far did an attempt get" is an integer comparison. String and
// MarshalText give stable names for logs, reports and the ledger.
type Stage int

const (
	// StageInit is the state before anything has been sent to the portal.
	StageInit Stage = iota

	// StageSearchSubmitted means the identifier was typed into the search control.
	StageSearchSubmitted

	// StageFirstCaptchaPresented means the first captcha image became visible.
	StageFirstCaptchaPresented

	// StageFirstCaptchaSubmitted means the first captcha was solved and accepted.
	StageFirstCaptchaSubmitted

	// StageResultsParsed means the results table was found and extracted.
	StageResultsParsed

	// StageDetailLinkActivated means the identifier's detail link was clicked.
	StageDetailLinkActivated

	// StageSecondCaptchaPresented means the second captcha image became visible.
	StageSecondCaptchaPresented

	// StageSecondCaptchaSubmitted means the second captcha was solved and accepted.
	StageSecondCaptchaSubmitted

	// StageExportTriggered means the export controls were activated.
	StageExportTriggered

	// StageDone is the terminal success state.
	StageDone

	// StageFailed is the terminal failure state, reachable from any other state.
	StageFailed
)

var stageNames = [...]string{
	StageInit:                   "init",
	StageSearchSubmitted:        "search_submitted",
	StageFirstCaptchaPresented:  "first_captcha_presented",
	StageFirstCaptchaSubmitted:  "first_captcha_submitted",
	StageResultsParsed:          "results_parsed",
	StageDetailLinkActivated:    "detail_link_activated",
	StageSecondCaptchaPresented: "second_captcha_presented",
	StageSecondCaptchaSubmitted: "second_captcha_submitted",
	StageExportTriggered:        "export_triggered",
	StageDone:                   "done",
	StageFailed:                 "failed",
}

// Stages returns every non-terminal stage followed by StageDone, in order.
func Stages() []Stage {
	out := make([]Stage, 0, int(StageDone)+1)
	for s := StageInit; s <= StageDone; s++ {
		out = append(out, s)
	}
	return out
}

// String returns the stage name.
func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// IsTerminal reports whether s is Done or Failed.
func (s Stage) IsTerminal() bool {
	return s == StageDone || s == StageFailed
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stage) UnmarshalText(text []byte) error {
	v, err := ParseStage(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStage converts a stage name back to a Stage.
func ParseStage(name string) (Stage, error) {
	for i, n := range stageNames {
		if n == name {
			return Stage(i), nil
		}
	}
	return StageInit, fmt.Errorf("unknown stage %q", name)
}
