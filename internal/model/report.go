package model

import (
	"sort"
	"time"
)

// AttemptSummary records how one attempt ended.
type AttemptSummary struct {
	// Attempt is the 1-based attempt number.
	Attempt int `json:"attempt"`

	// Stage is the last stage reached: StageDone or StageFailed.
	Stage Stage `json:"stage"`

	// FailedAt is the stage whose step failed. Empty on success.
	FailedAt string `json:"failed_at,omitempty"`

	// Error is the failure message. Empty on success.
	Error string `json:"error,omitempty"`

	// Captchas lists every captcha submitted during the attempt.
	Captchas []CaptchaSummary `json:"captchas,omitempty"`

	// StartedAt and FinishedAt bound the attempt.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// CaptchaSummary records one captcha submission.
type CaptchaSummary struct {
	// Gate is "step1" or "step2".
	Gate string `json:"gate"`

	// Fingerprint identifies the captured image.
	Fingerprint string `json:"fingerprint"`

	// Text is the submitted text.
	Text string `json:"text"`

	// Tier is the solving tier that produced Text.
	Tier string `json:"tier"`

	// Confident is true when Text has the full code length.
	Confident bool `json:"confident"`

	// Accepted is true when the portal accepted Text.
	Accepted bool `json:"accepted"`
}

// Succeeded reports whether the attempt reached StageDone.
func (a AttemptSummary) Succeeded() bool {
	return a.Stage == StageDone
}

// Duration returns how long the attempt took.
func (a AttemptSummary) Duration() time.Duration {
	return a.FinishedAt.Sub(a.StartedAt)
}

// LookupReport is the history of one identifier within a run.
type LookupReport struct {
	Identifier string           `json:"identifier"`
	Attempts   []AttemptSummary `json:"attempts"`

	// Rows is the number of data rows in the parsed results table of the
	// successful attempt.
	Rows int `json:"rows"`

	// Done is true when the identifier reached StageDone.
	Done bool `json:"done"`
}

// AttemptCount returns the number of attempts made.
func (l LookupReport) AttemptCount() int {
	return len(l.Attempts)
}

// RunReport is the history of a whole run.
type RunReport struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Lookups    []LookupReport `json:"lookups"`
}

// NewRunReport creates an empty report.
func NewRunReport(runID string, startedAt time.Time) *RunReport {
	return &RunReport{RunID: runID, StartedAt: startedAt}
}

// Completed returns the number of identifiers that reached StageDone.
func (r *RunReport) Completed() int {
	n := 0
	for _, l := range r.Lookups {
		if l.Done {
			n++
		}
	}
	return n
}

// TotalAttempts returns the number of attempts across all identifiers.
func (r *RunReport) TotalAttempts() int {
	n := 0
	for _, l := range r.Lookups {
		n += len(l.Attempts)
	}
	return n
}

// CaptchaStats returns how many captchas were submitted and how many of
// them the portal accepted.
func (r *RunReport) CaptchaStats() (submitted, accepted int) {
	for _, l := range r.Lookups {
		for _, a := range l.Attempts {
			for _, c := range a.Captchas {
				submitted++
				if c.Accepted {
					accepted++
				}
			}
		}
	}
	return submitted, accepted
}

// StageCount is a count for one named stage or tier.
type StageCount struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

// FailureStages counts failed attempts by the stage whose step failed,
// most frequent first and by name on ties.
func (r *RunReport) FailureStages() []StageCount {
	counts := map[string]int{}
	for _, l := range r.Lookups {
		for _, a := range l.Attempts {
			if a.Succeeded() || a.FailedAt == "" {
				continue
			}
			counts[a.FailedAt]++
		}
	}
	out := make([]StageCount, 0, len(counts))
	for stage, n := range counts {
		out = append(out, StageCount{Stage: stage, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Stage < out[j].Stage
	})
	return out
}

// TierUsage counts how often each solving tier passed a captcha gate,
// sorted by tier name.
func (r *RunReport) TierUsage() []StageCount {
	counts := map[string]int{}
	for _, l := range r.Lookups {
		for _, a := range l.Attempts {
			for _, c := range a.Captchas {
				if c.Accepted {
					counts[c.Tier]++
				}
			}
		}
	}
	out := make([]StageCount, 0, len(counts))
	for tier, n := range counts {
		out = append(out, StageCount{Stage: tier, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stage < out[j].Stage })
	return out
}
