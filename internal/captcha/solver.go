package captcha

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/cinfetch/internal/imaging"
	"github.com/nao1215/cinfetch/internal/ocr"
)

// TierResult is what one tier produced.
type TierResult struct {
	Name TierName

	// Consensus is the tier decision; zero when Decided is false.
	Consensus Consensus

	// Decided reports whether the tier produced any candidate.
	Decided bool

	// Attempts lists every recognition pass of the tier in generation order.
	Attempts []ocr.Attempt

	// Failures counts passes where the backend returned an error.
	Failures int
}

// Outcome is the solver result for one image.
type Outcome struct {
	// Text is the committed decision, empty when no tier produced a candidate.
	Text string

	// Tier is the tier that committed Text.
	Tier TierName

	// Confident is true when Text has the full code length.
	Confident bool

	// Consensus is the committing tier's vote.
	Consensus Consensus

	// Tiers lists the tiers that ran, in order.
	Tiers []TierResult
}

// Found reports whether any tier produced a candidate.
func (o Outcome) Found() bool { return o.Text != "" }

// TiersTried returns how many tiers were invoked.
func (o Outcome) TiersTried() int { return len(o.Tiers) }

// Submission returns the text to type into the portal: Text truncated to the
// code length. Shorter decisions are submitted as they are.
func (o Outcome) Submission() string {
	if len(o.Text) > CodeLength {
		return o.Text[:CodeLength]
	}
	return o.Text
}

// Solver runs the tiered recognition ensemble.
type Solver struct {
	engine    ocr.Engine
	generator *imaging.Generator
	tiers     []Tier
	logger    *slog.Logger
}

// SolverOption configures a Solver.
type SolverOption func(*Solver)

// WithTiers replaces the default tiers.
func WithTiers(tiers ...Tier) SolverOption {
	return func(s *Solver) {
		s.tiers = append([]Tier(nil), tiers...)
	}
}

// WithGenerator sets the variant generator.
func WithGenerator(g *imaging.Generator) SolverOption {
	return func(s *Solver) {
		s.generator = g
	}
}

// WithSolverLogger sets the logger.
func WithSolverLogger(logger *slog.Logger) SolverOption {
	return func(s *Solver) {
		s.logger = logger
	}
}

// NewSolver creates a Solver backed by engine.
func NewSolver(engine ocr.Engine, opts ...SolverOption) *Solver {
	s := &Solver{
		engine: engine,
		tiers:  DefaultTiers(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.generator == nil {
		s.generator = imaging.NewGenerator(imaging.WithGeneratorLogger(s.logger))
	}
	return s
}

// Solve recognizes the captcha in raw.
//
// Tiers run in order and Solve stops at the first one whose decision has the
// full code length. A shorter decision is remembered and escalation goes on;
// if no later tier does better, the most recent shorter decision is returned
// with Confident false. An Outcome with no text means no tier produced any
// candidate.
//
// Solve returns an error only when raw cannot be decoded, no tiers are
// configured, or ctx is done between passes.
func (s *Solver) Solve(ctx context.Context, raw imaging.RawImage) (Outcome, error) {
	if len(s.tiers) == 0 {
		return Outcome{}, ErrNoTiers
	}

	var out Outcome
	for _, tier := range s.tiers {
		res, err := s.runTier(ctx, raw, tier)
		if err != nil {
			return Outcome{}, err
		}
		out.Tiers = append(out.Tiers, res)

		s.logger.Debug("tier finished",
			"tier", string(tier.Name),
			"passes", len(res.Attempts),
			"failures", res.Failures,
			"decision", res.Consensus.Text,
			"votes", res.Consensus.Votes,
			"total", res.Consensus.Total,
		)

		if !res.Decided {
			continue
		}
		out.Text = res.Consensus.Text
		out.Tier = tier.Name
		out.Consensus = res.Consensus
		out.Confident = res.Consensus.Full()
		if out.Confident {
			return out, nil
		}
	}
	return out, nil
}

func (s *Solver) runTier(ctx context.Context, raw imaging.RawImage, tier Tier) (TierResult, error) {
	res := TierResult{Name: tier.Name}

	variants, err := s.generator.Generate(raw, tier.Recipes...)
	if err != nil {
		return res, fmt.Errorf("tier %s: %w", tier.Name, err)
	}

	var cands []Candidate
	for _, v := range variants {
		for _, mode := range tier.Modes {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			text, err := s.engine.Recognize(ctx, v, mode)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return res, err
				}
				res.Failures++
				s.logger.Debug("recognition failed",
					"engine", s.engine.Name(),
					"variant", v.ID,
					"mode", mode.String(),
					"error", err,
				)
				continue
			}
			res.Attempts = append(res.Attempts, ocr.Attempt{VariantID: v.ID, Mode: mode, RawText: text})
			if clean, ok := Normalize(text); ok {
				cands = append(cands, Candidate{Text: clean})
			}
		}
	}

	res.Consensus, res.Decided = Select(cands)
	return res, nil
}
