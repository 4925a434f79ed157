package captcha

// Candidate is a normalized recognition result.
type Candidate struct {
	Text string
}

// Len returns the candidate length.
func (c Candidate) Len() int { return len(c.Text) }

// Full reports whether the candidate has the full code length.
func (c Candidate) Full() bool { return len(c.Text) == CodeLength }

// Consensus is the decision of one tier.
type Consensus struct {
	// Text is the winning candidate text.
	Text string

	// Votes is how many candidates carried Text.
	Votes int

	// Total is the number of candidates considered.
	Total int
}

// Full reports whether the decision has the full code length.
func (c Consensus) Full() bool { return len(c.Text) == CodeLength }

// Select reduces the candidates of one tier to a decision. Candidates must be
// in generation order; ties on vote count go to the text seen first.
//
// It returns false when cands is empty.
func Select(cands []Candidate) (Consensus, bool) {
	if len(cands) == 0 {
		return Consensus{}, false
	}

	counts := make(map[string]int, len(cands))
	order := make([]string, 0, len(cands))
	for _, c := range cands {
		if counts[c.Text] == 0 {
			order = append(order, c.Text)
		}
		counts[c.Text]++
	}

	// Fast path: a single distinct full-length read.
	if len(order) == 1 && len(order[0]) == CodeLength {
		return Consensus{Text: order[0], Votes: len(cands), Total: len(cands)}, true
	}

	best := order[0]
	for _, text := range order[1:] {
		if counts[text] > counts[best] {
			best = text
		}
	}
	return Consensus{Text: best, Votes: counts[best], Total: len(cands)}, true
}
