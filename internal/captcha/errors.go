package captcha

import "errors"

// ErrNoTiers is returned by Solver.Solve when the solver has no tiers.
var ErrNoTiers = errors.New("captcha: no tiers configured")
