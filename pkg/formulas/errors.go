package formulas

import "errors"

// Domain errors returned for degenerate numeric input. Callers in the
// engines treat any of these as a signal to substitute a conservative
// default rather than propagate.
var (
	ErrEmptySeries       = errors.New("formulas: empty series")
	ErrMismatchedLengths = errors.New("formulas: series lengths differ")
	ErrZeroVariance      = errors.New("formulas: zero variance")
)
