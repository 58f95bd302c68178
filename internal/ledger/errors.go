package ledger

import (
	"errors"
	"fmt"
)

// ErrNotConsumed rejects a reversal for an appointment that never
// deducted a credit.
var ErrNotConsumed = errors.New("appointment has no consumed session")

// InconsistencyError reports a data-integrity breach: a referenced
// block is missing or a counter would leave its valid range. Not
// retried; rolled back and surfaced to an operator.
type InconsistencyError struct {
	BlockID uint
	Delta   int
	Detail  string
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf(
		"ledger inconsistency on block %d (delta %d): %s",
		e.BlockID, e.Delta, e.Detail,
	)
}

func IsInconsistency(err error) bool {
	var ie *InconsistencyError
	return errors.As(err, &ie)
}
