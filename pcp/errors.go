package pcp

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// CapacityError is raised (wrapped, as a panic) by VPair.push and reported
// fatally by the Engine when a residual would need more than BCNT blocks to
// represent.
// The operator's only recourse is to rebuild with a larger BCNT; the search
// has no way to shrink a residual.
type CapacityError struct {
	BCNT int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("residual exceeds BCNT=%d blocks; recompile pcp with a larger BCNT", e.BCNT)
}

// newCapacityError wraps a CapacityError the way markduplicates wraps fatal
// engine errors: via errors.E, so the message carries both the structured
// cause and a human-readable annotation.
func newCapacityError() error {
	return errors.E(&CapacityError{BCNT: BCNT}, "pcp: residual capacity exceeded")
}

// TokenTooLongError reports a problem-file token whose encoded length would
// exceed VAL_BITS bits.
type TokenTooLongError struct {
	Line  int
	Token string
	Bits  int
}

func (e *TokenTooLongError) Error() string {
	return fmt.Sprintf("line %d: token %q encodes to %d bits, exceeds VAL_BITS=%d", e.Line, e.Token, e.Bits, ValBits)
}
