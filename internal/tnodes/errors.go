package tnodes

import (
	"fmt"

	apperrors "github.com/Davknapp/tnodes/pkg/errors"
)

// contractViolation marks an internal invariant broken by the caller or by
// a bug in this package: a ghost element claiming an always-owned slot, a
// cnode asked for its owner while it has no contributors, a node id looked
// up for a slot traversal never visited, a face reported with more than two
// neighbor instances. It is always raised as a panic, never returned as an
// error, because recovering from it would produce a silently wrong
// numbering rather than a diagnosable failure.
type contractViolation struct {
	reason string
}

func (c contractViolation) Error() string {
	return fmt.Sprintf("tnodes: contract violation: %s", c.reason)
}

// errTransport wraps a transport-layer failure (a Comm call returning an
// error, a context cancellation mid-exchange) as an AppError.
func errTransport(err error) error {
	return apperrors.Wrap(apperrors.CodeTransportError, "transport operation failed", err)
}

// errCountMismatch reports that two values that must agree by construction
// (an allgather result and a locally computed element count, a declared
// sharer-list length and the number of entries actually written) did not.
func errCountMismatch(detail string) error {
	return apperrors.New(apperrors.CodeCountMismatch, detail)
}

// errOverflow reports that a global node count or offset did not fit into
// the signed 32-bit type the wire format and the cnode contributor
// encoding use.
func errOverflow(detail string) error {
	return apperrors.New(apperrors.CodeOverflow, detail)
}

// errMissingInput reports that Number was called with a nil Forest, a nil
// Ghost, or a nil Comm.
func errMissingInput(detail string) error {
	return apperrors.New(apperrors.CodeMissingInput, detail)
}
