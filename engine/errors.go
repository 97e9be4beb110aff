package engine

import "fmt"

// ErrInvalidConfig is returned by New when a Config is self-inconsistent,
// per spec.md §7's error taxonomy.
type ErrInvalidConfig struct {
	Reason string
}

func (e *ErrInvalidConfig) Error() string {
	return fmt.Sprintf("engine: invalid configuration: %s", e.Reason)
}

// ErrUnprocessableVoyage is returned by ProcessVoyage when sort or
// kinematic derivation finds the Voyage corrupt (a NaN that should have
// been missing, or a non-monotone timestamp after sort). Every QC flag on
// the Voyage's reports remains at its 9/unset default.
type ErrUnprocessableVoyage struct {
	ID     string
	Reason string
}

func (e *ErrUnprocessableVoyage) Error() string {
	return fmt.Sprintf("engine: voyage %s unprocessable: %s", e.ID, e.Reason)
}

// ErrGridOverflow describes a super-observation grid contribution that
// cannot be indexed, such as a report at an invalid pentad. Nothing in this
// package returns it: FinalizeBuddyChecks has no error result, and
// buddy.Grid.Add silently drops such a contribution.
type ErrGridOverflow struct {
	Reason string
}

func (e *ErrGridOverflow) Error() string {
	return fmt.Sprintf("engine: buddy grid overflow: %s", e.Reason)
}
