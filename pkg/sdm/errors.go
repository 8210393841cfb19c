package sdm

import "fmt"

// ValueError reports malformed numeric input: a non-finite value where a
// finite one is required, or batch shapes that do not broadcast to a common
// length.
type ValueError struct {
	Op  string
	Msg string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("sdm: %s: %s", e.Op, e.Msg)
}

// DomainError reports an input that is finite but physically or
// mathematically invalid for the single-diode model, such as a non-positive
// saturation current or an absolute temperature at or below zero.
type DomainError struct {
	Op     string
	Param  string
	Value  float64
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("sdm: %s: %s = %g %s", e.Op, e.Param, e.Value, e.Reason)
}

// ConvergenceError reports that the bounded maximum-power search failed to
// bracket or locate its root within the iteration budget.
type ConvergenceError struct {
	Op  string
	Err error
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("sdm: %s did not converge: %v", e.Op, e.Err)
}

func (e *ConvergenceError) Unwrap() error { return e.Err }

func valueErrorf(op, format string, args ...any) error {
	return &ValueError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

func domainError(op, param string, value float64, reason string) error {
	return &DomainError{Op: op, Param: param, Value: value, Reason: reason}
}
