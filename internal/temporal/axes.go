package temporal

import (
	"errors"
	"fmt"
	"time"
)

// ErrAxesConflict is returned when the pinned and variable axes name
// the same time axis.
var ErrAxesConflict = errors.New("pinned and variable axes must differ")

// PinnedAxis fixes one time axis to a single instant.
type PinnedAxis struct {
	Axis      Axis      `json:"axis"`
	Timestamp time.Time `json:"timestamp"`
}

// VariableAxis ranges one time axis over an interval.
type VariableAxis struct {
	Axis     Axis     `json:"axis"`
	Interval Interval `json:"interval"`
}

// QueryTemporalAxes is a fully resolved axis pair: one axis pinned to
// an instant, the other ranged over an interval. Rows match a query
// when the pinned axis column contains the pinned instant and the
// variable axis column overlaps the variable interval.
type QueryTemporalAxes struct {
	Pinned   PinnedAxis   `json:"pinned"`
	Variable VariableAxis `json:"variable"`
}

// PinnedTimestamp returns the instant the pinned axis is fixed to.
func (a QueryTemporalAxes) PinnedTimestamp() time.Time {
	return a.Pinned.Timestamp
}

// VariableInterval returns the interval of the variable axis.
func (a QueryTemporalAxes) VariableInterval() Interval {
	return a.Variable.Interval
}

// WithVariableInterval returns a copy of the axes with the variable
// interval replaced. Traversal uses this to narrow validity windows
// as edges are followed.
func (a QueryTemporalAxes) WithVariableInterval(iv Interval) QueryTemporalAxes {
	a.Variable.Interval = iv

	return a
}

// PinnedAxisUnresolved is a pinned axis whose instant may be left
// unset, to be filled in at resolve time.
type PinnedAxisUnresolved struct {
	Axis      Axis       `json:"axis"`
	Timestamp *time.Time `json:"timestamp"`
}

// VariableAxisUnresolved is a variable axis whose interval bounds may
// be left unset, to be filled in at resolve time.
type VariableAxisUnresolved struct {
	Axis  Axis   `json:"axis"`
	Start *Bound `json:"start"`
	End   *Bound `json:"end"`
}

// QueryTemporalAxesUnresolved is the request-side axis pair. A zero
// value resolves to the default axes: transaction time pinned to now,
// decision time ranged over all time.
type QueryTemporalAxesUnresolved struct {
	Pinned   PinnedAxisUnresolved   `json:"pinned"`
	Variable VariableAxisUnresolved `json:"variable"`
}

// DefaultAxes returns the unresolved axes used when a request omits
// them: transaction time pinned, decision time variable.
func DefaultAxes() QueryTemporalAxesUnresolved {
	return QueryTemporalAxesUnresolved{
		Pinned:   PinnedAxisUnresolved{Axis: AxisTransactionTime},
		Variable: VariableAxisUnresolved{Axis: AxisDecisionTime},
	}
}

// Validate checks the axis pair for conflicts and unknown axis names.
// Unset axes are allowed; Resolve fills in the defaults.
func (u QueryTemporalAxesUnresolved) Validate() error {
	if u.Pinned.Axis != "" && !u.Pinned.Axis.Valid() {
		return fmt.Errorf("unknown pinned axis %q", u.Pinned.Axis)
	}

	if u.Variable.Axis != "" && !u.Variable.Axis.Valid() {
		return fmt.Errorf("unknown variable axis %q", u.Variable.Axis)
	}

	pinned, variable := u.axes()
	if pinned == variable {
		return ErrAxesConflict
	}

	return nil
}

// axes returns the effective axis names, defaulting unset ones so
// that exactly one axis is pinned and the other is variable.
func (u QueryTemporalAxesUnresolved) axes() (Axis, Axis) {
	pinned := u.Pinned.Axis
	variable := u.Variable.Axis

	switch {
	case pinned == "" && variable == "":
		return AxisTransactionTime, AxisDecisionTime
	case pinned == "":
		if variable == AxisTransactionTime {
			return AxisDecisionTime, variable
		}

		return AxisTransactionTime, variable
	case variable == "":
		if pinned == AxisDecisionTime {
			return pinned, AxisTransactionTime
		}

		return pinned, AxisDecisionTime
	default:
		return pinned, variable
	}
}

// Resolve promotes the unresolved axes to a concrete pair: the pinned
// instant defaults to now and the variable interval to all time.
func (u QueryTemporalAxesUnresolved) Resolve(now time.Time) QueryTemporalAxes {
	pinnedAxis, variableAxis := u.axes()

	pinned := now
	if u.Pinned.Timestamp != nil {
		pinned = *u.Pinned.Timestamp
	}

	start := Unbounded()
	if u.Variable.Start != nil {
		start = *u.Variable.Start
	}

	end := Unbounded()
	if u.Variable.End != nil {
		end = *u.Variable.End
	}

	return QueryTemporalAxes{
		Pinned:   PinnedAxis{Axis: pinnedAxis, Timestamp: pinned},
		Variable: VariableAxis{Axis: variableAxis, Interval: Interval{Start: start, End: end}},
	}
}
