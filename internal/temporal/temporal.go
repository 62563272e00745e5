// Package temporal models the two time axes used to version graph
// records: transaction time (when the system recorded a fact) and
// decision time (when the fact holds in the modeled world).
//
// All intervals are left-closed/right-open, matching the tstzrange
// layout of the bitemporal tables.
package temporal

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Axis names one of the two time axes.
type Axis string

// The two supported time axes.
const (
	AxisDecisionTime    Axis = "decisionTime"
	AxisTransactionTime Axis = "transactionTime"
)

// Valid reports whether the axis is one of the known axes.
func (a Axis) Valid() bool {
	return a == AxisDecisionTime || a == AxisTransactionTime
}

// BoundKind describes how an interval endpoint is bounded.
type BoundKind string

// Interval endpoint kinds.
const (
	BoundUnbounded BoundKind = "unbounded"
	BoundInclusive BoundKind = "inclusive"
	BoundExclusive BoundKind = "exclusive"
)

// Bound is one endpoint of an interval. Limit is meaningful only when
// Kind is inclusive or exclusive.
type Bound struct {
	Kind  BoundKind
	Limit time.Time
}

// Unbounded returns an open endpoint.
func Unbounded() Bound {
	return Bound{Kind: BoundUnbounded}
}

// Inclusive returns a closed endpoint at t.
func Inclusive(t time.Time) Bound {
	return Bound{Kind: BoundInclusive, Limit: t}
}

// Exclusive returns an open endpoint at t.
func Exclusive(t time.Time) Bound {
	return Bound{Kind: BoundExclusive, Limit: t}
}

type boundJSON struct {
	Kind  BoundKind  `json:"kind"`
	Limit *time.Time `json:"limit,omitempty"`
}

// MarshalJSON emits {"kind":"unbounded"} or {"kind":...,"limit":...}.
func (b Bound) MarshalJSON() ([]byte, error) {
	out := boundJSON{Kind: b.Kind}
	if b.Kind != BoundUnbounded {
		limit := b.Limit
		out.Limit = &limit
	}

	return json.Marshal(out)
}

// UnmarshalJSON parses a bound and validates its kind.
func (b *Bound) UnmarshalJSON(data []byte) error {
	var in boundJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("parsing temporal bound: %w", err)
	}

	switch in.Kind {
	case BoundUnbounded:
		*b = Bound{Kind: BoundUnbounded}
	case BoundInclusive, BoundExclusive:
		if in.Limit == nil {
			return fmt.Errorf("temporal bound kind %q requires a limit", in.Kind)
		}

		*b = Bound{Kind: in.Kind, Limit: *in.Limit}
	default:
		return fmt.Errorf("unknown temporal bound kind %q", in.Kind)
	}

	return nil
}

// Interval is a range over one time axis, delimited by two bounds.
type Interval struct {
	Start Bound `json:"start"`
	End   Bound `json:"end"`
}

// NewInterval builds an interval from two bounds.
func NewInterval(start, end Bound) Interval {
	return Interval{Start: start, End: end}
}

// AllTime returns the interval spanning every instant.
func AllTime() Interval {
	return Interval{Start: Unbounded(), End: Unbounded()}
}

// compareStarts orders two start bounds. Unbounded sorts before any
// limit; at equal limits an inclusive start begins earlier than an
// exclusive one.
func compareStarts(a, b Bound) int {
	switch {
	case a.Kind == BoundUnbounded && b.Kind == BoundUnbounded:
		return 0
	case a.Kind == BoundUnbounded:
		return -1
	case b.Kind == BoundUnbounded:
		return 1
	case a.Limit.Before(b.Limit):
		return -1
	case a.Limit.After(b.Limit):
		return 1
	case a.Kind == b.Kind:
		return 0
	case a.Kind == BoundInclusive:
		return -1
	default:
		return 1
	}
}

// compareEnds orders two end bounds. Unbounded sorts after any limit;
// at equal limits an exclusive end finishes earlier than an inclusive
// one.
func compareEnds(a, b Bound) int {
	switch {
	case a.Kind == BoundUnbounded && b.Kind == BoundUnbounded:
		return 0
	case a.Kind == BoundUnbounded:
		return 1
	case b.Kind == BoundUnbounded:
		return -1
	case a.Limit.Before(b.Limit):
		return -1
	case a.Limit.After(b.Limit):
		return 1
	case a.Kind == b.Kind:
		return 0
	case a.Kind == BoundExclusive:
		return -1
	default:
		return 1
	}
}

// nonEmpty reports whether an interval delimited by start and end
// contains at least one instant.
func nonEmpty(start, end Bound) bool {
	if start.Kind == BoundUnbounded || end.Kind == BoundUnbounded {
		return true
	}

	if start.Limit.Before(end.Limit) {
		return true
	}

	if start.Limit.After(end.Limit) {
		return false
	}

	return start.Kind == BoundInclusive && end.Kind == BoundInclusive
}

// Contains reports whether the interval contains the instant t.
func (i Interval) Contains(t time.Time) bool {
	switch i.Start.Kind {
	case BoundInclusive:
		if t.Before(i.Start.Limit) {
			return false
		}
	case BoundExclusive:
		if !t.After(i.Start.Limit) {
			return false
		}
	case BoundUnbounded:
	}

	switch i.End.Kind {
	case BoundInclusive:
		if t.After(i.End.Limit) {
			return false
		}
	case BoundExclusive:
		if !t.Before(i.End.Limit) {
			return false
		}
	case BoundUnbounded:
	}

	return true
}

// ContainsInterval reports whether other lies fully within i.
func (i Interval) ContainsInterval(other Interval) bool {
	return compareStarts(i.Start, other.Start) <= 0 && compareEnds(i.End, other.End) >= 0
}

// Overlaps reports whether the two intervals share any instant.
func (i Interval) Overlaps(other Interval) bool {
	start := i.Start
	if compareStarts(other.Start, start) > 0 {
		start = other.Start
	}

	end := i.End
	if compareEnds(other.End, end) < 0 {
		end = other.End
	}

	return nonEmpty(start, end)
}

// PostgresRange renders the interval as a tstzrange literal, suitable
// as a statement parameter for range operators.
func (i Interval) PostgresRange() string {
	var b strings.Builder

	switch i.Start.Kind {
	case BoundInclusive:
		b.WriteByte('[')
		b.WriteByte('"')
		b.WriteString(i.Start.Limit.UTC().Format(time.RFC3339Nano))
		b.WriteByte('"')
	case BoundExclusive:
		b.WriteByte('(')
		b.WriteByte('"')
		b.WriteString(i.Start.Limit.UTC().Format(time.RFC3339Nano))
		b.WriteByte('"')
	case BoundUnbounded:
		b.WriteByte('(')
	}

	b.WriteByte(',')

	switch i.End.Kind {
	case BoundInclusive:
		b.WriteByte('"')
		b.WriteString(i.End.Limit.UTC().Format(time.RFC3339Nano))
		b.WriteByte('"')
		b.WriteByte(']')
	case BoundExclusive:
		b.WriteByte('"')
		b.WriteString(i.End.Limit.UTC().Format(time.RFC3339Nano))
		b.WriteByte('"')
		b.WriteByte(')')
	case BoundUnbounded:
		b.WriteByte(')')
	}

	return b.String()
}

// Intersect returns the overlap of the two intervals. The second
// return is false when they do not overlap.
func (i Interval) Intersect(other Interval) (Interval, bool) {
	start := i.Start
	if compareStarts(other.Start, start) > 0 {
		start = other.Start
	}

	end := i.End
	if compareEnds(other.End, end) < 0 {
		end = other.End
	}

	if !nonEmpty(start, end) {
		return Interval{}, false
	}

	return Interval{Start: start, End: end}, true
}
