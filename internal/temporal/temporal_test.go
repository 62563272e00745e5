package temporal

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func ts(hour int) time.Time {
	return time.Date(2024, time.March, 1, hour, 0, 0, 0, time.UTC)
}

func TestIntervalContains(t *testing.T) {
	tests := []struct {
		name     string
		interval Interval
		instant  time.Time
		want     bool
	}{
		{"inside closed-open", NewInterval(Inclusive(ts(1)), Exclusive(ts(5))), ts(3), true},
		{"at inclusive start", NewInterval(Inclusive(ts(1)), Exclusive(ts(5))), ts(1), true},
		{"at exclusive end", NewInterval(Inclusive(ts(1)), Exclusive(ts(5))), ts(5), false},
		{"before start", NewInterval(Inclusive(ts(1)), Exclusive(ts(5))), ts(0), false},
		{"at exclusive start", NewInterval(Exclusive(ts(1)), Unbounded()), ts(1), false},
		{"after exclusive start", NewInterval(Exclusive(ts(1)), Unbounded()), ts(2), true},
		{"all time", AllTime(), ts(12), true},
		{"at inclusive end", NewInterval(Unbounded(), Inclusive(ts(5))), ts(5), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.interval.Contains(tt.instant); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.instant, got, tt.want)
			}
		})
	}
}

func TestIntervalOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{
			"disjoint",
			NewInterval(Inclusive(ts(1)), Exclusive(ts(3))),
			NewInterval(Inclusive(ts(4)), Exclusive(ts(6))),
			false,
		},
		{
			"touching closed-open",
			NewInterval(Inclusive(ts(1)), Exclusive(ts(3))),
			NewInterval(Inclusive(ts(3)), Exclusive(ts(6))),
			false,
		},
		{
			"touching closed-closed",
			NewInterval(Inclusive(ts(1)), Inclusive(ts(3))),
			NewInterval(Inclusive(ts(3)), Exclusive(ts(6))),
			true,
		},
		{
			"nested",
			AllTime(),
			NewInterval(Inclusive(ts(2)), Exclusive(ts(4))),
			true,
		},
		{
			"partial",
			NewInterval(Inclusive(ts(1)), Exclusive(ts(4))),
			NewInterval(Inclusive(ts(3)), Unbounded()),
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}

			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("Overlaps (reversed) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIntervalIntersect(t *testing.T) {
	a := NewInterval(Inclusive(ts(1)), Exclusive(ts(5)))
	b := NewInterval(Inclusive(ts(3)), Unbounded())

	got, ok := a.Intersect(b)
	if !ok {
		t.Fatal("expected overlap")
	}

	want := NewInterval(Inclusive(ts(3)), Exclusive(ts(5)))
	if got != want {
		t.Errorf("Intersect = %+v, want %+v", got, want)
	}

	if _, ok := a.Intersect(NewInterval(Inclusive(ts(6)), Unbounded())); ok {
		t.Error("expected no overlap for disjoint intervals")
	}
}

func TestIntervalContainsInterval(t *testing.T) {
	outer := NewInterval(Inclusive(ts(1)), Exclusive(ts(10)))

	if !outer.ContainsInterval(NewInterval(Inclusive(ts(2)), Exclusive(ts(9)))) {
		t.Error("expected outer to contain nested interval")
	}

	if outer.ContainsInterval(NewInterval(Inclusive(ts(2)), Unbounded())) {
		t.Error("expected unbounded end to escape outer")
	}

	if !outer.ContainsInterval(outer) {
		t.Error("expected interval to contain itself")
	}
}

func TestResolveDefaults(t *testing.T) {
	now := ts(12)

	axes := QueryTemporalAxesUnresolved{}.Resolve(now)

	if axes.Pinned.Axis != AxisTransactionTime {
		t.Errorf("pinned axis = %q, want %q", axes.Pinned.Axis, AxisTransactionTime)
	}

	if axes.Variable.Axis != AxisDecisionTime {
		t.Errorf("variable axis = %q, want %q", axes.Variable.Axis, AxisDecisionTime)
	}

	if !axes.PinnedTimestamp().Equal(now) {
		t.Errorf("pinned timestamp = %v, want %v", axes.PinnedTimestamp(), now)
	}

	if axes.VariableInterval() != AllTime() {
		t.Errorf("variable interval = %+v, want all time", axes.VariableInterval())
	}
}

func TestResolveExplicit(t *testing.T) {
	pinned := ts(6)
	start := Inclusive(ts(2))

	axes := QueryTemporalAxesUnresolved{
		Pinned:   PinnedAxisUnresolved{Axis: AxisDecisionTime, Timestamp: &pinned},
		Variable: VariableAxisUnresolved{Axis: AxisTransactionTime, Start: &start},
	}.Resolve(ts(12))

	if axes.Pinned.Axis != AxisDecisionTime || axes.Variable.Axis != AxisTransactionTime {
		t.Errorf("axes = %q/%q, want decision/transaction", axes.Pinned.Axis, axes.Variable.Axis)
	}

	if !axes.PinnedTimestamp().Equal(pinned) {
		t.Errorf("pinned timestamp = %v, want %v", axes.PinnedTimestamp(), pinned)
	}

	want := NewInterval(start, Unbounded())
	if axes.VariableInterval() != want {
		t.Errorf("variable interval = %+v, want %+v", axes.VariableInterval(), want)
	}
}

func TestResolveFillsOppositeAxis(t *testing.T) {
	axes := QueryTemporalAxesUnresolved{
		Variable: VariableAxisUnresolved{Axis: AxisTransactionTime},
	}.Resolve(ts(1))

	if axes.Pinned.Axis != AxisDecisionTime {
		t.Errorf("pinned axis = %q, want %q", axes.Pinned.Axis, AxisDecisionTime)
	}
}

func TestValidateAxesConflict(t *testing.T) {
	u := QueryTemporalAxesUnresolved{
		Pinned:   PinnedAxisUnresolved{Axis: AxisDecisionTime},
		Variable: VariableAxisUnresolved{Axis: AxisDecisionTime},
	}

	if err := u.Validate(); !errors.Is(err, ErrAxesConflict) {
		t.Errorf("Validate = %v, want ErrAxesConflict", err)
	}

	if err := DefaultAxes().Validate(); err != nil {
		t.Errorf("Validate on defaults = %v, want nil", err)
	}

	bad := QueryTemporalAxesUnresolved{Pinned: PinnedAxisUnresolved{Axis: "wallClock"}}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown axis")
	}
}

func TestBoundJSON(t *testing.T) {
	data, err := json.Marshal(Unbounded())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if string(data) != `{"kind":"unbounded"}` {
		t.Errorf("unbounded bound = %s", data)
	}

	var b Bound
	if err := json.Unmarshal([]byte(`{"kind":"inclusive","limit":"2024-03-01T01:00:00Z"}`), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if b.Kind != BoundInclusive || !b.Limit.Equal(ts(1)) {
		t.Errorf("bound = %+v", b)
	}

	if err := json.Unmarshal([]byte(`{"kind":"inclusive"}`), &b); err == nil {
		t.Error("expected error for inclusive bound without limit")
	}

	if err := json.Unmarshal([]byte(`{"kind":"sometimes"}`), &b); err == nil {
		t.Error("expected error for unknown bound kind")
	}
}
