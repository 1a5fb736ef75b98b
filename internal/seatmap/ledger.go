package seatmap

import "errors"

// Sentinel errors returned by the Ledger.  Selecting an occupied seat is
// a reported error rather than a silent no-op so that callers (and tests)
// can distinguish "nothing happened" from "you cannot have that seat".
var (
	ErrSeatNotFound = errors.New("seatmap: seat not found")
	ErrSeatOccupied = errors.New("seatmap: seat occupied")
)

// Ledger mutates and derives the selection state of a Map.  It is the
// only way seat statuses change after generation.  The selected subset
// and the total are views recomputed from the map on every read; no
// derived value is stored, so the total can never drift from the seats.
type Ledger struct {
	m *Map
}

// NewLedger binds a ledger to a map.
func NewLedger(m *Map) *Ledger { return &Ledger{m: m} }

// Select marks an available seat as selected.  Selecting a seat that is
// already selected is a no-op.  Unknown ids yield ErrSeatNotFound and
// occupied seats yield ErrSeatOccupied.
func (l *Ledger) Select(seatID string) error {
	i, ok := l.m.index[seatID]
	if !ok {
		return ErrSeatNotFound
	}
	switch l.m.seats[i].Status {
	case StatusSelected:
		return nil
	case StatusOccupied:
		return ErrSeatOccupied
	}
	l.m.seats[i].Status = StatusSelected
	return nil
}

// Deselect returns a selected seat to available.  Any other state is
// left untouched.
func (l *Ledger) Deselect(seatID string) error {
	i, ok := l.m.index[seatID]
	if !ok {
		return ErrSeatNotFound
	}
	if l.m.seats[i].Status == StatusSelected {
		l.m.seats[i].Status = StatusAvailable
	}
	return nil
}

// ReleaseSelected returns every selected seat to available, e.g. after a
// cancelled booking hands the seats back.
func (l *Ledger) ReleaseSelected() {
	for i := range l.m.seats {
		if l.m.seats[i].Status == StatusSelected {
			l.m.seats[i].Status = StatusAvailable
		}
	}
}

// Selected returns the currently selected seats in map order.
func (l *Ledger) Selected() []Seat {
	var out []Seat
	for _, s := range l.m.seats {
		if s.Status == StatusSelected {
			out = append(out, s)
		}
	}
	return out
}

// TotalCents sums the base prices of the selected seats, walking the
// map on every call.
func (l *Ledger) TotalCents() uint32 {
	var total uint32
	for _, s := range l.m.seats {
		if s.Status == StatusSelected {
			total += s.PriceCents
		}
	}
	return total
}
