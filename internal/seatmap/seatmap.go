// Package seatmap models the seating grid of a single showtime and the
// selection state a customer builds on top of it.  A Map is generated
// once per booking session and mutated only through the Ledger; seat
// occupancy is supplied by the booking backend, never decided here.
package seatmap

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
)

// Class indicates the pricing tier of a seat.
type Class string

const (
	ClassStandard Class = "standard"
	ClassPremium  Class = "premium"
	ClassVIP      Class = "vip"
)

// Status is the occupancy/selection state of a seat.  A seat moves
// available -> selected and back through the Ledger; occupied seats are
// immutable for the customer.
type Status string

const (
	StatusAvailable Status = "available"
	StatusOccupied  Status = "occupied"
	StatusSelected  Status = "selected"
)

// rowLabels provides the fixed ordered label set for rows.
const rowLabels = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Seat is one seat in the grid.
//
// Fields:
//  ID         - unique within a Map, "<rowLabel><number>" (e.g. "B7").
//  Row        - row label, one of A..Z.
//  Number     - 1-based position within the row.
//  Class      - pricing tier.
//  Status     - available, occupied or selected.
//  PriceCents - base price derived from the class at generation time.
type Seat struct {
	ID         string `json:"id"`
	Row        string `json:"row"`
	Number     int    `json:"number"`
	Class      Class  `json:"class"`
	Status     Status `json:"status"`
	PriceCents uint32 `json:"price_cents"`
}

// ClassifyFunc maps a 0-based row index to the class and base price of
// every seat in that row.  It must be deterministic so that two maps
// generated with the same parameters agree on pricing.
type ClassifyFunc func(rowIndex int) (Class, uint32)

// OccupancyFunc reports whether the seat with the given id starts out
// occupied.  It is called once per seat during generation.
type OccupancyFunc func(seatID string) bool

// OccupancySource yields the authoritative set of occupied seat ids for
// a showtime.  The booking gateway is the only correct implementation in
// production; two independently generated maps must agree on which seats
// are taken, so a map must never invent occupancy on its own.
type OccupancySource interface {
	OccupiedSeats(ctx context.Context, showtimeID uint64) ([]string, error)
}

// DefaultClassify is the house pricing policy: the first 30% of rows are
// premium, the next 40% standard and the remainder VIP.  On the standard
// 10-row hall this puts rows A-C at premium, D-G at standard and H-J at VIP.
func DefaultClassify(totalRows int) ClassifyFunc {
	return func(rowIndex int) (Class, uint32) {
		switch {
		case rowIndex < (totalRows*3+9)/10:
			return ClassPremium, 18000
		case rowIndex < (totalRows*7+9)/10:
			return ClassStandard, 12000
		default:
			return ClassVIP, 25000
		}
	}
}

// NoneOccupied is the occupancy policy for a freshly opened showtime.
func NoneOccupied(string) bool { return false }

// OccupiedSet builds an OccupancyFunc from a list of seat ids, typically
// the ids returned by an OccupancySource.
func OccupiedSet(ids []string) OccupancyFunc {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return func(seatID string) bool {
		_, ok := set[seatID]
		return ok
	}
}

// RandomOccupancy draws each seat occupied with probability p using the
// supplied source.  It exists for local development and demos only; real
// deployments must use the gateway-backed OccupancySource so that every
// client sees the same sold seats.
func RandomOccupancy(p float64, rng *rand.Rand) OccupancyFunc {
	return func(string) bool { return rng.Float64() < p }
}

// ErrInvalidDimensions is returned by Generate for non-positive sizes or
// more rows than there are labels.
var ErrInvalidDimensions = errors.New("seatmap: invalid dimensions")

// Map owns the ordered, row-major seat grid of one showtime.  Seat ids
// are unique and the occupancy assigned at generation time is never
// re-randomized while the map is alive.
type Map struct {
	seats []Seat
	index map[string]int
}

// Generate builds a Map of rows x seatsPerRow seats.  classify decides
// the class and price per row; occupied decides which seats start out
// taken.  Passing nil for either selects DefaultClassify respectively
// NoneOccupied.
func Generate(rows, seatsPerRow int, classify ClassifyFunc, occupied OccupancyFunc) (*Map, error) {
	if rows < 1 || seatsPerRow < 1 || rows > len(rowLabels) {
		return nil, fmt.Errorf("%w: rows=%d seats_per_row=%d", ErrInvalidDimensions, rows, seatsPerRow)
	}
	if classify == nil {
		classify = DefaultClassify(rows)
	}
	if occupied == nil {
		occupied = NoneOccupied
	}
	m := &Map{
		seats: make([]Seat, 0, rows*seatsPerRow),
		index: make(map[string]int, rows*seatsPerRow),
	}
	for r := 0; r < rows; r++ {
		class, price := classify(r)
		row := string(rowLabels[r])
		for n := 1; n <= seatsPerRow; n++ {
			id := fmt.Sprintf("%s%d", row, n)
			status := StatusAvailable
			if occupied(id) {
				status = StatusOccupied
			}
			m.index[id] = len(m.seats)
			m.seats = append(m.seats, Seat{
				ID:         id,
				Row:        row,
				Number:     n,
				Class:      class,
				Status:     status,
				PriceCents: price,
			})
		}
	}
	return m, nil
}

// Len returns the number of seats in the map.
func (m *Map) Len() int { return len(m.seats) }

// Seats returns a copy of the full grid in row-major order.
func (m *Map) Seats() []Seat {
	out := make([]Seat, len(m.seats))
	copy(out, m.seats)
	return out
}

// Get returns the seat with the given id, or false when the id is unknown.
func (m *Map) Get(id string) (Seat, bool) {
	i, ok := m.index[id]
	if !ok {
		return Seat{}, false
	}
	return m.seats[i], true
}
