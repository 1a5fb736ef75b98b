package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/booking"
	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/payment"
	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/queue"
	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/repository"
	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/seatmap"
	queue_publisher "github.com/Sofoniyastekalegn/Addis-Ticket/internal/service"
)

// BookingHandler exposes the booking session flow over HTTP.  Each
// authenticated user drives one lifecycle at a time through an opaque
// session token; the handler only routes requests, all state rules live
// in booking.Lifecycle.
type BookingHandler struct {
	Catalog    CatalogStore
	Gateway    booking.Gateway
	Occupancy  seatmap.OccupancySource
	Provider   payment.Provider
	Sessions   *booking.Registry
	PayTimeout time.Duration

	// Publish sends the confirmation event after a successful payment.
	// Swappable in tests; defaults to the RabbitMQ publisher.
	Publish func(ctx context.Context, ev queue.BookingConfirmedEvent) error
}

func NewBookingHandler(cat CatalogStore, gw booking.Gateway, occ seatmap.OccupancySource,
	p payment.Provider, sessions *booking.Registry, payTimeout time.Duration) *BookingHandler {
	return &BookingHandler{
		Catalog:    cat,
		Gateway:    gw,
		Occupancy:  occ,
		Provider:   p,
		Sessions:   sessions,
		PayTimeout: payTimeout,
		Publish:    queue_publisher.PublishBookingConfirmed,
	}
}

// ----- DTOs -----

type startSessionReq struct {
	MovieID    uint64 `json:"movie_id"`
	ShowtimeID uint64 `json:"showtime_id"`
}
type seatReq struct {
	SeatID string `json:"seat_id"`
}
type submitReq struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	PaymentMethod string `json:"payment_method"`
}

// StartSession: POST /v1/bookings/session
//
// Opens a booking session for a showtime: loads the showtime, pulls
// current occupancy and builds the seat map, then hands back a session
// token the client uses for every subsequent step.
func (h *BookingHandler) StartSession(c echo.Context) error {
	uid, err := currentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req startSessionReq
	if err := c.Bind(&req); err != nil || req.MovieID == 0 || req.ShowtimeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie_id and showtime_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	show, err := h.Catalog.GetShowtime(ctx, req.ShowtimeID)
	if err != nil {
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if show.MovieID != req.MovieID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "showtime does not belong to movie"})
	}

	l := booking.NewLifecycle(uid, h.Gateway, h.Occupancy, h.Provider, h.PayTimeout)
	if err := l.Initialize(ctx, req.MovieID, req.ShowtimeID,
		show.SeatRows, show.SeatsPerRow, seatmap.DefaultClassify(show.SeatRows)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "open session failed"})
	}
	token, err := h.Sessions.Put(uid, l)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "open session failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"token": token,
		"state": l.State(),
		"seats": l.Seats(),
	})
}

// lifecycleFor resolves the session token in the URL for the current
// user, or writes the error response and returns nil.
func (h *BookingHandler) lifecycleFor(c echo.Context) (*booking.Lifecycle, uint64, bool) {
	uid, err := currentUserID(c)
	if err != nil {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		return nil, 0, false
	}
	l, err := h.Sessions.Get(c.Param("token"), uid)
	if err != nil {
		_ = c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		return nil, 0, false
	}
	return l, uid, true
}

// GetSeats: GET /v1/bookings/session/:token/seats
func (h *BookingHandler) GetSeats(c echo.Context) error {
	l, _, ok := h.lifecycleFor(c)
	if !ok {
		return nil
	}
	return c.JSON(http.StatusOK, echo.Map{
		"state":       l.State(),
		"seats":       l.Seats(),
		"selected":    l.SelectedSeats(),
		"total_cents": l.TotalCents(),
	})
}

// SelectSeat: POST /v1/bookings/session/:token/select
func (h *BookingHandler) SelectSeat(c echo.Context) error {
	l, _, ok := h.lifecycleFor(c)
	if !ok {
		return nil
	}
	var req seatReq
	if err := c.Bind(&req); err != nil || req.SeatID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_id required"})
	}
	if err := l.SelectSeat(req.SeatID); err != nil {
		switch {
		case errors.Is(err, seatmap.ErrSeatOccupied):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat already taken"})
		case errors.Is(err, seatmap.ErrSeatNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		case errors.Is(err, booking.ErrInvalidState):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "select failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"selected":    l.SelectedSeats(),
		"total_cents": l.TotalCents(),
	})
}

// DeselectSeat: POST /v1/bookings/session/:token/deselect
func (h *BookingHandler) DeselectSeat(c echo.Context) error {
	l, _, ok := h.lifecycleFor(c)
	if !ok {
		return nil
	}
	var req seatReq
	if err := c.Bind(&req); err != nil || req.SeatID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_id required"})
	}
	if err := l.DeselectSeat(req.SeatID); err != nil {
		switch {
		case errors.Is(err, seatmap.ErrSeatNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		case errors.Is(err, booking.ErrInvalidState):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deselect failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"selected":    l.SelectedSeats(),
		"total_cents": l.TotalCents(),
	})
}

// Submit: POST /v1/bookings/session/:token/submit
//
// Validates the draft and creates the pending booking at the gateway.
func (h *BookingHandler) Submit(c echo.Context) error {
	l, _, ok := h.lifecycleFor(c)
	if !ok {
		return nil
	}
	var req submitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	buyer := booking.BuyerInfo{Name: req.Name, Email: req.Email, Phone: req.Phone}
	b, err := l.Submit(ctx, buyer, payment.Method(req.PaymentMethod))
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrValidation):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, booking.ErrSeatsUnavailable):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seats no longer available"})
		case errors.Is(err, booking.ErrInvalidState):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		default:
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "create booking failed"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"state":   l.State(),
		"booking": b,
	})
}

// Pay: POST /v1/bookings/session/:token/pay
//
// Runs the payment step.  On success the confirmation event is
// published best-effort; a broker outage never fails the request.
func (h *BookingHandler) Pay(c echo.Context) error {
	l, uid, ok := h.lifecycleFor(c)
	if !ok {
		return nil
	}

	ctx := c.Request().Context()
	b, err := l.Pay(ctx)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrPaymentFailed):
			return c.JSON(http.StatusPaymentRequired, echo.Map{
				"success": false,
				"state":   l.State(),
				"error":   "payment failed",
			})
		case errors.Is(err, booking.ErrInvalidState):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		default:
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "confirm booking failed"})
		}
	}

	h.publishConfirmed(uid, b)

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"state":   l.State(),
		"booking": b,
	})
}

// publishConfirmed emits the BookingConfirmedEvent for downstream
// consumers.  Catalog lookups and the publish itself are best-effort.
func (h *BookingHandler) publishConfirmed(userID uint64, b *booking.Booking) {
	if h.Publish == nil {
		return
	}
	ev := queue.BookingConfirmedEvent{
		BookingID:     b.ID,
		Reference:     b.Reference,
		UserID:        userID,
		ShowtimeID:    b.ShowtimeID,
		AmountCents:   b.AmountCents,
		PaymentMethod: string(b.PaymentMethod),
		ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	for _, s := range b.Seats {
		ev.SeatLabels = append(ev.SeatLabels, s.ID)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if show, err := h.Catalog.GetShowtime(ctx, b.ShowtimeID); err == nil {
			ev.MovieID = show.MovieID
			if m, err := h.Catalog.GetMovie(ctx, show.MovieID); err == nil {
				ev.MovieTitle = m.Title
			}
		}
		if err := h.Publish(ctx, ev); err != nil {
			log.Printf("publish booking.confirmed failed: booking_id=%d err=%v", b.ID, err)
		}
	}()
}

// VerifyPayment: GET /v1/payments/:tx_ref/verify
//
// Proxies the provider's transaction verification for reconciling
// pending bookings.  Providers without verification report 501.
func (h *BookingHandler) VerifyPayment(c echo.Context) error {
	if _, err := currentUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	txRef := c.Param("tx_ref")
	if txRef == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tx_ref required"})
	}
	v, ok := h.Provider.(payment.Verifier)
	if !ok {
		return c.JSON(http.StatusNotImplemented, echo.Map{"error": "provider does not support verification"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	res, err := v.Verify(ctx, txRef)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "verify failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"tx_ref":       res.TxRef,
		"status":       res.Status,
		"amount_cents": res.AmountCents,
	})
}

// Cancel: POST /v1/bookings/session/:token/cancel
func (h *BookingHandler) Cancel(c echo.Context) error {
	l, _, ok := h.lifecycleFor(c)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := l.Cancel(ctx); err != nil {
		switch {
		case errors.Is(err, booking.ErrInvalidState):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		case errors.Is(err, booking.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		default:
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "cancel failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"state": l.State()})
}

// Clear: DELETE /v1/bookings/session/:token
//
// Drops the session entirely.  Rejected only while a remote call is in
// flight.
func (h *BookingHandler) Clear(c echo.Context) error {
	l, _, ok := h.lifecycleFor(c)
	if !ok {
		return nil
	}
	if err := l.Clear(); err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	h.Sessions.Delete(c.Param("token"))
	return c.NoContent(http.StatusNoContent)
}

// ListMyBookings: GET /v1/my-bookings
func (h *BookingHandler) ListMyBookings(c echo.Context) error {
	uid, err := currentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Gateway.GetBookingsForUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": list})
}

// GetBooking: GET /v1/bookings/:id
func (h *BookingHandler) GetBooking(c echo.Context) error {
	uid, err := currentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Gateway.GetBookingByID(ctx, id)
	if err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if b.UserID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, b)
}
