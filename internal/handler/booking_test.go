package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/booking"
	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/payment"
	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/queue"
	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/repository"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateBooking(ctx context.Context, in booking.CreateBookingInput) (*booking.Booking, error) {
	args := m.Called(ctx, in)
	if b := args.Get(0); b != nil {
		return b.(*booking.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) UpdateBookingStatus(ctx context.Context, id uint64, bs booking.BookingStatus, ps booking.PaymentStatus) (*booking.Booking, error) {
	args := m.Called(ctx, id, bs, ps)
	if b := args.Get(0); b != nil {
		return b.(*booking.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) CancelBooking(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockGateway) GetBookingsForUser(ctx context.Context, userID uint64) ([]booking.Booking, error) {
	args := m.Called(ctx, userID)
	if b := args.Get(0); b != nil {
		return b.([]booking.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) GetBookingByID(ctx context.Context, id uint64) (*booking.Booking, error) {
	args := m.Called(ctx, id)
	if b := args.Get(0); b != nil {
		return b.(*booking.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

// stubCatalog serves one movie with one showtime.
type stubCatalog struct {
	movie    repository.Movie
	showtime repository.Showtime
}

func (s *stubCatalog) ListMovies(context.Context) ([]repository.Movie, error) {
	return []repository.Movie{s.movie}, nil
}
func (s *stubCatalog) GetMovie(_ context.Context, id uint64) (*repository.Movie, error) {
	if id != s.movie.ID {
		return nil, repository.ErrMovieNotFound
	}
	m := s.movie
	return &m, nil
}
func (s *stubCatalog) ListCinemas(context.Context) ([]repository.Cinema, error) {
	return nil, nil
}
func (s *stubCatalog) ListShowtimesByMovie(_ context.Context, movieID uint64) ([]repository.Showtime, error) {
	if movieID != s.movie.ID {
		return nil, nil
	}
	return []repository.Showtime{s.showtime}, nil
}
func (s *stubCatalog) GetShowtime(_ context.Context, id uint64) (*repository.Showtime, error) {
	if id != s.showtime.ID {
		return nil, repository.ErrShowtimeNotFound
	}
	st := s.showtime
	return &st, nil
}

type staticOcc []string

func (s staticOcc) OccupiedSeats(context.Context, uint64) ([]string, error) {
	return s, nil
}

func testCatalog() *stubCatalog {
	return &stubCatalog{
		movie: repository.Movie{ID: 1, Title: "Lamb", Genre: "Drama", DurationMin: 106},
		showtime: repository.Showtime{
			ID: 5, MovieID: 1, CinemaID: 2,
			StartsAt: time.Now().Add(24 * time.Hour), SeatRows: 2, SeatsPerRow: 2,
		},
	}
}

func testHandler(gw booking.Gateway, occ staticOcc, provider payment.Provider) *BookingHandler {
	h := NewBookingHandler(testCatalog(), gw, occ, provider, booking.NewRegistry(time.Minute), time.Second)
	h.Publish = nil
	return h
}

// call invokes an echo handler directly with an authenticated context.
func call(t *testing.T, h echo.HandlerFunc, method, body string, uid uint64, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", float64(uid))
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	require.NoError(t, h(c))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// openSession starts a session for user 42 and returns its token.
func openSession(t *testing.T, h *BookingHandler) string {
	t.Helper()
	rec := call(t, h.StartSession, http.MethodPost, `{"movie_id":1,"showtime_id":5}`, 42, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func submitBody() string {
	return `{"name":"Abebe Bikila","email":"abebe@example.com","phone":"+251911000000","payment_method":"chapa"}`
}

func TestStartSessionReturnsSeatGrid(t *testing.T) {
	h := testHandler(new(mockGateway), staticOcc{"A1"}, &payment.Simulator{})

	rec := call(t, h.StartSession, http.MethodPost, `{"movie_id":1,"showtime_id":5}`, 42, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "ready", body["state"])
	seats, ok := body["seats"].([]any)
	require.True(t, ok)
	assert.Len(t, seats, 4)
}

func TestStartSessionUnknownShowtime(t *testing.T) {
	h := testHandler(new(mockGateway), nil, &payment.Simulator{})

	rec := call(t, h.StartSession, http.MethodPost, `{"movie_id":1,"showtime_id":99}`, 42, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartSessionMovieMismatch(t *testing.T) {
	h := testHandler(new(mockGateway), nil, &payment.Simulator{})

	rec := call(t, h.StartSession, http.MethodPost, `{"movie_id":7,"showtime_id":5}`, 42, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSelectOccupiedSeatConflicts(t *testing.T) {
	h := testHandler(new(mockGateway), staticOcc{"A1"}, &payment.Simulator{})
	token := openSession(t, h)

	rec := call(t, h.SelectSeat, http.MethodPost, `{"seat_id":"A1"}`, 42,
		map[string]string{"token": token})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = call(t, h.SelectSeat, http.MethodPost, `{"seat_id":"A2"}`, 42,
		map[string]string{"token": token})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 18000, body["total_cents"])
}

func TestSessionOwnershipEnforced(t *testing.T) {
	h := testHandler(new(mockGateway), nil, &payment.Simulator{})
	token := openSession(t, h)

	rec := call(t, h.GetSeats, http.MethodGet, "", 7, map[string]string{"token": token})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitAndPayConfirmsBooking(t *testing.T) {
	gw := new(mockGateway)
	pending := &booking.Booking{
		ID: 9, UserID: 42, ShowtimeID: 5, Reference: "ABC123XYZ",
		BookingStatus: booking.BookingPending, PaymentStatus: booking.PaymentPending,
		AmountCents: 18000, PaymentMethod: payment.MethodChapa,
	}
	confirmed := *pending
	confirmed.BookingStatus = booking.BookingConfirmed
	confirmed.PaymentStatus = booking.PaymentCompleted

	gw.On("CreateBooking", mock.Anything, mock.MatchedBy(func(in booking.CreateBookingInput) bool {
		return in.UserID == 42 && in.ShowtimeID == 5 && in.AmountCents == 18000
	})).Return(pending, nil).Once()
	gw.On("UpdateBookingStatus", mock.Anything, uint64(9),
		booking.BookingConfirmed, booking.PaymentCompleted).Return(&confirmed, nil).Once()

	h := testHandler(gw, nil, &payment.Simulator{})
	events := make(chan queue.BookingConfirmedEvent, 1)
	h.Publish = func(_ context.Context, ev queue.BookingConfirmedEvent) error {
		events <- ev
		return nil
	}
	token := openSession(t, h)
	params := map[string]string{"token": token}

	rec := call(t, h.SelectSeat, http.MethodPost, `{"seat_id":"A2"}`, 42, params)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h.Submit, http.MethodPost, submitBody(), 42, params)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = call(t, h.Pay, http.MethodPost, "", 42, params)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "confirmed", body["state"])

	select {
	case ev := <-events:
		assert.EqualValues(t, 9, ev.BookingID)
		assert.Equal(t, "Lamb", ev.MovieTitle)
		assert.EqualValues(t, 42, ev.UserID)
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation event never published")
	}
	gw.AssertExpectations(t)
}

func TestSubmitValidationRejected(t *testing.T) {
	gw := new(mockGateway)
	h := testHandler(gw, nil, &payment.Simulator{})
	token := openSession(t, h)
	params := map[string]string{"token": token}

	rec := call(t, h.SelectSeat, http.MethodPost, `{"seat_id":"A2"}`, 42, params)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h.Submit, http.MethodPost, `{"name":"","email":"not-an-email"}`, 42, params)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	gw.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
}

func TestPayFailureLeavesBookingPending(t *testing.T) {
	gw := new(mockGateway)
	pending := &booking.Booking{
		ID: 9, UserID: 42, ShowtimeID: 5,
		BookingStatus: booking.BookingPending, PaymentStatus: booking.PaymentPending,
		AmountCents: 18000, PaymentMethod: payment.MethodChapa,
	}
	gw.On("CreateBooking", mock.Anything, mock.Anything).Return(pending, nil).Once()
	gw.On("UpdateBookingStatus", mock.Anything, uint64(9),
		booking.BookingPending, booking.PaymentFailed).Return(pending, nil).Once()

	h := testHandler(gw, nil, &payment.Simulator{Fail: true})
	token := openSession(t, h)
	params := map[string]string{"token": token}

	rec := call(t, h.SelectSeat, http.MethodPost, `{"seat_id":"A2"}`, 42, params)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = call(t, h.Submit, http.MethodPost, submitBody(), 42, params)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = call(t, h.Pay, http.MethodPost, "", 42, params)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "failed", body["state"])

	gw.AssertNotCalled(t, "CancelBooking", mock.Anything, mock.Anything)
	gw.AssertExpectations(t)
}

func TestCancelAfterSubmitCancelsRemote(t *testing.T) {
	gw := new(mockGateway)
	pending := &booking.Booking{
		ID: 9, UserID: 42, ShowtimeID: 5,
		BookingStatus: booking.BookingPending, PaymentStatus: booking.PaymentPending,
		AmountCents: 18000, PaymentMethod: payment.MethodChapa,
	}
	gw.On("CreateBooking", mock.Anything, mock.Anything).Return(pending, nil).Once()
	gw.On("CancelBooking", mock.Anything, uint64(9)).Return(nil).Once()

	h := testHandler(gw, nil, &payment.Simulator{})
	token := openSession(t, h)
	params := map[string]string{"token": token}

	rec := call(t, h.SelectSeat, http.MethodPost, `{"seat_id":"A2"}`, 42, params)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = call(t, h.Submit, http.MethodPost, submitBody(), 42, params)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = call(t, h.Cancel, http.MethodPost, "", 42, params)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cancelled", decode(t, rec)["state"])
	gw.AssertExpectations(t)
}

func TestClearDropsSession(t *testing.T) {
	h := testHandler(new(mockGateway), nil, &payment.Simulator{})
	token := openSession(t, h)
	params := map[string]string{"token": token}

	rec := call(t, h.Clear, http.MethodDelete, "", 42, params)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = call(t, h.GetSeats, http.MethodGet, "", 42, params)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBookingOwnership(t *testing.T) {
	gw := new(mockGateway)
	gw.On("GetBookingByID", mock.Anything, uint64(9)).
		Return(&booking.Booking{ID: 9, UserID: 99}, nil)

	h := testHandler(gw, nil, &payment.Simulator{})
	rec := call(t, h.GetBooking, http.MethodGet, "", 42, map[string]string{"id": "9"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestVerifyPaymentUnsupportedProvider(t *testing.T) {
	h := testHandler(new(mockGateway), nil, &payment.Simulator{})
	rec := call(t, h.VerifyPayment, http.MethodGet, "", 42, map[string]string{"tx_ref": "tx-1"})
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestListMyBookings(t *testing.T) {
	gw := new(mockGateway)
	gw.On("GetBookingsForUser", mock.Anything, uint64(42)).
		Return([]booking.Booking{{ID: 1, UserID: 42}, {ID: 2, UserID: 42}}, nil)

	h := testHandler(gw, nil, &payment.Simulator{})
	rec := call(t, h.ListMyBookings, http.MethodGet, "", 42, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list, ok := decode(t, rec)["bookings"].([]any)
	require.True(t, ok)
	assert.Len(t, list, 2)
}
