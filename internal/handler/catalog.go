package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/repository"
	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/seatmap"
)

// CatalogStore is the read side of the catalog consumed by the browse
// endpoints.  *repository.CatalogRepo satisfies it.
type CatalogStore interface {
	ListMovies(ctx context.Context) ([]repository.Movie, error)
	GetMovie(ctx context.Context, id uint64) (*repository.Movie, error)
	ListCinemas(ctx context.Context) ([]repository.Cinema, error)
	ListShowtimesByMovie(ctx context.Context, movieID uint64) ([]repository.Showtime, error)
	GetShowtime(ctx context.Context, id uint64) (*repository.Showtime, error)
}

// CatalogHandler serves the public browse endpoints: movies, cinemas,
// showtimes and per-showtime seat availability.
type CatalogHandler struct {
	Catalog   CatalogStore
	Occupancy seatmap.OccupancySource
}

func NewCatalogHandler(cat CatalogStore, occ seatmap.OccupancySource) *CatalogHandler {
	return &CatalogHandler{Catalog: cat, Occupancy: occ}
}

func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// ListMovies: GET /v1/movies
func (h *CatalogHandler) ListMovies(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	movies, err := h.Catalog.ListMovies(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"movies": movies})
}

// GetMovie: GET /v1/movies/:id
func (h *CatalogHandler) GetMovie(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Catalog.GetMovie(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, m)
}

// ListCinemas: GET /v1/cinemas
func (h *CatalogHandler) ListCinemas(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cinemas, err := h.Catalog.ListCinemas(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"cinemas": cinemas})
}

// ListShowtimes: GET /v1/movies/:id/showtimes
func (h *CatalogHandler) ListShowtimes(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Catalog.GetMovie(ctx, id); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	shows, err := h.Catalog.ListShowtimesByMovie(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"showtimes": shows})
}

// ShowtimeSeats: GET /v1/showtimes/:id/seats
//
// Renders the showtime's full seat grid with live occupancy so clients
// can preview availability before opening a booking session.
func (h *CatalogHandler) ShowtimeSeats(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	show, err := h.Catalog.GetShowtime(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	taken, err := h.Occupancy.OccupiedSeats(ctx, show.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load occupancy failed"})
	}
	m, err := seatmap.Generate(show.SeatRows, show.SeatsPerRow,
		seatmap.DefaultClassify(show.SeatRows), seatmap.OccupiedSet(taken))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "build seat map failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"showtime": show,
		"seats":    m.Seats(),
	})
}
