package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Movie is a catalog entry available for booking.
type Movie struct {
	ID          uint64 `json:"id"`
	Title       string `json:"title"`
	Genre       string `json:"genre"`
	DurationMin uint32 `json:"duration_min"`
	PosterURL   string `json:"poster_url,omitempty"`
}

// Cinema is a venue in the catalog.
type Cinema struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// Showtime schedules a movie in a cinema hall.  SeatRows and SeatsPerRow
// give the seat grid dimensions used to generate the booking session's
// seat map.
type Showtime struct {
	ID          uint64    `json:"id"`
	MovieID     uint64    `json:"movie_id"`
	CinemaID    uint64    `json:"cinema_id"`
	StartsAt    time.Time `json:"starts_at"`
	SeatRows    int       `json:"seat_rows"`
	SeatsPerRow int       `json:"seats_per_row"`
}

// CatalogRepo serves the read-only browse queries: movies, cinemas and
// showtimes.  Writes happen through back-office tooling, not this
// service.
type CatalogRepo struct {
	db *sql.DB
}

// NewCatalogRepo constructs a CatalogRepo with the given DB handle.
func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// ListMovies returns all movies ordered by title.
func (r *CatalogRepo) ListMovies(ctx context.Context) ([]Movie, error) {
	const q = `SELECT id, title, genre, duration_min, COALESCE(poster_url, '')
	           FROM movies ORDER BY title`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Movie
	for rows.Next() {
		var m Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.Genre, &m.DurationMin, &m.PosterURL); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetMovie returns one movie or ErrMovieNotFound.
func (r *CatalogRepo) GetMovie(ctx context.Context, id uint64) (*Movie, error) {
	const q = `SELECT id, title, genre, duration_min, COALESCE(poster_url, '')
	           FROM movies WHERE id = ?`
	var m Movie
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&m.ID, &m.Title, &m.Genre, &m.DurationMin, &m.PosterURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMovieNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListCinemas returns all cinemas ordered by name.
func (r *CatalogRepo) ListCinemas(ctx context.Context) ([]Cinema, error) {
	const q = `SELECT id, name, location FROM cinemas ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Cinema
	for rows.Next() {
		var c Cinema
		if err := rows.Scan(&c.ID, &c.Name, &c.Location); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListShowtimesByMovie returns the upcoming showtimes of a movie in
// start-time order.
func (r *CatalogRepo) ListShowtimesByMovie(ctx context.Context, movieID uint64) ([]Showtime, error) {
	const q = `SELECT id, movie_id, cinema_id, starts_at, seat_rows, seats_per_row
	           FROM showtimes
	           WHERE movie_id = ? AND starts_at > UTC_TIMESTAMP()
	           ORDER BY starts_at`
	rows, err := r.db.QueryContext(ctx, q, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Showtime
	for rows.Next() {
		var s Showtime
		if err := rows.Scan(&s.ID, &s.MovieID, &s.CinemaID, &s.StartsAt, &s.SeatRows, &s.SeatsPerRow); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetShowtime returns one showtime or ErrShowtimeNotFound.
func (r *CatalogRepo) GetShowtime(ctx context.Context, id uint64) (*Showtime, error) {
	const q = `SELECT id, movie_id, cinema_id, starts_at, seat_rows, seats_per_row
	           FROM showtimes WHERE id = ?`
	var s Showtime
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&s.ID, &s.MovieID, &s.CinemaID, &s.StartsAt, &s.SeatRows, &s.SeatsPerRow)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShowtimeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
