// Package repository implements data access over MySQL.  It contains the
// gateway-side booking store (the authority on seat occupancy), the
// read-only catalog, and the auth tables.  Sentinel values that are
// reused across multiple repositories live here so higher layers can
// branch with errors.Is.
package repository

import "errors"

// ErrMovieNotFound is returned when a movie lookup yields no rows.
var ErrMovieNotFound = errors.New("movie not found")

// ErrShowtimeNotFound is returned when a showtime lookup yields no rows.
var ErrShowtimeNotFound = errors.New("showtime not found")
