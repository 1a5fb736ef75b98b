package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMoviesReturnsCatalog(t *testing.T) {
	h := NewCatalogHandler(testCatalog(), nil)

	rec := call(t, h.ListMovies, http.MethodGet, "", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	movies, ok := decode(t, rec)["movies"].([]any)
	require.True(t, ok)
	require.Len(t, movies, 1)
	first := movies[0].(map[string]any)
	assert.Equal(t, "Lamb", first["title"])
}

func TestGetMovieNotFound(t *testing.T) {
	h := NewCatalogHandler(testCatalog(), nil)

	rec := call(t, h.GetMovie, http.MethodGet, "", 0, map[string]string{"id": "99"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListShowtimesForMovie(t *testing.T) {
	h := NewCatalogHandler(testCatalog(), nil)

	rec := call(t, h.ListShowtimes, http.MethodGet, "", 0, map[string]string{"id": "1"})
	require.Equal(t, http.StatusOK, rec.Code)
	shows, ok := decode(t, rec)["showtimes"].([]any)
	require.True(t, ok)
	assert.Len(t, shows, 1)
}

func TestShowtimeSeatsMergesOccupancy(t *testing.T) {
	h := NewCatalogHandler(testCatalog(), staticOcc{"B2"})

	rec := call(t, h.ShowtimeSeats, http.MethodGet, "", 0, map[string]string{"id": "5"})
	require.Equal(t, http.StatusOK, rec.Code)

	seats, ok := decode(t, rec)["seats"].([]any)
	require.True(t, ok)
	require.Len(t, seats, 4)
	statuses := map[string]string{}
	for _, raw := range seats {
		s := raw.(map[string]any)
		statuses[s["id"].(string)] = s["status"].(string)
	}
	assert.Equal(t, "occupied", statuses["B2"])
	assert.Equal(t, "available", statuses["A1"])
}

func TestShowtimeSeatsUnknownShowtime(t *testing.T) {
	h := NewCatalogHandler(testCatalog(), staticOcc{})

	rec := call(t, h.ShowtimeSeats, http.MethodGet, "", 0, map[string]string{"id": "404"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
