package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

var errNoIdentity = errors.New("no user identity in context")

// currentUserID extracts the authenticated user's ID from the echo
// context.  JWT numeric claims decode as float64; some clients encode
// the subject as a string, so both forms are accepted.
func currentUserID(c echo.Context) (uint64, error) {
	switch v := c.Get("user_id").(type) {
	case float64:
		return uint64(v), nil
	case string:
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, errNoIdentity
		}
		return id, nil
	case uint64:
		return v, nil
	default:
		return 0, errNoIdentity
	}
}
