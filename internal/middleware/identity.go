package middleware

// identity.go defines helpers shared across middleware files.  It
// provides user identity extraction from the request context for key
// building in the rate limiter and response cache.  When no user is
// authenticated, "anon" is returned so unauthenticated traffic still
// buckets consistently.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID extracts the identifier JWTAuth stored under
// "user_id".  JWT numeric claims decode as float64, so both string
// and number forms are handled.
func currentUserID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	}
	return "anon"
}
