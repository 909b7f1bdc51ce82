package handler // declare the package name; contains HTTP handlers

import (
	"context"  // bounded dependency checks
	"net/http" // net/http provides status codes and response helpers
	"time"

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health is the liveness endpoint used by load balancers.  It returns a
// plain text "ok" with HTTP 200 whenever the process is serving.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

// Ready returns the readiness endpoint.  Each named check runs with a
// 2 second budget; any failure answers 503 with the failing names.
func Ready(checks map[string]Check) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		status := echo.Map{}
		code := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status[name] = err.Error()
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "ok"
		}
		return c.JSON(code, status)
	}
}
