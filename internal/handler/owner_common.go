package handler // handler defines http handlers

import (
	"errors"   // errors provides sentinel values used in getUserID
	"net/http" // status codes
	"strconv"  // strconv converts strings to numeric types

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/menu-catalog/internal/apperr"
	"github.com/iliyamo/menu-catalog/internal/logger"
	"github.com/iliyamo/menu-catalog/internal/middleware"
)

// RequestValidator plugs validator/v10 into echo's c.Validate.
type RequestValidator struct {
	v *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	return rv.v.Struct(i)
}

// bindValid binds the request body into req and validates it.  Failures are
// returned as BadRequest errors naming the first offending field.
func bindValid(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperr.BadRequest("invalid body", err)
	}
	if err := c.Validate(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return apperr.BadRequest("invalid field "+f.Field()+": "+f.Tag(), err)
		}
		return apperr.BadRequest("invalid body", err)
	}
	return nil
}

// respond writes err as {"error", "code"} with the status of its kind.
// Unexpected errors are logged; their details never reach the client.
func respond(c echo.Context, log *logger.Logger, err error) error {
	kind := apperr.KindOf(err)
	switch {
	case kind == apperr.KindInternal:
		log.Error("request failed", "method", c.Request().Method, "path", c.Path(), "status", kind.Status(), "error", err)
	case kind == apperr.KindBadRequest && errors.Unwrap(err) != nil:
		log.Warn("request rejected", "method", c.Request().Method, "path", c.Path(), "error", err)
	}
	return c.JSON(kind.Status(), echo.Map{"error": apperr.Message(err), "code": string(kind)})
}

// getUserID extracts the user_id set by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get(middleware.UserIDKey).(type) {
	case uint64:
		return t, nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// paramID parses a positive numeric path parameter.
func paramID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.BadRequest("invalid "+name, nil)
	}
	return id, nil
}

// unauthorized is returned when a protected route runs without an identity.
func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "code": string(apperr.KindUnauthorized)})
}
