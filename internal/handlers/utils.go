package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/NeelODE/drive/internal/models"
	"github.com/NeelODE/drive/internal/services"
	"github.com/NeelODE/drive/internal/utils"
)

// StatusFor maps a storage error onto the HTTP status the API answers with
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, services.ErrInvalidPath),
		errors.Is(err, services.ErrInvalidName),
		errors.Is(err, services.ErrNoInput),
		errors.Is(err, services.ErrAlreadyExists):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error, action string) string {
	switch {
	case errors.Is(err, services.ErrInvalidPath):
		return "Invalid path"
	case errors.Is(err, services.ErrInvalidName):
		return "Invalid name"
	case errors.Is(err, services.ErrNoInput):
		return "Missing input"
	case errors.Is(err, services.ErrAlreadyExists):
		return "An item with that name already exists"
	case errors.Is(err, services.ErrNotFound):
		return "Not found"
	case errors.Is(err, services.ErrBackendUnavailable):
		return "Storage backend unavailable"
	default:
		return "Failed to " + action
	}
}

// apiError turns a storage error into an *echo.HTTPError. Server-side
// failures are logged here since the client only sees a generic message.
func apiError(err error, action string) error {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("ERROR: %s: %v", action, err)
	}
	return echo.NewHTTPError(status, messageFor(err, action)).SetInternal(err)
}

// ErrorHandler renders every error as {"success":false,"message":...}
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		log.Printf("ERROR: response already committed: %v", err)
		return
	}

	status := http.StatusInternalServerError
	message := http.StatusText(status)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(status)
		}
	} else {
		log.Printf("ERROR: unhandled: %v", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, models.Response{Success: false, Message: message})
	}
	if err != nil {
		log.Printf("ERROR: writing error response: %v", err)
	}
}

// GetClaims retrieves the session claims stored by the auth middleware
func GetClaims(c echo.Context) (*jwt.RegisteredClaims, error) {
	val := c.Get(utils.ContextKeyClaims)
	if val == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	claims, ok := val.(*jwt.RegisteredClaims)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	return claims, nil
}

func requestIsSecure(c echo.Context) bool {
	req := c.Request()
	if req.TLS != nil {
		return true
	}

	return req.Header.Get("X-Forwarded-Proto") == "https"
}
