package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/NeelODE/drive/internal/models"
	"github.com/NeelODE/drive/internal/services"
	"github.com/NeelODE/drive/internal/utils"
)

// sessionSubject is the only principal: the deployment has a single shared password
const sessionSubject = "owner"

type AuthHandler struct {
	tokens  *services.TokenService
	enabled bool
}

func NewAuthHandler(tokens *services.TokenService, enabled bool) *AuthHandler {
	return &AuthHandler{tokens: tokens, enabled: enabled}
}

// Login exchanges the shared password for a session token
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if !h.tokens.CheckPassword(req.Password) {
		log.Printf("Failed login from %s", c.RealIP())
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid password")
	}

	token, err := h.tokens.Issue(sessionSubject)
	if err != nil {
		log.Printf("ERROR: issue token: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create session")
	}

	cookie := new(http.Cookie)
	cookie.Name = utils.CookieName
	cookie.Value = token
	cookie.Expires = time.Now().Add(h.tokens.TTL())
	cookie.Path = "/"
	cookie.HttpOnly = true
	cookie.SameSite = http.SameSiteStrictMode
	cookie.Secure = requestIsSecure(c)
	c.SetCookie(cookie)

	return c.JSON(http.StatusOK, models.LoginResponse{Success: true, Token: token})
}

// Logout clears the session cookie
func (h *AuthHandler) Logout(c echo.Context) error {
	cookie := new(http.Cookie)
	cookie.Name = utils.CookieName
	cookie.Value = ""
	cookie.Expires = time.Now().Add(-1 * time.Hour)
	cookie.MaxAge = -1
	cookie.Path = "/"
	cookie.HttpOnly = true
	cookie.SameSite = http.SameSiteStrictMode
	cookie.Secure = requestIsSecure(c)
	c.SetCookie(cookie)
	return c.JSON(http.StatusOK, models.Response{Success: true, Message: "Logged out"})
}

// Session reports who the current request is authenticated as. With auth
// disabled every caller is anonymous and the reply says so.
func (h *AuthHandler) Session(c echo.Context) error {
	if !h.enabled {
		return c.JSON(http.StatusOK, models.SessionResponse{Success: true})
	}

	claims, err := GetClaims(c)
	if err != nil {
		return err
	}

	resp := models.SessionResponse{
		Success:     true,
		AuthEnabled: true,
		Subject:     claims.Subject,
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return c.JSON(http.StatusOK, resp)
}
