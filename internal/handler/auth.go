package handler

import (
	"context"              // context with cancellation for DB calls
	"database/sql"         // sentinel errors such as sql.ErrNoRows
	"errors"               // error matching against repository sentinels
	"math"                 // rounding the rate-limit retry hint up to minutes
	"net/http"             // HTTP status codes and cookie attributes
	"net/mail"             // standard email address grammar
	"strconv"              // formatting the retry-after hint
	"strings"              // input trimming and normalization
	"time"                 // timeouts for DB calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing
	"github.com/rs/zerolog"       // structured audit logging

	"github.com/iliyamo/disease-case-tracker/internal/config"     // app configuration
	"github.com/iliyamo/disease-case-tracker/internal/logging"    // audit helpers
	"github.com/iliyamo/disease-case-tracker/internal/ratelimit"  // login attempt limiter
	"github.com/iliyamo/disease-case-tracker/internal/repository" // DB repositories
	"github.com/iliyamo/disease-case-tracker/internal/session"    // session manager
	"github.com/iliyamo/disease-case-tracker/internal/utils"      // password hashing helpers
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	SessCfg  config.SessionConfig
	Users    *repository.UserRepo
	Sessions *session.Manager
	Limiter  ratelimit.Limiter
	Log      zerolog.Logger
}

func NewAuthHandler(cfg config.Config, sessCfg config.SessionConfig, u *repository.UserRepo,
	sm *session.Manager, rl ratelimit.Limiter, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, SessCfg: sessCfg, Users: u, Sessions: sm, Limiter: rl, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userPart struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Register: validate input, enforce uniqueness, persist with a bcrypt hash.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Username == "" || req.Email == "" || req.Password == "" {
		fields := map[string]string{}
		if req.Username == "" {
			fields["username"] = "Username is required"
		}
		if req.Email == "" {
			fields["email"] = "Email is required"
		}
		if req.Password == "" {
			fields["password"] = "Password is required"
		}
		return failFields(c, http.StatusBadRequest, "All fields are required", fields)
	}
	if !validEmail(req.Email) {
		return failFields(c, http.StatusBadRequest, "Invalid email format",
			map[string]string{"email": "Please enter a valid email address"})
	}
	if len(req.Password) < 8 {
		return failFields(c, http.StatusBadRequest, "Password must be at least 8 characters",
			map[string]string{"password": "Password must be at least 8 characters"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Two independent existence checks so the conflict response can name
	// the offending field.
	taken, err := h.Users.UsernameExists(ctx, req.Username)
	if err != nil {
		logging.Auth(h.Log, "register", req.Username, false)
		return failStorage(c, http.StatusInternalServerError, "Registration failed. Please try again.", h.Cfg.IsDev(), err)
	}
	if taken {
		return failFields(c, http.StatusConflict, "Username already exists",
			map[string]string{"username": "This username is already taken"})
	}
	taken, err = h.Users.EmailExists(ctx, req.Email)
	if err != nil {
		logging.Auth(h.Log, "register", req.Username, false)
		return failStorage(c, http.StatusInternalServerError, "Registration failed. Please try again.", h.Cfg.IsDev(), err)
	}
	if taken {
		return failFields(c, http.StatusConflict, "Email already exists",
			map[string]string{"email": "This email is already registered"})
	}

	uid, err := h.Users.Create(ctx, req.Username, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		// Concurrent registrations can still hit the unique indexes.
		switch {
		case errors.Is(err, repository.ErrUsernameExists):
			return failFields(c, http.StatusConflict, "Username already exists",
				map[string]string{"username": "This username is already taken"})
		case errors.Is(err, repository.ErrEmailExists):
			return failFields(c, http.StatusConflict, "Email already exists",
				map[string]string{"email": "This email is already registered"})
		}
		logging.Auth(h.Log, "register", req.Username, false)
		return failStorage(c, http.StatusInternalServerError, "Registration failed. Please try again.", h.Cfg.IsDev(), err)
	}

	logging.Auth(h.Log, "register", req.Username, true)
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Registration successful",
		"user_id": uid,
	})
}

// Login: rate-limit gate, credential verification, session regeneration.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "Username and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Attempts are keyed per username+client address so one address cannot
	// lock out a user from everywhere, and one user cannot be used to probe
	// from many addresses for free.
	limiterKey := req.Username + "_" + c.RealIP()
	allowed, err := h.Limiter.Check(ctx, limiterKey)
	if err != nil {
		// A broken limiter backend fails open; the bcrypt comparison below
		// still bounds attempt throughput.
		c.Logger().Warnf("rate limiter check failed: %v", err)
		allowed = true
	}
	if !allowed {
		retry, _ := h.Limiter.Remaining(ctx, limiterKey)
		minutes := int(math.Ceil(retry.Seconds() / 60))
		c.Response().Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())))
		logging.Auth(h.Log, "login", req.Username, false)
		return c.JSON(http.StatusTooManyRequests, echo.Map{
			"success":     false,
			"message":     "Too many login attempts. Please try again in " + strconv.Itoa(minutes) + " minutes.",
			"retry_after": int(retry.Seconds()),
		})
	}

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Same signal as a bad password: never reveal which factor failed.
			logging.Auth(h.Log, "login", req.Username, false)
			return fail(c, http.StatusUnauthorized, "Invalid credentials")
		}
		logging.Auth(h.Log, "login", req.Username, false)
		return failStorage(c, http.StatusInternalServerError, "Login failed. Please try again.", h.Cfg.IsDev(), err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		logging.Auth(h.Log, "login", req.Username, false)
		return fail(c, http.StatusUnauthorized, "Invalid credentials")
	}

	// Issue a fresh identifier, destroying any pre-login session (fixation).
	oldID := h.cookieValue(c)
	sid, err := h.Sessions.Issue(ctx, oldID, session.Identity{ID: u.ID, Username: u.Username, Email: u.Email})
	if err != nil {
		return failStorage(c, http.StatusInternalServerError, "Login failed. Please try again.", h.Cfg.IsDev(), err)
	}
	h.setSessionCookie(c, sid)

	logging.Auth(h.Log, "login", req.Username, true)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Login successful",
		"user":    userPart{ID: u.ID, Username: u.Username, Email: u.Email},
	})
}

// Logout destroys the session and expires the cookie. It succeeds even when
// no session exists so repeated logouts are harmless.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	username := "unknown"
	sid := h.cookieValue(c)
	if sid != "" {
		if ident, err := h.Sessions.Check(ctx, sid); err == nil {
			username = ident.Username
		}
		if err := h.Sessions.Destroy(ctx, sid); err != nil {
			return failStorage(c, http.StatusInternalServerError, "Logout failed", h.Cfg.IsDev(), err)
		}
	}
	h.clearSessionCookie(c)

	logging.Auth(h.Log, "logout", username, true)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Logout successful"})
}

// Check reports whether the current session is authenticated and refreshes
// its last-activity timestamp. An expired session is destroyed here as a
// side effect of the check.
func (h *AuthHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ident, err := h.Sessions.Check(ctx, h.cookieValue(c))
	if err != nil {
		switch {
		case errors.Is(err, session.ErrExpired):
			h.clearSessionCookie(c)
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"success": false, "authenticated": false, "message": "Session expired",
			})
		case errors.Is(err, session.ErrUnauthenticated):
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"success": false, "authenticated": false, "message": "Not authenticated",
			})
		default:
			return failStorage(c, http.StatusInternalServerError, "Session check failed", h.Cfg.IsDev(), err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"authenticated": true,
		"user":          userPart{ID: ident.ID, Username: ident.Username, Email: ident.Email},
	})
}

// ----- helpers -----

func (h *AuthHandler) cookieValue(c echo.Context) string {
	cookie, err := c.Cookie(h.SessCfg.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// setSessionCookie writes the session cookie: HTTP-only and same-site
// restricted, Secure when configured.
func (h *AuthHandler) setSessionCookie(c echo.Context, sid string) {
	c.SetCookie(&http.Cookie{
		Name:     h.SessCfg.CookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.Cfg.SecureCookie,
	})
}

func (h *AuthHandler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     h.SessCfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.Cfg.SecureCookie,
	})
}

// validEmail applies the standard address grammar and rejects display-name
// forms ("Alice <a@x.com>") that net/mail would otherwise accept.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
