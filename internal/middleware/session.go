package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/disease-case-tracker/internal/session"
)

// identityKey is the echo context key carrying the resolved identity.
const identityKey = "identity"

// SessionAuth returns an Echo middleware that resolves the session cookie
// through the manager and injects the authenticated Identity into the
// request context. The check refreshes the session's last activity, so the
// idle timeout slides with every authenticated request. Expired sessions
// are destroyed by the manager as a side effect and reported the same as
// missing ones apart from the message text.
func SessionAuth(mgr *session.Manager, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var sid string
			if cookie, err := c.Cookie(cookieName); err == nil {
				sid = cookie.Value
			}

			ident, err := mgr.Check(c.Request().Context(), sid)
			if err != nil {
				switch {
				case errors.Is(err, session.ErrExpired):
					return c.JSON(http.StatusUnauthorized, echo.Map{
						"success": false, "authenticated": false, "message": "Session expired",
					})
				case errors.Is(err, session.ErrUnauthenticated):
					return c.JSON(http.StatusUnauthorized, echo.Map{
						"success": false, "authenticated": false, "message": "Authentication required",
					})
				default:
					return c.JSON(http.StatusInternalServerError, echo.Map{
						"success": false, "message": "Session check failed",
					})
				}
			}

			c.Set(identityKey, ident)
			c.Set("session_id", sid)
			return next(c)
		}
	}
}

// CurrentIdentity returns the Identity stored by SessionAuth. The ok flag is
// false when the middleware did not run on this route.
func CurrentIdentity(c echo.Context) (session.Identity, bool) {
	ident, ok := c.Get(identityKey).(session.Identity)
	return ident, ok
}
