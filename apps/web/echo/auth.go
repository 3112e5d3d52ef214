package echoweb

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/matkerbino/murim/core/session"
)

func (s *Server) requireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if sess := contextSession(ctx); sess != nil && sess.IsAuthenticated() {
			return next(ctx)
		}
		flash(ctx, session.FlashInfo, msgLoginRequired)
		return ctx.Redirect(http.StatusSeeOther, loginURL(ctx))
	}
}

func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return s.requireLogin(func(ctx echo.Context) error {
		if sess := contextSession(ctx); sess.IsAdmin() {
			return next(ctx)
		}
		return errHttpForbidden
	})
}

// loginURL points to the login page, coming back to the current page (GETs only) once logged in.
func loginURL(ctx echo.Context) string {
	req := ctx.Request()
	if req.Method != http.MethodGet {
		return "/login"
	}
	return "/login?next=" + url.QueryEscape(req.URL.RequestURI())
}

// safeNext keeps local redirects only. Browsers read `\` as `/`, so `/\host` is as
// external as `//host`.
func safeNext(next, fallback string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.ContainsAny(next, "\\\r\n\t") {
		return fallback
	}
	if u, err := url.Parse(next); err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}
