package echoweb

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/matkerbino/murim/core"
	"github.com/matkerbino/murim/core/api"
	"github.com/matkerbino/murim/core/session"
)

const (
	sessionCookie     = "murim_session"
	ctxSessionKey     = "session"
	sessionSigningAlg = "HS256"
)

// sessionMiddleware loads the visitor's session (creating one when needed), and saves it once
// the request has been handled. Errors are handled here so that the error handler can still
// update the session (eg. flashes, logout).
func (s *Server) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if isStatic(ctx) {
			return next(ctx)
		}

		reqCtx := ctx.Request().Context()
		sess, err := s.opts.Sessions.Load(reqCtx, s.sessionID(ctx))
		if err != nil {
			if errors.Is(err, sql.ErrConnDone) {
				return core.NewShutdownError("session store connection lost")
			}
			return errors.Wrap(err, "loading session")
		}
		ctx.Set(ctxSessionKey, sess)

		cookie, err := s.sessionCookie(sess)
		if err != nil {
			return err
		}
		ctx.SetCookie(cookie)

		if err := next(ctx); err != nil {
			ctx.Error(err)
		}

		// the handler may have swapped the session (see renewSession)
		if err := s.opts.Sessions.Save(reqCtx, contextSession(ctx)); err != nil {
			s.logger.Error(fmt.Sprintf("saving session: %v", err), err, currentUser(ctx))
		}
		return nil
	}
}

// renewSession replaces the visitor's session with a fresh one carrying its pending flashes,
// and re-issues the cookie. An ID issued before login must never become authenticated.
func (s *Server) renewSession(ctx echo.Context) (*session.Session, error) {
	sess := s.opts.Sessions.New()
	if old := contextSession(ctx); old != nil {
		sess.Flashes = old.Flashes
		if err := s.opts.Sessions.Destroy(ctx.Request().Context(), old.ID); err != nil {
			return nil, errors.Wrap(err, "destroying session")
		}
	}

	cookie, err := s.sessionCookie(sess)
	if err != nil {
		return nil, err
	}
	header := ctx.Response().Header()
	cookies := header.Values(echo.HeaderSetCookie)
	header.Del(echo.HeaderSetCookie)
	for _, c := range cookies {
		if !strings.HasPrefix(c, sessionCookie+"=") {
			header.Add(echo.HeaderSetCookie, c)
		}
	}
	ctx.SetCookie(cookie)
	ctx.Set(ctxSessionKey, sess)
	return sess, nil
}

// sessionID returns the `jti` of a valid session cookie, or "".
func (s *Server) sessionID(ctx echo.Context) string {
	cookie, err := ctx.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return ""
	}

	claims := new(jwt.StandardClaims)
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != sessionSigningAlg {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.conf.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return ""
	}
	return claims.Id
}

func (s *Server) sessionCookie(sess *session.Session) (*http.Cookie, error) {
	expires := time.Now().UTC().Add(s.opts.Sessions.TTL())
	claims := jwt.StandardClaims{
		Id:        sess.ID,
		Issuer:    s.conf.AppName,
		IssuedAt:  time.Now().UTC().Unix(),
		ExpiresAt: expires.Unix(),
	}
	value, err := jwt.NewWithClaims(jwt.GetSigningMethod(sessionSigningAlg), claims).SignedString([]byte(s.conf.SecretKey))
	if err != nil {
		return nil, errors.Wrap(err, "signing session cookie")
	}
	return &http.Cookie{
		Name:     sessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   !(s.conf.Debug || s.conf.TestMode),
		SameSite: http.SameSiteLaxMode,
	}, nil
}

func contextSession(ctx echo.Context) *session.Session {
	sess, _ := ctx.Get(ctxSessionKey).(*session.Session)
	return sess
}

func flash(ctx echo.Context, kind, msg string) {
	if sess := contextSession(ctx); sess != nil {
		sess.AddFlash(kind, msg)
	}
}

// currentUser returns the logged in user, or a zero Usuario.
func currentUser(ctx echo.Context) api.Usuario {
	if sess := contextSession(ctx); sess != nil && sess.User != nil {
		return *sess.User
	}
	return api.Usuario{}
}

// token returns the backend bearer token of the current session.
func token(ctx echo.Context) string {
	if sess := contextSession(ctx); sess != nil {
		return sess.Token
	}
	return ""
}
