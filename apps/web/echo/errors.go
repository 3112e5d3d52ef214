package echoweb

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/matkerbino/murim/core"
	"github.com/matkerbino/murim/core/api"
	"github.com/matkerbino/murim/core/session"
)

var (
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "Acesso restrito a administradores.")
	errHttpNotFound  = echo.NewHTTPError(http.StatusNotFound, "Página não encontrada.")
)

const msgLoginRequired = "Faça login para continuar."

type errorPage struct {
	Code     int
	Message  string
	RetryURL string
}

// httpErrorHandler renders failures as an error panel with a retry link.
// A backend 401 ends the session and sends the visitor to the login page instead.
func (s *Server) httpErrorHandler(err error, ctx echo.Context) {
	if ctx.Response().Committed {
		return
	}

	if api.IsUnauthorized(err) {
		if sess := contextSession(ctx); sess != nil {
			sess.Logout()
			sess.AddFlash(session.FlashError, session.MsgSessionExpired)
		}
		if err := ctx.Redirect(http.StatusSeeOther, "/login"); err != nil {
			ctx.Echo().Logger.Error(err)
		}
		return
	}

	var code int
	var message string

	switch origErr := errors.Cause(err).(type) {
	case *echo.HTTPError:
		if origErr == middleware.ErrCSRFInvalid {
			code = http.StatusForbidden
			message = "Formulário expirado. Recarregue a página e tente novamente."
			break
		}
		if origErr.Internal != nil {
			if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
				origErr = herr
			}
		}
		code = origErr.Code
		if m, ok := origErr.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	case *api.Error:
		if origErr.Status == http.StatusNotFound {
			code = http.StatusNotFound
			message = "Registro não encontrado."
			break
		}
		code = http.StatusBadGateway
		message = apiMessage(origErr)
		s.logger.Error(fmt.Sprintf("backend error: %v", err), err, currentUser(ctx))
	default: // any other error is a server error
		code = http.StatusInternalServerError
		message = "Não foi possível carregar os dados."
		s.logger.Error(http.StatusText(code), errors.Wrap(err, http.StatusText(code)), currentUser(ctx))

		// shutting down...
		if core.IsShutdown(err) {
			s.signalShutdown()
		}
	}

	if ctx.Echo().Debug {
		message = err.Error()
	}

	page := errorPage{Code: code, Message: message}
	if req := ctx.Request(); req.Method == http.MethodGet {
		page.RetryURL = req.URL.RequestURI()
	} else if ref := req.Referer(); ref != "" {
		page.RetryURL = ref
	}

	if ctx.Request().Method == http.MethodHead { // Issue #608
		err = ctx.NoContent(code)
	} else {
		err = s.render(ctx, code, "pages/error", "Erro", page)
	}
	if err != nil {
		ctx.Echo().Logger.Error(err)
	}
}

// apiMessage is the message of a backend failure, suitable for a toast.
func apiMessage(err error) string {
	if apiErr, ok := api.AsError(err); ok {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		for _, msg := range apiErr.FieldErrors() {
			return msg
		}
		return http.StatusText(apiErr.Status)
	}
	return "Erro inesperado. Tente novamente."
}

// actionFailed turns the failure of a form action into an error toast and redirects to `to`.
// Backend 401s are left to the error handler.
func (s *Server) actionFailed(ctx echo.Context, err error, msg, to string) error {
	if api.IsUnauthorized(err) {
		return err
	}
	if _, ok := api.AsError(err); !ok {
		s.logger.Error(fmt.Sprintf("%s: %v", msg, err), err, currentUser(ctx))
	}
	flash(ctx, session.FlashError, msg+": "+apiMessage(err))
	return ctx.Redirect(http.StatusSeeOther, to)
}

// fieldErrors returns the field errors of a validation failure (local or from the backend).
func (s *Server) fieldErrors(err error) (map[string]string, bool) {
	if err == nil {
		return nil, false
	}
	if vErr, ok := core.TranslateValidation(err, s.opts.Translator).(*core.ValidationError); ok {
		return vErr.FieldMap(), true
	}
	if apiErr, ok := api.AsError(err); ok && apiErr.Status == http.StatusUnprocessableEntity && len(apiErr.Errors) > 0 {
		return apiErr.FieldErrors(), true
	}
	return nil, false
}
