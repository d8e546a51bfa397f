package handler

// RESPONSE HELPERS:
// Every page handler ends in one of four ways:
//
//	redirect(w, r, "/index")          → 303 after a successful form or link
//	h.render(w, status, page, data)   → HTML page (200, or 4xx with an inline message)
//	h.fail(w, r, err)                 → domain error mapped to redirect / 500
//	writeJSON(w, status, data)        → only /health speaks JSON
//
// ERROR MAPPING:
// Services return apperror kinds; this file decides what the browser sees.
//
//	ErrNotFound, ErrForbidden → silent redirect to /index, as if it worked
//	ErrConflict               → inline "Email já registrado!" (register form)
//	ErrUnauthorized           → inline "Login inválido!" (login form)
//	ErrValidation             → inline on register, silent redirect elsewhere
//	anything else             → logged, 500

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/sakif/taskquest/internal/apperror"
)

// DashboardPath is where every form and link lands afterwards.
const DashboardPath = "/index"

const flashCookie = "flash"

// writeJSON sends a JSON response with the given status code.
//
// Headers and status must be set BEFORE the body; once Encode writes, later
// header changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// redirect answers with 303 See Other, so a POSTed form becomes a GET of the
// target and a browser refresh does not resubmit it.
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// fail handles an error from a gated action whose success also ends in a
// redirect. Missing or foreign rows and invalid input are swallowed; anything
// else is a server error.
func fail(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case apperror.IsSilent(err), errors.Is(err, apperror.ErrValidation):
		logger.Debug("request ignored", slog.String("path", r.URL.Path), slog.String("reason", err.Error()))
		redirect(w, r, DashboardPath)
	default:
		serverError(w, r, logger, err)
	}
}

func serverError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	logger.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	http.Error(w, "Erro interno. Tente novamente mais tarde.", http.StatusInternalServerError)
}

// inlineMessage maps a register/login error to the message shown above the
// form and the status the page is served with. ok is false for errors that
// are not the player's fault.
func inlineMessage(err error) (msg string, status int, ok bool) {
	var appErr *apperror.AppError
	switch {
	case errors.Is(err, apperror.ErrConflict):
		return "Email já registrado!", http.StatusConflict, true
	case errors.Is(err, apperror.ErrUnauthorized):
		return "Login inválido!", http.StatusUnauthorized, true
	case errors.Is(err, apperror.ErrValidation) && errors.As(err, &appErr):
		return appErr.Message, http.StatusBadRequest, true
	}
	return "", 0, false
}

// setFlash stores a one-shot message shown on the next page view.
func setFlash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending flash message, if any, and clears it.
func popFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})

	msg, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return msg
}
