package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/taskquest/internal/apperror"
	"github.com/sakif/taskquest/internal/auth"
	"github.com/sakif/taskquest/internal/game"
	"github.com/sakif/taskquest/internal/service"
)

const oauthStateCookie = "oauth_state"

// AuthHandler manages registration, password login, GitHub login and logout.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister       → create the account, back to /index
//   - HandleLogin          → verify, set the session cookie, back to /index
//   - HandleLogout         → clear the session cookie
//   - HandleGitHubLogin    → redirect the browser to GitHub's authorization page
//   - HandleGitHubCallback → receive the code, sign in, set the session cookie
//
// Failed logins and registrations re-render the anonymous dashboard with the
// message inline, which is why the handler keeps a reference to the pages.
type AuthHandler struct {
	auth   AuthService
	github GitHubProvider // nil when GitHub sign-in is not configured
	pages  *PageHandler
	secure bool
	logger *slog.Logger
}

// AuthConfig carries cookie settings.
type AuthConfig struct {
	SecureCookies bool // set when served over HTTPS
}

func NewAuthHandler(
	authSvc AuthService,
	github GitHubProvider,
	pages *PageHandler,
	cfg AuthConfig,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:   authSvc,
		github: github,
		pages:  pages,
		secure: cfg.SecureCookies,
		logger: logger.With(slog.String("component", "auth")),
	}
}

// HandleRegister creates a password account. Registering does not log in:
// the player lands on /index and signs in with the new credentials.
//
// HTTP: POST /register (fields nome, email, senha)
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	in := service.RegisterInput{
		Name:     r.PostFormValue("nome"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("senha"),
	}

	if _, err := h.auth.Register(r.Context(), in); err != nil {
		h.inlineError(w, r, err)
		return
	}

	setFlash(w, "Conta criada! Faça login para começar.")
	redirect(w, r, DashboardPath)
}

// HandleLogin checks the credentials, records the daily login for the streak
// and sets the session cookie.
//
// HTTP: POST /login (fields email, senha)
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	res, err := h.auth.Login(r.Context(), r.PostFormValue("email"), r.PostFormValue("senha"))
	if err != nil {
		h.inlineError(w, r, err)
		return
	}

	h.startSession(w, res)
	redirect(w, r, DashboardPath)
}

// HandleLogout clears the session cookie.
//
// HTTP: GET /logout
//
// Sessions are stateless JWTs, so "logout" just deletes the cookie. The token
// stays technically valid until it expires, but the browser no longer sends
// it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	redirect(w, r, DashboardPath)
}

// HandleGitHubLogin redirects the player to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// CSRF PROTECTION VIA STATE:
// A random state goes into a short-lived cookie and into the authorization
// URL. HandleGitHubCallback accepts the callback only when both match.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		redirect(w, r, DashboardPath)
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub profile
//  3. Find or create the player and record the login
//  4. Set the session cookie and go to /index
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		redirect(w, r, DashboardPath)
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("GitHub callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// The state is single-use.
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("GitHub callback: authorization denied", slog.String("error", errParam))
		redirect(w, r, DashboardPath)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("GitHub callback: exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusBadGateway)
		return
	}

	res, err := h.auth.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		// The GitHub email belongs to an existing account: ask for the password.
		var appErr *apperror.AppError
		if errors.Is(err, apperror.ErrConflict) && errors.As(err, &appErr) {
			h.pages.renderDashboard(w, r, http.StatusConflict, appErr.Message)
			return
		}
		serverError(w, r, h.logger, err)
		return
	}

	h.startSession(w, res)
	redirect(w, r, DashboardPath)
}

// startSession sets the JWT cookie and a flash about the login streak.
//
// HttpOnly keeps the token away from JavaScript; SameSite=Lax keeps it off
// cross-site POSTs. Max-Age matches the token lifetime.
func (h *AuthHandler) startSession(w http.ResponseWriter, res *service.AuthResult) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    res.Token,
		Path:     "/",
		MaxAge:   int(h.auth.SessionTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	if msg := streakMessage(res); msg != "" {
		setFlash(w, msg)
	}
}

func streakMessage(res *service.AuthResult) string {
	var parts []string
	if res.Streak.Change == game.StreakExtended {
		parts = append(parts, fmt.Sprintf("%d dias seguidos!", res.Streak.Days))
	}
	for _, a := range res.Unlocked {
		parts = append(parts, "Conquista desbloqueada: "+a.Name)
	}
	return strings.Join(parts, " ")
}

// inlineError shows a login/register failure above the forms, or falls back
// to a 500 for errors that are not the player's fault.
func (h *AuthHandler) inlineError(w http.ResponseWriter, r *http.Request, err error) {
	msg, status, ok := inlineMessage(err)
	if !ok {
		serverError(w, r, h.logger, err)
		return
	}
	h.pages.renderDashboard(w, r, status, msg)
}
