package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/taskquest/internal/apperror"
	"github.com/sakif/taskquest/internal/auth"
	"github.com/sakif/taskquest/internal/model"
	"github.com/sakif/taskquest/internal/service"
)

// PageHandler serves the pages that only read: the landing menu, the
// dashboard, the ranking and the music settings form. It also saves the
// music settings, the one form whose page it owns.
type PageHandler struct {
	render        *Renderer
	profiles      ProfileService
	ranking       RankingService
	githubEnabled bool
	location      *time.Location
	now           func() time.Time
	logger        *slog.Logger
}

// PageConfig carries the non-service settings pages need.
type PageConfig struct {
	GitHubEnabled bool           // show "Entrar com GitHub"
	Location      *time.Location // calendar for the default task date
}

func NewPageHandler(
	render *Renderer,
	profiles ProfileService,
	ranking RankingService,
	cfg PageConfig,
	logger *slog.Logger,
) *PageHandler {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &PageHandler{
		render:        render,
		profiles:      profiles,
		ranking:       ranking,
		githubEnabled: cfg.GitHubEnabled,
		location:      loc,
		now:           time.Now,
		logger:        logger.With(slog.String("component", "pages")),
	}
}

func (h *PageHandler) page(w http.ResponseWriter, r *http.Request, title string) pageData {
	return pageData{
		Title:         title,
		Flash:         popFlash(w, r),
		GitHubEnabled: h.githubEnabled,
		Today:         h.now().In(h.location).Format(model.DateLayout),
	}
}

func (h *PageHandler) write(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	if err := h.render.Render(w, status, page, data); err != nil {
		serverError(w, r, h.logger, err)
	}
}

// HandleMenu serves the landing page.
//
// HTTP: GET /
func (h *PageHandler) HandleMenu(w http.ResponseWriter, r *http.Request) {
	data := h.page(w, r, "TaskQuest")
	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		if u, err := h.profiles.User(r.Context(), userID); err == nil {
			data.User = u
		}
	}
	h.write(w, r, http.StatusOK, pageMenu, data)
}

// HandleDashboard serves /index. Anonymous visitors get the login and
// register forms; players get their tasks, achievements and friends.
//
// HTTP: GET /index (OptionalAuth)
func (h *PageHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	h.renderDashboard(w, r, http.StatusOK, "")
}

// renderDashboard is shared with AuthHandler, which re-renders the anonymous
// dashboard with an inline error after a failed login or registration.
func (h *PageHandler) renderDashboard(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	data := h.page(w, r, "Minhas tarefas")
	data.Error = errMsg

	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		d, err := h.profiles.Dashboard(r.Context(), userID)
		switch {
		case err == nil:
			data.User = d.User
			data.Dashboard = d
		case errors.Is(err, apperror.ErrNotFound):
			// Valid token for a user that no longer exists: show the
			// anonymous page.
		default:
			serverError(w, r, h.logger, err)
			return
		}
	}

	h.write(w, r, status, pageDashboard, data)
}

// HandleRanking serves the global and friends leaderboards.
//
// HTTP: GET /ranking (RequireAuth)
func (h *PageHandler) HandleRanking(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.profiles.User(r.Context(), userID)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	global, err := h.ranking.Global(r.Context())
	if err != nil {
		serverError(w, r, h.logger, err)
		return
	}
	friends, err := h.ranking.Friends(r.Context(), userID)
	if err != nil {
		serverError(w, r, h.logger, err)
		return
	}

	data := h.page(w, r, "Ranking")
	data.User = user
	data.Global = global
	data.Friends = friends
	data.FriendIDs = make(map[string]bool, len(friends))
	for _, f := range friends {
		data.FriendIDs[f.UserID] = true
	}

	h.write(w, r, http.StatusOK, pageRanking, data)
}

// HandleMusicForm shows the music settings.
//
// HTTP: GET /config-musica (RequireAuth)
func (h *PageHandler) HandleMusicForm(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.profiles.User(r.Context(), userID)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}

	data := h.page(w, r, "Música")
	data.User = user
	h.write(w, r, http.StatusOK, pageMusic, data)
}

// HandleMusicSave stores the music settings. An unchecked checkbox is absent
// from the form, so autoplay is on only when the field is present.
//
// HTTP: POST /config-musica (RequireAuth)
func (h *PageHandler) HandleMusicSave(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		redirect(w, r, DashboardPath)
		return
	}
	in := service.MusicInput{
		URL:      r.PostFormValue("musica_url"),
		Autoplay: r.PostForm.Has("autoplay"),
	}

	if _, err := h.profiles.UpdateMusic(r.Context(), userID, in); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	redirect(w, r, DashboardPath)
}
