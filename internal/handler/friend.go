package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/taskquest/internal/auth"
)

// FriendHandler sends and answers friend requests. The acting player always
// comes from the session; the URL only names the other side or the request.
type FriendHandler struct {
	friends FriendService
	logger  *slog.Logger
}

func NewFriendHandler(friends FriendService, logger *slog.Logger) *FriendHandler {
	return &FriendHandler{friends: friends, logger: logger.With(slog.String("component", "friends"))}
}

// HandleSend asks userID to be the session player's friend. A request that
// is already pending is not duplicated.
//
// HTTP: GET /amizade/enviar/{userID} (RequireAuth)
func (h *FriendHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	senderID, _ := auth.UserIDFromContext(r.Context())

	created, err := h.friends.SendRequest(r.Context(), senderID, chi.URLParam(r, "userID"))
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	if created {
		setFlash(w, "Pedido de amizade enviado!")
	}
	redirect(w, r, DashboardPath)
}

// HandleAccept accepts request {id}; only its receiver may.
//
// HTTP: GET /amizade/aceitar/{id} (RequireAuth)
func (h *FriendHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, true)
}

// HandleReject rejects request {id}; only its receiver may.
//
// HTTP: GET /amizade/recusar/{id} (RequireAuth)
func (h *FriendHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, false)
}

func (h *FriendHandler) respond(w http.ResponseWriter, r *http.Request, accept bool) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if _, err := h.friends.Respond(r.Context(), userID, chi.URLParam(r, "id"), accept); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	redirect(w, r, DashboardPath)
}
