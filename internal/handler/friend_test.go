package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/taskquest/internal/apperror"
)

func TestHandleSend(t *testing.T) {
	t.Run("new request", func(t *testing.T) {
		friends := &fakeFriends{created: true}
		h := NewFriendHandler(friends, testLogger())

		rec := serve(http.MethodGet, "/amizade/enviar/{userID}", h.HandleSend, "ana",
			httptest.NewRequest(http.MethodGet, "/amizade/enviar/bia", nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "ana", friends.sender)
		assert.Equal(t, "bia", friends.receiver)
		assert.Equal(t, "Pedido de amizade enviado!", flash(t, rec))
	})

	t.Run("already pending", func(t *testing.T) {
		h := NewFriendHandler(&fakeFriends{created: false}, testLogger())

		rec := serve(http.MethodGet, "/amizade/enviar/{userID}", h.HandleSend, "ana",
			httptest.NewRequest(http.MethodGet, "/amizade/enviar/bia", nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Empty(t, flash(t, rec))
	})

	t.Run("to self", func(t *testing.T) {
		h := NewFriendHandler(&fakeFriends{sendErr: apperror.ValidationFailed("userID", "não é possível")}, testLogger())

		rec := serve(http.MethodGet, "/amizade/enviar/{userID}", h.HandleSend, "ana",
			httptest.NewRequest(http.MethodGet, "/amizade/enviar/ana", nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/index", rec.Header().Get("Location"))
	})
}

func TestHandleRespond(t *testing.T) {
	tests := []struct {
		name       string
		pattern    string
		path       string
		accept     bool
		handlerFor func(*FriendHandler) http.HandlerFunc
	}{
		{"accept", "/amizade/aceitar/{id}", "/amizade/aceitar/req1", true, func(h *FriendHandler) http.HandlerFunc { return h.HandleAccept }},
		{"reject", "/amizade/recusar/{id}", "/amizade/recusar/req1", false, func(h *FriendHandler) http.HandlerFunc { return h.HandleReject }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			friends := &fakeFriends{}
			h := NewFriendHandler(friends, testLogger())

			rec := serve(http.MethodGet, tt.pattern, tt.handlerFor(h), "bia", httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "bia", friends.responder)
			assert.Equal(t, "req1", friends.requestID)
			require.NotNil(t, friends.accepted)
			assert.Equal(t, tt.accept, *friends.accepted)
		})
	}
}

func TestHandleRespond_NotReceiverIsSilent(t *testing.T) {
	h := NewFriendHandler(&fakeFriends{respondErr: apperror.Forbidden("not the receiver")}, testLogger())

	rec := serve(http.MethodGet, "/amizade/aceitar/{id}", h.HandleAccept, "caio",
		httptest.NewRequest(http.MethodGet, "/amizade/aceitar/req1", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/index", rec.Header().Get("Location"))
}
