package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/taskquest/internal/apperror"
	"github.com/sakif/taskquest/internal/auth"
	"github.com/sakif/taskquest/internal/model"
	"github.com/sakif/taskquest/internal/service"
)

// =========================================================================
// FAKE SERVICES
// Each fake records its last call and returns whatever the test set up.
// =========================================================================

type fakeAuth struct {
	registered *service.RegisterInput
	registerFn func(service.RegisterInput) (*model.User, error)

	loginEmail string
	loginFn    func(email, password string) (*service.AuthResult, error)

	githubUser *auth.GitHubUser
	githubFn   func(*auth.GitHubUser) (*service.AuthResult, error)
}

func (f *fakeAuth) Register(_ context.Context, in service.RegisterInput) (*model.User, error) {
	f.registered = &in
	if f.registerFn != nil {
		return f.registerFn(in)
	}
	return &model.User{ID: "u1", Name: in.Name, Email: in.Email, Level: 1}, nil
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (*service.AuthResult, error) {
	f.loginEmail = email
	if f.loginFn != nil {
		return f.loginFn(email, password)
	}
	return nil, apperror.Unauthorized(service.LoginFailedMessage)
}

func (f *fakeAuth) LoginOrRegisterGitHub(_ context.Context, gh *auth.GitHubUser) (*service.AuthResult, error) {
	f.githubUser = gh
	if f.githubFn != nil {
		return f.githubFn(gh)
	}
	return &service.AuthResult{User: &model.User{ID: "gh-user"}, Token: "gh-token"}, nil
}

func (f *fakeAuth) SessionTTL() time.Duration { return time.Hour }

type fakeGitHub struct {
	exchangeErr error
	code        string
}

func (f *fakeGitHub) AuthURL(state string) string {
	return "https://github.example/authorize?state=" + state
}

func (f *fakeGitHub) Exchange(_ context.Context, code string) (*auth.GitHubUser, error) {
	f.code = code
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return &auth.GitHubUser{ID: 7, Login: "octo", Email: "octo@example.com"}, nil
}

type fakeTasks struct {
	addUser string
	added   *service.AddTaskInput
	addErr  error

	completeUser string
	completeTask string
	completeRes  *service.CompletionResult
	completeErr  error
}

func (f *fakeTasks) Add(_ context.Context, userID string, in service.AddTaskInput) (*model.Task, error) {
	f.addUser, f.added = userID, &in
	if f.addErr != nil {
		return nil, f.addErr
	}
	return &model.Task{ID: "t1", UserID: userID, Description: in.Description}, nil
}

func (f *fakeTasks) Complete(_ context.Context, userID, taskID string) (*service.CompletionResult, error) {
	f.completeUser, f.completeTask = userID, taskID
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	return f.completeRes, nil
}

type fakeFriends struct {
	sender, receiver string
	created          bool
	sendErr          error

	responder, requestID string
	accepted             *bool
	respondErr           error
}

func (f *fakeFriends) SendRequest(_ context.Context, senderID, receiverID string) (bool, error) {
	f.sender, f.receiver = senderID, receiverID
	return f.created, f.sendErr
}

func (f *fakeFriends) Respond(_ context.Context, responderID, requestID string, accept bool) (*model.Friendship, error) {
	f.responder, f.requestID, f.accepted = responderID, requestID, &accept
	if f.respondErr != nil {
		return nil, f.respondErr
	}
	return &model.Friendship{ID: requestID}, nil
}

type fakeRanking struct {
	global  []model.RankedUser
	friends []model.RankedUser
	err     error
}

func (f *fakeRanking) Global(context.Context) ([]model.RankedUser, error) {
	return f.global, f.err
}

func (f *fakeRanking) Friends(context.Context, string) ([]model.RankedUser, error) {
	return f.friends, f.err
}

type fakeProfiles struct {
	users     map[string]*model.User
	dashboard *service.Dashboard
	dashErr   error

	music    *service.MusicInput
	musicErr error
}

func (f *fakeProfiles) User(_ context.Context, userID string) (*model.User, error) {
	if u, ok := f.users[userID]; ok {
		return u, nil
	}
	return nil, apperror.NotFound("user", userID)
}

func (f *fakeProfiles) Dashboard(_ context.Context, userID string) (*service.Dashboard, error) {
	if f.dashErr != nil {
		return nil, f.dashErr
	}
	if f.dashboard != nil {
		return f.dashboard, nil
	}
	u, err := f.User(context.Background(), userID)
	if err != nil {
		return nil, err
	}
	return &service.Dashboard{User: u}, nil
}

func (f *fakeProfiles) UpdateMusic(_ context.Context, userID string, in service.MusicInput) (*model.User, error) {
	f.music = &in
	if f.musicErr != nil {
		return nil, f.musicErr
	}
	return f.users[userID], nil
}

// =========================================================================
// HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer("../../web/templates")
	require.NoError(t, err)
	return r
}

func newTestPages(t *testing.T, profiles *fakeProfiles, ranking *fakeRanking) *PageHandler {
	t.Helper()
	if profiles == nil {
		profiles = &fakeProfiles{}
	}
	if ranking == nil {
		ranking = &fakeRanking{}
	}
	h := NewPageHandler(testRenderer(t), profiles, ranking, PageConfig{}, testLogger())
	h.now = func() time.Time { return time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC) }
	return h
}

// asUser plays the part of auth.RequireAuth for handler tests.
func asUser(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID != "" {
				r = r.WithContext(auth.WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// serve routes one request through a chi router so URL params resolve.
func serve(method, pattern string, h http.HandlerFunc, userID string, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Use(asUser(userID))
	r.Method(method, pattern, h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// cookie returns the named Set-Cookie from rec, or nil.
func cookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// flash decodes the flash cookie set on rec, or "" when none was set.
func flash(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	c := cookie(rec, flashCookie)
	if c == nil || c.MaxAge < 0 {
		return ""
	}
	msg, err := url.QueryUnescape(c.Value)
	require.NoError(t, err)
	return msg
}
