package handler

import (
	"context"
	"time"

	"github.com/sakif/taskquest/internal/auth"
	"github.com/sakif/taskquest/internal/model"
	"github.com/sakif/taskquest/internal/service"
)

// The interfaces below list exactly what each handler calls. The service
// package's concrete types satisfy them; tests pass fakes.

type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*service.AuthResult, error)
	SessionTTL() time.Duration
}

type GitHubProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

type TaskService interface {
	Add(ctx context.Context, userID string, in service.AddTaskInput) (*model.Task, error)
	Complete(ctx context.Context, userID, taskID string) (*service.CompletionResult, error)
}

type FriendService interface {
	SendRequest(ctx context.Context, senderID, receiverID string) (bool, error)
	Respond(ctx context.Context, responderID, requestID string, accept bool) (*model.Friendship, error)
}

type RankingService interface {
	Global(ctx context.Context) ([]model.RankedUser, error)
	Friends(ctx context.Context, userID string) ([]model.RankedUser, error)
}

type ProfileService interface {
	User(ctx context.Context, userID string) (*model.User, error)
	Dashboard(ctx context.Context, userID string) (*service.Dashboard, error)
	UpdateMusic(ctx context.Context, userID string, in service.MusicInput) (*model.User, error)
}

var (
	_ AuthService    = (*service.AuthService)(nil)
	_ GitHubProvider = (*auth.GitHubProvider)(nil)
	_ TaskService    = (*service.TaskService)(nil)
	_ FriendService  = (*service.FriendService)(nil)
	_ RankingService = (*service.RankingService)(nil)
	_ ProfileService = (*service.ProfileService)(nil)
)
