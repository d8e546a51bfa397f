// Package repository declares the persistence contracts the services depend
// on. The only implementation lives in repository/sqlite; tests use
// in-memory fakes.
package repository

import (
	"context"
	"time"

	"github.com/sakif/taskquest/internal/model"
)

type UserRepository interface {
	// Create inserts a new user. A taken email or GitHub ID returns an
	// apperror.ErrConflict.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
	// Update writes every mutable column of user back.
	Update(ctx context.Context, user *model.User) error
	// List returns all users in registration order.
	List(ctx context.Context) ([]model.User, error)
}

type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id string) (*model.Task, error)
	ListByUser(ctx context.Context, userID string) ([]model.Task, error)
	// MarkCompleted flips an open task owned by userID to completed. It
	// reports false when no row matched: missing, not owned or already done.
	MarkCompleted(ctx context.Context, id, userID string, at time.Time) (bool, error)
	CountCompleted(ctx context.Context, userID string) (int, error)
}

type AchievementRepository interface {
	// Upsert inserts or refreshes an achievement by Key and sets its ID.
	Upsert(ctx context.Context, a *model.Achievement) error
	List(ctx context.Context) ([]model.Achievement, error)
	// Grant records that userID earned achievementID. It reports false when
	// the grant already existed.
	Grant(ctx context.Context, userID, achievementID string, at time.Time) (bool, error)
	ListForUser(ctx context.Context, userID string) ([]model.EarnedAchievement, error)
}

type FriendshipRepository interface {
	// CreatePending stores f as a pending request. It reports false, and
	// stores nothing, when the same sender already has a pending request to
	// the same receiver.
	CreatePending(ctx context.Context, f *model.Friendship) (bool, error)
	GetByID(ctx context.Context, id string) (*model.Friendship, error)
	UpdateStatus(ctx context.Context, f *model.Friendship) error
	// ListAccepted returns accepted rows where userID is either side.
	ListAccepted(ctx context.Context, userID string) ([]model.Friendship, error)
	ListPendingFor(ctx context.Context, receiverID string) ([]model.FriendRequest, error)
}

// Store groups the repositories and runs units of work.
//
// InTx calls fn with a Store whose repositories all share one database
// transaction. It commits if fn returns nil and rolls back otherwise.
type Store interface {
	Users() UserRepository
	Tasks() TaskRepository
	Achievements() AchievementRepository
	Friendships() FriendshipRepository
	InTx(ctx context.Context, fn func(tx Store) error) error
}
