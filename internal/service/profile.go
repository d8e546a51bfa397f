package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/taskquest/internal/model"
	"github.com/sakif/taskquest/internal/repository"
)

// ProfileService serves the dashboard and the music settings page.
type ProfileService struct {
	store   repository.Store
	tasks   *TaskService
	friends *FriendService
	deps    Deps
}

func NewProfileService(store repository.Store, tasks *TaskService, friends *FriendService, deps Deps) *ProfileService {
	return &ProfileService{store: store, tasks: tasks, friends: friends, deps: deps.withDefaults()}
}

// MusicInput is the /config-musica form. An empty URL turns music off.
type MusicInput struct {
	URL      string `form:"musica_url" validate:"omitempty,url,max=300"`
	Autoplay bool   `form:"autoplay"`
}

// Dashboard is everything the /index page shows a logged-in player.
type Dashboard struct {
	User         *model.User
	Tasks        []model.Task
	Achievements []model.EarnedAchievement
	Pending      []model.FriendRequest
	Friends      []model.User
}

// Dashboard loads the player's page in one call.
func (s *ProfileService) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/profile: %w", err)
	}

	d := &Dashboard{User: user}

	if d.Tasks, err = s.tasks.List(ctx, userID); err != nil {
		return nil, err
	}
	if d.Achievements, err = s.store.Achievements().ListForUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("service/profile: listing achievements for %s: %w", userID, err)
	}
	if d.Pending, err = s.friends.Pending(ctx, userID); err != nil {
		return nil, err
	}
	if d.Friends, err = s.friends.Friends(ctx, userID); err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateMusic saves the player's background music settings.
func (s *ProfileService) UpdateMusic(ctx context.Context, userID string, in MusicInput) (*model.User, error) {
	in.URL = strings.TrimSpace(in.URL)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var user *model.User
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		user, err = tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		user.MusicURL = in.URL
		user.Autoplay = in.Autoplay
		return tx.Users().Update(ctx, user)
	})
	if err != nil {
		return nil, fmt.Errorf("service/profile: updating music for %s: %w", userID, err)
	}

	s.deps.Logger.Debug("music settings updated",
		slog.String("userID", userID),
		slog.Bool("autoplay", in.Autoplay),
	)
	return user, nil
}

// User returns the player's current record.
func (s *ProfileService) User(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/profile: %w", err)
	}
	return user, nil
}
