package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/taskquest/internal/apperror"
	"github.com/sakif/taskquest/internal/game"
	"github.com/sakif/taskquest/internal/model"
	"github.com/sakif/taskquest/internal/repository"
)

// TaskService adds, lists and completes a player's tasks.
type TaskService struct {
	store   repository.Store
	catalog *game.Catalog
	deps    Deps
}

func NewTaskService(store repository.Store, catalog *game.Catalog, deps Deps) *TaskService {
	return &TaskService{store: store, catalog: catalog, deps: deps.withDefaults()}
}

// AddTaskInput is the /add form. An empty Date means today.
type AddTaskInput struct {
	Description string `form:"descricao" validate:"required,max=200"`
	Date        string `form:"data" validate:"omitempty,datetime=2006-01-02"`
}

// CompletionResult reports what completing a task earned.
type CompletionResult struct {
	Task             *model.Task
	User             *model.User
	AlreadyCompleted bool
	Progress         game.Progress
	Unlocked         []model.Achievement
}

// Add creates an open task for userID.
func (s *TaskService) Add(ctx context.Context, userID string, in AddTaskInput) (*model.Task, error) {
	in.Description = strings.TrimSpace(in.Description)
	in.Date = strings.TrimSpace(in.Date)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	date := game.Date(s.deps.Clock(), s.deps.Location)
	if in.Date != "" {
		parsed, err := time.Parse(model.DateLayout, in.Date)
		if err != nil {
			return nil, apperror.ValidationFailed("data", "Data inválida.")
		}
		date = parsed
	}

	task := &model.Task{
		UserID:      userID,
		Description: in.Description,
		Date:        date,
	}
	if err := s.store.Tasks().Create(ctx, task); err != nil {
		return nil, fmt.Errorf("service/task: %w", err)
	}

	s.deps.Logger.Debug("task added",
		slog.String("userID", userID),
		slog.String("taskID", task.ID),
	)
	return task, nil
}

// List returns the player's tasks ordered by date.
func (s *TaskService) List(ctx context.Context, userID string) ([]model.Task, error) {
	tasks, err := s.store.Tasks().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/task: listing tasks for %s: %w", userID, err)
	}
	return tasks, nil
}

// Complete marks a task done and pays out its XP.
//
// XP is awarded once per task: the first completion flips the row inside the
// transaction, so a double click or a replayed request finds nothing to flip
// and comes back with AlreadyCompleted set and no XP. Completing a task that
// does not exist returns apperror.ErrNotFound; one owned by another player
// returns apperror.ErrForbidden.
//
// In the same transaction the player gains TaskCompletionXP, every level
// crossed is mapped to its achievement, and the very first completed task
// unlocks the first-task achievement.
func (s *TaskService) Complete(ctx context.Context, userID, taskID string) (*CompletionResult, error) {
	now := s.deps.Clock().UTC()
	res := &CompletionResult{}

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		flipped, err := tx.Tasks().MarkCompleted(ctx, taskID, userID, now)
		if err != nil {
			return err
		}

		task, err := tx.Tasks().GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if task.UserID != userID {
			return apperror.Forbidden("task belongs to another user")
		}
		res.Task = task

		user, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		res.User = user

		if !flipped {
			res.AlreadyCompleted = true
			return nil
		}

		res.Progress = game.GrantXP(user, game.TaskCompletionXP, s.catalog)
		unlock := res.Progress.Unlocked

		done, err := tx.Tasks().CountCompleted(ctx, userID)
		if err != nil {
			return err
		}
		if id, ok := s.catalog.FirstTask(); ok && done == 1 {
			unlock = append([]string{id}, unlock...)
		}

		if err := tx.Users().Update(ctx, user); err != nil {
			return err
		}

		res.Unlocked, err = grantAchievements(ctx, tx.Achievements(), s.catalog, userID, unlock, now)
		return err
	})
	if err != nil {
		if apperror.IsSilent(err) {
			return nil, err
		}
		return nil, fmt.Errorf("service/task: completing task %s: %w", taskID, err)
	}

	if !res.AlreadyCompleted {
		s.deps.Logger.Info("task completed",
			slog.String("userID", userID),
			slog.String("taskID", taskID),
			slog.Int("xp", res.User.XP),
			slog.Int("level", res.User.Level),
			slog.Int("unlocked", len(res.Unlocked)),
		)
	}
	return res, nil
}
