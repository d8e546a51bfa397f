package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/taskquest/internal/game"
	"github.com/sakif/taskquest/internal/model"
	"github.com/sakif/taskquest/internal/repository"
)

// SeedAchievements upserts the achievement definitions and builds the game
// catalog from what the database now holds.
//
// Seeding is idempotent: definitions are matched by Key, so re-running with
// the same file only refreshes names, icons and thresholds. The catalog is
// built from the full table, not from defs, which keeps achievements seeded
// by an earlier catalog file reachable.
func SeedAchievements(ctx context.Context, store repository.Store, defs []model.Achievement) (*game.Catalog, error) {
	err := store.InTx(ctx, func(tx repository.Store) error {
		for i := range defs {
			if err := tx.Achievements().Upsert(ctx, &defs[i]); err != nil {
				return fmt.Errorf("seeding achievement %q: %w", defs[i].Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("service/achievement: %w", err)
	}

	return LoadCatalog(ctx, store)
}

// LoadCatalog builds the game catalog from the achievements already stored.
func LoadCatalog(ctx context.Context, store repository.Store) (*game.Catalog, error) {
	all, err := store.Achievements().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/achievement: listing achievements: %w", err)
	}

	c, err := game.NewCatalog(all)
	if err != nil {
		return nil, fmt.Errorf("service/achievement: %w", err)
	}
	return c, nil
}

// grantAchievements records each catalog ID for userID and returns the ones
// that were new. Grants that already existed are skipped silently, so callers
// can pass every ID the rules produced without checking first.
func grantAchievements(
	ctx context.Context,
	repo repository.AchievementRepository,
	c *game.Catalog,
	userID string,
	ids []string,
	at time.Time,
) ([]model.Achievement, error) {
	var granted []model.Achievement
	for _, id := range ids {
		created, err := repo.Grant(ctx, userID, id, at)
		if err != nil {
			return nil, fmt.Errorf("granting achievement %s: %w", id, err)
		}
		if !created {
			continue
		}
		if a, ok := c.Lookup(id); ok {
			granted = append(granted, a)
		}
	}
	return granted, nil
}
