package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/taskquest/internal/model"
	"github.com/sakif/taskquest/internal/repository"
)

// AchievementDB reads and writes achievements and user_achievements.
type AchievementDB struct {
	q querier
}

var _ repository.AchievementRepository = (*AchievementDB)(nil)

// Upsert inserts a new achievement or refreshes the text of an existing one
// with the same key. a.ID is set to the row's ID either way, so seeding is
// safe to repeat on every startup.
func (s *AchievementDB) Upsert(ctx context.Context, a *model.Achievement) error {
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO achievements (id, slug, name, description, icon, kind, threshold)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slug) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			icon = excluded.icon,
			kind = excluded.kind,
			threshold = excluded.threshold
		 RETURNING id`,
		xid.New().String(),
		a.Key,
		a.Name,
		a.Description,
		a.Icon,
		string(a.Kind),
		a.Threshold,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("sqlite: upserting achievement %s: %w", a.Key, err)
	}
	return nil
}

// List returns all achievements grouped by kind and ordered by threshold.
func (s *AchievementDB) List(ctx context.Context) ([]model.Achievement, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, slug, name, description, icon, kind, threshold
		 FROM achievements ORDER BY kind, threshold`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing achievements: %w", err)
	}
	defer rows.Close()

	var out []model.Achievement
	for rows.Next() {
		var a model.Achievement
		var kind string
		if err := rows.Scan(&a.ID, &a.Key, &a.Name, &a.Description, &a.Icon, &kind, &a.Threshold); err != nil {
			return nil, fmt.Errorf("sqlite: scanning achievement row: %w", err)
		}
		a.Kind = model.AchievementKind(kind)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating achievement rows: %w", err)
	}
	return out, nil
}

// Grant records an achievement for a user. The (user_id, achievement_id)
// primary key makes it idempotent: a repeat grant inserts nothing and
// reports false.
func (s *AchievementDB) Grant(ctx context.Context, userID, achievementID string, at time.Time) (bool, error) {
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO user_achievements (user_id, achievement_id, granted_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(user_id, achievement_id) DO NOTHING`,
		userID, achievementID, at.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: granting %s to %s: %w", achievementID, userID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n == 1, nil
}

// ListForUser returns the user's achievements in the order they were earned.
func (s *AchievementDB) ListForUser(ctx context.Context, userID string) ([]model.EarnedAchievement, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT a.id, a.slug, a.name, a.description, a.icon, a.kind, a.threshold, ua.granted_at
		 FROM user_achievements ua
		 JOIN achievements a ON a.id = ua.achievement_id
		 WHERE ua.user_id = ?
		 ORDER BY ua.granted_at, ua.rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing achievements for %s: %w", userID, err)
	}
	defer rows.Close()

	var out []model.EarnedAchievement
	for rows.Next() {
		var e model.EarnedAchievement
		var kind string
		err := rows.Scan(
			&e.ID, &e.Key, &e.Name, &e.Description, &e.Icon, &kind, &e.Threshold, &e.GrantedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning earned achievement: %w", err)
		}
		e.Kind = model.AchievementKind(kind)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating earned achievements: %w", err)
	}
	return out, nil
}
