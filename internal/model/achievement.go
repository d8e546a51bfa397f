package model

import "time"

// AchievementKind tells the game engine which rule unlocks an achievement.
type AchievementKind string

const (
	// KindLevel unlocks when the user reaches level Threshold.
	KindLevel AchievementKind = "level"
	// KindStreak unlocks when the login streak reaches Threshold days.
	KindStreak AchievementKind = "streak"
	// KindFirstTask unlocks on the user's first completed task.
	KindFirstTask AchievementKind = "first_task"
)

// Valid reports whether k is one of the known kinds.
func (k AchievementKind) Valid() bool {
	switch k {
	case KindLevel, KindStreak, KindFirstTask:
		return true
	}
	return false
}

// Achievement is seeded reference data. Key is the stable identifier used by
// the catalog file; ID is the database primary key.
type Achievement struct {
	ID          string          `json:"id"`
	Key         string          `json:"key"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	Kind        AchievementKind `json:"kind"`
	Threshold   int             `json:"threshold"`
}

// EarnedAchievement is an achievement together with the moment it was granted
// to a particular user.
type EarnedAchievement struct {
	Achievement
	GrantedAt time.Time `json:"grantedAt"`
}
