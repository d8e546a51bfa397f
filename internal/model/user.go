// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered player account.
//
// Players sign up with name, email and password. GitHub sign-in is optional:
// GitHubID is nil for password-only accounts and set once an account has been
// created from a GitHub identity.
//
// XP AND LEVEL:
// XP only ever grows. Level starts at 1 and is derived from XP by the leveling
// rules in internal/game; it is stored so the ranking and dashboard don't need
// to recompute it on every read.
//
// LastLoginDate is a calendar date (midnight UTC), not a timestamp. The streak
// tracker compares dates, so the time-of-day part is always zero.
type User struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	Email                string     `json:"email"`
	PasswordHash         string     `json:"-"`
	GitHubID             *int64     `json:"githubId,omitempty"`
	XP                   int        `json:"xp"`
	Level                int        `json:"level"`
	MusicURL             string     `json:"musicUrl,omitempty"`
	Autoplay             bool       `json:"autoplay"`
	LastLoginDate        *time.Time `json:"lastLoginDate,omitempty"`
	ConsecutiveLoginDays int        `json:"consecutiveLoginDays"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// NextLevelXP is the total XP at which the user reaches the next level.
func (u *User) NextLevelXP() int {
	return u.Level * XPPerLevel
}

// XPPerLevel is the per-level multiplier of the level threshold: a user at
// level N levels up once their total XP reaches N*XPPerLevel.
const XPPerLevel = 50
