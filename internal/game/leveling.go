package game

import "github.com/sakif/taskquest/internal/model"

// TaskCompletionXP is awarded once per task, on its first completion.
const TaskCompletionXP = 10

// Progress describes what a single XP grant changed.
type Progress struct {
	XPGained     int
	LevelsGained []int    // every level reached, in order
	Unlocked     []string // achievement IDs to grant, in order
}

// LeveledUp reports whether the grant crossed at least one threshold.
func (p Progress) LeveledUp() bool {
	return len(p.LevelsGained) > 0
}

// GrantXP adds amount to the user's XP and raises the level while
// xp >= level*XPPerLevel. The threshold is checked against the level being
// left, so leaving level N costs N*50 total XP.
//
// A single large grant can cross several thresholds. Every level reached is
// reported and mapped through the catalog, not only the final one: from
// level 1 with 0 XP, a grant of 150 yields levels 2, 3 and 4.
//
// Non-positive amounts are ignored. The caller persists the user and grants
// the returned achievements; granting is idempotent at the storage layer.
func GrantXP(u *model.User, amount int, c *Catalog) Progress {
	var p Progress
	if amount <= 0 {
		return p
	}
	if u.Level < 1 {
		u.Level = 1
	}

	u.XP += amount
	p.XPGained = amount

	for u.XP >= u.Level*model.XPPerLevel {
		u.Level++
		p.LevelsGained = append(p.LevelsGained, u.Level)
		if id, ok := c.ForLevel(u.Level); ok {
			p.Unlocked = append(p.Unlocked, id)
		}
	}

	return p
}

// LevelForXP returns the level a fresh account would reach with xp total
// experience. Used by the admin tooling to audit stored levels.
func LevelForXP(xp int) int {
	level := 1
	for xp >= level*model.XPPerLevel {
		level++
	}
	return level
}
