// Package game holds the rules of the to-do game: how XP turns into levels,
// how daily logins turn into streaks, which achievements those unlock, how
// friend requests move between states and how players are ranked.
//
// Everything here is pure. Functions take model values, mutate them in place
// and report what changed; the service layer decides when to persist and
// which transaction to do it in. That keeps the rules testable without a
// database.
package game

import (
	"fmt"

	"github.com/sakif/taskquest/internal/model"
)

// Catalog maps game events to achievement IDs.
//
// It is built once, right after the achievements are seeded, from the rows
// the database returned. The engines never look achievements up by name:
// "reached level 5" resolves to an ID through the level table, "logged in 7
// days in a row" through the streak table.
type Catalog struct {
	levels    map[int]string
	streaks   map[int]string
	firstTask string
	byID      map[string]model.Achievement
}

// NewCatalog indexes seeded achievements by kind and threshold. Every
// achievement must already carry its database ID.
func NewCatalog(achievements []model.Achievement) (*Catalog, error) {
	c := &Catalog{
		levels:  make(map[int]string),
		streaks: make(map[int]string),
		byID:    make(map[string]model.Achievement, len(achievements)),
	}

	for _, a := range achievements {
		if a.ID == "" {
			return nil, fmt.Errorf("game: achievement %q has no id", a.Key)
		}
		c.byID[a.ID] = a

		switch a.Kind {
		case model.KindLevel:
			if prev, ok := c.levels[a.Threshold]; ok {
				return nil, fmt.Errorf("game: level %d mapped twice (%s, %s)", a.Threshold, prev, a.ID)
			}
			c.levels[a.Threshold] = a.ID
		case model.KindStreak:
			if prev, ok := c.streaks[a.Threshold]; ok {
				return nil, fmt.Errorf("game: streak %d mapped twice (%s, %s)", a.Threshold, prev, a.ID)
			}
			c.streaks[a.Threshold] = a.ID
		case model.KindFirstTask:
			if c.firstTask != "" {
				return nil, fmt.Errorf("game: more than one first_task achievement")
			}
			c.firstTask = a.ID
		default:
			return nil, fmt.Errorf("game: achievement %q has unknown kind %q", a.Key, a.Kind)
		}
	}

	return c, nil
}

// ForLevel returns the achievement unlocked by reaching level n, if any.
func (c *Catalog) ForLevel(n int) (string, bool) {
	if c == nil {
		return "", false
	}
	id, ok := c.levels[n]
	return id, ok
}

// ForStreak returns the achievement unlocked by an n-day login streak, if any.
func (c *Catalog) ForStreak(n int) (string, bool) {
	if c == nil {
		return "", false
	}
	id, ok := c.streaks[n]
	return id, ok
}

// FirstTask returns the achievement for completing a first task, if seeded.
func (c *Catalog) FirstTask() (string, bool) {
	if c == nil || c.firstTask == "" {
		return "", false
	}
	return c.firstTask, true
}

// Lookup returns the full achievement for an ID produced by this catalog.
func (c *Catalog) Lookup(id string) (model.Achievement, bool) {
	if c == nil {
		return model.Achievement{}, false
	}
	a, ok := c.byID[id]
	return a, ok
}

// Len is the number of achievements in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byID)
}
