// Package service contains the business logic of the game.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses forms, renders pages, sets cookies
//	Service (Business layer) → validates, enforces rules, runs transactions
//	Repository (Data layer)  → reads/writes SQLite
//
// The rules themselves (XP curve, streaks, friendship transitions, ranking)
// live in package game as pure functions. Services load the rows, call the
// rules, and persist the result inside one repository.Store transaction so a
// completed task, the XP it earned and the achievements it unlocked are
// committed together or not at all.
//
// DEPENDENCY INJECTION:
// Services take a repository.Store (interface), never a *sqlite.DB. Tests pass
// an in-memory fake (see fake_store_test.go); the admin CLI and the web server
// pass the real database.
package service

import (
	"log/slog"
	"time"
)

// Clock returns the current time. Services default to time.Now; tests pin it.
type Clock func() time.Time

// Deps bundles what every service needs besides its store.
type Deps struct {
	Logger   *slog.Logger
	Location *time.Location // calendar used for task dates and login streaks
	Clock    Clock
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return d
}
