package game

import (
	"time"

	"github.com/sakif/taskquest/internal/model"
)

// StreakChange is the outcome of recording one login.
type StreakChange int

const (
	StreakStarted   StreakChange = iota // first login ever, or the chain broke
	StreakExtended                      // last login was yesterday
	StreakUnchanged                     // already logged in today
)

// StreakResult reports the new streak length and any achievement it unlocks.
type StreakResult struct {
	Days     int
	Change   StreakChange
	Unlocked []string
}

// Date truncates t to its calendar date in loc and returns midnight UTC of
// that date. All stored dates use this form so they compare with ==.
func Date(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RecordLogin updates the user's streak for a login on today, which must
// already be a calendar date as returned by Date.
//
//   - last login yesterday: the streak grows by one
//   - last login today: nothing changes
//   - anything else, including never: the streak restarts at 1
//
// LastLoginDate is then set to today and the streak achievement for the
// resulting count, if the catalog has one, is returned for granting. On a
// same-day login the lookup still happens; the grant is idempotent.
func RecordLogin(u *model.User, today time.Time, c *Catalog) StreakResult {
	today = Date(today, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	var change StreakChange
	switch {
	case u.LastLoginDate != nil && u.LastLoginDate.Equal(today):
		change = StreakUnchanged
	case u.LastLoginDate != nil && u.LastLoginDate.Equal(yesterday):
		u.ConsecutiveLoginDays++
		change = StreakExtended
	default:
		u.ConsecutiveLoginDays = 1
		change = StreakStarted
	}

	u.LastLoginDate = &today

	res := StreakResult{Days: u.ConsecutiveLoginDays, Change: change}
	if id, ok := c.ForStreak(u.ConsecutiveLoginDays); ok {
		res.Unlocked = append(res.Unlocked, id)
	}
	return res
}
