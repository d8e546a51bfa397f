package model

import "time"

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// Task is a single to-do item owned by one user.
//
// Completed only ever moves from false to true. There is no edit or delete;
// once a task is done it stays done and keeps the XP it awarded.
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Description string     `json:"description"`
	Date        time.Time  `json:"date"` // assigned calendar date, midnight UTC
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// DateString renders the assigned date as YYYY-MM-DD.
func (t *Task) DateString() string {
	return t.Date.Format(DateLayout)
}
