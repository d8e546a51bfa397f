package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/taskquest/internal/apperror"
	"github.com/sakif/taskquest/internal/model"
)

func createTestTask(t *testing.T, db *DB, userID, desc, date string) *model.Task {
	t.Helper()
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		t.Fatalf("bad test date %q: %v", date, err)
	}
	task := &model.Task{UserID: userID, Description: desc, Date: d}
	if err := db.Tasks().Create(context.Background(), task); err != nil {
		t.Fatalf("failed to create test task: %v", err)
	}
	return task
}

func TestTaskCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db.Users(), "ana")

	task := createTestTask(t, db, user.ID, "Estudar Go", "2026-04-01")
	if task.ID == "" {
		t.Fatal("Create() did not set task.ID")
	}

	got, err := db.Tasks().GetByID(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Description != "Estudar Go" {
		t.Errorf("Description = %q", got.Description)
	}
	if got.DateString() != "2026-04-01" {
		t.Errorf("Date = %s, want 2026-04-01", got.DateString())
	}
	if got.Completed || got.CompletedAt != nil {
		t.Error("new task should be open")
	}
}

func TestTaskCreate_UnknownUser(t *testing.T) {
	db := newTestDB(t)

	task := &model.Task{UserID: "ghost", Description: "x", Date: time.Now()}
	if err := db.Tasks().Create(context.Background(), task); err == nil {
		t.Fatal("Create() should fail the user_id foreign key")
	}
}

func TestTaskGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Tasks().GetByID(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestTaskListByUser_OrderedByDate(t *testing.T) {
	db := newTestDB(t)
	ana := createTestUser(t, db.Users(), "ana")
	bia := createTestUser(t, db.Users(), "bia")

	createTestTask(t, db, ana.ID, "later", "2026-04-03")
	createTestTask(t, db, ana.ID, "first", "2026-04-01")
	createTestTask(t, db, bia.ID, "not mine", "2026-04-01")
	createTestTask(t, db, ana.ID, "second", "2026-04-01")

	tasks, err := db.Tasks().ListByUser(context.Background(), ana.ID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}

	want := []string{"first", "second", "later"}
	if len(tasks) != len(want) {
		t.Fatalf("ListByUser() returned %d tasks, want %d", len(tasks), len(want))
	}
	for i, w := range want {
		if tasks[i].Description != w {
			t.Errorf("tasks[%d] = %q, want %q", i, tasks[i].Description, w)
		}
	}
}

// =========================================================================
// COMPLETION
// =========================================================================

func TestTaskMarkCompleted_OnlyOnce(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db.Users(), "ana")
	task := createTestTask(t, db, user.ID, "x", "2026-04-01")

	ok, err := db.Tasks().MarkCompleted(ctx, task.ID, user.ID, time.Now())
	if err != nil || !ok {
		t.Fatalf("first MarkCompleted() = %v, %v; want true, nil", ok, err)
	}

	ok, err = db.Tasks().MarkCompleted(ctx, task.ID, user.ID, time.Now())
	if err != nil {
		t.Fatalf("second MarkCompleted() error = %v", err)
	}
	if ok {
		t.Error("second MarkCompleted() should report false")
	}

	got, _ := db.Tasks().GetByID(ctx, task.ID)
	if !got.Completed || got.CompletedAt == nil {
		t.Errorf("task not stored as completed: %+v", got)
	}
}

func TestTaskMarkCompleted_WrongOwner(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db.Users(), "ana")
	other := createTestUser(t, db.Users(), "bia")
	task := createTestTask(t, db, owner.ID, "x", "2026-04-01")

	ok, err := db.Tasks().MarkCompleted(ctx, task.ID, other.ID, time.Now())
	if err != nil {
		t.Fatalf("MarkCompleted() error = %v", err)
	}
	if ok {
		t.Error("MarkCompleted() by non-owner should report false")
	}

	got, _ := db.Tasks().GetByID(ctx, task.ID)
	if got.Completed {
		t.Error("task must stay open")
	}
}

func TestTaskCountCompleted(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db.Users(), "ana")
	a := createTestTask(t, db, user.ID, "a", "2026-04-01")
	b := createTestTask(t, db, user.ID, "b", "2026-04-01")
	createTestTask(t, db, user.ID, "c", "2026-04-01")

	for _, id := range []string{a.ID, b.ID} {
		if _, err := db.Tasks().MarkCompleted(ctx, id, user.ID, time.Now()); err != nil {
			t.Fatalf("MarkCompleted() error = %v", err)
		}
	}

	n, err := db.Tasks().CountCompleted(ctx, user.ID)
	if err != nil {
		t.Fatalf("CountCompleted() error = %v", err)
	}
	if n != 2 {
		t.Errorf("CountCompleted() = %d, want 2", n)
	}
}
