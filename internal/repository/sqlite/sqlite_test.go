package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/sakif/taskquest/internal/model"
	"github.com/sakif/taskquest/internal/repository"
)

func TestNew_AppliesMigrations(t *testing.T) {
	db := newTestDB(t)

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if v < 4 {
		t.Errorf("SchemaVersion() = %d, want at least 4", v)
	}
}

func TestNew_FileDatabaseReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskquest.db")

	db, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	createTestUser(t, db.Users(), "ana")
	db.Close()

	// Reopening runs goose again; already-applied migrations are skipped.
	db, err = New(path)
	if err != nil {
		t.Fatalf("New() on existing file error = %v", err)
	}
	defer db.Close()

	users, err := db.Users().List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 1 {
		t.Errorf("List() = %d users after reopen, want 1", len(users))
	}
}

func TestInTx_Commits(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	var id string
	err := db.InTx(ctx, func(tx repository.Store) error {
		u := &model.User{Name: "ana", Email: "ana@example.com"}
		if err := tx.Users().Create(ctx, u); err != nil {
			return err
		}
		id = u.ID
		return nil
	})
	if err != nil {
		t.Fatalf("InTx() error = %v", err)
	}

	if _, err := db.Users().GetByID(ctx, id); err != nil {
		t.Errorf("committed user not visible: %v", err)
	}
}

func TestInTx_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.InTx(ctx, func(tx repository.Store) error {
		u := &model.User{Name: "ana", Email: "ana@example.com"}
		if err := tx.Users().Create(ctx, u); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx() error = %v, want boom", err)
	}

	users, _ := db.Users().List(ctx)
	if len(users) != 0 {
		t.Errorf("rolled-back insert is visible: %d users", len(users))
	}
}

func TestInTx_Nested(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.InTx(ctx, func(tx repository.Store) error {
		return tx.InTx(ctx, func(inner repository.Store) error {
			return inner.Users().Create(ctx, &model.User{Name: "ana", Email: "ana@example.com"})
		})
	})
	if err != nil {
		t.Fatalf("nested InTx() error = %v", err)
	}

	users, _ := db.Users().List(ctx)
	if len(users) != 1 {
		t.Errorf("List() = %d users, want 1", len(users))
	}
}

func TestDSN(t *testing.T) {
	if got := dsn(":memory:"); got != ":memory:?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite" {
		t.Errorf("dsn(:memory:) = %q", got)
	}

	got := dsn("data/app.db?mode=rwc")
	want := "data/app.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite&_pragma=journal_mode(WAL)&_txlock=immediate"
	if got != want {
		t.Errorf("dsn(file) = %q, want %q", got, want)
	}
}
