// Package sqlite implements the repository interfaces on top of SQLite.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite: no CGo, no C compiler, cross
// compilation just works. The database is a single file next to the binary
// (or ":memory:" in tests).
//
// LAYOUT:
// DB owns the connection pool and hands out one small store per table:
//
//	db.Users()        → *UserDB
//	db.Tasks()        → *TaskDB
//	db.Achievements() → *AchievementDB
//	db.Friendships()  → *FriendshipDB
//
// Every store talks to a querier, which is either the pool itself or an open
// transaction. InTx builds a second DB bound to a *sql.Tx, so code written
// against repository.Store runs unchanged inside or outside a transaction.
//
// SCHEMA:
// Tables are created by goose from the embedded migrations/ directory when
// the database is opened. Uniqueness rules (one grant per user and
// achievement, one pending request per sender and receiver) live in the
// schema, not in read-then-insert checks.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/taskquest/internal/repository"
)

//go:embed migrations/*.sql
var migrations embed.FS

// querier is the subset of *sql.DB and *sql.Tx the stores use.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps a sql.DB connection pool and implements repository.Store.
type DB struct {
	conn *sql.DB
	q    querier
	inTx bool
}

var _ repository.Store = (*DB)(nil)

// New opens the database at dbPath and brings the schema up to date.
//
// dbPath examples:
//   - "data/taskquest.db" → file-based database (persistent)
//   - ":memory:"          → in-memory database, one per DB value
//
// PRAGMAS:
// Pragmas are passed in the DSN so that every pooled connection gets them,
// not just the first one. Foreign keys are off by default in SQLite; the
// busy timeout makes concurrent writers wait instead of failing at once.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Each connection to ":memory:" is a separate, empty database. Pin the
	// pool to one connection so every query sees the migrated schema.
	if isMemory(dbPath) {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return &DB{conn: conn, q: conn}, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// SchemaVersion returns the newest applied migration.
func (db *DB) SchemaVersion() (int64, error) {
	v, err := goose.GetDBVersion(db.conn)
	if err != nil {
		return 0, fmt.Errorf("sqlite: reading schema version: %w", err)
	}
	return v, nil
}

func (db *DB) Users() repository.UserRepository { return &UserDB{q: db.q} }

func (db *DB) Tasks() repository.TaskRepository { return &TaskDB{q: db.q} }

func (db *DB) Achievements() repository.AchievementRepository { return &AchievementDB{q: db.q} }

func (db *DB) Friendships() repository.FriendshipRepository { return &FriendshipDB{q: db.q} }

// InTx runs fn inside a transaction. Calling InTx on a DB that is already
// bound to a transaction just runs fn in that same transaction.
//
// A panic inside fn rolls the transaction back before it propagates.
func (db *DB) InTx(ctx context.Context, fn func(tx repository.Store) error) (err error) {
	if db.inTx {
		return fn(db)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = fn(&DB{conn: db.conn, q: tx, inTx: true}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

func migrate(conn *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(conn, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}

func isMemory(dbPath string) bool {
	return dbPath == ":memory:" || strings.HasPrefix(dbPath, "file::memory:")
}

// dsn appends the driver options every connection needs. _time_format=sqlite
// stores time.Time values in SQLite's own text layout so they sort and parse
// back cleanly.
func dsn(dbPath string) string {
	params := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
		"_time_format=sqlite",
	}
	if !isMemory(dbPath) {
		params = append(params, "_pragma=journal_mode(WAL)", "_txlock=immediate")
	}

	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + strings.Join(params, "&")
}

// isUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY
// constraint.
func isUniqueViolation(err error) bool {
	var se *moderncsqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// nullString maps "" to NULL for optional text columns.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
