package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/taskquest/internal/apperror"
	"github.com/sakif/taskquest/internal/model"
	"github.com/sakif/taskquest/internal/repository"
)

// UserDB reads and writes the users table.
type UserDB struct {
	q querier
}

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

const userColumns = `id, name, email, password_hash, github_id, xp, level, music_url, autoplay,
	last_login_date, consecutive_login_days, created_at, updated_at`

// Create inserts a new user and fills in ID and timestamps.
//
// Email and github_id are UNIQUE. A collision is reported as
// apperror.ErrConflict so the caller can show "email already registered"
// without a separate existence check.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Level < 1 {
		user.Level = 1
	}

	_, err := u.q.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		nullGitHubID(user.GitHubID),
		user.XP,
		user.Level,
		nullString(user.MusicURL),
		user.Autoplay,
		nullDate(user.LastLoginDate),
		user.ConsecutiveLoginDays,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}

	return nil
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := u.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// GetByEmail looks a user up by email. Emails are stored lower-cased by the
// service layer, so this is an exact match.
func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := u.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return user, nil
}

// GetByGitHubID looks up the account linked to a GitHub identity.
func (u *UserDB) GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	row := u.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE github_id = ?`, githubID)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", fmt.Sprintf("github:%d", githubID))
		}
		return nil, fmt.Errorf("sqlite: getting user by github_id %d: %w", githubID, err)
	}
	return user, nil
}

// Update writes all mutable columns and bumps updated_at.
func (u *UserDB) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	res, err := u.q.ExecContext(ctx,
		`UPDATE users SET
			name = ?, email = ?, password_hash = ?, github_id = ?,
			xp = ?, level = ?, music_url = ?, autoplay = ?,
			last_login_date = ?, consecutive_login_days = ?, updated_at = ?
		 WHERE id = ?`,
		user.Name,
		user.Email,
		user.PasswordHash,
		nullGitHubID(user.GitHubID),
		user.XP,
		user.Level,
		nullString(user.MusicURL),
		user.Autoplay,
		nullDate(user.LastLoginDate),
		user.ConsecutiveLoginDays,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("user", user.ID)
	}
	return nil
}

// List returns every user in registration order (rowid). The ranking code
// relies on this order to break XP ties.
func (u *UserDB) List(ctx context.Context) ([]model.User, error) {
	rows, err := u.q.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user rows: %w", err)
	}

	return users, nil
}

func scanUser(s rowScanner) (*model.User, error) {
	var (
		user      model.User
		githubID  sql.NullInt64
		musicURL  sql.NullString
		lastLogin sql.NullString
	)

	err := s.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&githubID,
		&user.XP,
		&user.Level,
		&musicURL,
		&user.Autoplay,
		&lastLogin,
		&user.ConsecutiveLoginDays,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if githubID.Valid {
		id := githubID.Int64
		user.GitHubID = &id
	}
	user.MusicURL = musicURL.String
	if lastLogin.Valid {
		d, err := time.Parse(model.DateLayout, lastLogin.String)
		if err != nil {
			return nil, fmt.Errorf("parsing last_login_date %q: %w", lastLogin.String, err)
		}
		user.LastLoginDate = &d
	}

	return &user, nil
}

func nullGitHubID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func nullDate(d *time.Time) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Format(model.DateLayout), Valid: true}
}
