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

// FriendshipDB reads and writes the friendships table.
type FriendshipDB struct {
	q querier
}

var _ repository.FriendshipRepository = (*FriendshipDB)(nil)

const friendshipColumns = `id, sender_id, receiver_id, status, created_at, responded_at`

// CreatePending inserts a pending request from f.SenderID to f.ReceiverID.
//
// The partial unique index idx_friendships_pending allows only one pending
// row per (sender, receiver). When one already exists the INSERT does
// nothing and CreatePending reports false. The reverse direction is a
// different key and is not checked.
func (s *FriendshipDB) CreatePending(ctx context.Context, f *model.Friendship) (bool, error) {
	id := xid.New().String()
	now := time.Now().UTC()

	res, err := s.q.ExecContext(ctx,
		`INSERT INTO friendships (id, sender_id, receiver_id, status, created_at)
		 VALUES (?, ?, ?, 'pending', ?)
		 ON CONFLICT DO NOTHING`,
		id, f.SenderID, f.ReceiverID, now,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: creating friend request %s→%s: %w", f.SenderID, f.ReceiverID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	f.ID = id
	f.Status = model.FriendshipPending
	f.CreatedAt = now
	f.RespondedAt = nil
	return true, nil
}

// GetByID returns apperror.ErrNotFound when the request does not exist.
func (s *FriendshipDB) GetByID(ctx context.Context, id string) (*model.Friendship, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+friendshipColumns+` FROM friendships WHERE id = ?`, id)

	f, err := scanFriendship(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("friendship", id)
		}
		return nil, fmt.Errorf("sqlite: getting friendship %s: %w", id, err)
	}
	return f, nil
}

// UpdateStatus persists f.Status and f.RespondedAt. Answers only ever move a
// row to accepted or rejected, so the pending-pair index cannot fire here.
func (s *FriendshipDB) UpdateStatus(ctx context.Context, f *model.Friendship) error {
	var respondedAt any
	if f.RespondedAt != nil {
		respondedAt = f.RespondedAt.UTC()
	}

	res, err := s.q.ExecContext(ctx,
		`UPDATE friendships SET status = ?, responded_at = ? WHERE id = ?`,
		string(f.Status), respondedAt, f.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating friendship %s: %w", f.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("friendship", f.ID)
	}
	return nil
}

// ListAccepted returns every accepted row with userID on either side.
func (s *FriendshipDB) ListAccepted(ctx context.Context, userID string) ([]model.Friendship, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+friendshipColumns+` FROM friendships
		 WHERE status = 'accepted' AND (sender_id = ? OR receiver_id = ?)
		 ORDER BY rowid`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing friendships for %s: %w", userID, err)
	}
	defer rows.Close()

	var out []model.Friendship
	for rows.Next() {
		f, err := scanFriendship(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning friendship row: %w", err)
		}
		out = append(out, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating friendship rows: %w", err)
	}
	return out, nil
}

// ListPendingFor returns requests waiting on receiverID, oldest first, with
// the sender's name joined in.
func (s *FriendshipDB) ListPendingFor(ctx context.Context, receiverID string) ([]model.FriendRequest, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT f.id, f.sender_id, f.receiver_id, f.status, f.created_at, f.responded_at, u.name
		 FROM friendships f
		 JOIN users u ON u.id = f.sender_id
		 WHERE f.receiver_id = ? AND f.status = 'pending'
		 ORDER BY f.rowid`,
		receiverID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing pending requests for %s: %w", receiverID, err)
	}
	defer rows.Close()

	var out []model.FriendRequest
	for rows.Next() {
		var (
			req         model.FriendRequest
			status      string
			respondedAt sql.NullTime
		)
		err := rows.Scan(
			&req.ID, &req.SenderID, &req.ReceiverID, &status, &req.CreatedAt, &respondedAt, &req.SenderName,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning pending request: %w", err)
		}
		req.Status = model.FriendshipStatus(status)
		if respondedAt.Valid {
			at := respondedAt.Time
			req.RespondedAt = &at
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating pending requests: %w", err)
	}
	return out, nil
}

func scanFriendship(s rowScanner) (*model.Friendship, error) {
	var (
		f           model.Friendship
		status      string
		respondedAt sql.NullTime
	)
	if err := s.Scan(&f.ID, &f.SenderID, &f.ReceiverID, &status, &f.CreatedAt, &respondedAt); err != nil {
		return nil, err
	}
	f.Status = model.FriendshipStatus(status)
	if respondedAt.Valid {
		at := respondedAt.Time
		f.RespondedAt = &at
	}
	return &f, nil
}
