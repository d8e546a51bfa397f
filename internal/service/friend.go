package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/taskquest/internal/apperror"
	"github.com/sakif/taskquest/internal/game"
	"github.com/sakif/taskquest/internal/model"
	"github.com/sakif/taskquest/internal/repository"
)

// FriendService sends and answers friend requests and lists friends.
//
// A friendship is one row with a sender, a receiver and a status:
//
//	pending ──accept──▶ accepted
//	   │                   ▲ │
//	 reject             accept reject
//	   ▼                   │ ▼
//	rejected ◀─────────────┘
//
// Only the receiver answers, and an answer can be changed later.
type FriendService struct {
	store repository.Store
	deps  Deps
}

func NewFriendService(store repository.Store, deps Deps) *FriendService {
	return &FriendService{store: store, deps: deps.withDefaults()}
}

// SendRequest asks receiverID to become senderID's friend.
//
// Asking yourself is a validation error and an unknown receiver is
// apperror.ErrNotFound. Repeating a request that is still pending is a
// no-op: it reports created=false and stores nothing.
func (s *FriendService) SendRequest(ctx context.Context, senderID, receiverID string) (created bool, err error) {
	if err := game.ValidateRequest(senderID, receiverID); err != nil {
		return false, err
	}

	if _, err := s.store.Users().GetByID(ctx, receiverID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return false, err
		}
		return false, fmt.Errorf("service/friend: fetching receiver %s: %w", receiverID, err)
	}

	f := &model.Friendship{SenderID: senderID, ReceiverID: receiverID}
	created, err = s.store.Friendships().CreatePending(ctx, f)
	if err != nil {
		return false, fmt.Errorf("service/friend: %w", err)
	}

	if created {
		s.deps.Logger.Info("friend request sent",
			slog.String("requestID", f.ID),
			slog.String("senderID", senderID),
			slog.String("receiverID", receiverID),
		)
	}
	return created, nil
}

// Respond accepts or rejects request requestID on behalf of responderID.
// Anyone but the receiver gets apperror.ErrForbidden.
func (s *FriendService) Respond(ctx context.Context, responderID, requestID string, accept bool) (*model.Friendship, error) {
	var out *model.Friendship
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		f, err := tx.Friendships().GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if err := game.Respond(f, responderID, accept, s.deps.Clock().UTC()); err != nil {
			return err
		}
		if err := tx.Friendships().UpdateStatus(ctx, f); err != nil {
			return err
		}
		out = f
		return nil
	})
	if err != nil {
		if apperror.IsSilent(err) {
			return nil, err
		}
		return nil, fmt.Errorf("service/friend: answering request %s: %w", requestID, err)
	}

	s.deps.Logger.Info("friend request answered",
		slog.String("requestID", requestID),
		slog.String("status", string(out.Status)),
	)
	return out, nil
}

// FriendIDs returns the IDs of userID's accepted friends.
func (s *FriendService) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.store.Friendships().ListAccepted(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/friend: listing friendships for %s: %w", userID, err)
	}
	return game.FriendIDs(rows, userID), nil
}

// Friends returns userID's accepted friends in the order they became
// friends.
func (s *FriendService) Friends(ctx context.Context, userID string) ([]model.User, error) {
	ids, err := s.FriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	friends := make([]model.User, 0, len(ids))
	for _, id := range ids {
		u, err := s.store.Users().GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("service/friend: fetching friend %s: %w", id, err)
		}
		friends = append(friends, *u)
	}
	return friends, nil
}

// Pending lists the requests waiting for userID's answer.
func (s *FriendService) Pending(ctx context.Context, userID string) ([]model.FriendRequest, error) {
	reqs, err := s.store.Friendships().ListPendingFor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/friend: listing requests for %s: %w", userID, err)
	}
	return reqs, nil
}
