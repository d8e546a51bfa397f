package service

import (
	"context"
	"fmt"

	"github.com/sakif/taskquest/internal/game"
	"github.com/sakif/taskquest/internal/model"
	"github.com/sakif/taskquest/internal/repository"
)

// RankingService builds the leaderboards shown on /ranking.
type RankingService struct {
	store   repository.Store
	friends *FriendService
}

func NewRankingService(store repository.Store, friends *FriendService) *RankingService {
	return &RankingService{store: store, friends: friends}
}

// Global ranks every player by XP.
func (s *RankingService) Global(ctx context.Context) ([]model.RankedUser, error) {
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/ranking: listing users: %w", err)
	}
	return game.Rank(users), nil
}

// Top returns the first limit entries of the global ranking. A limit of zero
// or less returns everything.
func (s *RankingService) Top(ctx context.Context, limit int) ([]model.RankedUser, error) {
	ranked, err := s.Global(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// Friends ranks userID's accepted friends. The viewer is not part of the
// list.
func (s *RankingService) Friends(ctx context.Context, userID string) ([]model.RankedUser, error) {
	ids, err := s.friends.FriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/ranking: listing users: %w", err)
	}
	return game.RankFriends(users, ids, userID), nil
}
