package game

import (
	"sort"

	"github.com/sakif/taskquest/internal/model"
)

// Rank orders users by XP, highest first, and numbers them from 1.
//
// The sort is stable, so users with equal XP keep the order they came in.
// The repository returns users in insertion order, which makes ties go to
// whoever registered first.
func Rank(users []model.User) []model.RankedUser {
	sorted := make([]model.User, len(users))
	copy(sorted, users)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].XP > sorted[j].XP
	})

	out := make([]model.RankedUser, len(sorted))
	for i, u := range sorted {
		out[i] = model.RankedUser{
			Position: i + 1,
			UserID:   u.ID,
			Name:     u.Name,
			XP:       u.XP,
			Level:    u.Level,
		}
	}
	return out
}

// RankFriends ranks only the users whose IDs appear in friendIDs. The viewer
// is never included, even if a self-friendship row slipped in.
func RankFriends(users []model.User, friendIDs []string, viewerID string) []model.RankedUser {
	allowed := make(map[string]bool, len(friendIDs))
	for _, id := range friendIDs {
		if id != viewerID {
			allowed[id] = true
		}
	}

	var friends []model.User
	for _, u := range users {
		if allowed[u.ID] {
			friends = append(friends, u)
		}
	}
	return Rank(friends)
}
