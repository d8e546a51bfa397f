package model

import "time"

// FriendshipStatus is the lifecycle state of a friend request.
type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipRejected FriendshipStatus = "rejected"
)

// Friendship is a directional friend request from SenderID to ReceiverID.
//
// Two users are friends when an accepted row links them in either direction.
// RespondedAt is set when the receiver accepts or rejects.
type Friendship struct {
	ID          string           `json:"id"`
	SenderID    string           `json:"senderId"`
	ReceiverID  string           `json:"receiverId"`
	Status      FriendshipStatus `json:"status"`
	CreatedAt   time.Time        `json:"createdAt"`
	RespondedAt *time.Time       `json:"respondedAt,omitempty"`
}

// FriendRequest is an incoming pending request with the sender's display name,
// used by the dashboard.
type FriendRequest struct {
	Friendship
	SenderName string `json:"senderName"`
}

// RankedUser is one row of a leaderboard.
type RankedUser struct {
	Position int    `json:"position"`
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	XP       int    `json:"xp"`
	Level    int    `json:"level"`
}
