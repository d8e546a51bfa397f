package game

import (
	"time"

	"github.com/sakif/taskquest/internal/apperror"
	"github.com/sakif/taskquest/internal/model"
)

// ValidateRequest checks a new friend request before it is stored. Asking
// yourself is the only request refused outright; duplicates are handled by
// the pending-request unique index.
func ValidateRequest(senderID, receiverID string) error {
	if senderID == receiverID {
		return apperror.ValidationFailed("userID", "cannot send a friend request to yourself")
	}
	return nil
}

// Respond moves a request to accepted or rejected on behalf of responderID.
//
// Only the receiver may answer. There is no guard on the current status: an
// accepted request can be rejected later and vice versa.
func Respond(f *model.Friendship, responderID string, accept bool, now time.Time) error {
	if f.ReceiverID != responderID {
		return apperror.Forbidden("only the receiver can answer a friend request")
	}

	if accept {
		f.Status = model.FriendshipAccepted
	} else {
		f.Status = model.FriendshipRejected
	}
	f.RespondedAt = &now
	return nil
}

// OtherSide returns the participant of f that is not userID.
func OtherSide(f model.Friendship, userID string) string {
	if f.SenderID == userID {
		return f.ReceiverID
	}
	return f.SenderID
}

// FriendIDs derives the friend set of userID from its friendship rows. Only
// accepted rows count, in either direction. Duplicate rows and self-links
// are tolerated and collapsed; the result keeps first-seen order.
func FriendIDs(rows []model.Friendship, userID string) []string {
	seen := make(map[string]bool)
	var ids []string

	for _, f := range rows {
		if f.Status != model.FriendshipAccepted {
			continue
		}
		if f.SenderID != userID && f.ReceiverID != userID {
			continue
		}
		other := OtherSide(f, userID)
		if other == userID || seen[other] {
			continue
		}
		seen[other] = true
		ids = append(ids, other)
	}

	return ids
}
