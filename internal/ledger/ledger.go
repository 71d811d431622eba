// Package ledger defines the vocabulary of the points ledger: the
// transaction kinds, the fixed reward amount, and the business errors
// every ledger operation can surface. The actual atomic operations live
// in the repository; services and handlers match on these sentinels
// with errors.Is.
package ledger

import "errors"

// RewardAmount is the number of points a topic author grants a reply.
const RewardAmount = 5

// Kind is the type of a point transaction. It is a closed enum: only
// the two values below may ever enter the transaction log.
type Kind string

const (
	KindEarn  Kind = "EARN"
	KindSpend Kind = "SPEND"
)

// Valid reports whether k is one of the two defined kinds.
func (k Kind) Valid() bool {
	return k == KindEarn || k == KindSpend
}

var (
	// ErrAccountNotFound means the referenced user has no points account.
	ErrAccountNotFound = errors.New("points account not found")

	// ErrInvalidAmount means the amount was zero or negative. It is
	// raised before any storage access.
	ErrInvalidAmount = errors.New("amount must be a positive integer")

	// ErrInsufficientFunds means the balance was smaller than the
	// requested spend at the atomic check.
	ErrInsufficientFunds = errors.New("insufficient points")

	// ErrMessageNotFound means the reward target does not exist or does
	// not belong to the given topic.
	ErrMessageNotFound = errors.New("message not found")

	// ErrNotAuthorized means the acting user is not the topic's author.
	ErrNotAuthorized = errors.New("only the topic author may reward replies")

	// ErrAlreadyRewarded means the message has already been rewarded.
	// It is reported distinctly rather than silently succeeding so the
	// caller can tell the user, and so no second credit is ever issued.
	ErrAlreadyRewarded = errors.New("message already rewarded")
)
