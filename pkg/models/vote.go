package models

import (
	"fmt"
	"time"
)

// ReactionType is a closed enum; a voter may hold each type independently on
// the same request.
type ReactionType string

const (
	ReactionUpvote ReactionType = "upvote"
	ReactionLike   ReactionType = "like"
)

// ParseReactionType validates raw input against the closed reaction set.
func ParseReactionType(raw string) (ReactionType, error) {
	switch ReactionType(raw) {
	case ReactionUpvote:
		return ReactionUpvote, nil
	case ReactionLike:
		return ReactionLike, nil
	}
	return "", fmt.Errorf("unknown reaction type %q", raw)
}

// Vote is one voter's reaction of one type on one request.
// (request_id, voter_id, reaction_type) is unique; toggling deletes or
// inserts, never updates.
type Vote struct {
	ID           string       `json:"id" db:"id"`
	TenantID     string       `json:"tenant_id" db:"tenant_id"`
	RequestID    string       `json:"request_id" db:"request_id"`
	VoterID      string       `json:"voter_id" db:"voter_id"`
	ReactionType ReactionType `json:"reaction_type" db:"reaction_type"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}

// ToggleVoteRequest is the payload for the vote toggle endpoint.
type ToggleVoteRequest struct {
	Type string `json:"type" validate:"required,oneof=upvote like"`
}

// VoteAggregate is the authoritative post-toggle state the client reconciles
// against.
type VoteAggregate struct {
	RequestID      string         `json:"request_id"`
	Upvotes        int            `json:"upvotes"`
	Likes          int            `json:"likes"`
	VoterReactions []ReactionType `json:"voter_reactions"`
}

// HasReaction reports whether the aggregate includes the given type for the
// calling voter.
func (a VoteAggregate) HasReaction(t ReactionType) bool {
	for _, r := range a.VoterReactions {
		if r == t {
			return true
		}
	}
	return false
}
