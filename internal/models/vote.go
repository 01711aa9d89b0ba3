package models

import (
	"strings"
	"time"
)

// VoteType is the direction of a single vote.
type VoteType string

const (
	Upvote   VoteType = "upvote"
	Downvote VoteType = "downvote"
)

// ParseVoteType accepts "upvote" or "downvote" in any casing.
func ParseVoteType(s string) (VoteType, error) {
	switch VoteType(strings.ToLower(strings.TrimSpace(s))) {
	case Upvote:
		return Upvote, nil
	case Downvote:
		return Downvote, nil
	}
	return "", Invalidf("invalid vote type %q", s)
}

// Weight is the vote's contribution to an idea's score.
func (t VoteType) Weight() int {
	switch t {
	case Upvote:
		return 1
	case Downvote:
		return -1
	}
	return 0
}

// ScoreDelta is the change to an idea's score when a voter moves from prev
// (nil if they had not voted) to next.
func ScoreDelta(prev *VoteType, next VoteType) int {
	if prev == nil {
		return next.Weight()
	}
	return next.Weight() - prev.Weight()
}

// Vote is one ledger entry; there is at most one per (idea, user).
type Vote struct {
	ID        VoteID    `json:"id"`
	IdeaID    IdeaID    `json:"ideaId"`
	UserID    UserID    `json:"userId"`
	Type      VoteType  `json:"voteType"`
	CreatedAt time.Time `json:"createdAt"`
}

// VoteOutcome describes what a cast did to the ledger.
type VoteOutcome string

const (
	VoteCreated   VoteOutcome = "created"
	VoteSwitched  VoteOutcome = "switched"
	VoteUnchanged VoteOutcome = "unchanged"
)

// VoteResult is returned from casting a vote.
type VoteResult struct {
	Outcome   VoteOutcome `json:"outcome"`
	Vote      Vote        `json:"vote"`
	VoteScore int         `json:"voteScore"`
}
