package models

import "github.com/google/uuid"

// UserID identifies a user record.
type UserID string

// IdeaID identifies an idea record.
type IdeaID string

// VoteID identifies a single ledger entry.
type VoteID string

// CommentID identifies a comment record.
type CommentID string

// EventID identifies a moderation/audit event.
type EventID string

func NewUserID() UserID       { return UserID(uuid.NewString()) }
func NewIdeaID() IdeaID       { return IdeaID(uuid.NewString()) }
func NewVoteID() VoteID       { return VoteID(uuid.NewString()) }
func NewCommentID() CommentID { return CommentID(uuid.NewString()) }
func NewEventID() EventID     { return EventID(uuid.NewString()) }

func (id UserID) String() string    { return string(id) }
func (id IdeaID) String() string    { return string(id) }
func (id VoteID) String() string    { return string(id) }
func (id CommentID) String() string { return string(id) }
func (id EventID) String() string   { return string(id) }
