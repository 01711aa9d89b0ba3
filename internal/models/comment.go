package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

const maxCommentLength = 500

// Comment is an append-only remark on an idea.
type Comment struct {
	ID        CommentID `json:"id"`
	IdeaID    IdeaID    `json:"ideaId"`
	UserID    UserID    `json:"userId"`
	UserName  string    `json:"userName"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// ValidateCommentContent enforces 1..500 characters after trimming.
func ValidateCommentContent(content string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(content))
	if n < 1 || n > maxCommentLength {
		return Invalidf("comment must be between 1 and %d characters", maxCommentLength)
	}
	return nil
}
