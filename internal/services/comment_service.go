package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/civic-ideas-be/internal/models"
	"github.com/isdelr/civic-ideas-be/internal/repository"
)

// CommentServiceProvider defines the interface for comment services.
type CommentServiceProvider interface {
	AddComment(ctx context.Context, actor *models.User, ideaID models.IdeaID, content string) (*models.Comment, error)
	ListComments(ctx context.Context, ideaID models.IdeaID) ([]models.Comment, error)
}

// CommentService provides business logic for comments. Comments are
// append-only; they go away only with their idea.
type CommentService struct {
	comments repository.CommentRepository
	ideas    repository.IdeaRepository
	now      func() time.Time
}

// NewCommentService creates a new CommentService.
func NewCommentService(comments repository.CommentRepository, ideas repository.IdeaRepository) *CommentService {
	return &CommentService{comments: comments, ideas: ideas, now: time.Now}
}

// AddComment appends a comment by actor to an existing idea.
func (s *CommentService) AddComment(ctx context.Context, actor *models.User, ideaID models.IdeaID, content string) (*models.Comment, error) {
	if actor == nil {
		return nil, models.Unauthenticated("not authenticated")
	}
	content = strings.TrimSpace(content)
	if err := models.ValidateCommentContent(content); err != nil {
		return nil, err
	}
	if _, err := s.ideas.GetByID(ctx, ideaID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:        models.NewCommentID(),
		IdeaID:    ideaID,
		UserID:    actor.ID,
		UserName:  actor.FullName,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// ListComments returns an idea's comments, oldest first.
func (s *CommentService) ListComments(ctx context.Context, ideaID models.IdeaID) ([]models.Comment, error) {
	if _, err := s.ideas.GetByID(ctx, ideaID); err != nil {
		return nil, err
	}
	return s.comments.ListByIdea(ctx, ideaID)
}
