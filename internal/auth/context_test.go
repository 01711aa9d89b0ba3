package auth

import (
	"context"
	"testing"

	"github.com/isdelr/civic-ideas-be/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestUserContext(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)

	u := &models.User{ID: "u-9"}
	got, ok := UserFromContext(ContextWithUser(context.Background(), u))
	assert.True(t, ok)
	assert.Same(t, u, got)
}
