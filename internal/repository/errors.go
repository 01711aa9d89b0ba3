package repository

import "github.com/isdelr/civic-ideas-be/internal/models"

// Backends return these (possibly wrapped with a more specific message) so
// services can rely on errors.Is regardless of the storage engine.
var (
	ErrNotFound = models.ErrNotFound
	ErrConflict = models.ErrConflict
)
