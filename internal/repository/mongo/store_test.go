package mongo

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/isdelr/civic-ideas-be/internal/database"
	"github.com/isdelr/civic-ideas-be/internal/models"
	"github.com/isdelr/civic-ideas-be/internal/repository"
	"github.com/isdelr/civic-ideas-be/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore connects to the replica set named by CIVIC_TEST_MONGO_URL and
// uses a throwaway database.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("CIVIC_TEST_MONGO_URL")
	if url == "" {
		t.Skip("CIVIC_TEST_MONGO_URL not set")
	}
	ctx := context.Background()
	client, db, err := database.NewMongo(ctx, url, "civic_test_"+models.NewEventID().String()[:8])
	require.NoError(t, err)
	require.NoError(t, database.EnsureMongoIndexes(ctx, db))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return New(client, db)
}

func seed(t *testing.T, s *Store) (*models.User, *models.Idea) {
	t.Helper()
	ctx := context.Background()
	u := &models.User{
		ID:           models.NewUserID(),
		Email:        "alice@example.com",
		FullName:     "Alice",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, s.Users().Create(ctx, u))
	idea := &models.Idea{
		ID:          models.NewIdeaID(),
		Title:       "Fix the pothole",
		Description: "Big pothole on Main Street",
		Category:    models.CategoryPotholes,
		Location:    "Main Street",
		CreatorID:   u.ID,
		CreatorName: u.FullName,
		Status:      models.StatusRead,
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, s.Ideas().Create(ctx, idea))
	return u, idea
}

func TestMongoUsers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u, _ := seed(t, s)

	got, err := s.Users().GetByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	dup := *u
	dup.ID = models.NewUserID()
	assert.ErrorIs(t, s.Users().Create(ctx, &dup), repository.ErrConflict)

	require.NoError(t, s.Users().SetAdmin(ctx, u.ID, true))
	got, err = s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin)

	_, err = s.Users().GetByID(ctx, models.NewUserID())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMongoVoteLedger(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u, idea := seed(t, s)

	insert := func() error {
		return s.Votes().WithinTx(ctx, func(tx repository.VoteTx) error {
			if err := tx.Insert(&models.Vote{
				ID: models.NewVoteID(), IdeaID: idea.ID, UserID: u.ID,
				Type: models.Upvote, CreatedAt: time.Now().UTC(),
			}); err != nil {
				return err
			}
			return tx.AdjustScore(idea.ID, 1)
		})
	}
	require.NoError(t, insert())
	assert.ErrorIs(t, insert(), repository.ErrConflict)

	got, err := s.Ideas().GetByID(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.VoteScore)

	tallies, err := s.Votes().Tallies(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, tallies[idea.ID])

	require.NoError(t, s.Ideas().Delete(ctx, idea.ID))
	_, err = s.Votes().Find(ctx, idea.ID, u.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMongoCommentNeedsLiveIdea(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u, idea := seed(t, s)

	comment := func() error {
		return s.Comments().Create(ctx, &models.Comment{
			ID: models.NewCommentID(), IdeaID: idea.ID, UserID: u.ID, UserName: u.FullName,
			Content: "Agreed", CreatedAt: time.Now().UTC(),
		})
	}
	require.NoError(t, comment())
	require.NoError(t, s.Ideas().Delete(ctx, idea.ID))
	assert.ErrorIs(t, comment(), repository.ErrNotFound)

	comments, err := s.Comments().ListByIdea(ctx, idea.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestMongoUpdateContentWritesOnlySuppliedFields(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, idea := seed(t, s)

	title := "Fix the big pothole"
	require.NoError(t, s.Ideas().UpdateContent(ctx, idea.ID, models.IdeaUpdate{Title: &title}))
	description := "Now spans both lanes of Main Street"
	update := models.IdeaUpdate{Description: &description}
	update.Relocate(&models.Coordinates{Latitude: 40.7, Longitude: -74})
	require.NoError(t, s.Ideas().UpdateContent(ctx, idea.ID, update))

	got, err := s.Ideas().GetByID(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, title, got.Title)
	assert.Equal(t, description, got.Description)
	assert.Equal(t, idea.Location, got.Location)
	require.NotNil(t, got.Latitude)
	assert.InDelta(t, 40.7, *got.Latitude, 1e-9)

	assert.ErrorIs(t, s.Ideas().UpdateContent(ctx, models.NewIdeaID(), models.IdeaUpdate{Title: &title}), repository.ErrNotFound)
}

func TestMongoConcurrentFirstVotes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u, idea := seed(t, s)
	votes := services.NewVoteService(s.Votes(), s.Ideas(), nil)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := votes.CastVote(ctx, u, idea.ID, "downvote")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := s.Ideas().GetByID(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, -1, got.VoteScore)
	tallies, err := s.Votes().Tallies(ctx)
	require.NoError(t, err)
	assert.Equal(t, -1, tallies[idea.ID])
}
