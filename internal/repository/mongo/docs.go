package mongo

import (
	"time"

	"github.com/isdelr/civic-ideas-be/internal/models"
)

type userDoc struct {
	ID             string    `bson:"_id"`
	Email          string    `bson:"email"`
	FullName       string    `bson:"full_name"`
	HashedPassword string    `bson:"hashed_password"`
	IsAdmin        bool      `bson:"is_admin"`
	CreatedAt      time.Time `bson:"created_at"`
}

func newUserDoc(u *models.User) userDoc {
	return userDoc{
		ID:             u.ID.String(),
		Email:          u.Email,
		FullName:       u.FullName,
		HashedPassword: u.PasswordHash,
		IsAdmin:        u.IsAdmin,
		CreatedAt:      u.CreatedAt,
	}
}

func (d userDoc) model() (*models.User, error) {
	if d.ID == "" || d.Email == "" {
		return nil, models.Invalidf("stored user %q is missing required fields", d.ID)
	}
	return &models.User{
		ID:           models.UserID(d.ID),
		Email:        d.Email,
		FullName:     d.FullName,
		PasswordHash: d.HashedPassword,
		IsAdmin:      d.IsAdmin,
		CreatedAt:    d.CreatedAt,
	}, nil
}

type ideaDoc struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	Category    string    `bson:"category"`
	Location    string    `bson:"location"`
	Latitude    *float64  `bson:"latitude"`
	Longitude   *float64  `bson:"longitude"`
	CreatorID   string    `bson:"creator_id"`
	CreatorName string    `bson:"creator_name"`
	Status      string    `bson:"status"`
	VoteScore   int       `bson:"vote_score"`
	CreatedAt   time.Time `bson:"created_at"`
}

func newIdeaDoc(i *models.Idea) ideaDoc {
	return ideaDoc{
		ID:          i.ID.String(),
		Title:       i.Title,
		Description: i.Description,
		Category:    string(i.Category),
		Location:    i.Location,
		Latitude:    i.Latitude,
		Longitude:   i.Longitude,
		CreatorID:   i.CreatorID.String(),
		CreatorName: i.CreatorName,
		Status:      string(i.Status),
		VoteScore:   i.VoteScore,
		CreatedAt:   i.CreatedAt,
	}
}

func (d ideaDoc) model() (*models.Idea, error) {
	category, err := models.ParseCategory(d.Category)
	if err != nil {
		return nil, models.Invalidf("stored idea %s: %v", d.ID, err)
	}
	status, err := models.ParseStatus(d.Status)
	if err != nil {
		return nil, models.Invalidf("stored idea %s: %v", d.ID, err)
	}
	idea := &models.Idea{
		ID:          models.IdeaID(d.ID),
		Title:       d.Title,
		Description: d.Description,
		Category:    category,
		Location:    d.Location,
		CreatorID:   models.UserID(d.CreatorID),
		CreatorName: d.CreatorName,
		Status:      status,
		VoteScore:   d.VoteScore,
		CreatedAt:   d.CreatedAt,
	}
	if d.Latitude != nil && d.Longitude != nil {
		idea.SetCoordinates(&models.Coordinates{Latitude: *d.Latitude, Longitude: *d.Longitude})
	}
	return idea, nil
}

type voteDoc struct {
	ID        string    `bson:"_id"`
	IdeaID    string    `bson:"idea_id"`
	UserID    string    `bson:"user_id"`
	VoteType  string    `bson:"vote_type"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d voteDoc) model() (*models.Vote, error) {
	vt, err := models.ParseVoteType(d.VoteType)
	if err != nil {
		return nil, models.Invalidf("stored vote %s: %v", d.ID, err)
	}
	return &models.Vote{
		ID:        models.VoteID(d.ID),
		IdeaID:    models.IdeaID(d.IdeaID),
		UserID:    models.UserID(d.UserID),
		Type:      vt,
		CreatedAt: d.CreatedAt,
	}, nil
}

type commentDoc struct {
	ID        string    `bson:"_id"`
	IdeaID    string    `bson:"idea_id"`
	UserID    string    `bson:"user_id"`
	UserName  string    `bson:"user_name"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"created_at"`
}

type eventDoc struct {
	ID        string    `bson:"_id"`
	Type      string    `bson:"type"`
	Level     string    `bson:"level"`
	Message   string    `bson:"message"`
	IdeaID    *string   `bson:"idea_id,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}
