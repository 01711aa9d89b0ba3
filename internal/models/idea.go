package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Category groups ideas by the city service they concern.
type Category string

const (
	CategoryWaste          Category = "waste"
	CategoryPotholes       Category = "potholes"
	CategoryHealth         Category = "health"
	CategoryTransport      Category = "transport"
	CategoryParks          Category = "parks"
	CategorySafety         Category = "safety"
	CategoryEnvironment    Category = "environment"
	CategoryInfrastructure Category = "infrastructure"
)

var categories = []Category{
	CategoryWaste, CategoryPotholes, CategoryHealth, CategoryTransport,
	CategoryParks, CategorySafety, CategoryEnvironment, CategoryInfrastructure,
}

// ParseCategory accepts any casing of a known category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range categories {
		if c == known {
			return c, nil
		}
	}
	return "", Invalidf("unknown category %q", s)
}

// Status tracks how far an idea has progressed through the city's workflow.
type Status string

const (
	StatusOpen           Status = "open"
	StatusRead           Status = "read"
	StatusSentToDept     Status = "sent_to_dept"
	StatusWorkInProgress Status = "work_in_progress"
	StatusResolved       Status = "resolved"
)

var statuses = []Status{StatusOpen, StatusRead, StatusSentToDept, StatusWorkInProgress, StatusResolved}

// ParseStatus accepts any casing of a known status.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range statuses {
		if st == known {
			return st, nil
		}
	}
	return "", Invalidf("unknown status %q", s)
}

// Coordinates is a resolved point for an idea's location.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Idea is a civic proposal. VoteScore is a cached projection of the vote ledger.
type Idea struct {
	ID          IdeaID    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Location    string    `json:"location"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	CreatorID   UserID    `json:"creatorId"`
	CreatorName string    `json:"creatorName"`
	Status      Status    `json:"status"`
	VoteScore   int       `json:"voteScore"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SetCoordinates stores c on the idea, clearing both fields when c is nil.
func (i *Idea) SetCoordinates(c *Coordinates) {
	if c == nil {
		i.Latitude, i.Longitude = nil, nil
		return
	}
	lat, lon := c.Latitude, c.Longitude
	i.Latitude, i.Longitude = &lat, &lon
}

const (
	minTitleLength       = 5
	maxTitleLength       = 200
	minDescriptionLength = 10
	maxDescriptionLength = 2000
	maxLocationLength    = 200
)

// NewIdea is the input to idea creation.
type NewIdea struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
}

// Validate checks field constraints and returns the parsed category.
func (n NewIdea) Validate() (Category, error) {
	if err := validateTitle(n.Title); err != nil {
		return "", err
	}
	if err := validateDescription(n.Description); err != nil {
		return "", err
	}
	if err := validateLocation(n.Location); err != nil {
		return "", err
	}
	return ParseCategory(n.Category)
}

// IdeaPatch carries the content fields a creator may change. Nil means "leave as is".
type IdeaPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Location    *string `json:"location,omitempty"`
}

// Empty reports whether the patch would change nothing.
func (p IdeaPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil && p.Location == nil
}

// IdeaUpdate is a validated patch. Only non-nil fields are written; the
// coordinates are written only when Relocated is set.
type IdeaUpdate struct {
	Title       *string
	Description *string
	Category    *Category
	Location    *string
	Relocated   bool
	Coordinates *Coordinates
}

// Relocate records the coordinates resolved for a changed location.
func (u *IdeaUpdate) Relocate(c *Coordinates) {
	u.Relocated = true
	u.Coordinates = c
}

// Changes validates the supplied fields and returns them trimmed and parsed.
func (p IdeaPatch) Changes() (IdeaUpdate, error) {
	var u IdeaUpdate
	if p.Title != nil {
		if err := validateTitle(*p.Title); err != nil {
			return IdeaUpdate{}, err
		}
		title := strings.TrimSpace(*p.Title)
		u.Title = &title
	}
	if p.Description != nil {
		if err := validateDescription(*p.Description); err != nil {
			return IdeaUpdate{}, err
		}
		description := strings.TrimSpace(*p.Description)
		u.Description = &description
	}
	if p.Category != nil {
		c, err := ParseCategory(*p.Category)
		if err != nil {
			return IdeaUpdate{}, err
		}
		u.Category = &c
	}
	if p.Location != nil {
		if err := validateLocation(*p.Location); err != nil {
			return IdeaUpdate{}, err
		}
		location := strings.TrimSpace(*p.Location)
		u.Location = &location
	}
	return u, nil
}

func validateTitle(s string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	if n < minTitleLength || n > maxTitleLength {
		return Invalidf("title must be between %d and %d characters", minTitleLength, maxTitleLength)
	}
	return nil
}

func validateDescription(s string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	if n < minDescriptionLength || n > maxDescriptionLength {
		return Invalidf("description must be between %d and %d characters", minDescriptionLength, maxDescriptionLength)
	}
	return nil
}

func validateLocation(s string) error {
	if utf8.RuneCountInString(strings.TrimSpace(s)) > maxLocationLength {
		return Invalidf("location must be at most %d characters", maxLocationLength)
	}
	return nil
}
