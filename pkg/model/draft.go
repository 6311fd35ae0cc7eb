package model

import (
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Draft is the in-progress add-form of a new memory
type Draft struct {
	Title        string   `json:"title"`
	Category     Category `json:"type"`
	Date         string   `json:"date"`
	LocationName string   `json:"locationName"`
	Note         string   `json:"note"`
	PhotoURL     string   `json:"photoUrl,omitempty"`
}

// NewDraft returns an empty form dated today
func NewDraft(now time.Time) Draft {
	return Draft{
		Category: CategoryHomeCooking,
		Date:     now.Format(DateLayout),
	}
}

// Validate checks the fields required before submission. Note and PhotoURL
// are optional.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return goerr.Wrap(ErrInvalidDraft, "title is required")
	}
	if err := d.Category.Validate(); err != nil {
		return goerr.Wrap(ErrInvalidDraft, "invalid category", goerr.V("category", d.Category))
	}
	if _, err := time.Parse(DateLayout, d.Date); err != nil {
		return goerr.Wrap(ErrInvalidDraft, "date must be YYYY-MM-DD", goerr.V("date", d.Date))
	}
	if strings.TrimSpace(d.LocationName) == "" {
		return goerr.Wrap(ErrInvalidDraft, "location is required")
	}
	return nil
}

// ToMemory builds the record to be created from the form. ID is left to
// the store.
func (d Draft) ToMemory(coords *Coordinates, createdBy string, createdAt int64) *Memory {
	return &Memory{
		Title:        d.Title,
		Category:     d.Category,
		Date:         d.Date,
		LocationName: d.LocationName,
		Coordinates:  coords,
		Note:         d.Note,
		PhotoURL:     d.PhotoURL,
		CreatedBy:    createdBy,
		CreatedAt:    createdAt,
	}
}
