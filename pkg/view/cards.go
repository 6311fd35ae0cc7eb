package view

import "github.com/m-mizutani/juntas/pkg/model"

// DefaultNote is shown in the detail modal when a memory has no note
const DefaultNote = "Un día más juntas."

// Card is one stamp card of the passport grid
type Card struct {
	ID        model.MemoryID `json:"id"`
	Title     string         `json:"title"`
	DateLabel string         `json:"dateLabel"`
	Stamp     *Stamp         `json:"stamp,omitempty"`
}

// Cards builds the passport grid in the order of memories
func Cards(memories []*model.Memory) []Card {
	cards := make([]Card, 0, len(memories))
	for _, m := range memories {
		c := Card{
			ID:        m.ID,
			Title:     m.Title,
			DateLabel: ShortDate(m.Date),
		}
		if s, ok := NewStamp(m.Category, SizeMD, ""); ok {
			c.Stamp = &s
		}
		cards = append(cards, c)
	}
	return cards
}

// Detail is the content of the detail modal
type Detail struct {
	ID           model.MemoryID `json:"id"`
	Title        string         `json:"title"`
	Note         string         `json:"note"`
	LocationName string         `json:"locationName"`
	CreatedBy    string         `json:"createdBy"`
	PhotoURL     string         `json:"photoUrl,omitempty"`
	Stamp        *Stamp         `json:"stamp,omitempty"`
}

func NewDetail(m *model.Memory) *Detail {
	if m == nil {
		return nil
	}

	d := &Detail{
		ID:           m.ID,
		Title:        m.Title,
		Note:         m.Note,
		LocationName: m.LocationName,
		CreatedBy:    m.CreatedBy,
		PhotoURL:     m.PhotoURL,
	}
	if d.Note == "" {
		d.Note = DefaultNote
	}
	if s, ok := NewStamp(m.Category, SizeLG, m.Date); ok {
		d.Stamp = &s
	}
	return d
}
