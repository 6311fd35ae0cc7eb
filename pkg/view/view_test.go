package view_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/juntas/pkg/model"
	"github.com/m-mizutani/juntas/pkg/usecase/journal"
	"github.com/m-mizutani/juntas/pkg/view"
)

func TestNewStamp(t *testing.T) {
	t.Run("large with date", func(t *testing.T) {
		s, ok := view.NewStamp(model.CategoryBeach, view.SizeLG, "2024-07-01")
		gt.True(t, ok)
		gt.Equal(t, s.Label, "Playa")
		gt.Equal(t, s.Color, "#FBBF24")
		gt.S(t, s.Image).Contains("stamp_playa.png")
		gt.Equal(t, s.SizeClass, "w-48 h-48")
		gt.Equal(t, s.DateLabel, "jul 2024")
	})

	t.Run("date only on large stamps", func(t *testing.T) {
		s, ok := view.NewStamp(model.CategoryFlight, view.SizeMD, "2024-07-01")
		gt.True(t, ok)
		gt.Equal(t, s.SizeClass, "w-24 h-24")
		gt.Equal(t, s.DateLabel, "")
	})

	t.Run("unknown category", func(t *testing.T) {
		_, ok := view.NewStamp(model.Category("Picnic"), view.SizeSM, "")
		gt.False(t, ok)
	})
}

func TestDateLabels(t *testing.T) {
	gt.Equal(t, view.MonthYear("2023-09-15"), "sept 2023")
	gt.Equal(t, view.MonthYear("2024-01-02"), "ene 2024")
	gt.Equal(t, view.MonthYear("ayer"), "ayer")
	gt.Equal(t, view.ShortDate("2024-07-01"), "1/7/2024")
	gt.Equal(t, view.ShortDate("2024-12-25"), "25/12/2024")
}

func TestMapPins(t *testing.T) {
	memories := []*model.Memory{
		{ID: "a", Title: "Playa", Category: model.CategoryBeach, Coordinates: &model.Coordinates{Lat: -38.0, Lng: -57.5}},
		{ID: "b", Title: "Sin mapa", Category: model.CategoryBarbecue},
		{ID: "c", Title: "Vuelo", Category: model.CategoryFlight, Coordinates: &model.Coordinates{Lat: 40.4, Lng: -3.7}},
		{ID: "d", Title: "Raro", Category: model.Category("?"), Coordinates: &model.Coordinates{Lat: 0, Lng: 0}},
	}

	pins := view.MapPins(memories)
	gt.A(t, pins).Length(3)
	gt.Equal(t, pins[0], view.Pin{ID: "a", Lat: -38.0, Lng: -57.5, Color: "#FBBF24", Title: "Playa"})
	gt.Equal(t, pins[1].ID, model.MemoryID("c"))
	gt.Equal(t, pins[2].Color, "#000")

	b := view.FitBounds(pins)
	gt.V(t, b).NotNil()
	gt.Equal(t, *b, view.Bounds{South: -38.0, West: -57.5, North: 40.4, East: 0, Padding: 50})
}

func TestFitBoundsEmpty(t *testing.T) {
	gt.V(t, view.FitBounds(nil)).Nil()
	gt.V(t, view.FitBounds(view.MapPins([]*model.Memory{{ID: "x"}}))).Nil()
}

func TestCardsAndDetail(t *testing.T) {
	m := &model.Memory{
		ID:           "m1",
		Title:        "Pizza casera",
		Category:     model.CategoryHomeCooking,
		Date:         "2024-03-09",
		LocationName: "Córdoba",
		CreatedBy:    "Leo",
	}

	cards := view.Cards([]*model.Memory{m})
	gt.A(t, cards).Length(1)
	gt.Equal(t, cards[0].Title, "Pizza casera")
	gt.Equal(t, cards[0].DateLabel, "9/3/2024")
	gt.Equal(t, cards[0].Stamp.SizeClass, "w-24 h-24")

	d := view.NewDetail(m)
	gt.Equal(t, d.Note, view.DefaultNote)
	gt.Equal(t, d.CreatedBy, "Leo")
	gt.Equal(t, d.Stamp.DateLabel, "mar 2024")
	gt.V(t, view.NewDetail(nil)).Nil()
}

func TestNewPage(t *testing.T) {
	beach := &model.Memory{ID: "p", Title: "Playa", Category: model.CategoryBeach, Date: "2024-07-01",
		Coordinates: &model.Coordinates{Lat: -38.0, Lng: -57.5}}

	t.Run("detail over map", func(t *testing.T) {
		page := view.NewPage(journal.State{
			Screen:   journal.ScreenDetail,
			ListView: journal.ScreenMap,
			Session:  &model.Session{Name: "Leo"},
			Memories: []*model.Memory{beach},
			Selected: beach,
			Version:  7,
		})
		gt.Equal(t, page.UserName, "Leo")
		gt.A(t, page.Cards).Length(1)
		gt.A(t, page.Pins).Length(1)
		gt.V(t, page.Bounds).NotNil()
		gt.Equal(t, page.Detail.ID, model.MemoryID("p"))
		gt.True(t, page.Shows(journal.ScreenMap))
		gt.False(t, page.Shows(journal.ScreenPassport))
		gt.A(t, page.Categories).Length(0)
	})

	t.Run("add-form", func(t *testing.T) {
		draft := model.Draft{Category: model.CategoryRoadTrip, Date: "2024-07-02"}
		page := view.NewPage(journal.State{Screen: journal.ScreenAddForm, Draft: &draft})
		gt.A(t, page.Categories).Length(len(model.Categories()))
		gt.Equal(t, page.DraftStamp.Label, "Roadtrip")

		selected := 0
		for _, c := range page.Categories {
			if c.Selected {
				selected++
				gt.Equal(t, c.Value, "Roadtrip")
			}
		}
		gt.Equal(t, selected, 1)
		gt.V(t, page.Bounds).Nil()
	})
}
