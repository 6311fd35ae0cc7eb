package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Category is the kind of experience a memory records. The value is the
// display label, which is also what is persisted.
type Category string

const (
	CategoryHomeCooking  Category = "Cocina en casa"
	CategoryBarbecue     Category = "Asado"
	CategoryBoardGames   Category = "Juegos de mesa"
	CategoryMovieNight   Category = "Día de Película"
	CategoryBeach        Category = "Playa"
	CategoryRoadTrip     Category = "Roadtrip"
	CategorySpecialEvent Category = "Evento especial"
	CategoryFlight       Category = "Viaje en avión"
)

const stampBaseURL = "https://gabboggie.com/wp-content/uploads/2026/01/"

// CategoryStyle is the fixed look of a category stamp
type CategoryStyle struct {
	Key   string
	Color string
	Image string
}

var categoryStyles = map[Category]CategoryStyle{
	CategoryHomeCooking:  {Key: "cocina", Color: "#FB923C", Image: stampBaseURL + "stamp_cocina.png"},
	CategoryBarbecue:     {Key: "asado", Color: "#8B4513", Image: stampBaseURL + "stamp_asado.png"},
	CategoryBoardGames:   {Key: "juegos", Color: "#EF4444", Image: stampBaseURL + "stamp_boardg.png"},
	CategoryMovieNight:   {Key: "cine", Color: "#6B7280", Image: stampBaseURL + "stamp_movie.png"},
	CategoryBeach:        {Key: "playa", Color: "#FBBF24", Image: stampBaseURL + "stamp_playa.png"},
	CategoryRoadTrip:     {Key: "roadtrip", Color: "#4ADE80", Image: stampBaseURL + "stamp_roadtrip.png"},
	CategorySpecialEvent: {Key: "evento", Color: "#A78BFA", Image: stampBaseURL + "stamp_special.png"},
	CategoryFlight:       {Key: "avion", Color: "#38BDF8", Image: stampBaseURL + "stamp_viajeavion.png"},
}

// Categories returns every category in form display order
func Categories() []Category {
	return []Category{
		CategoryHomeCooking,
		CategoryBarbecue,
		CategoryBoardGames,
		CategoryMovieNight,
		CategoryBeach,
		CategoryRoadTrip,
		CategorySpecialEvent,
		CategoryFlight,
	}
}

// Validate checks if the category is one of the known set
func (c Category) Validate() error {
	if _, ok := categoryStyles[c]; !ok {
		return goerr.Wrap(ErrInvalidCategory, "unknown category", goerr.V("category", c))
	}
	return nil
}

// Style returns the fixed color and badge image of the category
func (c Category) Style() (CategoryStyle, bool) {
	s, ok := categoryStyles[c]
	return s, ok
}

// ParseCategory accepts a display label or a short key such as "playa"
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories() {
		if string(c) == s || strings.EqualFold(categoryStyles[c].Key, s) {
			return c, nil
		}
	}
	return "", goerr.Wrap(ErrInvalidCategory, "unknown category", goerr.V("category", s))
}
