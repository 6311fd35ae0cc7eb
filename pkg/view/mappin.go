package view

import "github.com/m-mizutani/juntas/pkg/model"

// Map defaults used while no pin is placed
const (
	DefaultCenterLat = 20.0
	DefaultCenterLng = 0.0
	DefaultZoom      = 2
	BoundsPadding    = 50
	fallbackPinColor = "#000"
)

// Pin is one map marker
type Pin struct {
	ID    model.MemoryID `json:"id"`
	Lat   float64        `json:"lat"`
	Lng   float64        `json:"lng"`
	Color string         `json:"color"`
	Title string         `json:"title"`
}

// Bounds is the box the map fits to, with padding in pixels
type Bounds struct {
	South   float64 `json:"south"`
	West    float64 `json:"west"`
	North   float64 `json:"north"`
	East    float64 `json:"east"`
	Padding int     `json:"padding"`
}

// MapPins returns one pin per memory with resolved coordinates
func MapPins(memories []*model.Memory) []Pin {
	pins := make([]Pin, 0, len(memories))
	for _, m := range memories {
		if !m.HasCoordinates() {
			continue
		}
		color := fallbackPinColor
		if style, ok := m.Category.Style(); ok {
			color = style.Color
		}
		pins = append(pins, Pin{
			ID:    m.ID,
			Lat:   m.Coordinates.Lat,
			Lng:   m.Coordinates.Lng,
			Color: color,
			Title: m.Title,
		})
	}
	return pins
}

// FitBounds returns the box enclosing every pin, or nil when there is none
// and the map stays at its default view.
func FitBounds(pins []Pin) *Bounds {
	if len(pins) == 0 {
		return nil
	}

	b := &Bounds{
		South:   pins[0].Lat,
		North:   pins[0].Lat,
		West:    pins[0].Lng,
		East:    pins[0].Lng,
		Padding: BoundsPadding,
	}
	for _, p := range pins[1:] {
		b.South = min(b.South, p.Lat)
		b.North = max(b.North, p.Lat)
		b.West = min(b.West, p.Lng)
		b.East = max(b.East, p.Lng)
	}
	return b
}
