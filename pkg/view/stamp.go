package view

import (
	"time"

	"github.com/m-mizutani/juntas/pkg/model"
)

// Size is the rendered size of a stamp badge
type Size string

const (
	SizeXS Size = "xs"
	SizeSM Size = "sm"
	SizeMD Size = "md"
	SizeLG Size = "lg"
)

var sizeClasses = map[Size]string{
	SizeXS: "w-10 h-10",
	SizeSM: "w-16 h-16",
	SizeMD: "w-24 h-24",
	SizeLG: "w-48 h-48",
}

// shortMonths follows the es-ES short month names
var shortMonths = [12]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"}

// Stamp is the badge of a category. The template shows Image and falls back
// to a text badge with a Color border when the image fails to load.
type Stamp struct {
	Label     string `json:"label"`
	Image     string `json:"image"`
	Color     string `json:"color"`
	SizeClass string `json:"sizeClass"`
	// DateLabel is set only for large stamps with a date
	DateLabel string `json:"dateLabel,omitempty"`
}

// NewStamp builds the badge of category. ok is false for an unknown
// category, which renders nothing.
func NewStamp(category model.Category, size Size, date string) (Stamp, bool) {
	style, ok := category.Style()
	if !ok {
		return Stamp{}, false
	}

	class, ok := sizeClasses[size]
	if !ok {
		class = sizeClasses[SizeMD]
	}

	s := Stamp{
		Label:     string(category),
		Image:     style.Image,
		Color:     style.Color,
		SizeClass: class,
	}
	if size == SizeLG && date != "" {
		s.DateLabel = MonthYear(date)
	}
	return s, true
}

// MonthYear formats YYYY-MM-DD as "jul 2024". A malformed date is returned
// as is.
func MonthYear(date string) string {
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return date
	}
	return shortMonths[t.Month()-1] + " " + t.Format("2006")
}

// ShortDate formats YYYY-MM-DD as d/m/yyyy
func ShortDate(date string) string {
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("2/1/2006")
}
