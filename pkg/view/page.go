package view

import (
	"github.com/m-mizutani/juntas/pkg/model"
	"github.com/m-mizutani/juntas/pkg/usecase/journal"
)

// CategoryOption is one entry of the add-form category select
type CategoryOption struct {
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

// Page is everything a renderer needs for one version of the state
type Page struct {
	Screen   journal.Screen `json:"screen"`
	ListView journal.Screen `json:"listView"`
	UserName string         `json:"userName,omitempty"`
	Notice   string         `json:"notice,omitempty"`
	Busy     journal.Busy   `json:"busy"`
	Version  uint64         `json:"version"`

	Cards  []Card  `json:"cards"`
	Pins   []Pin   `json:"pins"`
	Bounds *Bounds `json:"bounds"`
	Detail *Detail `json:"detail,omitempty"`

	Draft      *model.Draft     `json:"draft,omitempty"`
	DraftStamp *Stamp           `json:"draftStamp,omitempty"`
	Categories []CategoryOption `json:"categories,omitempty"`
}

// NewPage derives the render model from a journal state. Pins and bounds
// are recomputed from the full list every time.
func NewPage(st journal.State) *Page {
	pins := MapPins(st.Memories)
	p := &Page{
		Screen:   st.Screen,
		ListView: st.ListView,
		Notice:   st.Notice,
		Busy:     st.Busy,
		Version:  st.Version,
		Cards:    Cards(st.Memories),
		Pins:     pins,
		Bounds:   FitBounds(pins),
		Detail:   NewDetail(st.Selected),
		Draft:    st.Draft,
	}
	if st.Session != nil {
		p.UserName = st.Session.Name
	}

	if st.Draft != nil {
		if s, ok := NewStamp(st.Draft.Category, SizeLG, ""); ok {
			p.DraftStamp = &s
		}
		for _, c := range model.Categories() {
			p.Categories = append(p.Categories, CategoryOption{
				Value:    string(c),
				Selected: c == st.Draft.Category,
			})
		}
	}
	return p
}

// Shows reports whether the list under the modal is the given screen
func (p *Page) Shows(screen journal.Screen) bool {
	if p.Screen == journal.ScreenDetail {
		return p.ListView == screen
	}
	return p.Screen == screen
}
