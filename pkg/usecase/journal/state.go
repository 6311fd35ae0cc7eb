package journal

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/juntas/pkg/model"
)

// Screen is the current navigational view
type Screen string

const (
	ScreenLoading   Screen = "loading"
	ScreenLoggedOut Screen = "login"
	ScreenPassport  Screen = "passport"
	ScreenMap       Screen = "map"
	ScreenAddForm   Screen = "add"
	ScreenDetail    Screen = "detail"
)

// ParseScreen accepts the destinations reachable by navigation
func ParseScreen(s string) (Screen, error) {
	switch Screen(s) {
	case ScreenPassport, ScreenMap, ScreenAddForm:
		return Screen(s), nil
	default:
		return "", goerr.New("unknown navigation target", goerr.V("screen", s))
	}
}

// Notices shown to the user
const (
	NoticeLoginDenied  = "Acceso denegado 🔒"
	NoticeSaveFailed   = "Error al guardar"
	NoticeDeleteFailed = "Error al borrar"
	NoticeTitleMissing = "Escribe un título primero"
)

// Busy flags an in-flight asynchronous operation
type Busy struct {
	Suggesting bool `json:"suggesting"`
	Submitting bool `json:"submitting"`
	Deleting   bool `json:"deleting"`
}

// State is an immutable copy of the application state for renderers.
// Memories and Selected must not be modified.
type State struct {
	Screen Screen `json:"screen"`
	// ListView is the list screen (passport or map) under the detail modal
	ListView Screen          `json:"listView"`
	Session  *model.Session  `json:"session,omitempty"`
	Memories []*model.Memory `json:"memories"`
	Selected *model.Memory   `json:"selected,omitempty"`
	// Draft is nil unless the add-form is open
	Draft   *model.Draft `json:"draft,omitempty"`
	Busy    Busy         `json:"busy"`
	Notice  string       `json:"notice,omitempty"`
	Version uint64       `json:"version"`
}

// LoggedIn reports whether a session is active
func (s State) LoggedIn() bool {
	return s.Session != nil
}
