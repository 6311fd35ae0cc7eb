package session

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/juntas/pkg/adapter"
	"github.com/m-mizutani/juntas/pkg/model"
	"github.com/m-mizutani/juntas/pkg/utils/logging"
)

// StorageKey is the local store key holding the serialized session
const StorageKey = "juntas_v3_session"

// Holder persists the single logged-in identity of this machine
type Holder struct {
	kv adapter.LocalStore
}

func New(kv adapter.LocalStore) *Holder {
	return &Holder{kv: kv}
}

// Load returns the stored session, or nil when there is none. A value that
// cannot be decoded is treated as absent.
func (h *Holder) Load(ctx context.Context) (*model.Session, error) {
	raw, ok, err := h.kv.Get(StorageKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read session")
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var s model.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil || s.Name == "" {
		logging.From(ctx).Warn("ignore corrupt session value", "key", StorageKey, "error", err)
		return nil, nil
	}
	return &s, nil
}

// Save overwrites the stored session
func (h *Holder) Save(ctx context.Context, s *model.Session) error {
	if s == nil {
		return goerr.New("session is nil")
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return goerr.Wrap(err, "failed to encode session")
	}
	if err := h.kv.Set(StorageKey, string(raw)); err != nil {
		return goerr.Wrap(err, "failed to write session", goerr.V("name", s.Name))
	}

	logging.From(ctx).Debug("session saved", "name", s.Name)
	return nil
}
