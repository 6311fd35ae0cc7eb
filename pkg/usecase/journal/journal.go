package journal

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/juntas/pkg/model"
	"github.com/m-mizutani/juntas/pkg/repository"
	"github.com/m-mizutani/juntas/pkg/usecase/session"
	"github.com/m-mizutani/juntas/pkg/utils/logging"
)

// Enricher resolves coordinates and drafts notes. Both calls always return
// a usable value.
type Enricher interface {
	ResolveCoordinates(ctx context.Context, location string) *model.Coordinates
	SuggestNote(ctx context.Context, title string, category model.Category) string
}

// SessionStore persists the logged-in identity
type SessionStore interface {
	Load(ctx context.Context) (*model.Session, error)
	Save(ctx context.Context, s *model.Session) error
}

// Journal owns the application state. The mutex serializes transitions and
// is never held while calling the store, the enricher or the session store.
type Journal struct {
	repo     repository.Repository
	enricher Enricher
	sessions SessionStore
	creds    session.Credentials

	clock     func() time.Time
	observers []func(State)

	mu       sync.Mutex
	screen   Screen
	listView Screen
	session  *model.Session

	// memories and index are replaced together on every snapshot
	memories []*model.Memory
	index    map[model.MemoryID]*model.Memory
	selected model.MemoryID

	draft   model.Draft
	formGen uint64 // 0 while the add-form is closed
	lastGen uint64

	busy    Busy
	notice  string
	version uint64

	subscribed  bool
	subToken    uint64
	unsubscribe repository.Unsubscribe
	closed      bool

	created model.CreationClock
}

type Option func(*Journal)

// WithClock replaces time.Now
func WithClock(clock func() time.Time) Option {
	return func(j *Journal) {
		j.clock = clock
	}
}

// WithNow fixes the clock at t
func WithNow(t time.Time) Option {
	return WithClock(func() time.Time { return t })
}

// WithOnChange registers an observer called after every state change,
// outside the lock
func WithOnChange(fn func(State)) Option {
	return func(j *Journal) {
		j.observers = append(j.observers, fn)
	}
}

func New(repo repository.Repository, enricher Enricher, sessions SessionStore, creds session.Credentials, opts ...Option) *Journal {
	j := &Journal{
		repo:     repo,
		enricher: enricher,
		sessions: sessions,
		creds:    creds,
		clock:    time.Now,
		screen:   ScreenLoading,
		listView: ScreenPassport,
		index:    map[model.MemoryID]*model.Memory{},
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// commitLocked bumps the version and returns the state to publish
func (j *Journal) commitLocked() State {
	j.version++
	return j.stateLocked()
}

func (j *Journal) notify(st State) {
	for _, fn := range j.observers {
		fn(st)
	}
}

// Start reads the stored session once and enters the app
func (j *Journal) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.screen != ScreenLoading || j.closed {
		j.mu.Unlock()
		return goerr.New("journal already started")
	}
	j.mu.Unlock()

	s, err := j.sessions.Load(ctx)
	if err != nil {
		logging.From(ctx).Warn("failed to load session, treat as logged out", "error", err)
		s = nil
	}

	j.mu.Lock()
	if s == nil {
		j.screen = ScreenLoggedOut
	} else {
		j.session = s
		j.screen = ScreenPassport
		j.listView = ScreenPassport
	}
	st := j.commitLocked()
	j.mu.Unlock()
	j.notify(st)

	if s != nil {
		logging.From(ctx).Info("session restored", "name", s.Name)
		j.subscribe(ctx)
	}
	return nil
}

// Login checks the fixed credential pair. A failure leaves the stored
// session untouched.
func (j *Journal) Login(ctx context.Context, username, password string) error {
	j.mu.Lock()
	if j.screen != ScreenLoggedOut {
		j.mu.Unlock()
		return goerr.New("login is not available", goerr.V("screen", j.screen))
	}

	if !j.creds.Verify(username, password) {
		j.notice = NoticeLoginDenied
		st := j.commitLocked()
		j.mu.Unlock()
		j.notify(st)
		return goerr.Wrap(model.ErrInvalidCredential, "login rejected", goerr.V("username", username))
	}

	s := &model.Session{Name: j.creds.Name(), LoginAt: j.clock().UnixMilli()}
	j.session = s
	j.screen = ScreenPassport
	j.listView = ScreenPassport
	j.notice = ""
	st := j.commitLocked()
	j.mu.Unlock()
	j.notify(st)

	if err := j.sessions.Save(ctx, s); err != nil {
		logging.From(ctx).Error("failed to save session", "error", err)
	}
	logging.From(ctx).Info("logged in", "name", s.Name)

	j.subscribe(ctx)
	return nil
}

// subscribe attaches the realtime listener once per journal
func (j *Journal) subscribe(ctx context.Context) {
	// the listener outlives the request that triggered it
	subCtx := context.WithoutCancel(ctx)

	j.mu.Lock()
	if j.closed || j.subscribed {
		j.mu.Unlock()
		return
	}
	j.subscribed = true
	j.subToken++
	token := j.subToken
	j.mu.Unlock()

	unsub := j.repo.SubscribeMemories(subCtx, func(memories []*model.Memory) {
		j.applySnapshot(subCtx, token, memories)
	})

	j.mu.Lock()
	if j.closed || j.subToken != token {
		j.mu.Unlock()
		unsub()
		return
	}
	j.unsubscribe = unsub
	j.mu.Unlock()
}

func (j *Journal) applySnapshot(ctx context.Context, token uint64, memories []*model.Memory) {
	j.created.Observe(memories)
	list := model.CloneMemories(memories)
	model.SortMemories(list)
	index := make(map[model.MemoryID]*model.Memory, len(list))
	for _, m := range list {
		index[m.ID] = m
	}

	j.mu.Lock()
	if j.closed || token != j.subToken {
		j.mu.Unlock()
		logging.From(ctx).Debug("drop stale snapshot", "size", len(memories))
		return
	}

	j.memories = list
	j.index = index
	if j.screen == ScreenDetail {
		if _, ok := index[j.selected]; !ok {
			j.screen = j.listView
			j.selected = ""
		}
	}
	st := j.commitLocked()
	j.mu.Unlock()

	logging.From(ctx).Debug("snapshot applied", "size", len(list), "version", st.Version)
	j.notify(st)
}

// Navigate switches between journal grid, map and add-form
func (j *Journal) Navigate(screen Screen) error {
	if _, err := ParseScreen(string(screen)); err != nil {
		return err
	}

	j.mu.Lock()
	if j.session == nil {
		j.mu.Unlock()
		return goerr.Wrap(model.ErrNotLoggedIn, "cannot navigate", goerr.V("screen", screen))
	}
	if j.screen == screen {
		j.mu.Unlock()
		return nil
	}

	if j.screen == ScreenAddForm {
		j.closeFormLocked()
	}

	switch screen {
	case ScreenAddForm:
		j.lastGen++
		j.formGen = j.lastGen
		j.draft = model.NewDraft(j.clock())
	case ScreenPassport, ScreenMap:
		j.listView = screen
	}
	j.selected = ""
	j.screen = screen
	st := j.commitLocked()
	j.mu.Unlock()

	j.notify(st)
	return nil
}

// closeFormLocked discards the draft and ends the form session
func (j *Journal) closeFormLocked() {
	j.formGen = 0
	j.draft = model.Draft{}
	j.busy.Suggesting = false
	j.busy.Submitting = false
}

// Select opens the detail modal over the current list view
func (j *Journal) Select(id model.MemoryID) error {
	j.mu.Lock()
	if j.session == nil {
		j.mu.Unlock()
		return goerr.Wrap(model.ErrNotLoggedIn, "cannot select memory")
	}
	switch j.screen {
	case ScreenPassport, ScreenMap, ScreenDetail:
	default:
		j.mu.Unlock()
		return goerr.New("no list view is shown", goerr.V("screen", j.screen))
	}
	if _, ok := j.index[id]; !ok {
		j.mu.Unlock()
		return goerr.Wrap(model.ErrMemoryNotFound, "cannot select memory", goerr.V("id", id))
	}

	j.selected = id
	j.screen = ScreenDetail
	st := j.commitLocked()
	j.mu.Unlock()

	j.notify(st)
	return nil
}

// Dismiss closes the detail modal
func (j *Journal) Dismiss() {
	j.mu.Lock()
	if j.screen != ScreenDetail {
		j.mu.Unlock()
		return
	}
	j.screen = j.listView
	j.selected = ""
	st := j.commitLocked()
	j.mu.Unlock()

	j.notify(st)
}

// UpdateDraft edits the open add-form
func (j *Journal) UpdateDraft(fn func(d *model.Draft)) error {
	j.mu.Lock()
	if j.screen != ScreenAddForm {
		j.mu.Unlock()
		return goerr.New("add-form is not open")
	}
	d := j.draft
	fn(&d)
	j.draft = d
	st := j.commitLocked()
	j.mu.Unlock()

	j.notify(st)
	return nil
}

// SuggestNote fills the draft note from the enricher. The answer is dropped
// when the form session it was asked for has ended.
func (j *Journal) SuggestNote(ctx context.Context) error {
	j.mu.Lock()
	if j.screen != ScreenAddForm {
		j.mu.Unlock()
		return goerr.New("add-form is not open")
	}
	title := strings.TrimSpace(j.draft.Title)
	if title == "" {
		j.notice = NoticeTitleMissing
		st := j.commitLocked()
		j.mu.Unlock()
		j.notify(st)
		return goerr.Wrap(model.ErrInvalidDraft, "title is required to suggest a note")
	}
	if j.busy.Suggesting {
		j.mu.Unlock()
		return nil
	}

	gen := j.formGen
	category := j.draft.Category
	j.busy.Suggesting = true
	st := j.commitLocked()
	j.mu.Unlock()
	j.notify(st)

	note := j.enricher.SuggestNote(ctx, title, category)

	j.mu.Lock()
	if j.formGen != gen {
		j.mu.Unlock()
		logging.From(ctx).Debug("discard note of closed form", "title", title)
		return nil
	}
	j.draft.Note = note
	j.busy.Suggesting = false
	st = j.commitLocked()
	j.mu.Unlock()

	j.notify(st)
	return nil
}

// nextCreatedAt returns a strictly increasing epoch ms
func (j *Journal) nextCreatedAt() int64 {
	return j.created.Next(j.clock())
}

// Submit validates the draft, resolves coordinates and creates the memory.
// The new record is not inserted locally; it shows up with the next
// snapshot. The write completes even if the form was closed meanwhile.
func (j *Journal) Submit(ctx context.Context) (model.MemoryID, error) {
	j.mu.Lock()
	if j.screen != ScreenAddForm {
		j.mu.Unlock()
		return "", goerr.New("add-form is not open")
	}
	if j.busy.Submitting {
		j.mu.Unlock()
		return "", goerr.New("submission in progress")
	}
	draft := j.draft
	if err := draft.Validate(); err != nil {
		j.mu.Unlock()
		return "", err
	}
	createdBy := j.session.Name
	gen := j.formGen
	j.busy.Submitting = true
	st := j.commitLocked()
	j.mu.Unlock()
	j.notify(st)

	coords := j.enricher.ResolveCoordinates(ctx, draft.LocationName)
	memory := draft.ToMemory(coords, createdBy, j.nextCreatedAt())
	id, err := j.repo.CreateMemory(ctx, memory)

	j.mu.Lock()
	active := j.formGen == gen
	if active {
		j.busy.Submitting = false
	}
	if err != nil {
		j.notice = NoticeSaveFailed
	} else if active {
		j.closeFormLocked()
		j.screen = ScreenPassport
		j.listView = ScreenPassport
	}
	st = j.commitLocked()
	j.mu.Unlock()
	j.notify(st)

	if err != nil {
		logging.From(ctx).Error("failed to create memory", "title", draft.Title, "error", err)
		return "", err
	}
	logging.From(ctx).Info("memory created", "id", id, "title", draft.Title, "geocoded", coords != nil)
	return id, nil
}

// DeleteSelected deletes the memory shown in the detail modal
func (j *Journal) DeleteSelected(ctx context.Context) error {
	j.mu.Lock()
	if j.screen != ScreenDetail {
		j.mu.Unlock()
		return goerr.New("no memory is selected")
	}
	if j.busy.Deleting {
		j.mu.Unlock()
		return nil
	}
	id := j.selected
	j.busy.Deleting = true
	st := j.commitLocked()
	j.mu.Unlock()
	j.notify(st)

	err := j.repo.DeleteMemory(ctx, id)

	j.mu.Lock()
	j.busy.Deleting = false
	if err != nil {
		j.notice = NoticeDeleteFailed
	} else if j.screen == ScreenDetail && j.selected == id {
		j.screen = j.listView
		j.selected = ""
	}
	st = j.commitLocked()
	j.mu.Unlock()
	j.notify(st)

	if err != nil {
		logging.From(ctx).Error("failed to delete memory", "id", id, "error", err)
		return err
	}
	logging.From(ctx).Info("memory deleted", "id", id)
	return nil
}

// ClearNotice hides the current notice
func (j *Journal) ClearNotice() {
	j.mu.Lock()
	if j.notice == "" {
		j.mu.Unlock()
		return
	}
	j.notice = ""
	st := j.commitLocked()
	j.mu.Unlock()

	j.notify(st)
}

// State returns a copy of the current state
func (j *Journal) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.stateLocked()
}

func (j *Journal) stateLocked() State {
	st := State{
		Screen:   j.screen,
		ListView: j.listView,
		Memories: append([]*model.Memory(nil), j.memories...),
		Busy:     j.busy,
		Notice:   j.notice,
		Version:  j.version,
	}
	if j.session != nil {
		s := *j.session
		st.Session = &s
	}
	if j.screen == ScreenDetail {
		st.Selected = j.index[j.selected]
	}
	if j.screen == ScreenAddForm {
		d := j.draft
		st.Draft = &d
	}
	return st
}

// Close stops the realtime subscription. Snapshots arriving afterwards are
// ignored.
func (j *Journal) Close() {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return
	}
	j.closed = true
	j.subToken++
	unsub := j.unsubscribe
	j.unsubscribe = nil
	j.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}
