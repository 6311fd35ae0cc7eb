package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/juntas/pkg/adapter"
	"github.com/m-mizutani/juntas/pkg/model"
	"github.com/m-mizutani/juntas/pkg/repository"
	"github.com/m-mizutani/juntas/pkg/server"
	"github.com/m-mizutani/juntas/pkg/usecase/journal"
	"github.com/m-mizutani/juntas/pkg/usecase/session"
	"github.com/m-mizutani/juntas/pkg/view"
)

type stubEnricher struct {
	coords *model.Coordinates
}

func (s *stubEnricher) ResolveCoordinates(ctx context.Context, location string) *model.Coordinates {
	return s.coords
}

func (s *stubEnricher) SuggestNote(ctx context.Context, title string, category model.Category) string {
	return "Nota sugerida"
}

// memStorage keeps objects in memory
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

type memObject struct {
	bytes.Buffer
	close func([]byte)
}

func (s *memStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func (o *memObject) Close() error {
	o.close(o.Bytes())
	return nil
}

func (s *memStorage) Put(ctx context.Context, key, contentType string) (io.WriteCloser, error) {
	return &memObject{close: func(data []byte) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.objects[key] = append([]byte(nil), data...)
		s.types[key] = contentType
	}}, nil
}

func (s *memStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, "", goerr.Wrap(model.ErrPhotoNotFound, "object not found", goerr.V("key", key))
	}
	return io.NopCloser(bytes.NewReader(data)), s.types[key], nil
}

type testApp struct {
	url     string
	journal *journal.Journal
	repo    *repository.Memory
	storage *memStorage
	client  *http.Client
}

func setup(t *testing.T, loggedIn bool) *testApp {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	kv, err := adapter.NewFileStore(filepath.Join(t.TempDir(), "local.yaml"))
	gt.NoError(t, err)
	holder := session.New(kv)
	if loggedIn {
		gt.NoError(t, holder.Save(ctx, &model.Session{Name: "Leo", LoginAt: 1}))
	}

	app := &testApp{
		repo:    repository.NewMemory(),
		storage: newMemStorage(),
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}

	hub := server.NewHub()
	creds := session.Credentials{Username: "leo", Password: "Juntas2024", DisplayName: "Leo"}
	app.journal = journal.New(app.repo, &stubEnricher{coords: &model.Coordinates{Lat: -38.0, Lng: -57.5}}, holder, creds,
		journal.WithOnChange(func(st journal.State) { hub.Publish(st.Version) }))
	t.Cleanup(app.journal.Close)
	gt.NoError(t, app.journal.Start(ctx))

	go hub.Run(ctx)
	srv := server.New(app.journal, hub, server.WithStorage(app.storage))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	app.url = ts.URL
	return app
}

func (a *testApp) post(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := a.client.PostForm(a.url+path, form)
	gt.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (a *testApp) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.Get(a.url + path)
	gt.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	gt.NoError(t, err)
	return resp, string(body)
}

func (a *testApp) page(t *testing.T) *view.Page {
	t.Helper()
	resp, body := a.get(t, "/api/state")
	gt.Equal(t, resp.StatusCode, http.StatusOK)
	var page view.Page
	gt.NoError(t, json.Unmarshal([]byte(body), &page))
	return &page
}

func draftForm(action string) url.Values {
	return url.Values{
		"title":    {"Playa"},
		"category": {"Playa"},
		"date":     {"2024-07-01"},
		"location": {"Mar del Plata"},
		"note":     {"Sol y mate"},
		"action":   {action},
	}
}

func TestHealth(t *testing.T) {
	app := setup(t, false)
	resp, body := app.get(t, "/healthz")
	gt.Equal(t, resp.StatusCode, http.StatusOK)
	gt.S(t, body).Contains(`"status":"ok"`)
}

func TestLoginFlow(t *testing.T) {
	app := setup(t, false)

	_, body := app.get(t, "/")
	gt.S(t, body).Contains("Abrir Bitácora")

	resp := app.post(t, "/login", url.Values{"username": {"leo"}, "password": {"nope"}})
	gt.Equal(t, resp.StatusCode, http.StatusSeeOther)
	_, body = app.get(t, "/")
	gt.S(t, body).Contains("Acceso denegado")
	gt.Equal(t, app.journal.State().Screen, journal.ScreenLoggedOut)

	app.post(t, "/notice/dismiss", nil)
	app.post(t, "/login", url.Values{"username": {"Leo"}, "password": {"Juntas2024"}})
	gt.Equal(t, app.journal.State().Screen, journal.ScreenPassport)

	_, body = app.get(t, "/")
	gt.S(t, body).Contains("Bitácora vacía")
	gt.S(t, body).NotContains("Acceso denegado")
}

func TestCreateAndDeleteThroughBrowser(t *testing.T) {
	app := setup(t, true)

	gt.Equal(t, app.post(t, "/nav/add", nil).StatusCode, http.StatusSeeOther)
	_, body := app.get(t, "/")
	gt.S(t, body).Contains("Nuevo Sello")

	gt.Equal(t, app.post(t, "/draft", draftForm("submit")).StatusCode, http.StatusSeeOther)

	page := app.page(t)
	gt.Equal(t, page.Screen, journal.ScreenPassport)
	gt.A(t, page.Cards).Length(1)
	gt.Equal(t, page.Cards[0].DateLabel, "1/7/2024")
	gt.A(t, page.Pins).Length(1)
	gt.Equal(t, page.Pins[0].Lat, -38.0)
	gt.V(t, page.Bounds).NotNil()

	_, body = app.get(t, "/")
	gt.S(t, body).Contains("stampFallback")
	gt.S(t, body).Contains("stamp_playa.png")

	id := page.Cards[0].ID
	app.post(t, "/memories/"+string(id)+"/select", nil)
	_, body = app.get(t, "/")
	gt.S(t, body).Contains("Registrado por Leo")
	gt.S(t, body).Contains("Sol y mate")

	app.post(t, "/detail/delete", nil)
	page = app.page(t)
	gt.A(t, page.Cards).Length(0)
	gt.A(t, page.Pins).Length(0)
	gt.V(t, page.Bounds).Nil()
	gt.V(t, page.Detail).Nil()
}

func TestInvalidDraft(t *testing.T) {
	app := setup(t, true)
	app.post(t, "/nav/add", nil)

	form := draftForm("submit")
	form.Set("location", "")
	resp := app.post(t, "/draft", form)
	gt.Equal(t, resp.StatusCode, http.StatusBadRequest)
	gt.Equal(t, app.journal.State().Screen, journal.ScreenAddForm)
	gt.Equal(t, app.journal.State().Draft.Title, "Playa")
}

func TestUnknownScreen(t *testing.T) {
	app := setup(t, true)
	gt.Equal(t, app.post(t, "/nav/detail", nil).StatusCode, http.StatusNotFound)
}

func TestSuggestRunsInBackground(t *testing.T) {
	app := setup(t, true)
	app.post(t, "/nav/add", nil)
	app.post(t, "/draft", draftForm("suggest"))

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if d := app.journal.State().Draft; d != nil && d.Note == "Nota sugerida" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("suggested note was not applied")
}

func TestWebsocketNotifiesChanges(t *testing.T) {
	app := setup(t, true)

	wsURL := "ws" + strings.TrimPrefix(app.url, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	gt.NoError(t, err)
	defer conn.Close()

	app.post(t, "/nav/map", nil)
	target := app.journal.State().Version

	gt.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg struct {
			Type    string `json:"type"`
			Version uint64 `json:"version"`
		}
		gt.NoError(t, conn.ReadJSON(&msg))
		gt.Equal(t, msg.Type, "state")
		if msg.Version >= target {
			break
		}
	}
}

func postPhoto(t *testing.T, app *testApp, photo []byte) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range draftForm("") {
		gt.NoError(t, mw.WriteField(k, v[0]))
	}
	fw, err := mw.CreateFormFile("photo", "foto.bin")
	gt.NoError(t, err)
	_, err = fw.Write(photo)
	gt.NoError(t, err)
	gt.NoError(t, mw.Close())

	resp, err := app.client.Post(app.url+"/draft", mw.FormDataContentType(), &buf)
	gt.NoError(t, err)
	resp.Body.Close()
	gt.Equal(t, resp.StatusCode, http.StatusSeeOther)
}

func TestPhotoUpload(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

	t.Run("accepts png", func(t *testing.T) {
		app := setup(t, true)
		app.post(t, "/nav/add", nil)
		postPhoto(t, app, png)

		photoURL := app.journal.State().Draft.PhotoURL
		gt.True(t, strings.HasPrefix(photoURL, "/photos/"))
		gt.True(t, strings.HasSuffix(photoURL, ".png"))

		resp, body := app.get(t, photoURL)
		gt.Equal(t, resp.StatusCode, http.StatusOK)
		gt.Equal(t, resp.Header.Get("Content-Type"), "image/png")
		gt.Equal(t, body, string(png))
	})

	t.Run("rejects other content", func(t *testing.T) {
		app := setup(t, true)
		app.post(t, "/nav/add", nil)
		postPhoto(t, app, []byte("#!/bin/sh\necho hola\n"))

		gt.Equal(t, app.journal.State().Draft.PhotoURL, "")
		gt.Equal(t, app.journal.State().Draft.Title, "Playa")
	})

	t.Run("form closed", func(t *testing.T) {
		app := setup(t, true)
		postPhoto(t, app, png)

		gt.Equal(t, app.storage.count(), 0)
		gt.Equal(t, app.journal.State().Screen, journal.ScreenPassport)
	})

	t.Run("missing photo", func(t *testing.T) {
		app := setup(t, true)
		resp, _ := app.get(t, "/photos/nada.png")
		gt.Equal(t, resp.StatusCode, http.StatusNotFound)
	})
}

func TestListenAndServeStopsWithContext(t *testing.T) {
	kv, err := adapter.NewFileStore(filepath.Join(t.TempDir(), "local.yaml"))
	gt.NoError(t, err)
	j := journal.New(repository.NewMemory(), &stubEnricher{}, session.New(kv), session.Credentials{})
	t.Cleanup(j.Close)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.New(j, server.NewHub()).ListenAndServe(ctx, "127.0.0.1:0")
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		gt.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
