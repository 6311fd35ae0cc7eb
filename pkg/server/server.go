package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/juntas/pkg/adapter"
	"github.com/m-mizutani/juntas/pkg/model"
	"github.com/m-mizutani/juntas/pkg/usecase/journal"
	"github.com/m-mizutani/juntas/pkg/utils/logging"
	"github.com/m-mizutani/juntas/pkg/view"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Server renders the journal in browsers. The journal is shared by every
// browser; the hub tells them when to refetch.
type Server struct {
	journal *journal.Journal
	hub     *Hub
	storage adapter.Storage
	logger  *slog.Logger
}

type Option func(*Server)

// WithStorage enables photo upload
func WithStorage(storage adapter.Storage) Option {
	return func(s *Server) {
		s.storage = storage
	}
}

// WithLogger sets the logger of request handlers
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func New(j *journal.Journal, hub *Hub, opts ...Option) *Server {
	s := &Server{
		journal: j,
		hub:     hub,
		logger:  logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router of the web app
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Get("/healthz", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Get("/ws", s.hub.serveWS)
	r.Get("/api/state", s.handleState)
	r.Get("/photos/*", s.handlePhoto)

	r.Post("/login", s.handleLogin)
	r.Post("/nav/{screen}", s.handleNavigate)
	r.Post("/memories/{id}/select", s.handleSelect)
	r.Post("/detail/dismiss", s.handleDismiss)
	r.Post("/detail/delete", s.handleDelete)
	r.Post("/draft", s.handleDraft)
	r.Post("/notice/dismiss", s.handleDismissNotice)

	return r
}

// ListenAndServe runs the hub and the HTTP server until ctx is canceled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	go s.hub.Run(ctx)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return logging.With(context.Background(), s.logger)
		},
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("journal server started", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return goerr.Wrap(err, "http server stopped", goerr.V("addr", addr))
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return goerr.Wrap(err, "failed to shutdown http server")
	}
	s.logger.Info("journal server stopped")
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ctx := logging.With(r.Context(), s.logger)

		next.ServeHTTP(ww, r.WithContext(ctx))

		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

type pageData struct {
	*view.Page
	PhotoEnabled bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Page:         view.NewPage(s.journal.State()),
		PhotoEnabled: s.storage != nil,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		logging.From(r.Context()).Error("failed to render page", "error", err)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, view.NewPage(s.journal.State()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// back returns the browser to the page; the state carries any notice
func back(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	err := s.journal.Login(r.Context(), r.FormValue("username"), r.FormValue("password"))
	if err != nil && !errors.Is(err, model.ErrInvalidCredential) {
		logging.From(r.Context()).Warn("login failed", "error", err)
	}
	back(w, r)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	screen, err := journal.ParseScreen(chi.URLParam(r, "screen"))
	if err != nil {
		http.Error(w, "unknown screen", http.StatusNotFound)
		return
	}
	if err := s.journal.Navigate(screen); err != nil {
		logging.From(r.Context()).Warn("navigation refused", "screen", screen, "error", err)
	}
	back(w, r)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	id := model.MemoryID(chi.URLParam(r, "id"))
	if err := s.journal.Select(id); err != nil {
		logging.From(r.Context()).Warn("cannot open memory", "id", id, "error", err)
	}
	back(w, r)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	s.journal.Dismiss()
	back(w, r)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	// failures are already shown as a notice
	_ = s.journal.DeleteSelected(r.Context())
	back(w, r)
}

func (s *Server) handleDismissNotice(w http.ResponseWriter, r *http.Request) {
	s.journal.ClearNotice()
	back(w, r)
}

// handleDraft stores the form fields, then runs the requested action
func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := parseForm(r); err != nil {
		logging.From(ctx).Warn("invalid draft form", "error", err)
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	// a stale or replayed post must not leave objects in the bucket
	if s.journal.State().Screen != journal.ScreenAddForm {
		back(w, r)
		return
	}

	photoURL, err := s.receivePhoto(r)
	if err != nil {
		logging.From(ctx).Warn("photo ignored", "error", err)
	}

	err = s.journal.UpdateDraft(func(d *model.Draft) {
		d.Title = r.FormValue("title")
		d.Category = model.Category(r.FormValue("category"))
		d.Date = r.FormValue("date")
		d.LocationName = r.FormValue("location")
		d.Note = r.FormValue("note")
		if photoURL != "" {
			d.PhotoURL = photoURL
		}
	})
	if err != nil {
		back(w, r)
		return
	}

	switch r.FormValue("action") {
	case "suggest":
		// the answer arrives through the hub; the browser is not held
		bg := context.WithoutCancel(ctx)
		go func() {
			_ = s.journal.SuggestNote(bg)
		}()
	case "submit":
		if _, err := s.journal.Submit(ctx); err != nil && errors.Is(err, model.ErrInvalidDraft) {
			writeFormError(w, err)
			return
		}
	}
	back(w, r)
}

func writeFormError(w http.ResponseWriter, err error) {
	http.Error(w, "Completa título, fecha y ubicación: "+err.Error(), http.StatusBadRequest)
}
