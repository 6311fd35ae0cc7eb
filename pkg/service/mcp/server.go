package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/juntas/pkg/model"
	"github.com/m-mizutani/juntas/pkg/repository"
	"github.com/m-mizutani/juntas/pkg/utils/logging"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Enricher resolves coordinates and drafts notes
type Enricher interface {
	ResolveCoordinates(ctx context.Context, location string) *model.Coordinates
	SuggestNote(ctx context.Context, title string, category model.Category) string
}

// SessionLoader reads the identity recorded as createdBy
type SessionLoader interface {
	Load(ctx context.Context) (*model.Session, error)
}

type handler struct {
	repo     repository.Repository
	enricher Enricher
	sessions SessionLoader
	clock    func() time.Time
	created  model.CreationClock
}

type Option func(*handler)

// WithClock replaces time.Now
func WithClock(clock func() time.Time) Option {
	return func(h *handler) {
		h.clock = clock
	}
}

type listMemoriesParams struct{}

type addMemoryParams struct {
	Title    string `json:"title" jsonschema:"Title of the moment"`
	Category string `json:"category" jsonschema:"Category label or key: cocina, asado, juegos, cine, playa, roadtrip, evento, avion"`
	Date     string `json:"date" jsonschema:"Date as YYYY-MM-DD"`
	Location string `json:"location" jsonschema:"Free-text place, e.g. city and country"`
	Note     string `json:"note,omitempty" jsonschema:"Optional short note"`
}

type deleteMemoryParams struct {
	ID string `json:"id" jsonschema:"ID of the memory to delete"`
}

type suggestNoteParams struct {
	Title    string `json:"title" jsonschema:"Title of the moment"`
	Category string `json:"category" jsonschema:"Category label or key"`
}

// NewServer exposes the journal as MCP tools
func NewServer(repo repository.Repository, enricher Enricher, sessions SessionLoader, opts ...Option) *mcp.Server {
	h := &handler{
		repo:     repo,
		enricher: enricher,
		sessions: sessions,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "juntas",
		Version: "0.1.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_memories",
		Description: "List every memory of the journal, newest date first",
	}, h.listMemories)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_memory",
		Description: "Record a new memory. The location is geocoded automatically.",
	}, h.addMemory)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_memory",
		Description: "Delete a memory by ID",
	}, h.deleteMemory)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "suggest_note",
		Description: "Draft a short note for a memory title",
	}, h.suggestNote)

	return server
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal tool result")
	}
	return textResult(string(raw)), nil
}

func (h *handler) listMemories(ctx context.Context, req *mcp.CallToolRequest, params *listMemoriesParams) (*mcp.CallToolResult, any, error) {
	memories, err := h.repo.ListMemories(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to list memories")
	}
	result, err := jsonResult(memories)
	return result, nil, err
}

func (h *handler) addMemory(ctx context.Context, req *mcp.CallToolRequest, params *addMemoryParams) (*mcp.CallToolResult, any, error) {
	s, err := h.sessions.Load(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to load session")
	}
	if s == nil {
		return nil, nil, goerr.Wrap(model.ErrNotLoggedIn, "run `juntas login` first")
	}

	category, err := model.ParseCategory(params.Category)
	if err != nil {
		return nil, nil, err
	}
	draft := model.Draft{
		Title:        params.Title,
		Category:     category,
		Date:         params.Date,
		LocationName: params.Location,
		Note:         params.Note,
	}
	if err := draft.Validate(); err != nil {
		return nil, nil, err
	}

	coords := h.enricher.ResolveCoordinates(ctx, draft.LocationName)

	// other writers share the collection; stamp above their newest record
	if existing, err := h.repo.ListMemories(ctx); err != nil {
		logging.From(ctx).Warn("failed to read memories before create", "error", err)
	} else {
		h.created.Observe(existing)
	}
	memory := draft.ToMemory(coords, s.Name, h.created.Next(h.clock()))
	id, err := h.repo.CreateMemory(ctx, memory)
	if err != nil {
		return nil, nil, err
	}
	memory.ID = id

	logging.From(ctx).Info("memory created via mcp", "id", id, "geocoded", coords != nil)
	result, err := jsonResult(memory)
	return result, nil, err
}

func (h *handler) deleteMemory(ctx context.Context, req *mcp.CallToolRequest, params *deleteMemoryParams) (*mcp.CallToolResult, any, error) {
	if params.ID == "" {
		return nil, nil, goerr.New("id is required")
	}
	if err := h.repo.DeleteMemory(ctx, model.MemoryID(params.ID)); err != nil {
		return nil, nil, err
	}
	return textResult("deleted " + params.ID), nil, nil
}

func (h *handler) suggestNote(ctx context.Context, req *mcp.CallToolRequest, params *suggestNoteParams) (*mcp.CallToolResult, any, error) {
	if params.Title == "" {
		return nil, nil, goerr.Wrap(model.ErrInvalidDraft, "title is required")
	}
	category, err := model.ParseCategory(params.Category)
	if err != nil {
		return nil, nil, err
	}
	return textResult(h.enricher.SuggestNote(ctx, params.Title, category)), nil, nil
}
