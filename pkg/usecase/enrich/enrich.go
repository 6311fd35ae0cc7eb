package enrich

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"math"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/juntas/pkg/adapter"
	"github.com/m-mizutani/juntas/pkg/model"
	"github.com/m-mizutani/juntas/pkg/utils/logging"
	"google.golang.org/genai"
)

//go:embed prompt/coordinates.md
var coordinatesPromptRaw string

//go:embed prompt/note.md
var notePromptRaw string

var (
	coordinatesPromptTmpl = template.Must(template.New("coordinates").Parse(coordinatesPromptRaw))
	notePromptTmpl        = template.Must(template.New("note").Parse(notePromptRaw))
)

const (
	// FallbackNoteOnError is used when the note request fails
	FallbackNoteOnError = "Un día más en nuestra historia."
	// FallbackNoteOnEmpty is used when the service answers with no text
	FallbackNoteOnEmpty = "Un momento inolvidable juntas."
)

// UseCase resolves coordinates and drafts notes through Gemini. Every call is
// a single request: no retry, no cache.
type UseCase struct {
	gemini adapter.Gemini
}

// New creates an enrichment UseCase. A nil gemini makes every call fail
// over to its fallback value.
func New(gemini adapter.Gemini) *UseCase {
	return &UseCase{gemini: gemini}
}

// ResolveCoordinates geocodes a free-text location. It returns nil on any
// failure.
func (u *UseCase) ResolveCoordinates(ctx context.Context, location string) *model.Coordinates {
	coords, err := u.resolveCoordinates(ctx, location)
	if err != nil {
		logging.From(ctx).Warn("coordinate enrichment failed", "location", location, "error", err)
		return nil
	}
	return coords
}

func (u *UseCase) resolveCoordinates(ctx context.Context, location string) (*model.Coordinates, error) {
	if u.gemini == nil {
		return nil, goerr.Wrap(model.ErrEnrichmentFailed, "gemini is not configured")
	}

	var buf bytes.Buffer
	if err := coordinatesPromptTmpl.Execute(&buf, map[string]any{"Location": location}); err != nil {
		return nil, goerr.Wrap(err, "failed to execute coordinates prompt template")
	}

	schema, err := toGenaiSchema(coordinatesSchema)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	contents := []*genai.Content{genai.NewContentFromText(buf.String(), genai.RoleUser)}

	resp, err := u.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		return nil, goerr.Wrap(model.ErrEnrichmentFailed, "coordinates request failed", goerr.V("cause", err.Error()))
	}

	return parseCoordinates(adapter.ResponseText(resp))
}

// parseCoordinates accepts only a JSON object with finite, in-range lat/lng
func parseCoordinates(text string) (*model.Coordinates, error) {
	var raw struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &raw); err != nil {
		return nil, goerr.Wrap(model.ErrEnrichmentFailed, "coordinates response is not JSON", goerr.V("text", text))
	}
	if raw.Lat == nil || raw.Lng == nil {
		return nil, goerr.Wrap(model.ErrEnrichmentFailed, "coordinates response lacks lat/lng", goerr.V("text", text))
	}

	lat, lng := *raw.Lat, *raw.Lng
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) ||
		math.Abs(lat) > 90 || math.Abs(lng) > 180 {
		return nil, goerr.Wrap(model.ErrEnrichmentFailed, "coordinates out of range",
			goerr.V("lat", lat), goerr.V("lng", lng))
	}

	return &model.Coordinates{Lat: lat, Lng: lng}, nil
}

// SuggestNote drafts a short note for a memory. It always returns a usable
// string.
func (u *UseCase) SuggestNote(ctx context.Context, title string, category model.Category) string {
	if u.gemini == nil {
		logging.From(ctx).Warn("note enrichment skipped", "reason", "gemini is not configured")
		return FallbackNoteOnError
	}

	var buf bytes.Buffer
	if err := notePromptTmpl.Execute(&buf, map[string]any{"Title": title, "Category": string(category)}); err != nil {
		logging.From(ctx).Warn("failed to build note prompt", "error", err)
		return FallbackNoteOnError
	}

	contents := []*genai.Content{genai.NewContentFromText(buf.String(), genai.RoleUser)}
	resp, err := u.gemini.GenerateContent(ctx, contents, nil)
	if err != nil {
		logging.From(ctx).Warn("note enrichment failed", "title", title, "error", err)
		return FallbackNoteOnError
	}

	note := strings.TrimSpace(adapter.ResponseText(resp))
	if note == "" {
		return FallbackNoteOnEmpty
	}
	return note
}
