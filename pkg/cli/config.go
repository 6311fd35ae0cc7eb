package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/juntas/pkg/adapter"
	"github.com/m-mizutani/juntas/pkg/repository"
	"github.com/m-mizutani/juntas/pkg/usecase/enrich"
	"github.com/m-mizutani/juntas/pkg/usecase/session"
	"github.com/m-mizutani/juntas/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const (
	backendFirestore = "firestore"
	backendMemory    = "memory"
)

// config holds configuration values
type config struct {
	// Repository
	backend    string
	project    string
	database   string
	collection string

	// Adapters
	geminiAPIKey   string
	geminiProject  string
	geminiLocation string
	geminiModel    string
	photoBucket    string

	// Session
	sessionFile string
	username    string
	password    string
	displayName string
}

// logConfig holds the root logging flags
type logConfig struct {
	level  string
	format string
}

func logFlags(lc *logConfig) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Aliases:     []string{"l"},
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("JUNTAS_LOG_LEVEL"),
			Destination: &lc.level,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Value:       string(logging.FormatConsole),
			Sources:     cli.EnvVars("JUNTAS_LOG_FORMAT"),
			Destination: &lc.format,
		},
	}
}

func (lc *logConfig) logger() *slog.Logger {
	return logging.NewWithFormat(lc.level, logging.Format(lc.format), os.Stderr)
}

// repositoryFlags returns flags of the memory store with destination config
func repositoryFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "backend",
			Usage:       "Memory store backend (firestore, memory)",
			Value:       backendFirestore,
			Sources:     cli.EnvVars("JUNTAS_BACKEND"),
			Destination: &cfg.backend,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "collection",
			Usage:       "Firestore collection of memories",
			Value:       repository.DefaultCollection,
			Sources:     cli.EnvVars("JUNTAS_COLLECTION"),
			Destination: &cfg.collection,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini Developer API key",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini on Vertex AI",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model used for enrichment",
			Value:       adapter.DefaultGenerativeModel,
			Sources:     cli.EnvVars("GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
	}
}

func storageFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "photo-bucket",
			Usage:       "Cloud Storage bucket for memory photos; upload is disabled when empty",
			Sources:     cli.EnvVars("JUNTAS_PHOTO_BUCKET"),
			Destination: &cfg.photoBucket,
		},
	}
}

func sessionFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "session-file",
			Usage:       "Local storage file holding the session (default: user config dir)",
			Sources:     cli.EnvVars("JUNTAS_SESSION_FILE"),
			Destination: &cfg.sessionFile,
		},
		&cli.StringFlag{
			Name:        "username",
			Usage:       "Login name",
			Value:       session.DefaultUsername,
			Sources:     cli.EnvVars("JUNTAS_USERNAME"),
			Destination: &cfg.username,
		},
		&cli.StringFlag{
			Name:        "password",
			Usage:       "Login password; no login succeeds when empty",
			Sources:     cli.EnvVars("JUNTAS_PASSWORD"),
			Destination: &cfg.password,
		},
		&cli.StringFlag{
			Name:        "display-name",
			Usage:       "Name recorded as the author of memories",
			Value:       "Leo",
			Sources:     cli.EnvVars("JUNTAS_DISPLAY_NAME"),
			Destination: &cfg.displayName,
		},
	}
}

// newRepository creates the memory store. A missing or broken Firestore
// configuration degrades to the unavailable store instead of failing.
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, func(), error) {
	nop := func() {}

	switch cfg.backend {
	case backendMemory:
		return repository.NewMemory(), nop, nil

	case backendFirestore, "":
		if cfg.project == "" {
			logging.From(ctx).Warn("no project configured, memory store is unavailable")
			return repository.NewUnavailable(), nop, nil
		}

		repo, err := repository.New(ctx, cfg.project, cfg.database, repository.WithCollection(cfg.collection))
		if err != nil {
			logging.From(ctx).Error("memory store is unavailable", "error", err)
			return repository.NewUnavailable(), nop, nil
		}
		return repo, func() {
			if err := repo.Close(); err != nil {
				logging.From(ctx).Warn("failed to close firestore client", "error", err)
			}
		}, nil

	default:
		return nil, nil, goerr.New("unknown backend", goerr.V("backend", cfg.backend))
	}
}

// newGemini creates a new Gemini adapter instance. Without any Gemini
// configuration it returns nil and enrichment falls back to defaults.
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	opt := adapter.WithGenerativeModel(cfg.geminiModel)

	switch {
	case cfg.geminiAPIKey != "":
		return adapter.NewGeminiWithAPIKey(ctx, cfg.geminiAPIKey, opt)

	case cfg.geminiProject != "":
		if cfg.geminiLocation == "" {
			return nil, goerr.New("gemini-location is required")
		}
		return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation, opt)

	default:
		logging.From(ctx).Warn("gemini is not configured, enrichment uses fallbacks")
		return nil, nil
	}
}

func (cfg *config) newEnricher(ctx context.Context) (*enrich.UseCase, error) {
	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client")
	}
	return enrich.New(gemini), nil
}

// newStorage opens the photo bucket, or returns nil when no bucket is
// configured
func (cfg *config) newStorage(ctx context.Context) (*adapter.PhotoBucket, error) {
	if cfg.photoBucket == "" {
		return nil, nil
	}

	storage, err := adapter.NewStorage(ctx, cfg.photoBucket)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return storage, nil
}

func (cfg *config) newSessionHolder() (*session.Holder, error) {
	kv, err := adapter.NewFileStore(cfg.sessionFile)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open local store")
	}
	return session.New(kv), nil
}

func (cfg *config) credentials() session.Credentials {
	return session.Credentials{
		Username:    cfg.username,
		Password:    cfg.password,
		DisplayName: cfg.displayName,
	}
}
