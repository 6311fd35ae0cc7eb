package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/juntas/pkg/server"
	"github.com/m-mizutani/juntas/pkg/usecase/journal"
	"github.com/m-mizutani/juntas/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	var (
		cfg  config
		addr string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Aliases:     []string{"a"},
			Usage:       "Listen address of the web app",
			Value:       "127.0.0.1:8080",
			Sources:     cli.EnvVars("JUNTAS_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, repositoryFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)
	flags = append(flags, sessionFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the journal as a web app",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Initialize dependencies
			repo, closeRepo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			enricher, err := cfg.newEnricher(ctx)
			if err != nil {
				return err
			}

			storage, err := cfg.newStorage(ctx)
			if err != nil {
				return err
			}
			if storage != nil {
				defer func() {
					if err := storage.Close(); err != nil {
						logging.From(ctx).Warn("failed to close storage client", "error", err)
					}
				}()
			}

			holder, err := cfg.newSessionHolder()
			if err != nil {
				return err
			}

			hub := server.NewHub()
			j := journal.New(repo, enricher, holder, cfg.credentials(),
				journal.WithOnChange(func(st journal.State) {
					hub.Publish(st.Version)
				}),
			)
			defer j.Close()

			if err := j.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start journal")
			}

			opts := []server.Option{server.WithLogger(logging.From(ctx))}
			if storage != nil {
				opts = append(opts, server.WithStorage(storage))
			}

			return server.New(j, hub, opts...).ListenAndServe(ctx, addr)
		},
	}
}
