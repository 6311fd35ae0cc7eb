package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/juntas/pkg/service/mcp"
	"github.com/m-mizutani/juntas/pkg/utils/logging"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v3"
)

func mcpCommand() *cli.Command {
	var cfg config

	var flags []cli.Flag
	flags = append(flags, repositoryFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, sessionFlags(&cfg)...)

	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the journal as MCP tools over stdio",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, closeRepo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			enricher, err := cfg.newEnricher(ctx)
			if err != nil {
				return err
			}

			holder, err := cfg.newSessionHolder()
			if err != nil {
				return err
			}

			logging.From(ctx).Info("mcp server started on stdio")
			server := mcp.NewServer(repo, enricher, holder)
			if err := server.Run(ctx, &mcpsdk.StdioTransport{}); err != nil {
				return goerr.Wrap(err, "mcp server stopped")
			}
			return nil
		},
	}
}
