package cli

import (
	"context"

	"github.com/m-mizutani/juntas/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	var lc logConfig

	cmd := &cli.Command{
		Name:  "juntas",
		Usage: "Shared memory journal: passport stamps and a map of our moments",
		Flags: logFlags(&lc),
		Commands: []*cli.Command{
			serveCommand(),
			loginCommand(),
			listCommand(),
			addCommand(),
			deleteCommand(),
			watchCommand(),
			geocodeCommand(),
			suggestCommand(),
			mcpCommand(),
		},
	}

	for _, sub := range cmd.Commands {
		sub.Action = withLogger(&lc, sub.Action)
	}

	if err := cmd.Run(ctx, argv); err != nil {
		logging.Default().Error("command failed", "error", err)
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}

// withLogger installs the logger configured by the root flags before action
func withLogger(lc *logConfig, action cli.ActionFunc) cli.ActionFunc {
	if action == nil {
		return nil
	}
	return func(ctx context.Context, c *cli.Command) error {
		logger := lc.logger()
		logging.SetDefault(logger)
		return action(logging.With(ctx, logger), c)
	}
}
