package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/juntas/pkg/model"
	"github.com/urfave/cli/v3"
)

func watchCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "watch",
		Usage: "Print every snapshot of the journal until interrupted",
		Flags: repositoryFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			repo, closeRepo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			snapshots := make(chan []*model.Memory, 8)
			unsubscribe := repo.SubscribeMemories(ctx, func(memories []*model.Memory) {
				select {
				case snapshots <- memories:
				case <-ctx.Done():
				}
			})
			defer unsubscribe()

			for {
				select {
				case <-ctx.Done():
					return nil
				case memories := <-snapshots:
					fmt.Fprintf(c.Root().Writer, "--- %s: %d memories\n", time.Now().Format(time.TimeOnly), len(memories))
					printMemories(c, memories)
				}
			}
		},
	}
}
