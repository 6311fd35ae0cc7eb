package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/juntas/pkg/model"
	"github.com/urfave/cli/v3"
)

func listCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "list",
		Usage: "List all memories, newest date first",
		Flags: repositoryFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, closeRepo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			memories, err := repo.ListMemories(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to list memories")
			}

			printMemories(c, memories)
			return nil
		},
	}
}

func printMemories(c *cli.Command, memories []*model.Memory) {
	w := c.Root().Writer
	if len(memories) == 0 {
		fmt.Fprintln(w, "Bitácora vacía...")
		return
	}

	for _, m := range memories {
		coords := "-"
		if m.HasCoordinates() {
			coords = fmt.Sprintf("%.4f,%.4f", m.Coordinates.Lat, m.Coordinates.Lng)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", m.ID, m.Date, m.Category, m.Title, m.LocationName, coords)
	}
}
