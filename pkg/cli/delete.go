package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/juntas/pkg/model"
	"github.com/urfave/cli/v3"
)

func deleteCommand() *cli.Command {
	var (
		cfg config
		id  string
		yes bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "id",
			Usage:       "ID of the memory to delete",
			Destination: &id,
			Required:    true,
		},
		&cli.BoolFlag{
			Name:        "yes",
			Aliases:     []string{"y"},
			Usage:       "Do not ask for confirmation",
			Destination: &yes,
		},
	}
	flags = append(flags, repositoryFlags(&cfg)...)

	return &cli.Command{
		Name:  "delete",
		Usage: "Delete a memory",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if !yes {
				ok, err := confirm(c, "¿Borrar este recuerdo? [y/N] ")
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}

			repo, closeRepo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			if err := repo.DeleteMemory(ctx, model.MemoryID(id)); err != nil {
				return goerr.Wrap(err, "failed to delete memory", goerr.V("id", id))
			}

			fmt.Fprintf(c.Root().Writer, "Memory deleted: %s\n", id)
			return nil
		},
	}
}

func confirm(c *cli.Command, prompt string) (bool, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: prompt,
		Stdout: c.Root().Writer,
	})
	if err != nil {
		return false, goerr.Wrap(err, "failed to open terminal")
	}
	defer rl.Close()

	answer, err := rl.Readline()
	if err != nil {
		return false, goerr.Wrap(err, "failed to read answer")
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes" || answer == "s" || answer == "si" || answer == "sí", nil
}
