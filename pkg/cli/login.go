package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/juntas/pkg/model"
	"github.com/urfave/cli/v3"
)

func loginCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "login",
		Usage: "Open the journal on this machine",
		Flags: sessionFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			holder, err := cfg.newSessionHolder()
			if err != nil {
				return err
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt: "¿Quién eres? ",
				Stdout: c.Root().Writer,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to open terminal")
			}
			defer rl.Close()

			username, err := rl.Readline()
			if err != nil {
				return goerr.Wrap(err, "failed to read username")
			}
			password, err := rl.ReadPassword("Clave secreta: ")
			if err != nil {
				return goerr.Wrap(err, "failed to read password")
			}

			creds := cfg.credentials()
			if !creds.Verify(username, string(password)) {
				fmt.Fprintln(c.Root().Writer, "Acceso denegado 🔒")
				return goerr.Wrap(model.ErrInvalidCredential, "login rejected")
			}

			s := &model.Session{Name: creds.Name(), LoginAt: time.Now().UnixMilli()}
			if err := holder.Save(ctx, s); err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Hola, %s\n", s.Name)
			return nil
		},
	}
}
