package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/juntas/pkg/model"
	"github.com/m-mizutani/juntas/pkg/usecase/journal"
	"github.com/urfave/cli/v3"
)

// newSpinner shows the busy indicator on stderr while enrichment runs
func newSpinner(suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + suffix
	return s
}

func addCommand() *cli.Command {
	var (
		cfg      config
		title    string
		category string
		date     string
		location string
		note     string
		photoURL string
		suggest  bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "title",
			Aliases:     []string{"t"},
			Usage:       "Title of the moment",
			Destination: &title,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "category",
			Aliases:     []string{"c"},
			Usage:       "Category label or key (cocina, asado, juegos, cine, playa, roadtrip, evento, avion)",
			Value:       "cocina",
			Destination: &category,
		},
		&cli.StringFlag{
			Name:        "date",
			Usage:       "Date as YYYY-MM-DD (default: today)",
			Destination: &date,
		},
		&cli.StringFlag{
			Name:        "location",
			Usage:       "Place, e.g. city and country",
			Destination: &location,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "note",
			Aliases:     []string{"n"},
			Usage:       "Short note",
			Destination: &note,
		},
		&cli.StringFlag{
			Name:        "photo-url",
			Usage:       "URL of a photo",
			Destination: &photoURL,
		},
		&cli.BoolFlag{
			Name:        "suggest",
			Usage:       "Ask Gemini for the note when --note is empty",
			Destination: &suggest,
		},
	}
	flags = append(flags, repositoryFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, sessionFlags(&cfg)...)

	return &cli.Command{
		Name:  "add",
		Usage: "Stamp a new memory",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			parsed, err := model.ParseCategory(category)
			if err != nil {
				return err
			}

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

			j := journal.New(repo, enricher, holder, cfg.credentials())
			defer j.Close()
			if err := j.Start(ctx); err != nil {
				return err
			}
			if !j.State().LoggedIn() {
				return goerr.Wrap(model.ErrNotLoggedIn, "run `juntas login` first")
			}

			if err := j.Navigate(journal.ScreenAddForm); err != nil {
				return err
			}
			err = j.UpdateDraft(func(d *model.Draft) {
				d.Title = title
				d.Category = parsed
				if date != "" {
					d.Date = date
				}
				d.LocationName = location
				d.Note = note
				d.PhotoURL = photoURL
			})
			if err != nil {
				return err
			}

			if note == "" && suggest {
				sp := newSpinner("✨ Inspiración...")
				sp.Start()
				err := j.SuggestNote(ctx)
				sp.Stop()
				if err != nil {
					return err
				}
			}

			sp := newSpinner("Sellando pasaporte...")
			sp.Start()
			id, err := j.Submit(ctx)
			sp.Stop()
			if err != nil {
				return goerr.Wrap(err, "failed to create memory")
			}

			fmt.Fprintf(c.Root().Writer, "Memory created: %s\n", id)
			return nil
		},
	}
}
