package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/juntas/pkg/model"
	"github.com/urfave/cli/v3"
)

func geocodeCommand() *cli.Command {
	var (
		cfg      config
		location string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "location",
			Usage:       "Place to geocode",
			Destination: &location,
			Required:    true,
		},
	}
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "geocode",
		Usage: "Resolve a place to coordinates",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			enricher, err := cfg.newEnricher(ctx)
			if err != nil {
				return err
			}

			sp := newSpinner("Buscando en el mapa...")
			sp.Start()
			coords := enricher.ResolveCoordinates(ctx, location)
			sp.Stop()

			if coords == nil {
				fmt.Fprintln(c.Root().Writer, "no coordinates")
				return nil
			}
			fmt.Fprintf(c.Root().Writer, "%f,%f\n", coords.Lat, coords.Lng)
			return nil
		},
	}
}

func suggestCommand() *cli.Command {
	var (
		cfg      config
		title    string
		category string
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
			Usage:       "Category label or key",
			Value:       "cocina",
			Destination: &category,
		},
	}
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "suggest",
		Usage: "Draft a short note for a memory",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			parsed, err := model.ParseCategory(category)
			if err != nil {
				return err
			}

			enricher, err := cfg.newEnricher(ctx)
			if err != nil {
				return err
			}

			sp := newSpinner("✨ Inspiración...")
			sp.Start()
			note := enricher.SuggestNote(ctx, title, parsed)
			sp.Stop()

			fmt.Fprintln(c.Root().Writer, note)
			return nil
		},
	}
}
