package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/arcana/internal/formatter"
	"github.com/desertthunder/arcana/internal/models"
	"github.com/desertthunder/arcana/internal/shared"
	"github.com/urfave/cli/v3"
)

// CardsList prints the configured deck.
func (r *Runner) CardsList(ctx context.Context, cmd *cli.Command) error {
	deck := r.config.Deck()
	if cmd.Bool("json") {
		return r.writeJSON(deck, cmd.Bool("pretty"))
	}

	r.writePlain("%d cards in the deck:\n\n", len(deck))
	for _, card := range deck {
		r.writePlain("%-8s %s\n", card.Key, card.Title())
		if card.TopSongs {
			r.writePlain("         Your top songs\n")
		} else {
			r.writePlain("         Playlist: %s\n", card.PlaylistID)
		}
	}
	return nil
}

// CardsOpen loads a card's playlist and prints it in the requested format.
func (r *Runner) CardsOpen(ctx context.Context, cmd *cli.Command) error {
	card, view, err := r.openCard(ctx, cmd)
	if err != nil {
		return err
	}

	format := cmd.String("format")
	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(view, &card, format, path); err != nil {
			return err
		}
		r.logger.Infof("card %v exported to %v with %v tracks", card.Key, path, len(view.Tracks))
		return r.writePlain("✓ %s exported to %s\n", card.Title(), path)
	}

	data, err := formatter.Render(view, &card, format)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// CardsExport writes a card's playlist to a Markdown directory with its cover image.
func (r *Runner) CardsExport(ctx context.Context, cmd *cli.Command) error {
	card, view, err := r.openCard(ctx, cmd)
	if err != nil {
		return err
	}

	result, err := formatter.WriteMarkdownExport(r.httpClient, view, &card, cmd.String("dir"))
	if err != nil {
		return err
	}

	r.writePlain("✓ %s exported to %s\n", card.Title(), result.Directory)
	for _, f := range result.Files {
		r.writePlain("  %s\n", f)
	}
	if result.CoverImage == "" && view.Playlist.Image != "" {
		r.writePlain("  (cover image could not be downloaded)\n")
	}
	return nil
}

// openCard resolves the key argument and --range flag and loads the card.
func (r *Runner) openCard(ctx context.Context, cmd *cli.Command) (models.Card, *models.PlaylistView, error) {
	key := cmd.StringArg("key")
	if key == "" {
		return models.Card{}, nil, fmt.Errorf("%w: card key", shared.ErrMissingArgument)
	}

	card, ok := r.config.Deck().Find(key)
	if !ok {
		return models.Card{}, nil, fmt.Errorf("%w: %s", shared.ErrCardNotFound, key)
	}

	timeRange, ok := models.ParseTimeRange(cmd.String("range"))
	if !ok {
		return models.Card{}, nil, fmt.Errorf("%w: unknown time range %q", shared.ErrInvalidArgument, cmd.String("range"))
	}

	cards, err := r.cardOpener()
	if err != nil {
		return models.Card{}, nil, err
	}

	r.logger.Infof("opening card %v", card.Title())
	view, err := cards.OpenCard(ctx, card, timeRange)
	if err != nil {
		return models.Card{}, nil, err
	}
	return card, view, nil
}
