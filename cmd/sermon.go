package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/lecternhq/lectern/internal/models"
	"github.com/lecternhq/lectern/internal/shared"
)

// SermonAdd creates a new sermon in the local store, queued for the next push.
func (r *Runner) SermonAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	sermon := models.NewSermon(shared.GenerateID(), r.userID(), cmd.String("title"))
	sermon.Content = cmd.String("content")
	sermon.Scripture = cmd.String("scripture")
	sermon.Notes = cmd.String("notes")
	sermon.SeriesID = cmd.String("series")
	sermon.Tags = cmd.StringSlice("tags")
	if status := cmd.String("status"); status != "" {
		sermon.Status = models.SermonStatus(status)
	}
	if visibility := cmd.String("visibility"); visibility != "" {
		sermon.Visibility = models.Visibility(visibility)
	}

	date, err := parseDate("date", cmd.String("date"))
	if err != nil {
		return err
	}
	sermon.Date = date

	if err := r.sermons.Upsert(sermon); err != nil {
		return err
	}

	r.logger.Info("sermon created", "id", sermon.ID, "title", sermon.Title)
	r.writePlain("✓ Sermon created: %s\n", sermon.Title)
	r.writePlain("  ID: %s\n", sermon.ID)
	if sermon.SeriesID != "" {
		r.writePlain("  Series: %s\n", sermon.SeriesID)
	}
	r.writePlain("  Queued for sync; run 'lectern sync' to push.\n")
	return nil
}

// SermonList prints the user's non-deleted sermons, optionally filtered by
// series, status, or visibility.
func (r *Runner) SermonList(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	criteria := map[string]any{}
	if series := cmd.String("series"); series != "" {
		criteria["series_id"] = series
	}
	if status := cmd.String("status"); status != "" {
		criteria["status"] = status
	}
	if visibility := cmd.String("visibility"); visibility != "" {
		criteria["visibility"] = visibility
	}

	sermons, err := r.sermons.QueryActive(r.userID(), criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(sermons, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Sermons (%d)", len(sermons)))
	for _, s := range sermons {
		marker := " "
		if s.Dirty {
			marker = "*"
		}
		r.writePlain("%s %s  %-9s  %-12s  %s\n", marker, s.ID, s.Status, formatWhen(s.Date), s.Title)
		if s.Scripture != "" {
			r.writePlain("    %s\n", s.Scripture)
		}
	}
	if len(sermons) > 0 {
		r.writePlain("\n* pending sync\n")
	}
	return nil
}

// SermonRemove soft deletes a sermon; the tombstone pushes on the next sync.
func (r *Runner) SermonRemove(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	id := cmd.String("id")
	if err := r.sermons.SoftDelete(r.userID(), id); err != nil {
		return err
	}

	r.logger.Info("sermon deleted", "id", id)
	r.writePlain("✓ Sermon deleted: %s\n", id)
	r.writePlain("  The delete is queued for sync; run 'lectern sync' to push.\n")
	return nil
}

// sermonCommand manages individual sermons in the local store.
func sermonCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sermon",
		Usage: "Manage sermons",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Create a sermon",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Sermon title",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "series",
						Aliases: []string{"s"},
						Usage:   "Series ID this sermon belongs to",
					},
					&cli.StringFlag{
						Name:  "content",
						Usage: "Sermon body text",
					},
					&cli.StringFlag{
						Name:  "scripture",
						Usage: "Scripture reference, e.g. 'John 3:16-21'",
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Sermon status (draft, preparing, ready, delivered, archived)",
					},
					&cli.StringFlag{
						Name:  "visibility",
						Usage: "Visibility (private, congregation, public)",
					},
					&cli.StringFlag{
						Name:  "date",
						Usage: "Delivery date (YYYY-MM-DD)",
					},
					&cli.StringFlag{
						Name:  "notes",
						Usage: "Private speaker notes",
					},
					&cli.StringSliceFlag{
						Name:  "tags",
						Usage: "Tags (repeatable)",
					},
				},
				Action: r.SermonAdd,
			},
			{
				Name:  "list",
				Usage: "List sermons",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "series",
						Aliases: []string{"s"},
						Usage:   "Filter by series ID",
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Filter by status",
					},
					&cli.StringFlag{
						Name:  "visibility",
						Usage: "Filter by visibility",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
					},
				},
				Action: r.SermonList,
			},
			{
				Name:    "rm",
				Aliases: []string{"remove"},
				Usage:   "Delete a sermon",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Sermon ID to delete",
						Required: true,
					},
				},
				Action: r.SermonRemove,
			},
		},
	}
}
