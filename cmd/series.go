package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/lecternhq/lectern/internal/models"
	"github.com/lecternhq/lectern/internal/shared"
)

// SeriesAdd creates a new series in the local store, queued for the next push.
func (r *Runner) SeriesAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	series := models.NewSeries(shared.GenerateID(), r.userID(), cmd.String("title"))
	series.Description = cmd.String("description")
	series.ImageURL = cmd.String("image")
	series.Tags = cmd.StringSlice("tags")
	if status := cmd.String("status"); status != "" {
		series.Status = models.SeriesStatus(status)
	}

	start, err := parseDate("start", cmd.String("start"))
	if err != nil {
		return err
	}
	end, err := parseDate("end", cmd.String("end"))
	if err != nil {
		return err
	}
	series.StartDate = start
	series.EndDate = end

	if err := r.series.Upsert(series); err != nil {
		return err
	}

	r.logger.Info("series created", "id", series.ID, "title", series.Title)
	r.writePlain("✓ Series created: %s\n", series.Title)
	r.writePlain("  ID: %s\n", series.ID)
	r.writePlain("  Queued for sync; run 'lectern sync' to push.\n")
	return nil
}

// SeriesList prints the user's non-deleted series, optionally filtered by status.
func (r *Runner) SeriesList(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	criteria := map[string]any{}
	if status := cmd.String("status"); status != "" {
		criteria["status"] = status
	}

	series, err := r.series.QueryActive(r.userID(), criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(series, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Series (%d)", len(series)))
	for _, s := range series {
		marker := " "
		if s.Dirty {
			marker = "*"
		}
		r.writePlain("%s %s  %-10s  %s\n", marker, s.ID, s.Status, s.Title)
		if len(s.Tags) > 0 {
			r.writePlain("    tags: %s\n", strings.Join(s.Tags, ", "))
		}
	}
	if len(series) > 0 {
		r.writePlain("\n* pending sync\n")
	}
	return nil
}

// SeriesRemove soft deletes a series; the tombstone pushes on the next sync.
func (r *Runner) SeriesRemove(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	id := cmd.String("id")
	if err := r.series.SoftDelete(r.userID(), id); err != nil {
		return err
	}

	r.logger.Info("series deleted", "id", id)
	r.writePlain("✓ Series deleted: %s\n", id)
	r.writePlain("  The delete is queued for sync; run 'lectern sync' to push.\n")
	return nil
}

// seriesCommand manages preaching series in the local store.
func seriesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "series",
		Usage: "Manage preaching series",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Create a series",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Series title",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "description",
						Aliases: []string{"d"},
						Usage:   "Series description",
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Series status (planning, active, completed, archived)",
					},
					&cli.StringFlag{
						Name:  "start",
						Usage: "Start date (YYYY-MM-DD)",
					},
					&cli.StringFlag{
						Name:  "end",
						Usage: "End date (YYYY-MM-DD)",
					},
					&cli.StringFlag{
						Name:  "image",
						Usage: "Cover image URL",
					},
					&cli.StringSliceFlag{
						Name:  "tags",
						Usage: "Tags (repeatable)",
					},
				},
				Action: r.SeriesAdd,
			},
			{
				Name:  "list",
				Usage: "List series",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "status",
						Usage: "Filter by status",
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
				Action: r.SeriesList,
			},
			{
				Name:    "rm",
				Aliases: []string{"remove"},
				Usage:   "Delete a series",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Series ID to delete",
						Required: true,
					},
				},
				Action: r.SeriesRemove,
			},
		},
	}
}
