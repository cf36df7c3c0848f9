package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/lecternhq/lectern/internal/formatter"
	"github.com/lecternhq/lectern/internal/shared"
)

// Export writes a series and its sermons to disk as CSV, Markdown, or plain text.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	id := cmd.String("id")
	series, err := r.series.Get(r.userID(), id)
	if err != nil {
		return err
	}
	if series.IsDeleted() {
		return shared.E(shared.KindValidation, "export series", fmt.Errorf("series %s is deleted", id))
	}

	sermons, err := r.sermons.QueryActive(r.userID(), map[string]any{"series_id": id})
	if err != nil {
		return err
	}

	export := &formatter.SeriesExport{Series: series, Sermons: sermons}
	output := cmd.String("output")

	switch format := cmd.String("format"); format {
	case "csv":
		result, err := formatter.WriteCSVExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d sermons\n", len(sermons))
		r.writePlain("  %s\n", result.SermonsFile)
		r.writePlain("  %s\n", result.MetadataFile)

	case "markdown", "md":
		result, err := formatter.WriteMarkdownExport(export, output, series.ImageURL)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d sermons to %s\n", len(sermons), result.Directory)
		for _, file := range result.Files {
			r.writePlain("  %s\n", file)
		}

	case "text", "txt":
		path, err := formatter.WriteTextExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d sermons\n", len(sermons))
		r.writePlain("  %s\n", path)

	default:
		return fmt.Errorf("%w: --format must be csv, markdown, or text", shared.ErrInvalidFlag)
	}

	return nil
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a series and its sermons to disk",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Usage:    "Series ID to export",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: csv, markdown, or text",
				Value:   "csv",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output path (base name for csv, directory for markdown, file for text)",
			},
		},
		Action: r.Export,
	}
}
