package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"
)

// Status prints a snapshot of the local store: record counts, pending pushes,
// conflicts, and pull watermarks.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	status, err := r.diag.Status(r.userID())
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Local Store Status")
	r.writePlain("User:            %s\n", r.userID())
	r.writePlain("Series:          %d (%d pending sync)\n", status.SeriesCount, status.DirtySeries)
	r.writePlain("Sermons:         %d (%d pending sync)\n", status.SermonCount, status.DirtySermons)
	r.writePlain("Conflicts:       %d\n", status.ConflictCount)
	r.writePlain("Cached auth:     %v\n", status.HasCachedAuth)
	r.writePlain("Series pulled:   %s\n", formatPulled(status.SeriesPulled))
	r.writePlain("Sermons pulled:  %s\n", formatPulled(status.SermonsPulled))
	return nil
}

// StatusConflicts lists logged sync conflicts, newest first.
func (r *Runner) StatusConflicts(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	conflicts, err := r.conflicts.List(r.userID())
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(conflicts, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Sync Conflicts")
	if len(conflicts) == 0 {
		r.writePlain("No conflicts recorded.\n")
		return nil
	}
	for _, c := range conflicts {
		r.writePlain("%s  %s/%s  kept %s copy\n", c.CreatedAt.Format(time.RFC3339), c.TableName, c.RecordID, c.ResolvedWith)
		r.writePlain("    local edited %s, remote edited %s\n",
			c.LocalUpdatedAt.Format(time.RFC3339), c.RemoteUpdated.Format(time.RFC3339))
	}
	return nil
}

// StatusLog lists recent sync operations, newest first.
func (r *Runner) StatusLog(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	ops, err := r.oplog.Recent(r.userID(), cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(ops, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Sync Log")
	if len(ops) == 0 {
		r.writePlain("No sync passes recorded.\n")
		return nil
	}
	for _, op := range ops {
		outcome := "ok"
		if op.ErrorText != "" {
			outcome = "failed: " + op.ErrorText
		}
		r.writePlain("%s  %-7s %-4s  %3d records  %s\n",
			op.StartedAt.Format(time.RFC3339), op.TableName, op.Direction, op.RecordCount, outcome)
	}
	return nil
}

func formatPulled(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format(time.RFC3339)
}

// statusCommand inspects the local store and its sync history.
func statusCommand(r *Runner) *cli.Command {
	jsonFlags := []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output as JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}

	return &cli.Command{
		Name:   "status",
		Usage:  "Show local store and sync status",
		Flags:  jsonFlags,
		Action: r.Status,
		Commands: []*cli.Command{
			{
				Name:   "conflicts",
				Usage:  "List logged sync conflicts",
				Flags:  jsonFlags,
				Action: r.StatusConflicts,
			},
			{
				Name:  "log",
				Usage: "List recent sync passes",
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum entries to show",
						Value: 20,
					},
				}, jsonFlags...),
				Action: r.StatusLog,
			},
		},
	}
}
