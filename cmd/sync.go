package main

import (
	"context"
	"errors"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/lecternhq/lectern/internal/shared"
	"github.com/lecternhq/lectern/internal/syncer"
)

// Sync runs one full pull/push pass against the backend.
//
// Failures during the pass are classified: validation and conflict problems
// are reported, sync failures are handed to the retry queue, and network or
// auth failures simply leave the store dirty for a later pass.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	r.retries.Start()
	defer r.retries.Stop()

	progress := make(chan syncer.ProgressUpdate, 50)
	rendered := make(chan struct{})
	go func() {
		defer close(rendered)
		for update := range progress {
			if update.Message != "" {
				r.writePlain("  %s\n", update.Message)
			}
		}
	}()

	r.logger.Info("starting sync", "user", r.userID())
	result, err := r.engine.Sync(ctx, r.userID(), progress)
	close(progress)
	<-rendered

	if err != nil {
		if errors.Is(err, shared.ErrSyncBusy) {
			return err
		}
		kind := shared.KindOf(err)
		r.logger.Error("sync pass failed", "kind", kind, "error", err)
		if kind.Surfaced() {
			return err
		}
		if kind.Retryable() {
			r.writePlain("✗ Sync failed (%s); queued for retry.\n", kind)
			if cmd.Bool("wait") {
				r.waitForRetries(ctx)
			}
			return nil
		}
		r.writePlain("✗ Sync failed (%s); local changes stay queued for the next pass.\n", kind)
		return nil
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlainln("✓ Sync complete")
	r.writePlain("  Pulled:    %d\n", result.Pulled)
	r.writePlain("  Pushed:    %d\n", result.Pushed)
	r.writePlain("  Conflicts: %d\n", result.Conflicts)
	if result.Rejected > 0 {
		r.writePlain("  Rejected:  %d (still queued locally)\n", result.Rejected)
	}
	return nil
}

// waitForRetries blocks until the retry queue drains or the deadline passes.
// The queue drops entries itself once attempts are exhausted, so this always
// terminates.
func (r *Runner) waitForRetries(ctx context.Context) {
	deadline := time.After(2 * time.Minute)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			r.logger.Warn("gave up waiting for retries", "pending", r.retries.Pending())
			return
		case <-ticker.C:
			if r.retries.Pending() == 0 {
				return
			}
		}
	}
}

func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Pull remote changes and push local edits",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "wait",
				Usage: "Stay alive until queued retries resolve or exhaust",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the result as JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
			},
		},
		Action: r.Sync,
	}
}
