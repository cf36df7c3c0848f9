package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// ResetSync clears sync bookkeeping for the configured user: dirty flags,
// conflicts, the operation log, and pull watermarks. Content survives; the
// next sync does a full pull.
func (r *Runner) ResetSync(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	if err := r.diag.ResetSyncState(r.userID()); err != nil {
		return err
	}

	r.writePlain("✓ Sync state reset for user %s\n", r.userID())
	r.writePlain("  Content kept; the next sync performs a full pull.\n")
	return nil
}

// ResetAuth clears cached credentials for the configured user.
func (r *Runner) ResetAuth(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	if err := r.diag.ResetAuth(r.userID()); err != nil {
		return err
	}

	r.writePlain("✓ Cached credentials cleared for user %s\n", r.userID())
	return nil
}

// ResetAll wipes every table in the local store. Destructive; requires --force.
func (r *Runner) ResetAll(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("force") {
		return fmt.Errorf("reset all wipes every local record for every user; re-run with --force to confirm")
	}

	if err := r.openStore(); err != nil {
		return err
	}

	if err := r.diag.ResetAll(); err != nil {
		return err
	}

	r.writePlain("✓ Local store wiped; schema kept\n")
	return nil
}

// resetCommand groups the three levels of local store reset.
func resetCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Reset parts of the local store",
		Commands: []*cli.Command{
			{
				Name:   "sync",
				Usage:  "Clear sync bookkeeping, keep content",
				Action: r.ResetSync,
			},
			{
				Name:   "auth",
				Usage:  "Clear cached credentials",
				Action: r.ResetAuth,
			},
			{
				Name:  "all",
				Usage: "Wipe every local record (destructive)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Confirm the wipe",
					},
				},
				Action: r.ResetAll,
			},
		},
	}
}
