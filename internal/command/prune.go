// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/snapctlgo/internal/config"
	"github.com/staranto/snapctlgo/internal/lifecycle"
	"github.com/staranto/snapctlgo/internal/meta"
)

// PruneCommandAction runs the deletion sweep without creating a snapshot.
// The sweep is account-wide unless --sweep-prefix narrows it.
func PruneCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	config.Config.Namespace = "prune"

	client, err := newEC2Client(ctx, cmd)
	if err != nil {
		return err
	}

	mgr := lifecycle.NewManager(client,
		lifecycle.WithRetention(int(cmd.Int("retention-days"))),
		lifecycle.WithSweepPrefix(cmd.String("sweep-prefix")),
		lifecycle.WithDryRun(cmd.Bool("dry-run")),
	)

	report, runErr := mgr.Prune(ctx)
	if report != nil {
		if err := EmitReport(cmd, report); err != nil {
			return err
		}

		subject := fmt.Sprintf("Snapshot prune: %d deleted, %d failed",
			len(report.DeletedSnapshotIDs), len(report.FailedDeletions))
		NotifyIfRequested(ctx, cmd, "SNAPSHOT_PRUNE", subject, report)
	}

	return runErr
}

// PruneCommandBuilder constructs the cli.Command for "prune".
func PruneCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "prune",
		Usage:     "sweep expired snapshots without creating one",
		UsageText: `snapctl prune [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{
			NewRetentionFlag("prune"),
			NewSweepPrefixFlag("prune"),
			NewTopicFlag("prune"),
			dryRunFlag,
		}, NewGlobalFlags("prune")...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := PruneCommandValidator(ctx, cmd); err != nil {
				return err
			}
			return PruneCommandAction(ctx, cmd)
		},
	}
}

func PruneCommandValidator(ctx context.Context, cmd *cli.Command) error {
	if err := FlagValidators(int(cmd.Int("retention-days")), RetentionValidator); err != nil {
		return fmt.Errorf("invalid --retention-days: %w", err)
	}
	return GlobalFlagsValidator(ctx, cmd)
}
