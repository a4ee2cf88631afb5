// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/apex/log"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/snapctlgo/internal/config"
	"github.com/staranto/snapctlgo/internal/lifecycle"
	"github.com/staranto/snapctlgo/internal/meta"
)

// SnapCommandAction is the action handler for the "snap" subcommand. It runs
// the snapshot lifecycle once: create one snapshot of the target volume,
// then sweep owned snapshots past the retention window.
func SnapCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	config.Config.Namespace = "snap"

	client, err := newEC2Client(ctx, cmd)
	if err != nil {
		return err
	}

	mgr := lifecycle.NewManager(client,
		lifecycle.WithRetention(int(cmd.Int("retention-days"))),
		lifecycle.WithDescriptionPrefix(cmd.String("description-prefix")),
		lifecycle.WithSweepPrefix(cmd.String("sweep-prefix")),
		lifecycle.WithDryRun(cmd.Bool("dry-run")),
	)

	report, runErr := mgr.Run(ctx, cmd.String("volume-id"))
	if report != nil {
		if err := EmitReport(cmd, report); err != nil {
			return err
		}

		subject := fmt.Sprintf("Snapshot report: %d deleted, %d failed",
			len(report.DeletedSnapshotIDs), len(report.FailedDeletions))
		NotifyIfRequested(ctx, cmd, "SNAPSHOT_LIFECYCLE", subject, report)
	}

	return runErr
}

// SnapCommandBuilder constructs the cli.Command for "snap", wiring metadata,
// flags, and action/validator handlers.
func SnapCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "snap",
		Usage:     "create a snapshot and sweep expired ones",
		UsageText: `snapctl snap --volume-id vol-xxx [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "volume-id",
				Usage: "EBS volume to snapshot",
				Sources: cli.NewValueSourceChain(
					cli.EnvVar("SNAPCTL_VOLUME_ID"),
					cli.EnvVar("VOLUME_ID"),
					yaml.YAML("snap.volume_id", altsrc.StringSourcer(meta.Config.Source)),
				),
			},
			NewRetentionFlag("snap"),
			NewPrefixFlag("snap"),
			NewSweepPrefixFlag("snap"),
			NewTopicFlag("snap"),
			dryRunFlag,
		}, NewGlobalFlags("snap")...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := SnapCommandValidator(ctx, cmd); err != nil {
				return err
			}
			return SnapCommandAction(ctx, cmd)
		},
	}
}

// SnapCommandValidator performs validation for "snap" and delegates to
// GlobalFlagsValidator.
func SnapCommandValidator(ctx context.Context, cmd *cli.Command) error {
	if cmd.String("volume-id") == "" {
		return errors.New("no volume id specified. Use --volume-id, SNAPCTL_VOLUME_ID or snap.volume_id in snapctl.yaml")
	}
	if err := FlagValidators(int(cmd.Int("retention-days")), RetentionValidator); err != nil {
		return fmt.Errorf("invalid --retention-days: %w", err)
	}
	return GlobalFlagsValidator(ctx, cmd)
}
