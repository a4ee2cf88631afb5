// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/snapctlgo/internal/config"
	"github.com/staranto/snapctlgo/internal/lifecycle"
	"github.com/staranto/snapctlgo/internal/meta"
	"github.com/staranto/snapctlgo/internal/output"
)

// snapshotColumns fixes the text-output column order for snapshot listings.
var snapshotColumns = []string{
	"snapshot_id", "volume_id", "state", "start_time", "age_days", "size_gib", "description",
}

// SnapshotsCommandAction lists the account's owned snapshots through the
// common filter/sort/output pipeline.
func SnapshotsCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	config.Config.Namespace = "snapshots"

	client, err := newEC2Client(ctx, cmd)
	if err != nil {
		return err
	}

	mgr := lifecycle.NewManager(client)
	snapshots, err := mgr.List(ctx)
	if err != nil {
		return err
	}

	rows, err := output.Dataset(snapshots)
	if err != nil {
		return err
	}

	return output.Spit(rows, snapshotColumns, cmd, nil)
}

// SnapshotsCommandBuilder constructs the cli.Command for "snapshots".
func SnapshotsCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "snapshots",
		Usage:     "list owned snapshots",
		UsageText: `snapctl snapshots [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: NewGlobalFlags("snapshots"),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := SnapshotsCommandValidator(ctx, cmd); err != nil {
				return err
			}
			return SnapshotsCommandAction(ctx, cmd)
		},
	}
}

func SnapshotsCommandValidator(ctx context.Context, cmd *cli.Command) error {
	return GlobalFlagsValidator(ctx, cmd)
}
