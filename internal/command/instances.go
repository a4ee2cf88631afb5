// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/snapctlgo/internal/config"
	"github.com/staranto/snapctlgo/internal/instances"
	"github.com/staranto/snapctlgo/internal/meta"
)

// InstancesCommandAction stops and starts instances according to their
// Action tag.
func InstancesCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	config.Config.Namespace = "instances"

	client, err := newEC2Client(ctx, cmd)
	if err != nil {
		return err
	}

	scheduler := instances.NewScheduler(client,
		instances.WithDryRun(cmd.Bool("dry-run")),
	)

	report, runErr := scheduler.Run(ctx)
	if report != nil {
		if err := EmitReport(cmd, report); err != nil {
			return err
		}

		subject := fmt.Sprintf("Instance schedule: %d stopped, %d started",
			len(report.Stopped), len(report.Started))
		NotifyIfRequested(ctx, cmd, "INSTANCE_SCHEDULE", subject, report)
	}

	return runErr
}

// InstancesCommandBuilder constructs the cli.Command for "instances".
func InstancesCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "instances",
		Usage:     "stop and start instances by their Action tag",
		UsageText: `snapctl instances [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{
			NewTopicFlag("instances"),
			dryRunFlag,
		}, NewGlobalFlags("instances")...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := InstancesCommandValidator(ctx, cmd); err != nil {
				return err
			}
			return InstancesCommandAction(ctx, cmd)
		},
	}
}

func InstancesCommandValidator(ctx context.Context, cmd *cli.Command) error {
	return GlobalFlagsValidator(ctx, cmd)
}
