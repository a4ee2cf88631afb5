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
	"github.com/staranto/snapctlgo/internal/meta"
	"github.com/staranto/snapctlgo/internal/s3clean"
)

// S3CleanCommandAction deletes bucket objects past the retention window.
func S3CleanCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	config.Config.Namespace = "s3clean"

	client, err := newS3Client(ctx, cmd)
	if err != nil {
		return err
	}

	cleaner := s3clean.NewCleaner(client,
		s3clean.WithRetention(int(cmd.Int("retention-days"))),
		s3clean.WithDryRun(cmd.Bool("dry-run")),
	)

	report, runErr := cleaner.Run(ctx, cmd.String("bucket"))
	if report != nil {
		if err := EmitReport(cmd, report); err != nil {
			return err
		}

		subject := fmt.Sprintf("S3 cleanup of %s: %d deleted, %d failed",
			cmd.String("bucket"), len(report.DeletedObjects), len(report.Errors))
		NotifyIfRequested(ctx, cmd, "S3_CLEANUP", subject, report)
	}

	return runErr
}

// S3CleanCommandBuilder constructs the cli.Command for "s3clean".
func S3CleanCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "s3clean",
		Usage:     "delete bucket objects older than the retention window",
		UsageText: `snapctl s3clean --bucket my-bucket [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "bucket",
				Usage: "bucket to clean",
				Sources: cli.NewValueSourceChain(
					cli.EnvVar("SNAPCTL_BUCKET"),
					yaml.YAML("s3clean.bucket", altsrc.StringSourcer(meta.Config.Source)),
				),
			},
			NewRetentionFlag("s3clean"),
			NewTopicFlag("s3clean"),
			dryRunFlag,
		}, NewGlobalFlags("s3clean")...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := S3CleanCommandValidator(ctx, cmd); err != nil {
				return err
			}
			return S3CleanCommandAction(ctx, cmd)
		},
	}
}

func S3CleanCommandValidator(ctx context.Context, cmd *cli.Command) error {
	if cmd.String("bucket") == "" {
		return errors.New("no bucket specified. Use --bucket, SNAPCTL_BUCKET or s3clean.bucket in snapctl.yaml")
	}
	if err := FlagValidators(int(cmd.Int("retention-days")), RetentionValidator); err != nil {
		return fmt.Errorf("invalid --retention-days: %w", err)
	}
	return GlobalFlagsValidator(ctx, cmd)
}
