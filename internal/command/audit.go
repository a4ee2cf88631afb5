// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/snapctlgo/internal/audit"
	"github.com/staranto/snapctlgo/internal/config"
	"github.com/staranto/snapctlgo/internal/meta"
)

// AuditCommandAction audits every bucket in the account for default
// encryption, optionally checking ACLs for public access.
func AuditCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	config.Config.Namespace = "audit"

	client, err := newS3Client(ctx, cmd)
	if err != nil {
		return err
	}

	auditor := audit.NewAuditor(client,
		audit.WithPublicCheck(cmd.Bool("public-check")),
	)

	report, runErr := auditor.Audit(ctx)
	if report != nil {
		if err := EmitReport(cmd, report); err != nil {
			return err
		}

		subject := fmt.Sprintf("S3 encryption audit: %d of %d buckets unencrypted",
			report.UnencryptedBuckets, report.TotalBuckets)
		NotifyIfRequested(ctx, cmd, "S3_ENCRYPTION_AUDIT", subject, report)
	}

	return runErr
}

// AuditCommandBuilder constructs the cli.Command for "audit".
func AuditCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "audit",
		Usage:     "report buckets without default encryption",
		UsageText: `snapctl audit [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{
			&cli.BoolFlag{
				Name:  "public-check",
				Usage: "also flag buckets whose ACL grants AllUsers access",
				Value: false,
			},
			NewTopicFlag("audit"),
		}, NewGlobalFlags("audit")...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := AuditCommandValidator(ctx, cmd); err != nil {
				return err
			}
			return AuditCommandAction(ctx, cmd)
		},
	}
}

func AuditCommandValidator(ctx context.Context, cmd *cli.Command) error {
	return GlobalFlagsValidator(ctx, cmd)
}
