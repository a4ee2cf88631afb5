// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/apex/log"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	awsx "github.com/staranto/snapctlgo/internal/aws"
	"github.com/staranto/snapctlgo/internal/meta"
	"github.com/staranto/snapctlgo/internal/notify"
)

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// loadAWSConfig builds the SDK config honoring the --region/--profile flags.
func loadAWSConfig(ctx context.Context, cmd *cli.Command) (awsv2.Config, error) {
	return awsx.LoadAWSConfig(ctx,
		awsx.WithRegion(cmd.String("region")),
		awsx.WithProfile(cmd.String("profile")),
	)
}

func newEC2Client(ctx context.Context, cmd *cli.Command) (*ec2.Client, error) {
	cfg, err := loadAWSConfig(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsx.NewEC2(cfg), nil
}

func newS3Client(ctx context.Context, cmd *cli.Command) (*s3.Client, error) {
	cfg, err := loadAWSConfig(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsx.NewS3(cfg), nil
}

// summarizer is satisfied by all the run report types.
type summarizer interface {
	Summary() string
}

// EmitReport prints a run report per the --output flag. Text output is the
// report's own free-form summary.
func EmitReport(cmd *cli.Command, report summarizer) error {
	switch cmd.String("output") {
	case "json", "raw":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		return yaml.NewEncoder(os.Stdout).Encode(report)
	default:
		fmt.Println(report.Summary())
		return nil
	}
}

// NotifyIfRequested publishes a run summary to the --topic-arn topic.
// Best-effort: failures are logged and never returned.
func NotifyIfRequested(ctx context.Context, cmd *cli.Command, operation, subject string, report summarizer) {
	topic := cmd.String("topic-arn")
	if topic == "" {
		return
	}

	cfg, err := loadAWSConfig(ctx, cmd)
	if err != nil {
		log.Errorf("failed to load AWS config for notification: %v", err)
		return
	}

	n := notify.NewNotifier(awsx.NewSNS(cfg), topic)
	if err := n.Publish(ctx, operation, subject, report.Summary(), report); err != nil {
		log.Errorf("failed to publish notification: %v", err)
	}
}
