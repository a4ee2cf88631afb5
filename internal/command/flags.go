// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/snapctlgo/internal/config"
	"github.com/staranto/snapctlgo/internal/lifecycle"
)

func init() {
	cfg, _ = config.Load("")
}

var cfg config.Type

// dryRunFlag is shared by every command that mutates provider state.
var dryRunFlag *cli.BoolFlag = &cli.BoolFlag{
	Name:  "dry-run",
	Usage: "report what would change without changing it",
	Sources: cli.NewValueSourceChain(
		cli.EnvVar("SNAPCTL_DRY_RUN"),
	),
	Value: false,
}

// NewGlobalFlags returns the flags common to all commands, with values
// source-chained through the ns-namespaced and global config file keys.
func NewGlobalFlags(ns string) (flags []cli.Flag) {
	flags = []cli.Flag{
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"color", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("color", altsrc.StringSourcer(cfg.Source)),
			),
			Value: false,
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to results",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"output", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("output", altsrc.StringSourcer(cfg.Source)),
			),
			Value: "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.StringFlag{
			Name:    "profile",
			Usage:   "AWS shared config profile. Overrides the environment",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("SNAPCTL_PROFILE"),
				yaml.YAML(ns+"."+"profile", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("profile", altsrc.StringSourcer(cfg.Source)),
			),
		},
		&cli.StringFlag{
			Name:    "region",
			Usage:   "AWS region. Overrides the environment",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("SNAPCTL_REGION"),
				yaml.YAML(ns+"."+"region", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("region", altsrc.StringSourcer(cfg.Source)),
			),
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of attributes to sort the results by",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"sort", altsrc.StringSourcer(cfg.Source)),
			),
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"titles", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("titles", altsrc.StringSourcer(cfg.Source)),
			),
			Value: false,
		},
	}

	return
}

// NewRetentionFlag constructs the retention window flag, namespaced to the
// command's config section.
func NewRetentionFlag(ns string) *cli.IntFlag {
	return &cli.IntFlag{
		Name:    "retention-days",
		Aliases: []string{"r"},
		Usage:   "delete items older than this many days",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("SNAPCTL_RETENTION_DAYS"),
			yaml.YAML(ns+"."+"retention_days", altsrc.StringSourcer(cfg.Source)),
			yaml.YAML("retention_days", altsrc.StringSourcer(cfg.Source)),
		),
		Value: lifecycle.DefaultMaxAgeDays,
	}
}

// NewTopicFlag constructs the SNS topic flag for commands that can publish a
// summary notification.
func NewTopicFlag(ns string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "topic-arn",
		Usage: "SNS topic to publish the run summary to",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("SNAPCTL_SNS_TOPIC_ARN"),
			cli.EnvVar("SNS_TOPIC_ARN"),
			yaml.YAML(ns+"."+"topic_arn", altsrc.StringSourcer(cfg.Source)),
			yaml.YAML("topic_arn", altsrc.StringSourcer(cfg.Source)),
		),
	}
}

// NewPrefixFlag constructs the snapshot description prefix flag.
func NewPrefixFlag(ns string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "description-prefix",
		Usage: "prefix for created snapshot descriptions",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("SNAPCTL_DESCRIPTION_PREFIX"),
			yaml.YAML(ns+"."+"prefix", altsrc.StringSourcer(cfg.Source)),
			yaml.YAML("prefix", altsrc.StringSourcer(cfg.Source)),
		),
		Value: lifecycle.DefaultDescriptionPrefix,
	}
}

// NewSweepPrefixFlag constructs the flag narrowing the deletion sweep. The
// default (empty) keeps the sweep account-wide.
func NewSweepPrefixFlag(ns string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "sweep-prefix",
		Usage: "only sweep snapshots whose description starts with this prefix (default: all owned snapshots)",
		Sources: cli.NewValueSourceChain(
			yaml.YAML(ns+"."+"sweep_prefix", altsrc.StringSourcer(cfg.Source)),
		),
	}
}
