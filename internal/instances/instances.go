// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package instances stops and starts EC2 instances based on their Action
// tag: Auto-Stop instances that are running get stopped, Auto-Start
// instances that are stopped get started.
package instances

import (
	"context"
	"fmt"

	"github.com/apex/log"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

const (
	actionTag = "Action"
	autoStop  = "Auto-Stop"
	autoStart = "Auto-Start"
)

// InstanceAPI is the subset of the EC2 API the scheduler needs.
type InstanceAPI interface {
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	StopInstances(ctx context.Context, params *ec2.StopInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error)
	StartInstances(ctx context.Context, params *ec2.StartInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error)
}

// Report lists what was stopped and started in one pass.
type Report struct {
	Stopped []string `json:"stoppedInstances"`
	Started []string `json:"startedInstances"`
	DryRun  bool     `json:"dryRun,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// Summary renders the report as free-form text.
func (r *Report) Summary() string {
	mode := ""
	if r.DryRun {
		mode = " (dry-run)"
	}
	return fmt.Sprintf("instance schedule%s: stopped %d, started %d, %d errors",
		mode, len(r.Stopped), len(r.Started), len(r.Errors))
}

// Scheduler applies the Action tag policy.
type Scheduler struct {
	client InstanceAPI
	dryRun bool
}

type Option func(*Scheduler)

func WithDryRun(dryRun bool) Option {
	return func(s *Scheduler) { s.dryRun = dryRun }
}

func NewScheduler(client InstanceAPI, opts ...Option) *Scheduler {
	s := &Scheduler{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run finds tagged instances and applies their Action. Stop/start failures
// are recorded per instance and do not stop the pass.
func (s *Scheduler) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		Stopped: []string{},
		Started: []string{},
		DryRun:  s.dryRun,
	}

	p := ec2.NewDescribeInstancesPaginator(s.client, &ec2.DescribeInstancesInput{
		Filters: []ec2types.Filter{
			{Name: awsv2.String("tag:" + actionTag), Values: []string{autoStop, autoStart}},
			{Name: awsv2.String("instance-state-name"), Values: []string{"running", "stopped", "stopping", "pending"}},
		},
	})

	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return report, fmt.Errorf("describe instances: %w", err)
		}

		for _, reservation := range page.Reservations {
			for _, instance := range reservation.Instances {
				s.apply(ctx, instance, report)
			}
		}
	}

	log.Infof("%s", report.Summary())
	return report, nil
}

func (s *Scheduler) apply(ctx context.Context, instance ec2types.Instance, report *Report) {
	id := awsv2.ToString(instance.InstanceId)

	var state ec2types.InstanceStateName
	if instance.State != nil {
		state = instance.State.Name
	}

	var action string
	for _, tag := range instance.Tags {
		if awsv2.ToString(tag.Key) == actionTag {
			action = awsv2.ToString(tag.Value)
			break
		}
	}

	switch {
	case action == autoStop && state == ec2types.InstanceStateNameRunning:
		if s.dryRun {
			log.Infof("dry-run: would stop instance %s", id)
			report.Stopped = append(report.Stopped, id)
			return
		}
		if _, err := s.client.StopInstances(ctx, &ec2.StopInstancesInput{InstanceIds: []string{id}}); err != nil {
			msg := fmt.Sprintf("failed to stop instance %s: %v", id, err)
			log.Errorf("%s", msg)
			report.Errors = append(report.Errors, msg)
			return
		}
		report.Stopped = append(report.Stopped, id)
		log.Infof("stopped instance %s", id)

	case action == autoStart && state == ec2types.InstanceStateNameStopped:
		if s.dryRun {
			log.Infof("dry-run: would start instance %s", id)
			report.Started = append(report.Started, id)
			return
		}
		if _, err := s.client.StartInstances(ctx, &ec2.StartInstancesInput{InstanceIds: []string{id}}); err != nil {
			msg := fmt.Sprintf("failed to start instance %s: %v", id, err)
			log.Errorf("%s", msg)
			report.Errors = append(report.Errors, msg)
			return
		}
		report.Started = append(report.Started, id)
		log.Infof("started instance %s", id)

	default:
		log.Debugf("skipping instance %s (action=%s, state=%s)", id, action, state)
	}
}
