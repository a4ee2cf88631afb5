// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package notify publishes run summaries to an SNS topic. Publication is
// best-effort: a failed publish is logged, never escalated.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/apex/log"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// PublishAPI is the subset of the SNS API the notifier needs.
type PublishAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Notifier publishes to one topic.
type Notifier struct {
	client   PublishAPI
	topicARN string
	now      func() time.Time
}

func NewNotifier(client PublishAPI, topicARN string) *Notifier {
	return &Notifier{client: client, topicARN: topicARN, now: time.Now}
}

// Message is the JSON payload published for a run.
type Message struct {
	Operation string `json:"operation"`
	Timestamp string `json:"timestamp"`
	Summary   string `json:"summary"`
	Details   any    `json:"details,omitempty"`
}

// Publish sends a summary for the named operation. Returns the publish error
// so callers can log it; callers must not treat it as fatal.
func (n *Notifier) Publish(ctx context.Context, operation, subject, summary string, details any) error {
	if n.topicARN == "" {
		return nil
	}

	msg := Message{
		Operation: operation,
		Timestamp: n.now().UTC().Format(time.RFC3339),
		Summary:   summary,
		Details:   details,
	}

	body, err := json.MarshalIndent(msg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	if _, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: awsv2.String(n.topicARN),
		Subject:  awsv2.String(subject),
		Message:  awsv2.String(string(body)),
	}); err != nil {
		return fmt.Errorf("publish to %s: %w", n.topicARN, err)
	}

	log.Infof("notification sent to %s", n.topicARN)
	return nil
}
