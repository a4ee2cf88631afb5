// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"context"
	"errors"
	"testing"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

type fakeSNS struct {
	published []sns.PublishInput
	err       error
}

func (f *fakeSNS) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.published = append(f.published, *in)
	return &sns.PublishOutput{MessageId: awsv2.String("m-1")}, nil
}

func TestPublish(t *testing.T) {
	fake := &fakeSNS{}
	n := NewNotifier(fake, "arn:aws:sns:us-east-1:123456789012:alerts")

	err := n.Publish(context.Background(), "SNAPSHOT_LIFECYCLE", "Snapshot report", "1 created, 2 deleted", map[string]int{"deleted": 2})
	assert.NoError(t, err)
	assert.Len(t, fake.published, 1)
	assert.Equal(t, "Snapshot report", awsv2.ToString(fake.published[0].Subject))

	body := awsv2.ToString(fake.published[0].Message)
	assert.Equal(t, "SNAPSHOT_LIFECYCLE", gjson.Get(body, "operation").String())
	assert.Equal(t, int64(2), gjson.Get(body, "details.deleted").Int())
}

func TestPublishNoTopicIsNoop(t *testing.T) {
	fake := &fakeSNS{err: errors.New("should not be called")}
	n := NewNotifier(fake, "")

	err := n.Publish(context.Background(), "OP", "s", "sum", nil)
	assert.NoError(t, err)
	assert.Empty(t, fake.published)
}

func TestPublishError(t *testing.T) {
	fake := &fakeSNS{err: errors.New("denied")}
	n := NewNotifier(fake, "arn:aws:sns:us-east-1:123456789012:alerts")

	err := n.Publish(context.Background(), "OP", "s", "sum", nil)
	assert.Error(t, err)
}
