// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package s3clean

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/dustin/go-humanize"
)

// DefaultRetentionDays is the object retention window applied when none is
// configured.
const DefaultRetentionDays = 30

// ObjectAPI is the subset of the S3 API the cleaner needs.
type ObjectAPI interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// DeletedObject records one object removed (or slated for removal in
// dry-run mode) by the sweep.
type DeletedObject struct {
	Key          string    `json:"key"`
	AgeDays      float64   `json:"age_days"`
	SizeBytes    int64     `json:"size_bytes"`
	LastModified time.Time `json:"last_modified"`
}

// Report summarizes one bucket sweep.
type Report struct {
	Bucket           string          `json:"bucket"`
	RetentionDays    int             `json:"retentionDays"`
	DryRun           bool            `json:"dryRun,omitempty"`
	ObjectsProcessed int             `json:"objectsProcessed"`
	DeletedObjects   []DeletedObject `json:"deletedObjects"`
	BytesDeleted     int64           `json:"bytesDeleted"`
	Errors           []string        `json:"errors,omitempty"`
}

// Summary renders the report as free-form text.
func (r *Report) Summary() string {
	mode := ""
	if r.DryRun {
		mode = " (dry-run)"
	}
	return fmt.Sprintf("bucket %s%s: processed %d objects, deleted %d (%s), %d errors",
		r.Bucket, mode, r.ObjectsProcessed, len(r.DeletedObjects),
		humanize.Bytes(uint64(r.BytesDeleted)), len(r.Errors))
}

// Cleaner deletes bucket objects older than the retention window.
type Cleaner struct {
	client        ObjectAPI
	retentionDays int
	dryRun        bool
	now           func() time.Time
}

type Option func(*Cleaner)

func WithRetention(days int) Option {
	return func(c *Cleaner) {
		if days > 0 {
			c.retentionDays = days
		}
	}
}

func WithDryRun(dryRun bool) Option {
	return func(c *Cleaner) { c.dryRun = dryRun }
}

func WithClock(now func() time.Time) Option {
	return func(c *Cleaner) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCleaner(client ObjectAPI, opts ...Option) *Cleaner {
	c := &Cleaner{
		client:        client,
		retentionDays: DefaultRetentionDays,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run deletes every object in bucket last modified strictly before
// now - retention. Per-object failures are collected and the sweep
// continues.
func (c *Cleaner) Run(ctx context.Context, bucket string) (*Report, error) {
	if bucket == "" {
		return nil, errors.New("no bucket specified")
	}

	now := c.now().UTC()
	report := &Report{
		Bucket:         bucket,
		RetentionDays:  c.retentionDays,
		DryRun:         c.dryRun,
		DeletedObjects: []DeletedObject{},
	}

	if _, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: awsv2.String(bucket)}); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchBucket") {
			return nil, fmt.Errorf("bucket %s does not exist", bucket)
		}
		return nil, fmt.Errorf("head bucket %s: %w", bucket, err)
	}

	cutoff := now.Add(-time.Duration(c.retentionDays) * 24 * time.Hour)
	log.Debugf("deleting objects in %s last modified before %s", bucket, cutoff.Format(time.RFC3339))

	p := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: awsv2.String(bucket),
	})

	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return report, fmt.Errorf("list objects in %s: %w", bucket, err)
		}

		for _, obj := range page.Contents {
			report.ObjectsProcessed++

			key := awsv2.ToString(obj.Key)
			lastModified := awsv2.ToTime(obj.LastModified).UTC()
			size := awsv2.ToInt64(obj.Size)

			if !lastModified.Before(cutoff) {
				continue
			}

			ageDays := now.Sub(lastModified).Hours() / 24
			entry := DeletedObject{
				Key:          key,
				AgeDays:      ageDays,
				SizeBytes:    size,
				LastModified: lastModified,
			}

			if c.dryRun {
				log.Infof("dry-run: would delete %s (age %.1f days, %s)", key, ageDays, humanize.Bytes(uint64(size)))
				report.DeletedObjects = append(report.DeletedObjects, entry)
				report.BytesDeleted += size
				continue
			}

			if _, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: awsv2.String(bucket),
				Key:    awsv2.String(key),
			}); err != nil {
				msg := fmt.Sprintf("failed to delete %s: %v", key, err)
				log.Errorf("%s", msg)
				report.Errors = append(report.Errors, msg)
				continue
			}

			report.DeletedObjects = append(report.DeletedObjects, entry)
			report.BytesDeleted += size
			log.Infof("deleted %s (age %.1f days, %s)", key, ageDays, humanize.Bytes(uint64(size)))
		}
	}

	log.Infof("%s", report.Summary())
	return report, nil
}
