// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	"github.com/dustin/go-humanize"
)

// DefaultMaxAgeDays is the retention window applied when none is configured.
const DefaultMaxAgeDays = 30

// DefaultDescriptionPrefix leads the description of every snapshot we create.
const DefaultDescriptionPrefix = "AutoSnapshot"

// SnapshotAPI is the subset of the EC2 API the manager needs. The SDK client
// satisfies it; tests inject fakes.
type SnapshotAPI interface {
	CreateSnapshot(ctx context.Context, params *ec2.CreateSnapshotInput, optFns ...func(*ec2.Options)) (*ec2.CreateSnapshotOutput, error)
	DescribeSnapshots(ctx context.Context, params *ec2.DescribeSnapshotsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSnapshotsOutput, error)
	DeleteSnapshot(ctx context.Context, params *ec2.DeleteSnapshotInput, optFns ...func(*ec2.Options)) (*ec2.DeleteSnapshotOutput, error)
}

// CreateSnapshotError is fatal for a run. The sweep is never attempted after
// one; retry happens only via the next scheduled tick.
type CreateSnapshotError struct {
	VolumeID string
	Err      error
}

func (e *CreateSnapshotError) Error() string {
	return fmt.Sprintf("create snapshot for %s: %v", e.VolumeID, e.Err)
}

func (e *CreateSnapshotError) Unwrap() error { return e.Err }

// Snapshot is our view of a provider snapshot, flattened for output datasets.
type Snapshot struct {
	ID          string    `json:"snapshot_id"`
	VolumeID    string    `json:"volume_id"`
	OwnerID     string    `json:"owner_id"`
	Description string    `json:"description"`
	State       string    `json:"state"`
	StartTime   time.Time `json:"start_time"`
	SizeGiB     int32     `json:"size_gib"`
	AgeDays     int       `json:"age_days"`
}

// Manager runs the snapshot lifecycle against a single volume.
type Manager struct {
	client SnapshotAPI

	maxAgeDays  int
	prefix      string
	sweepPrefix string
	dryRun      bool

	// now is injectable so tests can pin the cutoff boundary.
	now func() time.Time
}

// Option customizes a Manager.
type Option func(*Manager)

// WithRetention sets the retention window in days. Values < 1 are ignored.
func WithRetention(days int) Option {
	return func(m *Manager) {
		if days > 0 {
			m.maxAgeDays = days
		}
	}
}

// WithDescriptionPrefix sets the prefix used in created snapshot descriptions.
func WithDescriptionPrefix(prefix string) Option {
	return func(m *Manager) {
		if prefix != "" {
			m.prefix = prefix
		}
	}
}

// WithSweepPrefix restricts the deletion sweep to snapshots whose description
// begins with prefix. Empty means the sweep considers every owned snapshot.
func WithSweepPrefix(prefix string) Option {
	return func(m *Manager) { m.sweepPrefix = prefix }
}

// WithDryRun reports what would be created and deleted without mutating.
func WithDryRun(dryRun bool) Option {
	return func(m *Manager) { m.dryRun = dryRun }
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(client SnapshotAPI, opts ...Option) *Manager {
	m := &Manager{
		client:     client,
		maxAgeDays: DefaultMaxAgeDays,
		prefix:     DefaultDescriptionPrefix,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run creates one snapshot of volumeID, then sweeps all owned snapshots
// strictly older than the retention cutoff. A create failure aborts the run
// before any deletion is attempted. Per-snapshot delete failures are recorded
// in the report and do not stop the sweep.
func (m *Manager) Run(ctx context.Context, volumeID string) (*RunReport, error) {
	now := m.now().UTC()
	report := newRunReport(volumeID, m.maxAgeDays, now, m.dryRun)

	if volumeID == "" {
		err := errors.New("no volume id specified")
		report.Error = err.Error()
		return report, err
	}

	description := fmt.Sprintf("%s-%s-%s", m.prefix, volumeID, now.Format("2006-01-02_15-04-05"))

	if m.dryRun {
		log.Infof("dry-run: would create snapshot for volume %s (%s)", volumeID, description)
		report.CreatedSnapshotID = "dry-run-snapshot-id"
	} else {
		out, err := m.client.CreateSnapshot(ctx, &ec2.CreateSnapshotInput{
			VolumeId:    awsv2.String(volumeID),
			Description: awsv2.String(description),
			TagSpecifications: []ec2types.TagSpecification{
				{
					ResourceType: ec2types.ResourceTypeSnapshot,
					Tags: []ec2types.Tag{
						{Key: awsv2.String("Name"), Value: awsv2.String(m.prefix + "-" + volumeID)},
						{Key: awsv2.String("CreatedBy"), Value: awsv2.String("snapctl")},
						{Key: awsv2.String("VolumeId"), Value: awsv2.String(volumeID)},
						{Key: awsv2.String("CreationDate"), Value: awsv2.String(now.Format(time.RFC3339))},
					},
				},
			},
		})
		if err != nil {
			cerr := &CreateSnapshotError{VolumeID: volumeID, Err: err}
			report.Error = cerr.Error()
			log.Errorf("%v", cerr)
			return report, cerr
		}

		report.CreatedSnapshotID = awsv2.ToString(out.SnapshotId)
		log.Infof("created snapshot %s for volume %s", report.CreatedSnapshotID, volumeID)
	}

	if err := m.sweep(ctx, now, report); err != nil {
		report.Error = err.Error()
		return report, err
	}

	return report, nil
}

// Prune runs the deletion sweep without creating a snapshot.
func (m *Manager) Prune(ctx context.Context) (*RunReport, error) {
	now := m.now().UTC()
	report := newRunReport("", m.maxAgeDays, now, m.dryRun)

	if err := m.sweep(ctx, now, report); err != nil {
		report.Error = err.Error()
		return report, err
	}

	return report, nil
}

// sweep deletes every owned snapshot whose start time is strictly before
// now - maxAgeDays. A snapshot aged exactly maxAgeDays is retained. The
// just-created snapshot is subject to the same rule; with a skewed clock or
// a zero retention window it would be swept too.
func (m *Manager) sweep(ctx context.Context, now time.Time, report *RunReport) error {
	cutoff := now.Add(-time.Duration(m.maxAgeDays) * 24 * time.Hour)
	log.Debugf("sweeping snapshots older than %s", cutoff.Format(time.RFC3339))

	p := ec2.NewDescribeSnapshotsPaginator(m.client, &ec2.DescribeSnapshotsInput{
		OwnerIds: []string{"self"},
	})

	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("list snapshots: %w", err)
		}

		for _, snap := range page.Snapshots {
			id := awsv2.ToString(snap.SnapshotId)
			start := awsv2.ToTime(snap.StartTime).UTC()

			if !start.Before(cutoff) {
				continue
			}
			if m.sweepPrefix != "" && !strings.HasPrefix(awsv2.ToString(snap.Description), m.sweepPrefix) {
				continue
			}

			if m.dryRun {
				log.Infof("dry-run: would delete snapshot %s (started %s)", id, humanize.Time(start))
				report.DeletedSnapshotIDs = append(report.DeletedSnapshotIDs, id)
				continue
			}

			if _, err := m.client.DeleteSnapshot(ctx, &ec2.DeleteSnapshotInput{
				SnapshotId: awsv2.String(id),
			}); err != nil {
				msg := deleteErrorMessage(id, err)
				report.FailedDeletions[id] = msg
				log.Errorf("%s", msg)
				continue
			}

			report.DeletedSnapshotIDs = append(report.DeletedSnapshotIDs, id)
			log.Infof("deleted snapshot %s (started %s)", id, humanize.Time(start))
		}
	}

	return nil
}

// List returns all owned snapshots as a flat dataset.
func (m *Manager) List(ctx context.Context) ([]Snapshot, error) {
	now := m.now().UTC()

	var results []Snapshot

	p := ec2.NewDescribeSnapshotsPaginator(m.client, &ec2.DescribeSnapshotsInput{
		OwnerIds: []string{"self"},
	})

	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}

		for _, snap := range page.Snapshots {
			start := awsv2.ToTime(snap.StartTime).UTC()
			results = append(results, Snapshot{
				ID:          awsv2.ToString(snap.SnapshotId),
				VolumeID:    awsv2.ToString(snap.VolumeId),
				OwnerID:     awsv2.ToString(snap.OwnerId),
				Description: awsv2.ToString(snap.Description),
				State:       string(snap.State),
				StartTime:   start,
				SizeGiB:     awsv2.ToInt32(snap.VolumeSize),
				AgeDays:     int(now.Sub(start).Hours() / 24),
			})
		}
	}

	return results, nil
}

// deleteErrorMessage maps provider errors to the message recorded in
// FailedDeletions. InUse and already-deleted races get the terse form the
// operator actually wants to read.
func deleteErrorMessage(id string, err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "InvalidSnapshot.InUse":
			return fmt.Sprintf("cannot delete snapshot %s: currently in use", id)
		case "InvalidSnapshot.NotFound":
			return fmt.Sprintf("cannot delete snapshot %s: not found (deleted by a concurrent run?)", id)
		}
	}
	return fmt.Sprintf("error deleting snapshot %s: %v", id, err)
}
