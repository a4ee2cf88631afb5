// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"fmt"
	"strings"
	"time"
)

// RunReport summarizes a single lifecycle run: the one snapshot created, the
// snapshots deleted by the sweep (in listing order), and any deletions that
// failed. Reports are not persisted; each run produces a fresh one.
type RunReport struct {
	VolumeID           string            `json:"volumeId"`
	CreatedSnapshotID  string            `json:"createdSnapshotId,omitempty"`
	DeletedSnapshotIDs []string          `json:"deletedSnapshotIds"`
	FailedDeletions    map[string]string `json:"failedDeletions,omitempty"`
	RetentionDays      int               `json:"retentionDays"`
	DryRun             bool              `json:"dryRun,omitempty"`
	StartedAt          time.Time         `json:"startedAt"`
	Error              string            `json:"error,omitempty"`
}

func newRunReport(volumeID string, retentionDays int, startedAt time.Time, dryRun bool) *RunReport {
	return &RunReport{
		VolumeID:           volumeID,
		DeletedSnapshotIDs: []string{},
		FailedDeletions:    map[string]string{},
		RetentionDays:      retentionDays,
		DryRun:             dryRun,
		StartedAt:          startedAt,
	}
}

// Summary renders the report as free-form text for the log stream and for
// notification bodies.
func (r *RunReport) Summary() string {
	var b strings.Builder

	b.WriteString("Snapshot lifecycle summary\n")
	b.WriteString("==========================\n")
	fmt.Fprintf(&b, "Volume:    %s\n", r.VolumeID)

	if r.Error != "" {
		fmt.Fprintf(&b, "Result:    FAILED: %s\n", r.Error)
		return strings.TrimRight(b.String(), "\n")
	}

	created := r.CreatedSnapshotID
	if created == "" {
		created = "none"
	}
	fmt.Fprintf(&b, "Created:   %s\n", created)
	fmt.Fprintf(&b, "Deleted:   %d\n", len(r.DeletedSnapshotIDs))
	fmt.Fprintf(&b, "Failed:    %d\n", len(r.FailedDeletions))
	fmt.Fprintf(&b, "Retention: %d days\n", r.RetentionDays)
	if r.DryRun {
		b.WriteString("Mode:      dry-run (no changes made)\n")
	}

	if len(r.DeletedSnapshotIDs) > 0 {
		b.WriteString("\nDeleted snapshots:\n")
		for _, id := range r.DeletedSnapshotIDs {
			fmt.Fprintf(&b, "- %s\n", id)
		}
	}

	if len(r.FailedDeletions) > 0 {
		b.WriteString("\nFailed deletions:\n")
		for id, msg := range r.FailedDeletions {
			fmt.Fprintf(&b, "- %s: %s\n", id, msg)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
