// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildFilters(t *testing.T) {
	tests := []struct {
		name      string
		spec      string
		want      []Filter
		wantCount int
	}{
		{
			name:      "empty spec",
			spec:      "",
			wantCount: 0,
		},
		{
			name:      "single exact match filter",
			spec:      "volume_id=vol-0abc123",
			wantCount: 1,
			want: []Filter{
				{Key: "volume_id", Operand: "=", Target: "vol-0abc123", Negate: false},
			},
		},
		{
			name:      "prefix match filter",
			spec:      "description^AutoSnapshot",
			wantCount: 1,
			want: []Filter{
				{Key: "description", Operand: "^", Target: "AutoSnapshot", Negate: false},
			},
		},
		{
			name:      "regex match filter",
			spec:      "snapshot_id/^snap-0",
			wantCount: 1,
			want: []Filter{
				{Key: "snapshot_id", Operand: "/", Target: "^snap-0", Negate: false},
			},
		},
		{
			name:      "negated exact match",
			spec:      "state!=completed",
			wantCount: 1,
			want: []Filter{
				{Key: "state", Operand: "=", Target: "completed", Negate: true},
			},
		},
		{
			name:      "negated prefix match",
			spec:      "description!^AutoSnapshot",
			wantCount: 1,
			want: []Filter{
				{Key: "description", Operand: "^", Target: "AutoSnapshot", Negate: true},
			},
		},
		{
			name:      "multiple filters",
			spec:      "state=completed,description^AutoSnapshot",
			wantCount: 2,
			want: []Filter{
				{Key: "state", Operand: "=", Target: "completed", Negate: false},
				{Key: "description", Operand: "^", Target: "AutoSnapshot", Negate: false},
			},
		},
		{
			name:      "greater than numeric",
			spec:      "age_days>30",
			wantCount: 1,
			want: []Filter{
				{Key: "age_days", Operand: ">", Target: "30", Negate: false},
			},
		},
		{
			name:      "invalid spec is skipped",
			spec:      "bogus",
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildFilters(tt.spec)
			assert.Len(t, got, tt.wantCount)
			if tt.want != nil {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func testRows() []map[string]interface{} {
	return []map[string]interface{}{
		{"snapshot_id": "snap-001", "volume_id": "vol-a", "state": "completed", "age_days": 45, "description": "AutoSnapshot-vol-a"},
		{"snapshot_id": "snap-002", "volume_id": "vol-b", "state": "completed", "age_days": 5, "description": "manual backup"},
		{"snapshot_id": "snap-003", "volume_id": "vol-a", "state": "pending", "age_days": 0, "description": "AutoSnapshot-vol-a"},
	}
}

func TestFilterDataset(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		wantIDs []string
	}{
		{name: "no filters returns all", spec: "", wantIDs: []string{"snap-001", "snap-002", "snap-003"}},
		{name: "exact match", spec: "volume_id=vol-a", wantIDs: []string{"snap-001", "snap-003"}},
		{name: "numeric greater than", spec: "age_days>30", wantIDs: []string{"snap-001"}},
		{name: "numeric less than", spec: "age_days<30", wantIDs: []string{"snap-002", "snap-003"}},
		{name: "prefix", spec: "description^AutoSnapshot", wantIDs: []string{"snap-001", "snap-003"}},
		{name: "negated prefix", spec: "description!^AutoSnapshot", wantIDs: []string{"snap-002"}},
		{name: "regex", spec: "snapshot_id/00[12]$", wantIDs: []string{"snap-001", "snap-002"}},
		{name: "conjunction", spec: "volume_id=vol-a,state=completed", wantIDs: []string{"snap-001"}},
		{name: "contains substring", spec: "description@backup", wantIDs: []string{"snap-002"}},
		{name: "missing key matches nothing", spec: "nope=x", wantIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterDataset(testRows(), tt.spec)
			var ids []string
			for _, row := range got {
				ids = append(ids, row["snapshot_id"].(string))
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestFilterDatasetMembership(t *testing.T) {
	rows := []map[string]interface{}{
		{"snapshot_id": "snap-001", "tags": []string{"CreatedBy", "VolumeId"}},
		{"snapshot_id": "snap-002", "tags": []string{"Owner"}},
	}

	got := FilterDataset(rows, "tags@Owner")
	assert.Len(t, got, 1)
	assert.Equal(t, "snap-002", got[0]["snapshot_id"])
}
