// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"
)

type testRow struct {
	ID      string `json:"snapshot_id"`
	AgeDays int    `json:"age_days"`
	State   string `json:"state"`
}

func testDataset(t *testing.T) []map[string]interface{} {
	t.Helper()
	rows, err := Dataset([]testRow{
		{ID: "snap-b", AgeDays: 31, State: "completed"},
		{ID: "snap-a", AgeDays: 5, State: "completed"},
		{ID: "snap-c", AgeDays: 400, State: "pending"},
	})
	assert.NoError(t, err)
	return rows
}

// spit runs Spit under a minimal command carrying the global output flags.
func spit(t *testing.T, rows []map[string]interface{}, columns []string, args ...string) string {
	t.Helper()

	var buf bytes.Buffer
	cmd := &cli.Command{
		Name: "test",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Value: "text"},
			&cli.StringFlag{Name: "filter"},
			&cli.StringFlag{Name: "sort"},
			&cli.BoolFlag{Name: "titles"},
			&cli.BoolFlag{Name: "color"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return Spit(rows, columns, c, &buf)
		},
	}

	err := cmd.Run(context.Background(), append([]string{"test"}, args...))
	assert.NoError(t, err)
	return buf.String()
}

func TestDataset(t *testing.T) {
	rows := testDataset(t)
	assert.Len(t, rows, 3)
	assert.Equal(t, "snap-b", rows[0]["snapshot_id"])
	assert.Equal(t, float64(31), rows[0]["age_days"])
}

func TestSpitJSON(t *testing.T) {
	got := spit(t, testDataset(t), nil, "--output", "json")
	assert.Equal(t, int64(3), gjson.Get(got, "#").Int())
	assert.Equal(t, "snap-b", gjson.Get(got, "0.snapshot_id").String())
}

func TestSpitYAML(t *testing.T) {
	got := spit(t, testDataset(t), nil, "--output", "yaml")
	assert.Contains(t, got, "snapshot_id: snap-b")
}

func TestSpitTextColumns(t *testing.T) {
	got := spit(t, testDataset(t), []string{"snapshot_id", "age_days"}, "--titles")
	assert.Contains(t, got, "snapshot_id")
	assert.Contains(t, got, "snap-a")
	assert.Contains(t, got, "400")
	// state column not requested
	assert.NotContains(t, got, "pending")
}

func TestSpitFilter(t *testing.T) {
	got := spit(t, testDataset(t), nil, "--output", "json", "--filter", "age_days>30")
	assert.Equal(t, int64(2), gjson.Get(got, "#").Int())
}

func TestSpitSort(t *testing.T) {
	got := spit(t, testDataset(t), nil, "--output", "json", "--sort", "age_days")
	assert.Equal(t, "snap-a", gjson.Get(got, "0.snapshot_id").String())
	assert.Equal(t, "snap-c", gjson.Get(got, "2.snapshot_id").String())

	got = spit(t, testDataset(t), nil, "--output", "json", "--sort", "-age_days")
	assert.Equal(t, "snap-c", gjson.Get(got, "0.snapshot_id").String())
}

func TestSpitEmptyText(t *testing.T) {
	got := spit(t, nil, nil)
	assert.Empty(t, got)
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "", formatCell(nil))
	assert.Equal(t, "31", formatCell(float64(31)))
	assert.Equal(t, "1.5", formatCell(1.5))
	assert.Equal(t, "x", formatCell("x"))
	assert.Equal(t, "true", formatCell(true))
}
