// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/staranto/snapctlgo/internal/filters"
)

// Dataset flattens a slice of result structs into rows keyed by their JSON
// tags, so filtering, sorting and rendering share one shape.
func Dataset(v any) ([]map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dataset: %w", err)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to flatten dataset: %w", err)
	}

	return rows, nil
}

// Spit filters, sorts and renders a dataset according to the common command
// flags. columns fixes the text-output column order; keys absent from it are
// still available to --filter and --sort.
func Spit(rows []map[string]interface{}, columns []string, cmd *cli.Command, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}

	rows = filters.FilterDataset(rows, cmd.String("filter"))
	sortRows(rows, cmd.String("sort"))
	log.Debugf("emitting %d rows as %s", len(rows), cmd.String("output"))

	switch cmd.String("output") {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "yaml":
		return yaml.NewEncoder(w).Encode(rows)
	case "raw":
		return json.NewEncoder(w).Encode(rows)
	default:
		return spitText(rows, columns, cmd, w)
	}
}

func spitText(rows []map[string]interface{}, columns []string, cmd *cli.Command, w io.Writer) error {
	if len(rows) == 0 {
		return nil
	}

	if len(columns) == 0 {
		columns = allColumns(rows)
	}

	t := table.New().
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder())

	if cmd.Bool("titles") {
		t = t.Headers(columns...).BorderHeader(false)
	}

	if useColor(cmd, w) {
		headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
		t = t.StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle()
		})
	}

	for _, row := range rows {
		cells := make([]string, 0, len(columns))
		for _, col := range columns {
			cells = append(cells, formatCell(row[col]))
		}
		t = t.Row(cells...)
	}

	_, err := fmt.Fprintln(w, t)
	return err
}

// allColumns derives a stable column order when the caller didn't fix one.
func allColumns(rows []map[string]interface{}) []string {
	seen := map[string]bool{}
	var columns []string
	for _, row := range rows {
		for key := range row {
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
	}
	sort.Strings(columns)
	return columns
}

// formatCell renders a single value for text output. JSON round-tripping
// turns all numbers into float64; integral ones are printed without the
// trailing .0 noise.
func formatCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// sortRows sorts in place by a comma-separated key list. A leading '-'
// reverses that key.
func sortRows(rows []map[string]interface{}, spec string) {
	if spec == "" {
		return
	}

	keys := strings.Split(spec, ",")

	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range keys {
			key = strings.TrimSpace(key)
			desc := strings.HasPrefix(key, "-")
			key = strings.TrimPrefix(key, "-")

			c := compareValues(rows[i][key], rows[j][key])
			if c == 0 {
				continue
			}
			if desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareValues(a, b interface{}) int {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}

	return strings.Compare(formatCell(a), formatCell(b))
}

// useColor honors --color only when writing to a terminal.
func useColor(cmd *cli.Command, w io.Writer) bool {
	if !cmd.Bool("color") {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}
