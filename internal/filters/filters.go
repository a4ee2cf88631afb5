// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package filters

import (
	"encoding/json"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
)

// filterRegex is the pattern used to parse filter expressions into key,
// operator, and target components. Operators are one of = ^ ~ < > @ or /,
// optionally prefixed with '!' for negation.
var filterRegex = regexp.MustCompile(`^(.*?)(!?[=^~<>@/])(.*)$`)

// Filter represents a single parsed --filter expression including the key,
// operand, optional negation and target value.
type Filter struct {
	Key     string
	Negate  bool
	Operand string
	Target  string
}

// BuildFilters parses a filter specification string into a slice of Filter.
// Invalid specs (unsupported operand or malformed expression) are skipped.
func BuildFilters(spec string) []Filter {
	//nolint:prealloc
	var filters []Filter

	// If there are no filters specified, go home early.
	if spec == "" {
		return filters
	}

	// Default delimiter is ",", allow an override.
	delim := ","
	if d, ok := os.LookupEnv("SNAPCTL_FILTER_DELIM"); ok {
		delim = d
	}

	filterSpecs := strings.Split(spec, delim)
	for _, filterSpec := range filterSpecs {
		parts := filterRegex.FindStringSubmatch(filterSpec)

		// If a supported operand was not found, log an error and throw it away.
		if parts == nil {
			log.Error("invalid filter: " + filterSpec)
			continue
		}

		negate := strings.HasPrefix(parts[2], "!")
		if negate {
			parts[2] = strings.TrimPrefix(parts[2], "!")
		}

		filters = append(filters, Filter{
			Key:     parts[1],
			Negate:  negate,
			Operand: parts[2],
			Target:  parts[3],
		})
	}

	return filters
}

// FilterDataset returns the rows matching every filter in the spec. Rows are
// flat column-to-value maps as produced by the result builders.
func FilterDataset(rows []map[string]interface{}, spec string) []map[string]interface{} {
	filters := BuildFilters(spec)
	if len(filters) == 0 {
		return rows
	}

	//nolint:prealloc
	var filtered []map[string]interface{}
	for _, row := range rows {
		if matchRow(row, filters) {
			filtered = append(filtered, row)
		}
	}

	return filtered
}

// matchRow returns true if the row matches all of the provided filters.
func matchRow(row map[string]interface{}, filters []Filter) bool {
	// Marshal once so dotted keys can drill into nested values via gjson.
	raw, err := json.Marshal(row)
	if err != nil {
		return false
	}

	for _, filter := range filters {
		value := gjson.GetBytes(raw, filter.Key)
		if !value.Exists() || value.Type == gjson.Null {
			return false
		}

		var result bool
		switch value.Type {
		case gjson.Number:
			result = checkNumericOperand(value.Num, filter)
		case gjson.True, gjson.False:
			result = checkStringOperand(value.String(), filter)
		case gjson.JSON:
			result = checkContainsOperand(value, filter)
		default:
			result = checkStringOperand(value.String(), filter)
		}

		if !result {
			return false
		}
	}

	return true
}

// checkContainsOperand evaluates a membership style filter (operand '@')
// against array or object values.
func checkContainsOperand(value gjson.Result, filter Filter) bool {
	if filter.Operand != "@" {
		log.Errorf("unsupported operand for %s value: %s", value.Type, filter.Operand)
		return false
	}

	found := false
	value.ForEach(func(key, item gjson.Result) bool {
		if value.IsObject() {
			found = key.String() == filter.Target
		} else {
			found = item.String() == filter.Target
		}
		return !found
	})

	if filter.Negate {
		return !found
	}
	return found
}

// checkNumericOperand compares a numeric value against the filter target
// using numeric semantics. Supported operands: =, > and < (negation via
// filter.Negate, e.g. != is Negate + "=").
func checkNumericOperand(value float64, filter Filter) bool {
	tgt, err := strconv.ParseFloat(strings.TrimSpace(filter.Target), 64)
	if err != nil {
		log.Error("invalid numeric target: " + filter.Target)
		return false
	}

	switch filter.Operand {
	case "=":
		return (value == tgt) == !filter.Negate
	case ">":
		return (value > tgt) == !filter.Negate
	case "<":
		return (value < tgt) == !filter.Negate
	default:
		log.Error("unsupported numeric operand: " + filter.Operand)
		return false
	}
}

// checkStringOperand evaluates a string comparison style filter against the
// provided value using the operand semantics.
func checkStringOperand(value string, filter Filter) bool {
	switch filter.Operand {
	case "=":
		return value == filter.Target == !filter.Negate
	case "~":
		return strings.EqualFold(value, filter.Target) == !filter.Negate
	case "^":
		return strings.HasPrefix(value, filter.Target) == !filter.Negate
	case ">":
		return value > filter.Target == !filter.Negate
	case "<":
		return value < filter.Target == !filter.Negate
	case "@":
		return strings.Contains(value, filter.Target) == !filter.Negate
	case "/":
		matched, err := regexp.MatchString(filter.Target, value)
		if err != nil {
			log.Error("invalid regex: " + filter.Target)
			return false
		}
		return matched == !filter.Negate
	default:
		log.Error("unsupported filtering operand: " + filter.Operand)
		return false
	}
}
