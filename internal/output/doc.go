// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package output renders result datasets per the common command flags:
// text tables, json, yaml or raw passthrough, with filtering and sorting
// applied first.
package output
