// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package version holds the snapctl version string, overridden at build time
// via -ldflags.
package version

var Version = "dev"
