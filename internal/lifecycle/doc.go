// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package lifecycle implements the EBS snapshot lifecycle manager: one new
// snapshot per run for the target volume, followed by a sweep that deletes
// owned snapshots older than the retention window.
//
// Note that the sweep is account-wide by default, not scoped to the target
// volume. Snapshots of unrelated volumes that have aged out are deleted too.
// Use WithSweepPrefix to restrict the sweep to snapshots whose description
// carries a given prefix.
package lifecycle
