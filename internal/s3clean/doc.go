// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package s3clean sweeps bucket objects older than a retention window.
package s3clean
