// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package command wires the snapctl CLI: one Builder/Action/Validator trio
// per subcommand, global flags with env and YAML config sources, and the
// shared AWS client plumbing.
package command
