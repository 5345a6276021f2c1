// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the CLI commands for actx.
//
// The root command loads configuration, discovers actions from the configured
// locations and exposes them through list, run, config and explain
// subcommands. All handlers receive an App, the composition root holding the
// configuration provider and output streams.
package cmd
