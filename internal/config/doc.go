// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from actx.cue (or actx.toml) in ~/.config/actx (XDG
// equivalent on Linux, ~/Library/Application Support/actx on macOS,
// %APPDATA%\actx on Windows), falling back to the working directory. It lists
// the discovery locations, the base directory and the file filter handed to
// actx.Setup, and the CLI log level.
//
// Files are validated against a CUE schema (config_schema.cue) before they are
// merged into Viper; TOML files are decoded with go-toml and unified with the
// same schema.
package config
