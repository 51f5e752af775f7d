// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/droneyard/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/droneyard/config.cue on macOS, %APPDATA%\droneyard\config.cue
// on Windows), validated against the embedded CUE schema (config_schema.cue), and then
// overridden by DRONEYARD_* environment variables. Unset fields keep their defaults.
package config
