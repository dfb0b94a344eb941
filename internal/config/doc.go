// SPDX-License-Identifier: MPL-2.0

// Package config handles incipyt configuration using Viper with CUE as the file format.
//
// The user file lives at $XDG_CONFIG_HOME/incipyt/config.cue on Linux,
// ~/Library/Application Support/incipyt/config.cue on macOS and
// %APPDATA%\incipyt\config.cue on Windows. When it is absent, ./incipyt.cue is
// used. The --config flag selects a file explicitly.
//
// Files are validated against the embedded schema (config_schema.cue) before
// being merged over the defaults. INCIPYT_* environment variables override
// file values, for example INCIPYT_PYTHON_COMMAND or INCIPYT_UI_VERBOSE.
package config
