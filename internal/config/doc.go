// Package config loads and merges gavel configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (GAVEL_BASE, GAVEL_RULEFILE, GAVEL_FORMAT, GAVEL_GITHUB)
//  3. Config file ($XDG_CONFIG_HOME/gavel/config.json)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config] and [SetField] to update a single
// key before calling [Save].
package config
