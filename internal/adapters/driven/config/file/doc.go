// Package file provides file-based configuration for docvault.
// Settings are persisted as TOML in the docvault config directory.
package file
