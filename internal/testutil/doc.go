// Package testutil contains fixtures and assertions shared by package tests:
// temporary site layouts, output tree assertions and scratch git
// repositories.
package testutil

const (
	// ConfigFileName mirrors config.DefaultFileName without importing config,
	// so config's own tests can use this package.
	ConfigFileName = "glaze.yaml"

	dirPermissions  = 0o750
	filePermissions = 0o600
)
