// Package buildinfo carries the version stamped into the cashcheck binary.
package buildinfo

import "fmt"

// Set via -ldflags "-X github.com/cashcheck-dev/cashcheck/internal/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the version line shown by --version and logged by serve.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
