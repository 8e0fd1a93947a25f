package version

import "fmt"

// Set at build time via -ldflags "-X github.com/mskaar/nbpress/internal/version.Version=..."
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String returns a human-readable version line.
func String() string {
	return fmt.Sprintf("nbpress %s (commit %s, built %s)", Version, Commit, Date)
}
