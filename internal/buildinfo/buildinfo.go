// Package buildinfo holds build-time metadata injected via -ldflags.
package buildinfo

import "fmt"

// Version is the semantic version or tag for this build.
// Inject via: -X github.com/garyellow/demo-servers/internal/buildinfo.Version=...
var Version = ""

// Commit is the git commit SHA for this build.
// Inject via: -X github.com/garyellow/demo-servers/internal/buildinfo.Commit=...
var Commit = ""

// BuildDate is the RFC3339 build timestamp.
// Inject via: -X github.com/garyellow/demo-servers/internal/buildinfo.BuildDate=...
var BuildDate = ""

// Release returns "version+commit" for error reporting, "dev" when not injected.
func Release() string {
	switch {
	case Version == "" && Commit == "":
		return "dev"
	case Commit == "":
		return Version
	case Version == "":
		return Commit
	default:
		return fmt.Sprintf("%s+%s", Version, Commit)
	}
}
