// Package version carries build metadata injected at link time.
package version

// Version is set via ldflags in release builds:
// go build -ldflags "-X git.home.luguber.info/inful/sitebuilder/internal/version.Version=v1.0.0".
var Version = "unknown"

// Build metadata, also set via ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by --version.
func String() string {
	if GitCommit == "unknown" && BuildTime == "unknown" {
		return "sitebuilder " + Version
	}
	return "sitebuilder " + Version + " (" + GitCommit + ", built " + BuildTime + ")"
}
