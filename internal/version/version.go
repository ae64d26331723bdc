package version

import "runtime"

// Overridden at build time with -ldflags "-X ...".
var (
	Version   = "dev"     // ex: v0.3.0
	Commit    = "none"    // ex: 4f1c2ab
	BuildDate = "unknown" // ex: 2026-10-16T09:12:00Z
	GoVersion = runtime.Version()
)

// String renders the one-line build banner used by the CLI and /healthz.
func String() string {
	return Version + " (commit=" + Commit + ", built=" + BuildDate + ", go=" + GoVersion + ")"
}
