// Package version carries build metadata injected at link time.
package version

import "runtime/debug"

// Set via -ldflags at release build time; the defaults cover `go install`
// and development builds.
var (
	// Version is the semantic version of the binary.
	Version = "dev"
	// Commit is the VCS revision the binary was built from.
	Commit = "none"
	// Date is the build timestamp.
	Date = "unknown"
)

// InitBinaryVersion fills in missing build metadata from the embedded build
// info when ldflags were not provided.
func InitBinaryVersion() {
	if Commit != "none" {
		return
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			Commit = setting.Value

			return
		}
	}
}
