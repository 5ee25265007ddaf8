// Package version reports the wanwatch build version.
package version

import "runtime"

// Overridden at link time:
//
//	-ldflags "-X github.com/carverauto/wanwatch/pkg/version.version=v1.2.0 -X github.com/carverauto/wanwatch/pkg/version.commit=abc123"
//
//nolint:gochecknoglobals // ldflags targets
var (
	version = "dev"
	commit  = "unknown"
)

// GetVersion returns the release version.
func GetVersion() string {
	return version
}

// GetFullVersion returns the version together with the commit and Go toolchain.
func GetFullVersion() string {
	return version + " (commit " + commit + ", " + runtime.Version() + ")"
}

// UserAgent is sent on outbound HTTP requests to the gateway and the Bot API.
func UserAgent() string {
	return "wanwatch/" + version
}
