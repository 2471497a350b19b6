// Package version exposes the provisr build version.
package version

// version is set at build time via -ldflags "-X .../pkg/version.version=v1.2.3".
var version = "dev" //nolint:gochecknoglobals // Set by the linker at build time

// GetVersion returns the build version string.
func GetVersion() string {
	return version
}
