// Package version provides information about the build version of the service.
package version

// BuildInfo holds version information about the service build.
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns the build information
// version, commit and date are stamped with
// -ldflags "-X galactly/internal/core/version.version=v0.1.0 -X galactly/internal/core/version.commit=abcd"
func Info() BuildInfo {
	return BuildInfo{
		Service: service,
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// Service returns the service name reported in logs and meta endpoints
func Service() string { return service }

var (
	service = "galactly-api"
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
