package build

import (
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	_ "embed"
)

//go:embed VERSION
var rawVersion []byte

// Build information. Version, Commit and BuildTime are meant to be stamped by
// the release pipeline via -ldflags; unset values fall back to the embedded
// VERSION file and the binary's own VCS metadata.
var (
	Version   = ""
	Commit    = ""
	BuildTime = ""
	GoVersion = runtime.Version()
	Platform  = runtime.GOOS + "/" + runtime.GOARCH
	StartTime = time.Now()
)

//nolint:gochecknoinits // resolves unset build vars once, at load.
func init() {
	if Version == "" {
		Version = strings.TrimSpace(string(rawVersion))
	}

	if Commit != "" && BuildTime != "" {
		return
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == "" {
				Commit = setting.Value
			}
		case "vcs.time":
			if BuildTime == "" {
				BuildTime = setting.Value
			}
		}
	}
}

// Info is a point-in-time snapshot of the build metadata plus uptime.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Uptime    string `json:"uptime"`
}

// GetBuildInfo returns build information.
func GetBuildInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		Platform:  Platform,
		Uptime:    time.Since(StartTime).Round(time.Second).String(),
	}
}

func (i Info) String() string {
	lines := []string{
		"Version: " + i.Version,
	}

	if i.Commit != "" {
		lines = append(lines, "Commit: "+i.Commit)
	}

	if i.BuildTime != "" {
		lines = append(lines, "Build Time: "+i.BuildTime)
	}

	lines = append(lines,
		"Go Version: "+i.GoVersion,
		"Platform: "+i.Platform,
		"Uptime: "+i.Uptime,
	)

	return strings.Join(lines, "\n") + "\n"
}
