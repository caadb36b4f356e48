package buildinfo

import (
	"runtime"
	"runtime/debug"
	"sync"
)

// Build-time variables (set via ldflags).
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// Info contains build information.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Modified  bool   `json:"modified,omitempty"`
}

var (
	once sync.Once
	info Info
)

// Get returns the build information. Fields left empty by ldflags are
// filled from the binary's embedded VCS settings, or "unknown".
func Get() Info {
	once.Do(func() {
		info = resolve(Version, Commit, BuildTime, readSettings())
	})
	return info
}

// String returns a formatted version string.
func String() string {
	i := Get()
	s := i.Version + " (" + i.Commit
	if i.Modified {
		s += "-dirty"
	}
	return s + ") built at " + i.BuildTime + " with " + i.GoVersion
}

func readSettings() map[string]string {
	settings := map[string]string{}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return settings
	}
	for _, s := range bi.Settings {
		settings[s.Key] = s.Value
	}
	return settings
}

func resolve(version, commit, buildTime string, settings map[string]string) Info {
	i := Info{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
		Modified:  settings["vcs.modified"] == "true",
	}
	if i.Commit == "" {
		i.Commit = shortRevision(settings["vcs.revision"])
	}
	if i.BuildTime == "" {
		i.BuildTime = settings["vcs.time"]
	}
	if i.Version == "" {
		i.Version = "dev"
	}
	if i.Commit == "" {
		i.Commit = "unknown"
	}
	if i.BuildTime == "" {
		i.BuildTime = "unknown"
	}
	return i
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
