// Package buildinfo reports the version of the running binary.
package buildinfo

import (
	"runtime"
	"runtime/debug"
	"sync"
)

// Set via -ldflags at release time.
var (
	Version    = "v0.1.0"
	CommitHash = "unknown"
)

type Info struct {
	About      string `json:"about,omitempty"`
	Service    string `json:"service,omitempty"`
	Version    string `json:"version,omitempty"`
	CommitHash string `json:"commit_hash,omitempty"`
	GoVersion  string `json:"go_version,omitempty"`
	Modified   bool   `json:"modified,omitempty"`
}

var (
	vcsOnce     sync.Once
	vcsRevision string
	vcsModified bool
)

// readVCS falls back to the revision stamped by the go tool for non-release builds.
func readVCS() {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			vcsRevision = s.Value
		case "vcs.modified":
			vcsModified = s.Value == "true"
		}
	}
}

func GetBuildInfo() Info {
	vcsOnce.Do(readVCS)

	commit := CommitHash
	if commit == "unknown" && vcsRevision != "" {
		commit = vcsRevision
	}
	return Info{
		About:      "https://github.com/darmiel/guestgate",
		Service:    "guestgate",
		Version:    Version,
		CommitHash: commit,
		GoVersion:  runtime.Version(),
		Modified:   vcsModified,
	}
}
