// Package buildinfo reports which build of the bot is running.
//
// Release builds set the variables with -ldflags, for example
//
//	-X 'github.com/m3rciful/dialogbot/core/buildinfo.Version=v1.2.3'
//
// Otherwise Commit and Date fall back to the VCS stamp Go embeds in the binary.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Info is the resolved build identity.
type Info struct {
	Version string
	Commit  string
	Date    string
	Dirty   bool
}

// Read resolves Info from the linker variables and the embedded build settings.
func Read() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info.withDefaults()
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == "" {
				info.Date = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info.withDefaults()
}

func (i Info) withDefaults() Info {
	if i.Commit == "" {
		i.Commit = "local"
	}
	if len(i.Commit) > 12 {
		i.Commit = i.Commit[:12]
	}
	return i
}

func (i Info) String() string {
	s := fmt.Sprintf("%s (commit %s", i.Version, i.Commit)
	if i.Dirty {
		s += ", modified"
	}
	if i.Date != "" {
		s += ", built " + i.Date
	}
	return s + ")"
}
