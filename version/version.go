package version

import (
	"fmt"
	"runtime/debug"
)

// Product is the product token sent in the User-Agent header.
const Product = "payclient"

var (
	// These variables are set at build time using -ldflags
	Version   = "dev"
	GitCommit = ""
)

// Info represents version information.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
	IsDirty   bool   `json:"is_dirty"`
}

// Get returns the version information, filling the commit from the
// embedded VCS metadata when it was not set at link time.
func Get() Info {
	info := Info{Version: Version, GitCommit: GitCommit}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		info.GoVersion = buildInfo.GoVersion
		for _, setting := range buildInfo.Settings {
			switch setting.Key {
			case "vcs.revision":
				if info.GitCommit == "" {
					info.GitCommit = setting.Value
				}
			case "vcs.modified":
				info.IsDirty = setting.Value == "true"
			}
		}
	}
	if len(info.GitCommit) > 7 {
		info.GitCommit = info.GitCommit[:7]
	}
	return info
}

// Short returns "<version>[-<commit>][-dirty]".
func (i Info) Short() string {
	s := i.Version
	if i.GitCommit != "" {
		s = fmt.Sprintf("%s-%s", s, i.GitCommit)
	}
	if i.IsDirty {
		s += "-dirty"
	}
	return s
}

// UserAgent returns the fixed User-Agent value, "payclient/<version>".
func UserAgent() string {
	return Product + "/" + Version
}
