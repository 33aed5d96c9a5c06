// Package version reports build metadata set with
//
//	go build -ldflags "-X yuvconv/internal/version.BuildNumber=42 -X yuvconv/internal/version.GitCommit=abc123"
package version

import (
    "fmt"
    "runtime"
    "runtime/debug"
)

var (
    // BuildNumber is set by the release build; "dev" for local builds.
    BuildNumber = "dev"
    // GitCommit is the short commit hash. When unset it is taken from the
    // VCS stamp the go tool embeds, if any.
    GitCommit = ""
)

// Commit returns GitCommit or the embedded vcs.revision, shortened.
func Commit() string {
    if GitCommit != "" { return GitCommit }
    info, ok := debug.ReadBuildInfo()
    if !ok { return "" }
    for _, s := range info.Settings {
        if s.Key == "vcs.revision" && len(s.Value) >= 7 { return s.Value[:7] }
    }
    return ""
}

// String returns e.g. "yuvconv build 42 (abc123, go1.22.5)".
func String() string {
    if c := Commit(); c != "" {
        return fmt.Sprintf("yuvconv build %s (%s, %s)", BuildNumber, c, runtime.Version())
    }
    return fmt.Sprintf("yuvconv build %s (%s)", BuildNumber, runtime.Version())
}
