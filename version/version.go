// Package version exposes build metadata for the `krusty --version` flag
// and the interactive banner.
package version

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"
)

var (
	// Populated at build time via -ldflags.
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info is the structured version payload returned by GetCurrentVersion.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// GetCurrentVersion returns the current build's version metadata, falling
// back to the Go module's embedded build info when ldflags were not set
// (e.g. `go install github.com/.../krusty@latest`).
func GetCurrentVersion() Info {
	v, c, d := Version, Commit, BuildDate

	if v == "dev" || c == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if v == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
				v = strings.TrimPrefix(info.Main.Version, "v")
			}
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" && c == "unknown" {
					c = s.Value
				}
				if s.Key == "vcs.time" && d == "unknown" {
					if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
						d = t.Format("2006-01-02 15:04:05")
					}
				}
			}
		}
	}

	return Info{Version: v, Commit: c, BuildDate: d}
}

// FormatVersionInfo renders Info as a human-readable block, optionally
// colorized. Colorization is disabled when colorize is false; cmd/krusty
// always passes true for `--version`.
func FormatVersionInfo(info Info, colorize bool) string {
	line := func(label, value string) string {
		if !colorize {
			return fmt.Sprintf("  %-12s %s\n", label, value)
		}
		return fmt.Sprintf("  \033[36m%-12s\033[0m %s\n", label, value)
	}

	var b strings.Builder
	b.WriteString("krusty\n")
	b.WriteString(line("version:", info.Version))
	b.WriteString(line("commit:", info.Commit))
	b.WriteString(line("built:", info.BuildDate))
	return b.String()
}

// PrintStartupVersionInfo writes a single-line banner to stderr, matching
// the one-liner startup notices the rest of the shell emits there.
func PrintStartupVersionInfo() {
	info := GetCurrentVersion()
	fmt.Fprintf(os.Stderr, "krusty %s (%s, built %s)\n", info.Version, info.Commit, info.BuildDate)
}
