package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetCurrentVersion_Defaults(t *testing.T) {
	origV, origC, origD := Version, Commit, BuildDate
	defer func() { Version, Commit, BuildDate = origV, origC, origD }()

	Version, Commit, BuildDate = "1.2.3", "abc1234", "2026-07-31"

	info := GetCurrentVersion()
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, "abc1234", info.Commit)
	assert.Equal(t, "2026-07-31", info.BuildDate)
}

func TestGetCurrentVersion_FallsBackToBuildInfo(t *testing.T) {
	origV, origC, origD := Version, Commit, BuildDate
	defer func() { Version, Commit, BuildDate = origV, origC, origD }()

	Version, Commit, BuildDate = "dev", "unknown", "unknown"

	info := GetCurrentVersion()
	// debug.ReadBuildInfo() is available under `go test`; just assert the
	// call doesn't panic and always yields non-empty fields.
	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.Commit)
	assert.NotEmpty(t, info.BuildDate)
}

func TestFormatVersionInfo_Plain(t *testing.T) {
	info := Info{Version: "1.25.0", Commit: "abc1234", BuildDate: "2026-07-31"}

	out := FormatVersionInfo(info, false)
	assert.Contains(t, out, "krusty")
	assert.Contains(t, out, "1.25.0")
	assert.Contains(t, out, "abc1234")
	assert.Contains(t, out, "2026-07-31")
	assert.NotContains(t, out, "\033[")
}

func TestFormatVersionInfo_Colorized(t *testing.T) {
	info := Info{Version: "1.25.0", Commit: "abc1234", BuildDate: "2026-07-31"}

	out := FormatVersionInfo(info, true)
	assert.True(t, strings.Contains(out, "\033["), "expected ANSI color codes when colorize=true")
	assert.Contains(t, out, "1.25.0")
}
