package version

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Name is the service name reported by /version and the startup log.
const Name = "dice-io-server"

// Set with -ldflags "-X dice-io-server/internal/version.BuildDate=...".
var (
	BuildDate   string // YYYY-MM-DD (UTC)
	BuildCommit string
	BuildBranch string
	BuildCI     string
)

// Build ids count days since the arena's first release.
var buildEpoch = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

// VersionInfo describes the build metadata in structured form.
type VersionInfo struct {
	Name       string `json:"name"`
	BuildID    int    `json:"buildId"`
	BuildDate  string `json:"buildDate,omitempty"`
	Commit     string `json:"commit,omitempty"`
	Branch     string `json:"branch,omitempty"`
	CI         string `json:"ci,omitempty"`
	Calculated bool   `json:"calculated"`
	Error      string `json:"error,omitempty"`
}

func CalculateBuildID() (int, error) {
	if BuildDate == "" {
		return 0, fmt.Errorf("BuildDate is empty")
	}

	t, err := time.ParseInLocation("2006-01-02", BuildDate, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("invalid BuildDate %q: %w", BuildDate, err)
	}
	if t.Before(buildEpoch) {
		return 0, fmt.Errorf("BuildDate %s is before epoch", BuildDate)
	}

	return int(t.Sub(buildEpoch).Hours() / 24), nil
}

// Info is safe to call at any time.
func Info() VersionInfo {
	info := VersionInfo{
		Name:      Name,
		BuildDate: BuildDate,
		Commit:    BuildCommit,
		Branch:    BuildBranch,
		CI:        BuildCI,
	}

	id, err := CalculateBuildID()
	if err != nil {
		info.Error = err.Error()
		return info
	}
	info.BuildID = id
	info.Calculated = true
	return info
}

func String() string {
	info := Info()
	if !info.Calculated {
		return fmt.Sprintf("%s build unknown (%s)", Name, info.Error)
	}
	return fmt.Sprintf(
		"%s build %d (%s) commit[%s] branch[%s] ci[%s]",
		Name,
		info.BuildID,
		info.BuildDate,
		coalesce(info.Commit, "unknown"),
		coalesce(info.Branch, "unknown"),
		coalesce(info.CI, "local"),
	)
}

// Fields is the build metadata for the startup log line.
func Fields() logrus.Fields {
	info := Info()
	return logrus.Fields{
		"build_id": info.BuildID,
		"commit":   coalesce(info.Commit, "unknown"),
		"branch":   coalesce(info.Branch, "unknown"),
	}
}

func coalesce(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
