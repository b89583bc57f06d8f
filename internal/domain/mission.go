package domain

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Directory name prefixes of the mission tree: <root>/SEA<glider>/M<mission>.
const (
	GliderDirPrefix  = "SEA"
	MissionDirPrefix = "M"
)

// MissionKey identifies one glider deployment.
type MissionKey struct {
	GliderID  int `json:"glider"`
	MissionID int `json:"mission"`
}

// String returns the relative mission path, e.g. "SEA44/M12".
func (k MissionKey) String() string {
	return GliderDirPrefix + strconv.Itoa(k.GliderID) + "/" + MissionDirPrefix + strconv.Itoa(k.MissionID)
}

// Dir returns the mission directory under root.
func (k MissionKey) Dir(root string) string {
	return filepath.Join(root,
		fmt.Sprintf("%s%d", GliderDirPrefix, k.GliderID),
		fmt.Sprintf("%s%d", MissionDirPrefix, k.MissionID))
}

// ParseGliderDir extracts the glider id from a "SEA<int>" directory name.
func ParseGliderDir(name string) (int, error) {
	return parsePrefixed(name, GliderDirPrefix)
}

// ParseMissionDir extracts the mission id from a "M<int>" directory name.
func ParseMissionDir(name string) (int, error) {
	return parsePrefixed(name, MissionDirPrefix)
}

func parsePrefixed(name, prefix string) (int, error) {
	if !strings.HasPrefix(name, prefix) {
		return 0, fmt.Errorf("%q does not start with %q", name, prefix)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(name, prefix))
	if err != nil {
		return 0, fmt.Errorf("%q: %w", name, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%q: negative id", name)
	}
	return n, nil
}

// StagingDir returns the per-batch staging directory for base:
// "<base without trailing slash>_sub_<index>".
func StagingDir(base string, index int) string {
	trimmed := strings.TrimRight(base, "/")
	if trimmed == "" {
		trimmed = base
	}
	return trimmed + "_sub_" + strconv.Itoa(index)
}
