package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bft-labs/gliderbatch/internal/domain"
)

// stagingDirRe matches the per-batch directories the core itself creates
// next to each mission directory.
var stagingDirRe = regexp.MustCompile(`^M\d+_sub_\d+$`)

// Candidate is the discovery result for one directory: either a Key or an
// Err (always a *domain.DiscoveryError).
type Candidate struct {
	Path string
	Key  domain.MissionKey
	Err  error
}

// OK reports whether the candidate names a mission.
func (c Candidate) OK() bool { return c.Err == nil }

// DiscoverMissions lists the missions under root, laid out as
// <root>/SEA<glider>/M<mission>. Directories that look like part of the tree
// but do not parse become failed candidates instead of aborting discovery.
// Staging directories (M<mission>_sub_<i>) are ignored. The result is in
// natural order of glider, then mission directory. Only a failure to read
// root itself is returned as an error.
func DiscoverMissions(root string) ([]Candidate, error) {
	gliderDirs, err := subdirs(root, domain.GliderDirPrefix)
	if err != nil {
		return nil, fmt.Errorf("read mission root %s: %w", root, err)
	}

	var out []Candidate
	for _, gd := range gliderDirs {
		gliderPath := filepath.Join(root, gd)
		glider, err := domain.ParseGliderDir(gd)
		if err != nil {
			out = append(out, Candidate{Path: gliderPath, Err: &domain.DiscoveryError{Path: gliderPath, Reason: err}})
			continue
		}

		missionDirs, err := subdirs(gliderPath, domain.MissionDirPrefix)
		if err != nil {
			out = append(out, Candidate{Path: gliderPath, Err: &domain.DiscoveryError{Path: gliderPath, Reason: err}})
			continue
		}
		for _, md := range missionDirs {
			if stagingDirRe.MatchString(md) {
				continue
			}
			missionPath := filepath.Join(gliderPath, md)
			mission, err := domain.ParseMissionDir(md)
			if err != nil {
				out = append(out, Candidate{Path: missionPath, Err: &domain.DiscoveryError{Path: missionPath, Reason: err}})
				continue
			}
			out = append(out, Candidate{
				Path: missionPath,
				Key:  domain.MissionKey{GliderID: glider, MissionID: mission},
			})
		}
	}
	return out, nil
}

// Split separates candidates into mission keys and discovery errors.
func Split(cands []Candidate) ([]domain.MissionKey, []*domain.DiscoveryError) {
	var keys []domain.MissionKey
	var errs []*domain.DiscoveryError
	for _, c := range cands {
		if c.OK() {
			keys = append(keys, c.Key)
			continue
		}
		if de, ok := c.Err.(*domain.DiscoveryError); ok {
			errs = append(errs, de)
		} else {
			errs = append(errs, &domain.DiscoveryError{Path: c.Path, Reason: c.Err})
		}
	}
	return keys, errs
}

func subdirs(dir, prefix string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range ents {
		if e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			names = append(names, e.Name())
		}
	}
	NaturalSort(names)
	return names, nil
}
