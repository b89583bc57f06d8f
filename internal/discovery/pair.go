package discovery

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bft-labs/gliderbatch/internal/domain"
	"github.com/bft-labs/gliderbatch/pkg/log"
)

// SegmentNumber extracts the dive/segment number shared by a gli file and its
// pld partner: the last run of digits in the basename once a trailing ".gz"
// is removed. "sea044.12.pld1.raw.10.gz" yields 10.
func SegmentNumber(path string) (int, bool) {
	name := strings.TrimSuffix(filepath.Base(path), ".gz")

	end := len(name)
	for end > 0 && !isDigit(name[end-1]) {
		end--
	}
	if end == 0 {
		return 0, false
	}
	start := end
	for start > 0 && isDigit(name[start-1]) {
		start--
	}
	n, err := strconv.Atoi(name[start:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// MatchPairs aligns the gli and pld files of one mission by segment number.
//
// Unmatched files are dropped and logged, never fatal: a gli file without a
// pld partner (or the reverse), a file with no segment number, and any
// repeat of a segment already seen for the same kind. The result follows the
// natural order of the gli files. If no pair survives, MatchPairs returns an
// *domain.InputMismatchError.
func MatchPairs(key domain.MissionKey, dir string, gli, pld []string, logger log.Logger) (domain.AlignedFileSet, error) {
	gli = sortedCopy(gli)
	pld = sortedCopy(pld)

	pldBySeg := make(map[int]string, len(pld))
	pldOrder := make([]int, 0, len(pld))
	for _, p := range pld {
		seg, ok := SegmentNumber(p)
		if !ok {
			logger.Warn("dropping pld file without segment number", missionFields(key, log.String("file", p))...)
			continue
		}
		if prev, dup := pldBySeg[seg]; dup {
			logger.Warn("dropping duplicate pld segment",
				missionFields(key, log.String("file", p), log.String("kept", prev), log.Int("segment", seg))...)
			continue
		}
		pldBySeg[seg] = p
		pldOrder = append(pldOrder, seg)
	}

	var set domain.AlignedFileSet
	used := make(map[int]bool, len(pldBySeg))
	seen := make(map[int]string, len(gli))
	for _, g := range gli {
		seg, ok := SegmentNumber(g)
		if !ok {
			logger.Warn("dropping gli file without segment number", missionFields(key, log.String("file", g))...)
			continue
		}
		if prev, dup := seen[seg]; dup {
			logger.Warn("dropping duplicate gli segment",
				missionFields(key, log.String("file", g), log.String("kept", prev), log.Int("segment", seg))...)
			continue
		}
		seen[seg] = g

		p, ok := pldBySeg[seg]
		if !ok {
			logger.Warn("dropping gli file without pld partner", missionFields(key, log.String("file", g), log.Int("segment", seg))...)
			continue
		}
		used[seg] = true
		set.Gli = append(set.Gli, domain.FileRecord{Path: g, Kind: domain.KindGli, Segment: seg})
		set.Pld = append(set.Pld, domain.FileRecord{Path: p, Kind: domain.KindPld, Segment: seg})
	}

	for _, seg := range pldOrder {
		if !used[seg] {
			logger.Warn("dropping pld file without gli partner",
				missionFields(key, log.String("file", pldBySeg[seg]), log.Int("segment", seg))...)
		}
	}

	if set.Len() == 0 {
		return domain.AlignedFileSet{}, &domain.InputMismatchError{
			Mission: key,
			Dir:     dir,
			Gli:     len(gli),
			Pld:     len(pld),
		}
	}
	return set, nil
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	NaturalSort(out)
	return out
}

func missionFields(key domain.MissionKey, extra ...log.Field) []log.Field {
	fields := make([]log.Field, 0, len(extra)+2)
	fields = append(fields, log.Int("glider", key.GliderID), log.Int("mission", key.MissionID))
	return append(fields, extra...)
}
