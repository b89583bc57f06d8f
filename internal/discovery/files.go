package discovery

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bft-labs/gliderbatch/internal/domain"
)

// ListMissionFiles returns the gli files (*gli*) and the pld files of the
// given data kind (*pld*<kind>*) directly under dir, in natural order.
// Directories matching the patterns are ignored.
func ListMissionFiles(dir string, kind domain.DataKind) (gli, pld []string, err error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("input dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("input dir %s: not a directory", dir)
	}

	gli, err = globFiles(filepath.Join(dir, "*gli*"))
	if err != nil {
		return nil, nil, err
	}
	pld, err = globFiles(filepath.Join(dir, "*pld*"+string(kind)+"*"))
	if err != nil {
		return nil, nil, err
	}
	return gli, pld, nil
}

func globFiles(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	files := matches[:0]
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		files = append(files, m)
	}
	NaturalSort(files)
	return files, nil
}
