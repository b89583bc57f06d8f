// Package fs contains file-system adapters: batch staging and run report
// persistence.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bft-labs/gliderbatch/internal/domain"
	"github.com/bft-labs/gliderbatch/pkg/log"
)

// StagingManager implements ports.Stager on the local file system.
//
// Staging is idempotent: directories are created only when missing, and a
// file already present in the staging directory with the same size and
// modification time as its source is left alone. Anything else is
// overwritten through a temp file and rename, so a re-run never leaves a
// half-written copy behind. Entries that do not belong to the batch are
// removed from the input staging directory, so a batch never sees pairs of
// its neighbours from an earlier plan. Source files are only ever read.
type StagingManager struct {
	logger log.Logger
}

// NewStagingManager creates a StagingManager.
func NewStagingManager(logger log.Logger) *StagingManager {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &StagingManager{logger: logger}
}

// Stage ensures batch.InputDir and batch.OutputDir exist, copies the gli and
// pld files of batch.Range into batch.InputDir and removes anything else
// found there. The first failure aborts the batch and is returned as a
// *domain.StagingIOError.
func (m *StagingManager) Stage(ctx context.Context, batch domain.Batch, files domain.AlignedFileSet) error {
	if batch.Range.Start < 0 || batch.Range.End > files.Len() || batch.Range.Start >= batch.Range.End {
		return &domain.StagingIOError{
			Op:   "slice",
			Path: batch.InputDir,
			Err:  fmt.Errorf("range %s outside %d pairs", batch.Range, files.Len()),
		}
	}

	for _, dir := range []string{batch.InputDir, batch.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &domain.StagingIOError{Op: "mkdir", Path: dir, Err: err}
		}
	}

	copied, skipped := 0, 0
	wanted := make(map[string]bool)
	for _, src := range files.Paths(batch.Range) {
		wanted[filepath.Base(src)] = true
	}
	for _, src := range files.Paths(batch.Range) {
		if err := ctx.Err(); err != nil {
			return &domain.StagingIOError{Op: "copy", Path: src, Err: err}
		}
		dst := filepath.Join(batch.InputDir, filepath.Base(src))
		done, err := copyFile(src, dst)
		if err != nil {
			return &domain.StagingIOError{Op: "copy", Path: src, Err: err}
		}
		if done {
			copied++
		} else {
			skipped++
		}
	}

	removed, err := removeUnwanted(batch.InputDir, wanted)
	if err != nil {
		return err
	}

	m.logger.Debug("staged batch",
		log.Int("batch", batch.Index),
		log.String("dir", batch.InputDir),
		log.Int("copied", copied),
		log.Int("unchanged", skipped),
		log.Int("removed", removed),
	)
	return nil
}

// removeUnwanted deletes every entry of dir whose name is not in wanted.
func removeUnwanted(dir string, wanted map[string]bool) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, &domain.StagingIOError{Op: "list", Path: dir, Err: err}
	}
	removed := 0
	for _, e := range entries {
		if wanted[e.Name()] {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.RemoveAll(path); err != nil {
			return removed, &domain.StagingIOError{Op: "remove", Path: path, Err: err}
		}
		removed++
	}
	return removed, nil
}

// Prune removes <inputDir>_sub_<i> and <outputDir>_sub_<i> for every i >= keep.
// Missing parents are not an error. Failures are *domain.StagingIOError.
func (m *StagingManager) Prune(ctx context.Context, inputDir, outputDir string, keep int) error {
	for _, base := range []string{inputDir, outputDir} {
		if base == "" {
			continue
		}
		stale, err := stagingDirsFrom(base, keep)
		if err != nil {
			return err
		}
		for _, dir := range stale {
			if err := ctx.Err(); err != nil {
				return &domain.StagingIOError{Op: "remove", Path: dir, Err: err}
			}
			if err := os.RemoveAll(dir); err != nil {
				return &domain.StagingIOError{Op: "remove", Path: dir, Err: err}
			}
			m.logger.Info("removed stale staging directory", log.String("dir", dir))
		}
	}
	return nil
}

// stagingDirsFrom lists the existing staging directories of base with an
// index >= keep.
func stagingDirsFrom(base string, keep int) ([]string, error) {
	base = filepath.Clean(base)
	parent := filepath.Dir(base)
	prefix := filepath.Base(base) + "_sub_"

	entries, err := os.ReadDir(parent)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StagingIOError{Op: "list", Path: parent, Err: err}
	}

	var dirs []string
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		suffix := strings.TrimPrefix(e.Name(), prefix)
		i, err := strconv.Atoi(suffix)
		if err != nil || i < keep || strconv.Itoa(i) != suffix {
			continue
		}
		dirs = append(dirs, filepath.Join(parent, e.Name()))
	}
	return dirs, nil
}

// copyFile copies src to dst unless dst is already an identical copy.
// It reports whether bytes were written.
func copyFile(src, dst string) (bool, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, err
	}
	if !srcInfo.Mode().IsRegular() {
		return false, fmt.Errorf("%s is not a regular file", src)
	}

	if dstInfo, err := os.Stat(dst); err == nil {
		if os.SameFile(srcInfo, dstInfo) {
			return false, fmt.Errorf("source and destination are the same file: %s", src)
		}
		if dstInfo.Mode().IsRegular() &&
			dstInfo.Size() == srcInfo.Size() &&
			dstInfo.ModTime().Equal(srcInfo.ModTime()) {
			return false, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}

	in, err := os.Open(src)
	if err != nil {
		return false, err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return false, err
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		cleanup()
		return false, err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return false, err
	}
	if err := os.Chmod(tmpPath, srcInfo.Mode().Perm()); err != nil {
		cleanup()
		return false, err
	}
	if err := os.Chtimes(tmpPath, srcInfo.ModTime(), srcInfo.ModTime()); err != nil {
		cleanup()
		return false, err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		cleanup()
		return false, err
	}
	return true, nil
}
