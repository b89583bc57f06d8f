package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/bft-labs/gliderbatch/internal/domain"
	"github.com/bft-labs/gliderbatch/pkg/log"
)

// ProductSuffix is the extension of the files recorded for a mission.
const ProductSuffix = ".nc"

// ErrNotIngested is returned for a mission with no ingestion record.
var ErrNotIngested = errors.New("mission not ingested")

// MissionRecord is an ingested mission.
type MissionRecord struct {
	Mission    domain.MissionKey
	OutputDir  string
	FileCount  int
	IngestedAt time.Time
}

// Ingester records a mission's output products.
type Ingester struct {
	db     *sql.DB
	logger log.Logger
	now    func() time.Time
}

// NewIngester creates a new SQLite ingester.
func NewIngester(db *sql.DB, logger log.Logger) *Ingester {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Ingester{db: db, logger: logger, now: time.Now}
}

// Ingest walks outputDir for product files and replaces the mission's rows
// with what it finds, in one transaction.
func (i *Ingester) Ingest(ctx context.Context, key domain.MissionKey, outputDir string) error {
	files, err := collectProducts(outputDir)
	if err != nil {
		return err
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin ingest: %w", err)
	}
	defer tx.Rollback()

	// Deleting the mission cascades to its files.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM missions WHERE glider_id = ? AND mission_id = ?",
		key.GliderID, key.MissionID,
	); err != nil {
		return fmt.Errorf("failed to clear mission %s: %w", key, err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO missions (glider_id, mission_id, output_dir, file_count, ingested_at) VALUES (?, ?, ?, ?, ?)",
		key.GliderID, key.MissionID, outputDir, len(files), i.now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("failed to insert mission %s: %w", key, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO mission_files (glider_id, mission_id, path, size, modified_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare file insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range files {
		if _, err := stmt.ExecContext(ctx,
			key.GliderID, key.MissionID, f.path, f.size, f.modTime.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("failed to insert file %s: %w", f.path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ingest: %w", err)
	}

	i.logger.Info("mission ingested",
		log.String("mission", key.String()),
		log.String("dir", outputDir),
		log.Int("files", len(files)),
	)
	return nil
}

// Mission retrieves an ingested mission.
func (i *Ingester) Mission(ctx context.Context, key domain.MissionKey) (*MissionRecord, error) {
	var ingestedAt string
	rec := &MissionRecord{Mission: key}
	err := i.db.QueryRowContext(ctx,
		"SELECT output_dir, file_count, ingested_at FROM missions WHERE glider_id = ? AND mission_id = ?",
		key.GliderID, key.MissionID,
	).Scan(&rec.OutputDir, &rec.FileCount, &ingestedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotIngested, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mission: %w", err)
	}

	rec.IngestedAt, err = time.Parse(time.RFC3339Nano, ingestedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ingested_at: %w", err)
	}
	return rec, nil
}

// Files lists the product paths recorded for a mission, sorted.
func (i *Ingester) Files(ctx context.Context, key domain.MissionKey) ([]string, error) {
	rows, err := i.db.QueryContext(ctx,
		"SELECT path FROM mission_files WHERE glider_id = ? AND mission_id = ? ORDER BY path",
		key.GliderID, key.MissionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

type product struct {
	path    string
	size    int64
	modTime time.Time
}

func collectProducts(root string) ([]product, error) {
	var out []product
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ProductSuffix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, product{path: path, size: info.Size(), modTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return out, nil
}
