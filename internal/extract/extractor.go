package extract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/weitweety/biking-data-analyzer/internal/domain"
)

const readConcurrency = 4

// Batch is the result of reading a directory: the merged table plus the files read.
type Batch struct {
	Table Table
	Files []string
}

// Extractor reads CSV inputs from disk.
type Extractor struct {
	log logrus.FieldLogger
}

// New builds an Extractor.
func New(log logrus.FieldLogger) *Extractor {
	return &Extractor{log: log}
}

// Dir reads every *.csv file directly under dir in name order.
// It returns domain.ErrNoData when the directory holds no CSV files.
func (e *Extractor) Dir(ctx context.Context, dir string) (Batch, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Batch{}, fmt.Errorf("%w: data directory %s", domain.ErrNotFound, dir)
		}
		return Batch{}, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return Batch{}, fmt.Errorf("%w: %s is not a directory", domain.ErrValidation, dir)
	}

	files, err := csvFiles(dir)
	if err != nil {
		return Batch{}, err
	}
	if len(files) == 0 {
		e.log.WithField("dir", dir).Warn("no csv files found")
		return Batch{}, domain.ErrNoData
	}

	// files are parsed concurrently; Concat keeps enumeration order
	tables := make([]Table, len(files))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(readConcurrency)
	for i, path := range files {
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			table, err := e.File(gctx, path)
			if err != nil {
				return err
			}
			tables[i] = table
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Batch{}, err
	}

	merged := Concat(tables...)
	e.log.WithFields(logrus.Fields{"files": len(files), "rows": merged.Len()}).Info("extracted csv batch")
	return Batch{Table: merged, Files: files}, nil
}

// File reads one CSV file.
func (e *Extractor) File(_ context.Context, path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Table{}, fmt.Errorf("%w: file %s", domain.ErrNotFound, path)
		}
		return Table{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	table, err := ReadCSV(f)
	if err != nil {
		return Table{}, fmt.Errorf("parse %s: %w", path, err)
	}
	e.log.WithFields(logrus.Fields{"file": filepath.Base(path), "rows": table.Len()}).Debug("read csv file")
	return table, nil
}

func csvFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}
