// Package archive moves processed input files out of the data directory.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Archiver relocates files that a pipeline run has consumed.
type Archiver interface {
	Archive(ctx context.Context, files []string) (Result, error)
}

// Result lists where each archived file ended up.
type Result struct {
	Destinations []string
}

// Local moves files into a directory on the same host.
type Local struct {
	dir string
	log logrus.FieldLogger
}

// NewLocal builds a Local archiver targeting dir.
func NewLocal(dir string, log logrus.FieldLogger) *Local {
	return &Local{dir: dir, log: log}
}

// Archive moves every file into the processed directory, keeping base names.
// An empty list is a no-op.
func (l *Local) Archive(ctx context.Context, files []string) (Result, error) {
	if len(files) == 0 {
		l.log.Info("no files to archive")
		return Result{}, nil
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create processed dir: %w", err)
	}

	var result Result
	for _, src := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		dst := filepath.Join(l.dir, filepath.Base(src))
		if err := move(src, dst); err != nil {
			return result, fmt.Errorf("archive %s: %w", src, err)
		}
		l.log.WithFields(logrus.Fields{"from": src, "to": dst}).Info("archived file")
		result.Destinations = append(result.Destinations, dst)
	}
	return result, nil
}

// move renames src to dst, falling back to copy and remove when the rename
// crosses filesystems.
func move(src, dst string) error {
	renameErr := os.Rename(src, dst)
	if renameErr == nil {
		return nil
	}
	if _, err := os.Stat(src); err != nil {
		return renameErr
	}
	if err := copyFile(src, dst); err != nil {
		return errors.Join(renameErr, err)
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
