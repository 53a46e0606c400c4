// Package export persists a generated population: the dataset CSV, the
// serving feature matrix and the JSON run manifest.
//
// Every file is written through WriteFileAtomic, so a failed run never
// leaves a partially written file at its destination: data goes to a
// temporary file in the destination directory, which is synced and renamed
// over the destination only when the whole write succeeded.
//
// Example:
//
//	if err := export.WriteCSV("dataset.csv", pop); err != nil {
//	    log.LogError(err, "persist failed")
//	}
package export

import (
	"io"
	"os"
	"path/filepath"

	"github.com/ezoic/popsynth/pkg/errors"
)

// FileMode is the permission of every file written by this package.
const FileMode os.FileMode = 0o644

// WriteFileAtomic writes the output of write to path. The file gets
// FileMode, or the mode of the file it replaces.
//
// Errors:
//   - ErrPersistence: if any step fails or write panics; path is left untouched
func WriteFileAtomic(path string, write func(io.Writer) error) (err error) {
	var tmp *os.File
	// Recover の後に実行されるよう先に登録する
	defer func() {
		if err == nil {
			return
		}
		if !errors.Is(err, errors.ErrPersistence) {
			err = errors.Mark(err, errors.ErrPersistence)
		}
		if tmp != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	defer errors.Recover(&err, "WriteFileAtomic")

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	mode := FileMode
	if fi, statErr := os.Stat(path); statErr == nil {
		mode = fi.Mode().Perm()
	}

	tmp, err = os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return persistErr(err, "create temp file for %s", path)
	}
	if err = write(tmp); err != nil {
		return persistErr(err, "write %s", path)
	}
	if err = tmp.Chmod(mode); err != nil {
		return persistErr(err, "chmod %s", path)
	}
	if err = tmp.Sync(); err != nil {
		return persistErr(err, "sync %s", path)
	}
	if err = tmp.Close(); err != nil {
		return persistErr(err, "close %s", path)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return persistErr(err, "rename to %s", path)
	}
	return nil
}

func persistErr(err error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(err, format, args...), errors.ErrPersistence)
}
