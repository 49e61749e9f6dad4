package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// outputFile is one artifact to be written.
type outputFile struct {
	Path    string
	Content string
}

// writeAll writes every file or none. Contents go to temporary files next
// to their targets, existing targets are moved aside, and then all temps
// are renamed into place. If any step fails, the previous targets are
// restored, so the earlier artifacts stay together as a pair.
func writeAll(files []outputFile) error {
	temps := make([]string, 0, len(files))
	removeTemps := func() {
		for _, t := range temps {
			os.Remove(t)
		}
	}

	for _, f := range files {
		dir := filepath.Dir(f.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			removeTemps()
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+".*.tmp")
		if err != nil {
			removeTemps()
			return fmt.Errorf("creating temp file for %s: %w", f.Path, err)
		}
		temps = append(temps, tmp.Name())
		if _, err := tmp.WriteString(f.Content); err != nil {
			tmp.Close()
			removeTemps()
			return fmt.Errorf("writing %s: %w", f.Path, err)
		}
		if err := tmp.Close(); err != nil {
			removeTemps()
			return fmt.Errorf("writing %s: %w", f.Path, err)
		}
	}

	// backups[i] is where the previous content of files[i] was moved, or "".
	backups := make([]string, len(files))
	restore := func(renamed int) {
		for _, f := range files[:renamed] {
			os.Remove(f.Path)
		}
		for i, b := range backups {
			if b != "" {
				os.Rename(b, files[i].Path)
			}
		}
		removeTemps()
	}

	for i, f := range files {
		b, err := moveAside(f.Path)
		if err != nil {
			restore(0)
			return fmt.Errorf("backing up %s: %w", f.Path, err)
		}
		backups[i] = b
	}

	for i, f := range files {
		if err := os.Rename(temps[i], f.Path); err != nil {
			restore(i)
			return fmt.Errorf("moving %s into place: %w", f.Path, err)
		}
	}

	for _, b := range backups {
		if b != "" {
			os.Remove(b)
		}
	}
	return nil
}

// moveAside renames an existing regular file at path to a unique sibling
// and returns the new name. Missing paths and non-regular files are left
// alone and yield "".
func moveAside(path string) (string, error) {
	info, err := os.Lstat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", nil
	case err != nil:
		return "", err
	case !info.Mode().IsRegular():
		return "", nil
	}

	bak, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.bak")
	if err != nil {
		return "", err
	}
	name := bak.Name()
	bak.Close()
	if err := os.Rename(path, name); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}
