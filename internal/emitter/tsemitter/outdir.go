package tsemitter

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-json-experiment/json"
)

type outDir struct {
	root string
}

func openOutDir(dir string) (*outDir, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve out dir: %w", err)
	}
	if st, err := os.Stat(abs); err == nil && !st.IsDir() {
		return nil, fmt.Errorf("tsemitter: output path %q is not a directory", abs)
	}
	return &outDir{root: abs}, nil
}

func (d *outDir) abs(rel string) string { return filepath.Join(d.root, filepath.FromSlash(rel)) }

// readManifest loads the manifest of a previous run. A missing directory or
// manifest is not an error.
func (d *outDir) readManifest() (manifest, bool, error) {
	var m manifest
	b, err := os.ReadFile(d.abs(ManifestName))
	if errors.Is(err, fs.ErrNotExist) {
		return m, false, nil
	}
	if err != nil {
		return m, false, fmt.Errorf("read manifest: %w", err)
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, false, fmt.Errorf("decode manifest %s: %w", d.abs(ManifestName), err)
	}
	return m, true, nil
}

func (d *outDir) empty() (bool, error) {
	entries, err := os.ReadDir(d.root)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("read out dir: %w", err)
	}
	return len(entries) == 0, nil
}

func (d *outDir) status(rel string, content []byte) FileStatus {
	cur, err := os.ReadFile(d.abs(rel))
	switch {
	case err != nil:
		return StatusCreate
	case bytes.Equal(cur, content):
		return StatusUnchanged
	default:
		return StatusUpdate
	}
}

// write replaces rel atomically through a temp file in the same directory.
func (d *outDir) write(rel string, content []byte) error {
	p := d.abs(rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), filepath.Base(p)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp %s: %w", rel, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp %s: %w", rel, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp %s: %w", rel, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", rel, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", rel, err)
	}
	return nil
}

// remove deletes a stale file and any directories it leaves empty below the
// root.
func (d *outDir) remove(rel string) error {
	p := d.abs(rel)
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", rel, err)
	}
	for dir := filepath.Dir(p); dir != d.root && len(dir) > len(d.root); dir = filepath.Dir(dir) {
		if os.Remove(dir) != nil {
			break
		}
	}
	return nil
}
