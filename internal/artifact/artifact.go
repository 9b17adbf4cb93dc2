// Package artifact writes and locates the files a run produces: the flare
// tree, the entity table and the run summary, one directory per root.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/persistorai/wdtree/internal/models"
)

// Artifact file names inside a root directory.
const (
	TreeFile  = "tree.json"
	TableFile = "table.json"
	RunFile   = "run.json"
)

// ErrNotFound reports a root without artifacts.
var ErrNotFound = errors.New("artifact not found")

// Dir returns the artifact directory of root under base.
func Dir(base, root string) string {
	return filepath.Join(base, root)
}

// Path returns the path of one artifact file. root must be an entity id so
// the result never escapes base.
func Path(base, root, name string) (string, error) {
	if !models.IsEntityID(root) {
		return "", fmt.Errorf("root %q: %w", root, models.ErrInvalidEntity)
	}

	return filepath.Join(Dir(base, root), name), nil
}

// WriteAll writes the artifacts of every result. Files are staged first and
// renamed into place only once every result encoded and staged, so a failure
// leaves no partial output.
func WriteAll(base string, results []*models.Result) error {
	type staged struct{ tmp, final string }
	var pending []staged

	cleanup := func() {
		for _, s := range pending {
			os.Remove(s.tmp) //nolint:errcheck // best-effort cleanup.
		}
	}

	for _, res := range results {
		dir := Dir(base, res.Root)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			cleanup()
			return fmt.Errorf("creating %s: %w", dir, err)
		}

		records := []map[string]any{}
		if res.Table != nil {
			records = res.Table.Records()
		}

		files := []struct {
			name string
			v    any
		}{
			{TreeFile, res.Tree},
			{TableFile, records},
			{RunFile, res},
		}
		for _, f := range files {
			tmp, err := stage(dir, f.name, f.v)
			if err != nil {
				cleanup()
				return err
			}
			pending = append(pending, staged{tmp: tmp, final: filepath.Join(dir, f.name)})
		}
	}

	for i, s := range pending {
		if err := os.Rename(s.tmp, s.final); err != nil {
			for _, rest := range pending[i:] {
				os.Remove(rest.tmp) //nolint:errcheck // best-effort cleanup.
			}
			return fmt.Errorf("publishing %s: %w", s.final, err)
		}
	}

	return nil
}

func stage(dir, name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", name, err)
	}

	f, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("staging %s: %w", name, err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()           //nolint:errcheck // write error takes precedence.
		os.Remove(f.Name()) //nolint:errcheck // best-effort cleanup.
		return "", fmt.Errorf("writing %s: %w", name, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(f.Name()) //nolint:errcheck // best-effort cleanup.
		return "", fmt.Errorf("closing %s: %w", name, err)
	}

	return f.Name(), nil
}

// Roots lists the roots under base that have a tree artifact, sorted.
func Roots(base string) ([]string, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("listing %s: %w", base, err)
	}

	roots := []string{}
	for _, e := range entries {
		if !e.IsDir() || !models.IsEntityID(e.Name()) {
			continue
		}
		if _, err := os.Stat(filepath.Join(base, e.Name(), TreeFile)); err == nil {
			roots = append(roots, e.Name())
		}
	}

	slices.Sort(roots)
	return roots, nil
}

// Read returns the raw content of one artifact.
func Read(base, root, name string) ([]byte, error) {
	path, err := Path(base, root, name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s/%s: %w", root, name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return data, nil
}
