// Package walk lists files below a directory by suffix.
package walk

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// Files returns every regular file under root whose name ends with suffix,
// in lexical order. A root that is itself a matching file is returned alone.
func Files(root, suffix string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && strings.HasSuffix(d.Name(), suffix) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return paths, nil
}
