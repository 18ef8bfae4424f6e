package ingest

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// DiscoverFiles recursively collects every .json file under root, returning
// paths relative to root in walk order. WalkDir visits entries in lexical
// order, so the ordering (and therefore ordinal ID assignment) is
// deterministic for a given tree.
func DiscoverFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) != ".json" {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// folderOf returns the first path segment of a root-relative file path, or
// "root" for files directly under the corpus root.
func folderOf(rel string) string {
	rel = filepath.ToSlash(rel)
	if i := strings.IndexByte(rel, '/'); i > 0 {
		return rel[:i]
	}
	return "root"
}
