// Package scan enumerates the input files of an ingestion run. It is
// deliberately thin: a flat listing of regular files, sorted by name, so
// runs are deterministic.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// File is one candidate input file.
type File struct {
	Path string
	Name string
	Ext  string
}

// Files lists the regular files directly under dir.
func Files(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list input dir: %w", err)
	}

	var files []File
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		files = append(files, File{
			Path: filepath.Join(dir, name),
			Name: name,
			Ext:  filepath.Ext(name),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}
