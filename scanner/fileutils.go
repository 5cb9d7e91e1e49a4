package scanner

import (
	"fmt"
	"os"
	"path/filepath"

	"imagededup/types"
)

// ListFolder enumerates dir non-recursively, sorted by name. Directories are
// listed too; the extractor classifies them as non-images.
func ListFolder(dir string) ([]types.CandidateFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot list folder %s: %w", dir, err)
	}

	files := make([]types.CandidateFile, 0, len(entries))
	for _, entry := range entries {
		files = append(files, types.CandidateFile{
			Name: entry.Name(),
			Path: filepath.Join(dir, entry.Name()),
		})
	}
	return files, nil
}

// CandidatesFromPaths wraps a pre-supplied file list, keeping its order.
func CandidatesFromPaths(paths []string) []types.CandidateFile {
	files := make([]types.CandidateFile, 0, len(paths))
	for _, p := range paths {
		files = append(files, types.CandidateFile{Name: filepath.Base(p), Path: p})
	}
	return files
}
