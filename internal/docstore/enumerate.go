package docstore

import (
	"io/fs"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// enumerateFiles walks every root in paths and returns the absolute path
// of every regular file whose root-relative path matches at least one of
// patterns (e.g. "**/*.md", "**/*.txt").
func enumerateFiles(paths, patterns []string) ([]string, error) {
	var out []string
	for _, root := range paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				return nil
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			for _, pattern := range patterns {
				if matched, _ := doublestar.Match(pattern, rel); matched {
					out = append(out, path)
					break
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
