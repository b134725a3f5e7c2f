package docstore

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/codanna-go/codanna/internal/core"
	"github.com/codanna-go/codanna/internal/errors"
)

const stateFileName = "state.json"

// loadState reads state.json from dir, returning a fresh empty state if
// it does not exist yet.
func loadState(dir string) (*stateFile, error) {
	path := filepath.Join(dir, stateFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return newStateFile(), nil
	}
	if err != nil {
		return nil, errors.Wrap("docstore", errors.CodeDocumentStateIO, err)
	}

	var s stateFile
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap("docstore", errors.CodeDocumentStateIO, err)
	}
	if s.Files == nil {
		s.Files = make(map[string]core.FileState)
	}
	if s.CollectionIDs == nil {
		s.CollectionIDs = make(map[string]core.CollectionId)
	}
	return &s, nil
}

// save writes state.json atomically: encode to a temp file in the same
// directory, then rename over the final path, matching the teacher's
// write-to-tempfile-then-rename persistence idiom (internal/store/hnsw.go's
// saveMetadata) generalized from gob to JSON for the documented sidecar
// format.
func (s *stateFile) save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap("docstore", errors.CodeDocumentStateIO, err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap("docstore", errors.CodeDocumentStateIO, err)
	}

	path := filepath.Join(dir, stateFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap("docstore", errors.CodeDocumentStateIO, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrap("docstore", errors.CodeDocumentStateIO, err)
	}
	return nil
}
