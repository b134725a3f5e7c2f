package cluster

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/codanna-go/codanna/internal/core"
	"github.com/codanna-go/codanna/internal/errors"
)

// clustersFileName is the sidecar persisted next to a collection's vector
// segments, per spec.md §4.5.
const clustersFileName = "clusters.json"

// persistedResult is the on-disk shape of Result: VectorId/ClusterId keys
// round-trip through JSON as decimal strings, so assignments are stored
// as an explicit slice of pairs instead of a map.
type persistedResult struct {
	Centroids   [][]float32        `json:"centroids"`
	Assignments []persistedMapping `json:"assignments"`
}

type persistedMapping struct {
	VectorID  uint32 `json:"vector_id"`
	ClusterID uint32 `json:"cluster_id"`
}

// Save atomically writes result to clusters.json under dir.
func Save(dir string, result Result) error {
	persisted := persistedResult{
		Centroids:   result.Centroids,
		Assignments: make([]persistedMapping, 0, len(result.Assignments)),
	}
	for id, clusterID := range result.Assignments {
		persisted.Assignments = append(persisted.Assignments, persistedMapping{
			VectorID:  id.Value(),
			ClusterID: clusterID.Value(),
		})
	}

	data, err := json.MarshalIndent(persisted, "", "  ")
	if err != nil {
		return errors.Wrap("cluster", errors.CodeVectorIO, err)
	}

	path := filepath.Join(dir, clustersFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap("cluster", errors.CodeVectorIO, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrap("cluster", errors.CodeVectorIO, err)
	}
	return nil
}

// Load reads clusters.json from dir. It returns a zero Result with no
// error if the file does not exist yet (fresh index, no clustering pass
// has run), matching the "fall back to full scan" behavior spec.md §4.7
// asks for.
func Load(dir string) (Result, error) {
	path := filepath.Join(dir, clustersFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Result{Assignments: map[core.VectorId]core.ClusterId{}}, nil
	}
	if err != nil {
		return Result{}, errors.Wrap("cluster", errors.CodeVectorIO, err)
	}

	var persisted persistedResult
	if err := json.Unmarshal(data, &persisted); err != nil {
		return Result{}, errors.Wrap("cluster", errors.CodeVectorIO, err)
	}

	result := Result{
		Centroids:   persisted.Centroids,
		Assignments: make(map[core.VectorId]core.ClusterId, len(persisted.Assignments)),
	}
	for _, m := range persisted.Assignments {
		vectorID, err := core.NewVectorId(m.VectorID)
		if err != nil {
			continue
		}
		clusterID, err := core.NewClusterId(m.ClusterID)
		if err != nil {
			continue
		}
		result.Assignments[vectorID] = clusterID
	}
	return result, nil
}
