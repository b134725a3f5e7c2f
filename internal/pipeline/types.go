// Package pipeline implements the Indexing Pipeline (component §4.9): five
// bounded-channel stages — DISCOVER, READ, PARSE, COLLECT, INDEX/EMBED —
// each a pool of workers consuming from one channel and producing to the
// next, replacing a single-threaded scan→chunk→embed→store walk with an
// independently-pooled dataflow.
package pipeline

import (
	"runtime"

	"github.com/codanna-go/codanna/internal/core"
	"github.com/codanna-go/codanna/internal/embedstage"
	"github.com/codanna-go/codanna/internal/parsing"
)

// Config controls worker counts, channel capacities, and batching for one
// pipeline run. Zero-value fields are filled in by DefaultConfig.
type Config struct {
	DiscoverWorkers int
	ReadWorkers     int
	ParseWorkers    int
	CollectWorkers  int
	IndexWorkers    int

	PathCapacity    int
	ContentCapacity int
	ParsedCapacity  int
	BatchCapacity   int

	CollectBatchSize int
	BatchesPerCommit int
}

// DefaultConfig matches the documented stage-pool and channel-capacity
// defaults.
func DefaultConfig() Config {
	parseWorkers := runtime.NumCPU() - 2
	if parseWorkers < 1 {
		parseWorkers = 1
	}
	return Config{
		DiscoverWorkers: 4,
		ReadWorkers:     2,
		ParseWorkers:    parseWorkers,
		CollectWorkers:  1,
		IndexWorkers:    1,

		PathCapacity:    1000,
		ContentCapacity: 100,
		ParsedCapacity:  1000,
		BatchCapacity:   20,

		CollectBatchSize: 5000,
		BatchesPerCommit: 10,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DiscoverWorkers <= 0 {
		c.DiscoverWorkers = d.DiscoverWorkers
	}
	if c.ReadWorkers <= 0 {
		c.ReadWorkers = d.ReadWorkers
	}
	if c.ParseWorkers <= 0 {
		c.ParseWorkers = d.ParseWorkers
	}
	if c.CollectWorkers <= 0 {
		c.CollectWorkers = d.CollectWorkers
	}
	if c.IndexWorkers <= 0 {
		c.IndexWorkers = d.IndexWorkers
	}
	if c.PathCapacity <= 0 {
		c.PathCapacity = d.PathCapacity
	}
	if c.ContentCapacity <= 0 {
		c.ContentCapacity = d.ContentCapacity
	}
	if c.ParsedCapacity <= 0 {
		c.ParsedCapacity = d.ParsedCapacity
	}
	if c.BatchCapacity <= 0 {
		c.BatchCapacity = d.BatchCapacity
	}
	if c.CollectBatchSize <= 0 {
		c.CollectBatchSize = d.CollectBatchSize
	}
	if c.BatchesPerCommit <= 0 {
		c.BatchesPerCommit = d.BatchesPerCommit
	}
	return c
}

// parsedItem is PARSE's output: one file's parse result plus the raw bytes
// COLLECT needs for nothing more than bookkeeping (the content hash).
type parsedItem struct {
	content    parsing.FileContent
	parsed     parsing.ParsedFile
	languageID string
}

// IndexBatch is COLLECT's output: a batch of newly ID-assigned symbols,
// resolved relationships, file state updates, and embed texts queued for
// the Embed Stage.
type IndexBatch struct {
	Symbols       []core.Symbol
	Relationships []core.Relationship
	Files         []core.FileState
	EmbedTexts    []embedstage.Pair

	// FilePaths maps each batch's FileIds back to their source path, so
	// the INDEX/EMBED stage can populate a symbol doc's file_path field
	// without FileState itself carrying the id (state.json keys FileState
	// by path, not the reverse).
	FilePaths map[core.FileId]string
}
