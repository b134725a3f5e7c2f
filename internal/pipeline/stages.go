package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/codanna-go/codanna/internal/gitignore"
	"github.com/codanna-go/codanna/internal/parsing"
)

// discover walks roots honoring ignore, emitting paths to out with stable
// per-directory ordering; it leaves out open, and Run closes it. One call runs per DISCOVER
// worker's share of roots; the caller fans workers out over independent
// roots or lets a single worker walk everything (DISCOVER's concurrency
// comes from overlapping I/O across multiple walked trees, not from
// splitting a single tree).
func discover(ctx context.Context, root string, ignore *gitignore.Matcher, tracker *StageTracker, out chan<- string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("discover: walk error", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if ignore != nil && ignore.Match(path, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		waitStart := time.Now()
		select {
		case out <- path:
			tracker.RecordOutputWait(time.Since(waitStart))
			tracker.RecordItem(0)
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})
}

// read reads one file's bytes, hashes its content, and emits a
// parsing.FileContent. On I/O error the file is dropped with a warning,
// never fatal — matching the documented READ contract.
func read(path string, tracker *StageTracker) (parsing.FileContent, bool) {
	start := time.Now()
	defer func() { tracker.RecordInputWait(time.Since(start)) }()

	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("read: failed to read file", slog.String("path", path), slog.String("error", err.Error()))
		return parsing.FileContent{}, false
	}

	sum := sha256.Sum256(data)
	tracker.RecordItem(uint64(len(data)))
	return parsing.FileContent{Path: path, Bytes: data, ContentHash: hex.EncodeToString(sum[:])}, true
}

// parseOne invokes the Parser Front-End for one file. Unsupported file
// types are dropped with a debug log, never fatal.
func parseOne(reg *parsing.Registry, fc parsing.FileContent, tracker *StageTracker) (parsedItem, bool) {
	langParser, err := reg.ParserFor(fc.Path)
	if err != nil {
		slog.Debug("parse: skipping file", slog.String("path", fc.Path), slog.String("error", err.Error()))
		return parsedItem{}, false
	}
	parsed, err := langParser.ParseFile(fc)
	if err != nil {
		slog.Debug("parse: skipping file", slog.String("path", fc.Path), slog.String("error", err.Error()))
		return parsedItem{}, false
	}
	tracker.RecordItem(uint64(len(parsed.RawSymbols)))
	return parsedItem{content: fc, parsed: parsed, languageID: langParser.LanguageID()}, true
}
