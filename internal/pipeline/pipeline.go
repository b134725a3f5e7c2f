package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/codanna-go/codanna/internal/embedstage"
	"github.com/codanna-go/codanna/internal/gitignore"
	"github.com/codanna-go/codanna/internal/parsing"
)

// Pipeline wires DISCOVER, READ, PARSE, COLLECT, and INDEX/EMBED into one
// bounded-channel dataflow over a set of source roots.
type Pipeline struct {
	cfg      Config
	registry *parsing.Registry
	ignore   *gitignore.Matcher
	resolver moduleResolver
	store    *Store

	trackers struct {
		Discover, Read, Parse, Collect, Index StageTracker
	}
}

// New builds a Pipeline. registry resolves files to language parsers;
// ignore filters DISCOVER's walk; resolver answers module_path_for_file
// for COLLECT; store is where INDEX/EMBED writes.
func New(cfg Config, registry *parsing.Registry, ignore *gitignore.Matcher, resolver moduleResolver, store *Store) *Pipeline {
	return &Pipeline{cfg: cfg.withDefaults(), registry: registry, ignore: ignore, resolver: resolver, store: store}
}

// Run walks roots and indexes every discovered file, returning per-stage
// metrics and the total embed stats across every committed batch.
func (p *Pipeline) Run(ctx context.Context, roots []string) (Stats, embedstage.EmbedStats, error) {
	paths := make(chan string, p.cfg.PathCapacity)
	contents := make(chan parsing.FileContent, p.cfg.ContentCapacity)
	parsed := make(chan parsedItem, p.cfg.ParsedCapacity)
	batches := make(chan *IndexBatch, p.cfg.BatchCapacity)

	g, gctx := errgroup.WithContext(ctx)

	// DISCOVER: one goroutine per root, sharing the discover worker pool
	// as a cap on how many roots walk concurrently.
	g.Go(func() error {
		defer close(paths)
		return p.runDiscover(gctx, roots, paths)
	})

	// READ: pool of workers draining paths, producing contents.
	var readWG sync.WaitGroup
	readWG.Add(p.cfg.ReadWorkers)
	for i := 0; i < p.cfg.ReadWorkers; i++ {
		g.Go(func() error {
			defer readWG.Done()
			p.runRead(gctx, paths, contents)
			return nil
		})
	}
	g.Go(func() error {
		readWG.Wait()
		close(contents)
		return nil
	})

	// PARSE: pool of workers draining contents, producing parsed items.
	var parseWG sync.WaitGroup
	parseWG.Add(p.cfg.ParseWorkers)
	for i := 0; i < p.cfg.ParseWorkers; i++ {
		g.Go(func() error {
			defer parseWG.Done()
			p.runParse(gctx, contents, parsed)
			return nil
		})
	}
	g.Go(func() error {
		parseWG.Wait()
		close(parsed)
		return nil
	})

	// COLLECT: single-threaded, assigns ids and batches.
	g.Go(func() error {
		defer close(batches)
		return p.runCollect(gctx, parsed, batches)
	})

	// INDEX/EMBED: single-threaded, writes batches and periodically commits.
	var stats embedstage.EmbedStats
	g.Go(func() error {
		var err error
		stats, err = p.runIndexEmbed(gctx, batches)
		return err
	})

	err := g.Wait()
	return p.Snapshot(), stats, err
}

// Snapshot reads every stage tracker's current counters. Safe to call
// concurrently with a running Run, since StageTracker's counters are
// atomic — a caller polling Snapshot from another goroutine sees a live
// progress readout rather than only the stats Run returns on completion.
func (p *Pipeline) Snapshot() Stats {
	return Stats{
		Discover: p.trackers.Discover.Snapshot(),
		Read:     p.trackers.Read.Snapshot(),
		Parse:    p.trackers.Parse.Snapshot(),
		Collect:  p.trackers.Collect.Snapshot(),
		Index:    p.trackers.Index.Snapshot(),
	}
}

func (p *Pipeline) runDiscover(ctx context.Context, roots []string, out chan<- string) error {
	sem := make(chan struct{}, p.cfg.DiscoverWorkers)
	var wg sync.WaitGroup
	var firstErr error
	var mu sync.Mutex

	for _, root := range roots {
		sem <- struct{}{}
		wg.Add(1)
		go func(root string) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := discover(ctx, root, p.ignore, &p.trackers.Discover, out); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(root)
	}
	wg.Wait()
	return firstErr
}

func (p *Pipeline) runRead(ctx context.Context, in <-chan string, out chan<- parsing.FileContent) {
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-in:
			if !ok {
				return
			}
			fc, ok := read(path, &p.trackers.Read)
			if !ok {
				continue
			}
			select {
			case out <- fc:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (p *Pipeline) runParse(ctx context.Context, in <-chan parsing.FileContent, out chan<- parsedItem) {
	for {
		select {
		case <-ctx.Done():
			return
		case fc, ok := <-in:
			if !ok {
				return
			}
			item, ok := parseOne(p.registry, fc, &p.trackers.Parse)
			if !ok {
				continue
			}
			select {
			case out <- item:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (p *Pipeline) runCollect(ctx context.Context, in <-chan parsedItem, out chan<- *IndexBatch) error {
	c := newCollector(p.resolver)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item, ok := <-in:
			if !ok {
				if batch := c.flush(); batch != nil {
					batch.Relationships = append(batch.Relationships, c.resolvePending()...)
					select {
					case out <- batch:
					case <-ctx.Done():
						return ctx.Err()
					}
				} else if rels := c.resolvePending(); len(rels) > 0 {
					select {
					case out <- &IndexBatch{Relationships: rels}:
					case <-ctx.Done():
						return ctx.Err()
					}
				}
				return nil
			}
			if batch := c.collectFile(item, p.cfg.CollectBatchSize); batch != nil {
				p.trackers.Collect.RecordItem(1)
				select {
				case out <- batch:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

func (p *Pipeline) runIndexEmbed(ctx context.Context, in <-chan *IndexBatch) (embedstage.EmbedStats, error) {
	var total embedstage.EmbedStats
	commits := 0
	var lastVectorCount int

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		case batch, ok := <-in:
			if !ok {
				if commits > 0 {
					if err := p.store.commit(); err != nil {
						return total, err
					}
				}
				return total, nil
			}
			stats, err := p.store.indexBatch(batch)
			if err != nil {
				return total, err
			}
			total.Requested += stats.Requested
			total.Embedded += stats.Embedded
			total.Dropped += stats.Dropped
			p.trackers.Index.RecordItem(1)

			commits++
			if commits >= p.cfg.BatchesPerCommit {
				if err := p.store.commit(); err != nil {
					return total, err
				}
				commits = 0
				lastVectorCount = maybeRetriggerClustering(total.Embedded, lastVectorCount)
			}
		}
	}
}

// maybeRetriggerClustering compares the live-vector count against its
// value at the last commit and returns the new baseline. Retriggering
// clustering itself is left to the caller (internal/docstore), which owns
// the cluster.Result lifecycle; this just tracks the ≥10% growth signal
// the documented commit step names.
func maybeRetriggerClustering(currentCount, lastCount int) int {
	if lastCount == 0 {
		return currentCount
	}
	growth := float64(currentCount-lastCount) / float64(lastCount)
	if growth >= 0.10 {
		return currentCount
	}
	return lastCount
}
