// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/citation-engine/pkg/types"
)

// MetadataSource looks up descriptive metadata for one external identifier.
// Implementations return an error when the identifier is unknown or the
// lookup fails; the engine treats both the same way. The engine passes the
// run context unchanged: a source that queues requests applies its own
// per-lookup timeout to the network call, not to the time spent queued.
type MetadataSource interface {
	Fetch(ctx context.Context, id string) (*types.PaperMetadata, error)
}

// MetadataCache stores fetched metadata by identifier. Get reports ok=false
// on a miss. Concurrent Puts for the same identifier may overwrite each
// other.
type MetadataCache interface {
	Get(ctx context.Context, id string) (meta *types.PaperMetadata, ok bool, err error)
	Put(ctx context.Context, meta types.PaperMetadata) error
}

// fetcher resolves metadata for a set of identifiers through a cache and a
// source, isolating failures per identifier.
type fetcher struct {
	source      MetadataSource
	cache       MetadataCache
	ttl         time.Duration
	concurrency int
	now         func() time.Time
	w           io.Writer // shared by workers; see lockedWriter
}

// fetchAll returns metadata for each identifier it could obtain. An
// identifier whose lookup fails is absent from the result.
func (f *fetcher) fetchAll(ctx context.Context, ids []string) map[string]types.PaperMetadata {
	out := make(map[string]types.PaperMetadata, len(ids))
	if len(ids) == 0 {
		return out
	}
	fmt.Fprintf(f.w, "fetching metadata for %d unique paper(s)\n", len(ids))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			meta, err := f.fetchOne(gctx, id)
			if err != nil {
				fmt.Fprintf(f.w, "failed  metadata %s: %v\n", id, err)
				return nil
			}
			mu.Lock()
			out[id] = *meta
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; per-identifier failures are logged above.
	_ = g.Wait()

	fmt.Fprintf(f.w, "fetched metadata for %d of %d paper(s)\n", len(out), len(ids))
	return out
}

// fetchOne consults the cache, then the source. A successful source fetch
// is written back to the cache; a failed cache write is only reported.
func (f *fetcher) fetchOne(ctx context.Context, id string) (*types.PaperMetadata, error) {
	if f.cache != nil {
		cached, ok, err := f.cache.Get(ctx, id)
		switch {
		case err != nil:
			fmt.Fprintf(f.w, "warning: cache lookup for %s: %v\n", id, err)
		case ok && cached.Fresh(f.now(), f.ttl):
			return cached, nil
		}
	}

	if f.source == nil {
		return nil, fmt.Errorf("no metadata source configured")
	}

	meta, err := f.source.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if meta == nil || meta.Title == "" {
		return nil, fmt.Errorf("metadata for %s has no title", id)
	}
	meta.ID = id
	meta.Active = true
	if meta.FetchedAt.IsZero() {
		meta.FetchedAt = f.now().UTC()
	}

	if f.cache != nil {
		if err := f.cache.Put(ctx, *meta); err != nil {
			fmt.Fprintf(f.w, "warning: caching metadata for %s: %v\n", id, err)
		}
	}
	return meta, nil
}

// lockedWriter serializes writes from concurrent fetch workers.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
