package rag

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/liao/quimicai/internal/corpus"
	"github.com/liao/quimicai/internal/metrics"
)

// Indexer 把语料交给向量库。相同语料的并发构建合并为一次
type Indexer struct {
	store   *Store
	metrics *metrics.Metrics
	group   singleflight.Group
}

func NewIndexer(store *Store, m *metrics.Metrics) *Indexer {
	return &Indexer{store: store, metrics: m}
}

// Index 返回语料对应的索引；空语料返回 nil
func (ix *Indexer) Index(ctx context.Context, units []corpus.Unit) (*Index, error) {
	if len(units) == 0 {
		return nil, nil
	}

	hash := corpus.Hash(units)
	v, err, shared := ix.group.Do(hash, func() (any, error) {
		start := time.Now()
		idx, cached, err := ix.store.Open(ctx, hash, units)
		if err != nil {
			ix.metrics.IndexBuild(metrics.IndexFailed)
			return nil, err
		}
		if cached {
			ix.metrics.IndexBuild(metrics.IndexCached)
			slog.Info("vector index loaded from cache", "collection", ix.store.CollectionName(hash), "count", idx.Count())
		} else {
			ix.metrics.IndexBuild(metrics.IndexBuilt)
			slog.Info("vector index built", "collection", ix.store.CollectionName(hash), "count", idx.Count(), "took", time.Since(start))
		}
		if n := ix.store.Prune(hash); n > 0 {
			slog.Info("removed stale vector collections", "count", n)
		}
		return idx, nil
	})
	if err != nil {
		return nil, fmt.Errorf("index corpus: %w", err)
	}
	if shared {
		slog.Debug("joined in-flight index build", "collection", ix.store.CollectionName(hash))
	}
	return v.(*Index), nil
}
