package rag

import (
	"context"
	"log/slog"

	"github.com/liao/quimicai/internal/corpus"
)

// DefaultTopK 未配置时每次检索的单元数
const DefaultTopK = 4

type Pipeline struct {
	index         *Index
	topK          int
	minSimilarity float32
}

func NewPipeline(index *Index, topK int, minSimilarity float32) *Pipeline {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Pipeline{
		index:         index,
		topK:          topK,
		minSimilarity: minSimilarity,
	}
}

// Retrieve 根据问题检索相关的语料单元，最相关的在前
func (p *Pipeline) Retrieve(ctx context.Context, query string) ([]corpus.Unit, error) {
	if p.index.Count() == 0 {
		slog.Debug("no vectors in store, skipping RAG")
		return nil, nil
	}

	results, err := p.index.Query(ctx, query, p.topK, p.minSimilarity)
	if err != nil {
		return nil, err
	}

	units := make([]corpus.Unit, 0, len(results))
	for _, r := range results {
		units = append(units, r.Unit)
	}

	slog.Debug("RAG retrieved units", "query", query, "count", len(units))
	return units, nil
}

// Size 索引中的单元数
func (p *Pipeline) Size() int {
	return p.index.Count()
}
