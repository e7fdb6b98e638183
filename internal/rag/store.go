package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/philippgille/chromem-go"

	"github.com/liao/quimicai/internal/corpus"
)

const (
	collectionPrefix = "kb-"
	metaCorpusHash   = "corpus_hash"
	metaEmbedModel   = "embedding_model"
)

// Store 向量库。每份语料和 embedding 模型的组合对应一个集合
type Store struct {
	db         *chromem.DB
	embedModel string
	embedFunc  chromem.EmbeddingFunc
}

// NewStore 创建或加载持久化向量库；vectorsDir 为空时只在内存中
func NewStore(vectorsDir, embedModel string, embedFunc chromem.EmbeddingFunc) (*Store, error) {
	if vectorsDir == "" {
		return &Store{db: chromem.NewDB(), embedModel: embedModel, embedFunc: embedFunc}, nil
	}

	db, err := chromem.NewPersistentDB(vectorsDir, false)
	if err != nil {
		return nil, fmt.Errorf("open vector db: %w", err)
	}
	slog.Info("vector store opened", "dir", vectorsDir, "collections", len(db.ListCollections()))
	return &Store{db: db, embedModel: embedModel, embedFunc: embedFunc}, nil
}

// Open 返回语料对应的索引。集合已存在且文档数一致时直接复用
func (s *Store) Open(ctx context.Context, hash string, units []corpus.Unit) (idx *Index, cached bool, err error) {
	name := s.CollectionName(hash)

	if col := s.db.GetCollection(name, s.embedFunc); col != nil {
		if col.Count() == len(units) {
			return &Index{collection: col}, true, nil
		}
		slog.Warn("vector collection incomplete, rebuilding", "collection", name, "count", col.Count(), "want", len(units))
		if err := s.db.DeleteCollection(name); err != nil {
			return nil, false, fmt.Errorf("delete collection: %w", err)
		}
	}

	col, err := s.db.CreateCollection(name, map[string]string{metaCorpusHash: hash, metaEmbedModel: s.embedModel}, s.embedFunc)
	if err != nil {
		return nil, false, fmt.Errorf("create collection: %w", err)
	}

	if err := col.AddDocuments(ctx, documents(units), runtime.NumCPU()); err != nil {
		// 不留下半成品缓存
		if delErr := s.db.DeleteCollection(name); delErr != nil {
			slog.Warn("cleanup partial collection failed", "collection", name, "error", delErr)
		}
		return nil, false, fmt.Errorf("add documents: %w", err)
	}
	return &Index{collection: col}, false, nil
}

// Prune 删除其他语料版本遗留的集合
func (s *Store) Prune(keepHash string) int {
	keep := s.CollectionName(keepHash)
	removed := 0
	for name := range s.db.ListCollections() {
		if name == keep || !strings.HasPrefix(name, collectionPrefix) {
			continue
		}
		if err := s.db.DeleteCollection(name); err != nil {
			slog.Warn("delete stale collection failed", "collection", name, "error", err)
			continue
		}
		removed++
	}
	return removed
}

// CollectionName 语料指纹 + embedding 模型 -> 集合名。换模型时向量维度可能不同，必须重建
func (s *Store) CollectionName(hash string) string {
	sum := sha256.Sum256([]byte(hash + "\x00" + s.embedModel))
	return collectionPrefix + hex.EncodeToString(sum[:8])
}

func documents(units []corpus.Unit) []chromem.Document {
	docs := make([]chromem.Document, 0, len(units))
	for i, u := range units {
		docs = append(docs, chromem.Document{
			ID:       fmt.Sprintf("u%05d", i),
			Content:  u.Text,
			Metadata: u.Metadata.Map(),
		})
	}
	return docs
}

// Index 一份语料的只读向量索引
type Index struct {
	collection *chromem.Collection
}

// Query 检索最相似的单元，按相似度降序
func (x *Index) Query(ctx context.Context, text string, topK int, minSimilarity float32) ([]Result, error) {
	count := x.Count()
	if count == 0 || topK <= 0 {
		return nil, nil
	}

	k := topK
	if k > count {
		k = count
	}

	docs, err := x.collection.Query(ctx, text, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}

	var results []Result
	for _, d := range docs {
		if d.Similarity < minSimilarity {
			continue
		}
		results = append(results, Result{
			Unit:       corpus.Unit{Text: d.Content, Metadata: corpus.MetadataFromMap(d.Metadata)},
			Similarity: d.Similarity,
		})
	}
	return results, nil
}

// Count 返回文档数量
func (x *Index) Count() int {
	if x == nil || x.collection == nil {
		return 0
	}
	return x.collection.Count()
}

type Result struct {
	Unit       corpus.Unit
	Similarity float32
}
