// Package assistant 检索加生成：用知识库上下文回答一个问题。
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/liao/quimicai/internal/corpus"
	"github.com/liao/quimicai/internal/metrics"
)

// ErrEmptyQuestion 问题为空或只有空白
var ErrEmptyQuestion = errors.New("empty question")

// Retriever 返回最多 k 个相关单元，最相关的在前
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]corpus.Unit, error)
}

// Generator 根据上下文和问题生成回答
type Generator interface {
	Generate(ctx context.Context, contextBlock, question string) (string, error)
}

type Answer struct {
	Text  string
	Units []corpus.Unit
}

// Sources 按检索顺序返回来源元数据，从不为 nil
func (a *Answer) Sources() []corpus.Metadata {
	out := make([]corpus.Metadata, 0, len(a.Units))
	for _, u := range a.Units {
		out = append(out, u.Metadata)
	}
	return out
}

type Assistant struct {
	retriever Retriever
	generator Generator
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New retriever 可以为 nil（空知识库），m 和 logger 可以为 nil
func New(retriever Retriever, generator Generator, m *metrics.Metrics, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{
		retriever: retriever,
		generator: generator,
		metrics:   m,
		logger:    logger,
	}
}

// Ready 生成能力是否可用
func (a *Assistant) Ready() bool {
	return a != nil && a.generator != nil
}

func (a *Assistant) Ask(ctx context.Context, question string) (*Answer, error) {
	start := time.Now()
	question = strings.TrimSpace(question)
	if question == "" {
		a.metrics.ObserveAsk(metrics.OutcomeRejected, 0, 0)
		return nil, ErrEmptyQuestion
	}
	if a.generator == nil {
		a.metrics.ObserveAsk(metrics.OutcomeFailed, time.Since(start), 0)
		return nil, errors.New("assistant has no generator")
	}

	var units []corpus.Unit
	if a.retriever != nil {
		var err error
		units, err = a.retriever.Retrieve(ctx, question)
		if err != nil {
			a.metrics.ObserveAsk(metrics.OutcomeFailed, time.Since(start), 0)
			return nil, fmt.Errorf("retrieve: %w", err)
		}
	}

	contextBlock := strings.Join(corpus.Texts(units), "\n\n")
	if strings.TrimSpace(contextBlock) == "" {
		a.logger.Warn("no context retrieved for question", "question", question)
		a.metrics.EmptyContext()
	}

	text, err := a.generator.Generate(ctx, contextBlock, question)
	if err != nil {
		a.metrics.ObserveAsk(metrics.OutcomeFailed, time.Since(start), len(units))
		return nil, fmt.Errorf("generate: %w", err)
	}

	a.metrics.ObserveAsk(metrics.OutcomeOK, time.Since(start), len(units))
	a.logger.Debug("question answered", "retrieved", len(units), "took", time.Since(start))
	return &Answer{Text: text, Units: units}, nil
}
