// Package corpus 知识库 -> 有序语料单元（化学品、配方、规则）。
package corpus

import (
	"log/slog"
	"strings"

	"github.com/liao/quimicai/internal/kb"
	"github.com/liao/quimicai/internal/normalizer"
	"github.com/liao/quimicai/internal/resolver"
)

// Stats 一次构建的统计
type Stats struct {
	Chemicals  int
	Recipes    int
	Rules      int
	MissingID  int
	Duplicates int
	Invalid    int
}

// Total 产出的单元数
func (s Stats) Total() int { return s.Chemicals + s.Recipes + s.Rules }

// Skipped 被丢弃的条目数
func (s Stats) Skipped() int { return s.MissingID + s.Duplicates + s.Invalid }

type Builder struct {
	logger *slog.Logger
}

func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger}
}

// BuildFile 加载并构建。文件缺失或不是合法 JSON 时返回空语料并记录错误，不会失败
func (b *Builder) BuildFile(path string) ([]Unit, Stats) {
	doc, err := kb.LoadFile(path, b.logger)
	if err != nil {
		b.logger.Error("knowledge base unavailable, serving empty corpus", "path", path, "error", err)
		return nil, Stats{}
	}
	return b.Build(doc)
}

// Build 按 化学品 -> 配方 -> 规则 的顺序渲染
func (b *Builder) Build(doc *kb.Document) ([]Unit, Stats) {
	var st Stats
	if doc == nil {
		return nil, st
	}
	st.Invalid = doc.Invalid

	chemicals := b.dedupeChemicals(doc.Chemicals, &st)
	names := resolver.New(chemicals, doc.NameOverrides)

	units := make([]Unit, 0, len(chemicals)+len(doc.Recipes)+len(doc.Rules))
	for _, c := range chemicals {
		units = append(units, Unit{
			Text: normalizer.Chemical(c, names),
			Metadata: Metadata{
				Kind: KindInventory,
				ID:   c.ID,
				Name: names.Name(c.ID),
				File: doc.Source,
			},
		})
		st.Chemicals++
	}

	for _, r := range b.dedupeRecipes(doc.Recipes, &st) {
		file := strings.TrimSpace(r.SourceFile)
		if file == "" {
			file = doc.Source
		}
		units = append(units, Unit{
			Text: normalizer.Recipe(r, names),
			Metadata: Metadata{
				Kind: KindRecipe,
				ID:   strings.TrimSpace(r.ID),
				Name: strings.TrimSpace(r.Name),
				File: file,
				Row:  r.SourceRow.String(),
			},
		})
		st.Recipes++
	}

	for _, r := range b.dedupeRules(doc.Rules, &st) {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			id = strings.Join(r.Members(), "+")
		}
		units = append(units, Unit{
			Text: normalizer.SafetyRule(r, names),
			Metadata: Metadata{
				Kind: KindGuardrail,
				ID:   id,
				Name: strings.Join(normalizer.Participants(r, names), " + "),
				File: doc.Source,
			},
		})
		st.Rules++
	}

	b.logger.Info("corpus built",
		"units", len(units),
		"chemicals", st.Chemicals,
		"recipes", st.Recipes,
		"rules", st.Rules,
		"skipped", st.Skipped(),
		"names", names.Len(),
	)
	return units, st
}

// dedupeChemicals 第一次出现的记录保留，缺 id 或重复的记录丢弃
func (b *Builder) dedupeChemicals(in []kb.Chemical, st *Stats) []kb.Chemical {
	seen := make(map[string]struct{}, len(in))
	out := make([]kb.Chemical, 0, len(in))
	for i, c := range in {
		c.ID = strings.TrimSpace(c.ID)
		if c.ID == "" {
			b.logger.Warn("skipping chemical without id", "index", i, "names", c.Names)
			st.MissingID++
			continue
		}
		if _, dup := seen[c.ID]; dup {
			b.logger.Warn("skipping duplicate chemical id", "id", c.ID, "index", i)
			st.Duplicates++
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}

func (b *Builder) dedupeRecipes(in []kb.Recipe, st *Stats) []kb.Recipe {
	seen := make(map[string]struct{}, len(in))
	out := make([]kb.Recipe, 0, len(in))
	for i, r := range in {
		id := strings.TrimSpace(r.ID)
		if id != "" {
			if _, dup := seen[id]; dup {
				b.logger.Warn("skipping duplicate recipe id", "id", id, "index", i)
				st.Duplicates++
				continue
			}
			seen[id] = struct{}{}
		}
		out = append(out, r)
	}
	return out
}

// dedupeRules 丢弃参与者、结果、危险和警告都相同的规则
func (b *Builder) dedupeRules(in []kb.SafetyRule, st *Stats) []kb.SafetyRule {
	seen := make(map[string]struct{}, len(in))
	out := make([]kb.SafetyRule, 0, len(in))
	for i, r := range in {
		msg, _ := r.Message()
		key := strings.Join([]string{
			resolver.Normalize(strings.Join(r.Members(), "\x1f")),
			r.Result, r.Hazard, msg,
		}, "\x1e")
		if _, dup := seen[key]; dup {
			b.logger.Warn("skipping duplicate safety rule", "index", i, "participants", r.Members())
			st.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
