// Package resolver 化学品名称与标识符互查：精确 -> 分词 -> 子串。
package resolver

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/liao/quimicai/internal/kb"
)

// MinSubstringLen 参与子串匹配的最短键长度（按 rune 计）
const MinSubstringLen = 3

// Index 名称索引，构建后只读
type Index struct {
	byName map[string]string // 规范化名称 -> 标识符
	names  map[string]string // 标识符 -> 规范名
	order  []string          // 注册顺序，保证扫描确定性
	bySize []string          // 子串匹配顺序：长键优先
}

// New 从化学品记录和手工覆盖表构建索引。覆盖表最后合并，冲突时优先
func New(chemicals []kb.Chemical, overrides map[string]string) *Index {
	idx := &Index{
		byName: make(map[string]string),
		names:  make(map[string]string, len(chemicals)),
	}

	for _, c := range chemicals {
		id := strings.TrimSpace(c.ID)
		if id == "" {
			continue
		}
		if _, seen := idx.names[id]; !seen {
			idx.names[id] = canonicalName(c)
		}
		for _, n := range c.Names {
			idx.register(n, id, false)
		}
		idx.register(id, id, false)
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		idx.register(k, strings.TrimSpace(overrides[k]), true)
	}

	idx.bySize = make([]string, len(idx.order))
	copy(idx.bySize, idx.order)
	sort.SliceStable(idx.bySize, func(i, j int) bool {
		return utf8.RuneCountInString(idx.bySize[i]) > utf8.RuneCountInString(idx.bySize[j])
	})
	return idx
}

func (idx *Index) register(name, id string, override bool) {
	key := Normalize(name)
	if key == "" || id == "" {
		return
	}
	if _, exists := idx.byName[key]; exists {
		if override {
			idx.byName[key] = id
		}
		return
	}
	idx.byName[key] = id
	idx.order = append(idx.order, key)
}

// Resolve 将自由文本提及解析为标识符
func (idx *Index) Resolve(mention string) (string, bool) {
	m := Normalize(mention)
	if m == "" {
		return "", false
	}

	if id, ok := idx.byName[m]; ok {
		return id, true
	}

	for _, tok := range Tokenize(m) {
		if id, ok := idx.byName[tok]; ok {
			return id, true
		}
	}

	for _, key := range idx.bySize {
		if utf8.RuneCountInString(key) < MinSubstringLen {
			continue
		}
		if strings.Contains(m, key) || (utf8.RuneCountInString(m) >= MinSubstringLen && strings.Contains(key, m)) {
			return idx.byName[key], true
		}
	}
	return "", false
}

// Match 只做精确匹配（名称或标识符），不分词也不做子串
func (idx *Index) Match(ref string) (string, bool) {
	id, ok := idx.byName[Normalize(ref)]
	return id, ok
}

// Name 标识符对应的规范名；未知标识符原样返回
func (idx *Index) Name(id string) string {
	if n, ok := idx.names[strings.TrimSpace(id)]; ok {
		return n
	}
	return id
}

// Lookup 只查已知标识符的规范名，不做模糊匹配
func (idx *Index) Lookup(id string) (string, bool) {
	n, ok := idx.names[strings.TrimSpace(id)]
	return n, ok
}

// DisplayName 解析引用并返回显示名；无法解析时返回原文
func (idx *Index) DisplayName(ref string) string {
	if n, ok := idx.Lookup(ref); ok {
		return n
	}
	if id, ok := idx.Resolve(ref); ok {
		return idx.Name(id)
	}
	return ref
}

// Len 已注册的名称数
func (idx *Index) Len() int { return len(idx.order) }

// Normalize 小写并去除首尾空白
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Tokenize 按空白和标点切分；下划线保留在词内，使 ing_004 成为一个词
func Tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
}

func canonicalName(c kb.Chemical) string {
	for _, n := range c.Names {
		if n = strings.TrimSpace(n); n != "" {
			return n
		}
	}
	return strings.TrimSpace(c.ID)
}
