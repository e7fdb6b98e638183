// Package normalizer 把知识库记录渲染成确定性的文本块。
package normalizer

import (
	"regexp"
	"strings"

	"github.com/liao/quimicai/internal/resolver"
)

// 输出中使用的固定文本
const (
	NotSpecified     = "No especificado"
	UnknownPH        = "Desconocido"
	UnknownToxicity  = "Desconocida"
	DefaultCategory  = "General"
	UnnamedRecipe    = "Sin nombre"
	officialWarnPref = "Advertencia Oficial: "
)

// identifierRe 匹配嵌入文本中的标识符，如 ing_004、chem_012
var identifierRe = regexp.MustCompile(`\b[A-Za-z]+(?:_[A-Za-z]+)*_[0-9]+\b`)

// Names 渲染时需要的名称解析能力
type Names interface {
	Match(ref string) (string, bool)
	Resolve(mention string) (string, bool)
	Name(id string) string
}

var _ Names = (*resolver.Index)(nil)

// exactName 标识符或精确名称 -> 规范名
func exactName(names Names, ref string) (string, bool) {
	id, ok := names.Match(ref)
	if !ok {
		return "", false
	}
	return names.Name(id), true
}

// mentionName 自由文本提及 -> 规范名，解析失败返回原文
func mentionName(names Names, mention string) string {
	mention = strings.TrimSpace(mention)
	if id, ok := names.Resolve(mention); ok {
		return names.Name(id)
	}
	return mention
}

// resolveEmbedded 替换文本中可解析的标识符，其余文字（含括号里的原因）原样保留
func resolveEmbedded(names Names, text string) string {
	return identifierRe.ReplaceAllStringFunc(text, func(m string) string {
		if n, ok := exactName(names, m); ok {
			return n
		}
		return m
	})
}

type block struct {
	lines []string
}

func (b *block) add(label, value string) {
	b.lines = append(b.lines, label+": "+value)
}

// addIf 只在值存在时输出
func (b *block) addIf(label, value string) {
	if value = strings.TrimSpace(value); value != "" {
		b.add(label, value)
	}
}

func (b *block) raw(line string) {
	b.lines = append(b.lines, line)
}

func (b *block) String() string {
	return strings.Join(b.lines, "\n")
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

func joinNonBlank(items []string, sep string) string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, sep)
}
