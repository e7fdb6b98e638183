package kb

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

var (
	ErrNotFound  = errors.New("knowledge base not found")
	ErrMalformed = errors.New("knowledge base is not valid JSON")
)

// 顶层集合键
const (
	KeyChemicals = "inventario_quimico"
	KeyRecipes   = "recetas_sugeridas"
	KeyRules     = "reglas_prohibidas_guardrails"
	KeyNameMap   = "manual_name_map"
)

// Document 解析后的知识库文档
type Document struct {
	Source        string // 文件名，用于 corpus 元数据
	Chemicals     []Chemical
	Recipes       []Recipe
	Rules         []SafetyRule
	NameOverrides map[string]string
	Invalid       int // 无法解码而被跳过的条目数
}

// LoadFile 读取并解析知识库 JSON 文件
func LoadFile(path string, logger *slog.Logger) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}
	doc, err := Parse(data, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Source = filepath.Base(path)
	return doc, nil
}

// Parse 解析知识库 JSON。每个条目单独解码，坏条目只跳过不影响整体
func Parse(data []byte, logger *slog.Logger) (*Document, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if top == nil {
		return nil, fmt.Errorf("%w: top level is null", ErrMalformed)
	}

	doc := &Document{}
	doc.Chemicals = decodeCollection[Chemical](top, KeyChemicals, doc, logger)
	doc.Recipes = decodeCollection[Recipe](top, KeyRecipes, doc, logger)
	doc.Rules = decodeCollection[SafetyRule](top, KeyRules, doc, logger)

	if raw, ok := top[KeyNameMap]; ok {
		var m map[string]string
		if err := json.Unmarshal(raw, &m); err != nil {
			logger.Warn("ignoring malformed name map", "key", KeyNameMap, "error", err)
		} else {
			doc.NameOverrides = m
		}
	}
	return doc, nil
}

func decodeCollection[T any](top map[string]json.RawMessage, key string, doc *Document, logger *slog.Logger) []T {
	raw, ok := top[key]
	if !ok {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		logger.Warn("collection is not a list, ignoring", "collection", key, "error", err)
		return nil
	}

	out := make([]T, 0, len(items))
	for i, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			logger.Warn("skipping undecodable record", "collection", key, "index", i, "error", err)
			doc.Invalid++
			continue
		}
		out = append(out, v)
	}
	return out
}
