package normalizer

import (
	"strings"

	"github.com/liao/quimicai/internal/kb"
)

// Recipe 将配方渲染为文本块
func Recipe(r kb.Recipe, names Names) string {
	var b block

	b.add("Receta", orDefault(r.Name, UnnamedRecipe))
	b.add("Categoría", orDefault(r.Category, DefaultCategory))

	items := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		if s := Ingredient(ing, names); s != "" {
			items = append(items, s)
		}
	}
	b.add("Ingredientes necesarios", orDefault(strings.Join(items, ", "), NotSpecified))

	b.addIf("Instrucciones", r.InstructionsText())
	b.addIf("Advertencias", r.WarningsText())
	b.addIf("Combinaciones clave", r.KeyCombinations)

	return b.String()
}

// Ingredient 渲染单个成分
//
//	{id, cantidad}   -> "<cantidad> de <nombre>"
//	"id: cantidad"   -> 同上（左侧可解析时）
//	其他自由文本      -> 原样
func Ingredient(ing kb.Ingredient, names Names) string {
	if ing.Structured() {
		name := strings.TrimSpace(ing.ID)
		if n, ok := exactName(names, name); ok {
			name = n
		}
		return withQuantity(ing.Quantity, name)
	}

	text := strings.TrimSpace(ing.Text)
	if ref, qty, found := strings.Cut(text, ":"); found {
		if n, ok := exactName(names, strings.TrimSpace(ref)); ok {
			return withQuantity(qty, n)
		}
	}
	return text
}

func withQuantity(qty, name string) string {
	if qty = strings.TrimSpace(qty); qty != "" {
		return qty + " de " + name
	}
	return name
}
