package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/liao/quimicai/internal/kb"
)

func testChemicals() []kb.Chemical {
	return []kb.Chemical{
		{ID: "ing_001", Names: []string{"Vinagre Blanco", "Ácido acético diluido"}},
		{ID: "ing_002", Names: []string{"Lejía", "Hipoclorito de sodio"}},
		{ID: "ing_003", Names: []string{"Bicarbonato de sodio"}},
		{ID: "ing_010", Names: []string{"Sal"}},
		{ID: "ing_020"},
	}
}

func TestResolve_ExactNameAndIdentifier(t *testing.T) {
	idx := New(testChemicals(), nil)

	id, ok := idx.Resolve("  vinagre BLANCO ")
	assert.True(t, ok)
	assert.Equal(t, "ing_001", id)

	id, ok = idx.Resolve("Hipoclorito de sodio")
	assert.True(t, ok)
	assert.Equal(t, "ing_002", id)

	id, ok = idx.Resolve("ING_003")
	assert.True(t, ok)
	assert.Equal(t, "ing_003", id)
}

func TestResolve_TokenMatchFindsEmbeddedIdentifier(t *testing.T) {
	idx := New(testChemicals(), nil)

	id, ok := idx.Resolve("ing_002 (forma gas cloro)")
	assert.True(t, ok)
	assert.Equal(t, "ing_002", id)
}

func TestResolve_FirstMatchingTokenWins(t *testing.T) {
	idx := New(testChemicals(), nil)

	id, ok := idx.Resolve("ing_002 con ing_001")
	assert.True(t, ok)
	assert.Equal(t, "ing_002", id)

	id, ok = idx.Resolve("ing_001 con ing_002")
	assert.True(t, ok)
	assert.Equal(t, "ing_001", id)
}

func TestResolve_SubstringFallback(t *testing.T) {
	idx := New(testChemicals(), nil)

	id, ok := idx.Resolve("lejía concentrada de uso industrial")
	assert.True(t, ok)
	assert.Equal(t, "ing_002", id)

	// mention contained in a longer key
	id, ok = idx.Resolve("bicarbonato")
	assert.True(t, ok)
	assert.Equal(t, "ing_003", id)
}

func TestResolve_SubstringTriesLongerKeysFirst(t *testing.T) {
	chems := []kb.Chemical{
		{ID: "ing_031", Names: []string{"Ácido cítrico"}},
		{ID: "ing_030", Names: []string{"Limpiador cítrico multiuso"}},
	}
	idx := New(chems, nil)

	id, ok := idx.Resolve("cítrico")
	assert.True(t, ok)
	assert.Equal(t, "ing_030", id, "longest key wins regardless of registration order")
}

// Known accuracy trade-off: short names embedded in unrelated words still
// match through the substring step.
func TestResolve_SubstringOverMatchesShortNames(t *testing.T) {
	idx := New(testChemicals(), nil)

	id, ok := idx.Resolve("salsa")
	assert.True(t, ok)
	assert.Equal(t, "ing_010", id, "'sal' is a substring of 'salsa'")
}

func TestResolve_ShortKeysSkippedForSubstring(t *testing.T) {
	chems := []kb.Chemical{{ID: "x_1", Names: []string{"Al"}}}
	idx := New(chems, nil)

	_, ok := idx.Resolve("alcohol isopropílico")
	assert.False(t, ok)

	id, ok := idx.Resolve("al")
	assert.True(t, ok)
	assert.Equal(t, "x_1", id)
}

func TestResolve_NoMatch(t *testing.T) {
	idx := New(testChemicals(), nil)

	_, ok := idx.Resolve("amoníaco")
	assert.False(t, ok)
	_, ok = idx.Resolve("   ")
	assert.False(t, ok)
}

func TestOverridesWinOnOverlap(t *testing.T) {
	overrides := map[string]string{
		"agua":         "ing_015",
		"Lejía":        "ing_099",
		"jabon neutro": "ing_009",
	}
	idx := New(testChemicals(), overrides)

	id, ok := idx.Resolve("agua")
	assert.True(t, ok)
	assert.Equal(t, "ing_015", id)

	id, ok = idx.Resolve("lejía")
	assert.True(t, ok)
	assert.Equal(t, "ing_099", id)
}

func TestNameAndDisplayName(t *testing.T) {
	idx := New(testChemicals(), nil)

	assert.Equal(t, "Vinagre Blanco", idx.Name("ing_001"))
	assert.Equal(t, "ing_020", idx.Name("ing_020"), "record without names uses its identifier")
	assert.Equal(t, "ing_777", idx.Name("ing_777"))

	assert.Equal(t, "Lejía", idx.DisplayName("ing_002"))
	assert.Equal(t, "Lejía", idx.DisplayName("hipoclorito de sodio"))
	assert.Equal(t, "Esencia de menta", idx.DisplayName("Esencia de menta"))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"ing_004", "forma", "gas", "tóxico"}, Tokenize("ing_004 (forma gas tóxico)"))
	assert.Empty(t, Tokenize(" ,;() "))
}
