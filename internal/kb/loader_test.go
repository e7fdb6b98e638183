package kb

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestParse_AllCollections(t *testing.T) {
	doc, err := Parse([]byte(`{
		"inventario_quimico": [{"id": "ing_001", "nombres": ["Vinagre Blanco"], "ph": 2.5}],
		"recetas_sugeridas": [{"id_receta": "rec_1", "ingredientes": [{"id": "ing_001", "cantidad": "1 taza"}, "ing_002: 2 cdas"]}],
		"reglas_prohibidas_guardrails": [{"ingrediente_A": "ing_001", "ingrediente_B": "ing_002", "mensaje_usuario": "No mezclar."}],
		"manual_name_map": {"agua": "ing_015"}
	}`), quietLogger())
	require.NoError(t, err)

	require.Len(t, doc.Chemicals, 1)
	assert.Equal(t, Scalar("2.5"), doc.Chemicals[0].PH)
	require.Len(t, doc.Recipes, 1)
	assert.Equal(t, []Ingredient{{ID: "ing_001", Quantity: "1 taza"}, {Text: "ing_002: 2 cdas"}}, doc.Recipes[0].Ingredients)
	require.Len(t, doc.Rules, 1)
	assert.Equal(t, []string{"ing_001", "ing_002"}, doc.Rules[0].Members())
	assert.Equal(t, map[string]string{"agua": "ing_015"}, doc.NameOverrides)
	assert.Zero(t, doc.Invalid)
}

func TestParse_AbsentCollections(t *testing.T) {
	doc, err := Parse([]byte(`{}`), quietLogger())
	require.NoError(t, err)
	assert.Empty(t, doc.Chemicals)
	assert.Empty(t, doc.Recipes)
	assert.Empty(t, doc.Rules)
	assert.Nil(t, doc.NameOverrides)
}

func TestParse_Malformed(t *testing.T) {
	for _, in := range []string{`{"inventario_quimico": [`, `[]`, `null`, ``} {
		_, err := Parse([]byte(in), quietLogger())
		assert.True(t, errors.Is(err, ErrMalformed), "input %q", in)
	}
}

func TestParse_BadRecordsAndCollectionsAreSkipped(t *testing.T) {
	doc, err := Parse([]byte(`{
		"inventario_quimico": [{"id": "ing_001"}, 42, {"id": "ing_002", "ph": {"min": 1}}],
		"recetas_sugeridas": "not a list",
		"manual_name_map": ["nope"]
	}`), quietLogger())
	require.NoError(t, err)

	require.Len(t, doc.Chemicals, 1)
	assert.Equal(t, "ing_001", doc.Chemicals[0].ID)
	assert.Equal(t, 2, doc.Invalid)
	assert.Empty(t, doc.Recipes)
	assert.Nil(t, doc.NameOverrides)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.json"), quietLogger())
	assert.True(t, errors.Is(err, ErrNotFound))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("no json"), 0o644))
	_, err = LoadFile(bad, quietLogger())
	assert.True(t, errors.Is(err, ErrMalformed))

	good := filepath.Join(dir, "database.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"inventario_quimico": []}`), 0o644))
	doc, err := LoadFile(good, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, "database.json", doc.Source)
}

func TestPetToxicity(t *testing.T) {
	var p PetToxicity
	require.NoError(t, json.Unmarshal([]byte(`{"perros": "Alta", "gatos": 3, "": "x", "aves": ""}`), &p))
	assert.Equal(t, map[string]string{"perros": "Alta", "gatos": "3"}, p.BySpecies)

	var s PetToxicity
	require.NoError(t, json.Unmarshal([]byte(`"Moderada"`), &s))
	assert.Equal(t, "Moderada", s.Text)
	assert.False(t, s.IsZero())
	assert.True(t, PetToxicity{}.IsZero())
}

func TestRecipeAliases(t *testing.T) {
	r := Recipe{Instructions: "", Preparation: "Agitar", Warnings: "Guantes", SafetyNotes: "Ventilar"}
	assert.Equal(t, "Agitar", r.InstructionsText())
	assert.Equal(t, "Guantes", r.WarningsText())
}

func TestSafetyRuleShapes(t *testing.T) {
	var r SafetyRule
	require.NoError(t, json.Unmarshal([]byte(`{"ingredientes": ["a", " ", "b", "c"], "ingrediente_A": "x", "advertencia": "msg"}`), &r))
	assert.Equal(t, []string{"a", "b", "c"}, r.Members())
	msg, ok := r.Message()
	assert.True(t, ok)
	assert.Equal(t, "msg", msg)

	var empty SafetyRule
	_, ok = empty.Message()
	assert.False(t, ok)
	assert.Empty(t, empty.Members())
}
