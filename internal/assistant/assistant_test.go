package assistant

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liao/quimicai/internal/corpus"
	"github.com/liao/quimicai/internal/metrics"
)

type fakeRetriever struct {
	units []corpus.Unit
	err   error
	query string
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string) ([]corpus.Unit, error) {
	f.query = query
	return f.units, f.err
}

type fakeGenerator struct {
	reply    string
	err      error
	calls    int
	context  string
	question string
}

func (f *fakeGenerator) Generate(ctx context.Context, contextBlock, question string) (string, error) {
	f.calls++
	f.context = contextBlock
	f.question = question
	return f.reply, f.err
}

func units() []corpus.Unit {
	return []corpus.Unit{
		{Text: "Ingrediente: Vinagre Blanco", Metadata: corpus.Metadata{Kind: corpus.KindInventory, ID: "ing_001", Name: "Vinagre Blanco"}},
		{Text: "¿Qué pasa si mezclo Lejía + Vinagre Blanco?", Metadata: corpus.Metadata{Kind: corpus.KindGuardrail, ID: "ing_002+ing_001"}},
	}
}

func TestAsk_JoinsContextInRetrievalOrder(t *testing.T) {
	r := &fakeRetriever{units: units()}
	g := &fakeGenerator{reply: "No los mezcles."}
	a := New(r, g, nil, nil)

	ans, err := a.Ask(context.Background(), "  ¿Puedo mezclar lejía y vinagre?  ")
	require.NoError(t, err)
	assert.Equal(t, "No los mezcles.", ans.Text)
	assert.Equal(t, "¿Puedo mezclar lejía y vinagre?", r.query)
	assert.Equal(t, "Ingrediente: Vinagre Blanco\n\n¿Qué pasa si mezclo Lejía + Vinagre Blanco?", g.context)
	assert.Equal(t, "¿Puedo mezclar lejía y vinagre?", g.question)

	src := ans.Sources()
	require.Len(t, src, 2)
	assert.Equal(t, "ing_001", src[0].ID)
	assert.Equal(t, corpus.KindGuardrail, src[1].Kind)
}

func TestAsk_EmptyCorpusStillAnswers(t *testing.T) {
	g := &fakeGenerator{reply: "No tengo información suficiente."}
	m := metrics.New()
	a := New(nil, g, m, nil)

	ans, err := a.Ask(context.Background(), "¿Qué es el bicarbonato?")
	require.NoError(t, err)
	assert.Equal(t, 1, g.calls)
	assert.Empty(t, g.context)
	assert.NotNil(t, ans.Sources())
	assert.Empty(t, ans.Sources())
	assert.Contains(t, collectText(t, m), "quimicai_empty_context_total 1")
}

func TestAsk_EmptyContextIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	a := New(&fakeRetriever{}, &fakeGenerator{reply: "ok"}, nil, logger)

	_, err := a.Ask(context.Background(), "¿Qué es el bicarbonato?")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "no context retrieved for question")

	buf.Reset()
	a = New(&fakeRetriever{units: units()}, &fakeGenerator{reply: "ok"}, nil, logger)
	_, err = a.Ask(context.Background(), "lejía")
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "no context retrieved")
}

func TestAsk_EmptyRetrievalCallsGenerator(t *testing.T) {
	g := &fakeGenerator{reply: "ok"}
	a := New(&fakeRetriever{}, g, nil, nil)

	_, err := a.Ask(context.Background(), "pH del limón")
	require.NoError(t, err)
	assert.Equal(t, 1, g.calls)
}

func TestAsk_BlankQuestion(t *testing.T) {
	g := &fakeGenerator{}
	a := New(&fakeRetriever{}, g, nil, nil)

	_, err := a.Ask(context.Background(), " \t ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	assert.Zero(t, g.calls)
}

func TestAsk_RetrieverFailure(t *testing.T) {
	boom := errors.New("index unavailable")
	g := &fakeGenerator{}
	a := New(&fakeRetriever{err: boom}, g, nil, nil)

	_, err := a.Ask(context.Background(), "lejía")
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, g.calls)
}

func TestAsk_GeneratorFailure(t *testing.T) {
	boom := errors.New("timeout")
	m := metrics.New()
	a := New(&fakeRetriever{units: units()}, &fakeGenerator{err: boom}, m, nil)

	_, err := a.Ask(context.Background(), "lejía")
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, collectText(t, m), `quimicai_asks_total{outcome="failed"} 1`)
}

func TestReady(t *testing.T) {
	var nilAssistant *Assistant
	assert.False(t, nilAssistant.Ready())
	assert.False(t, New(nil, nil, nil, nil).Ready())
	assert.True(t, New(nil, &fakeGenerator{}, nil, nil).Ready())

	_, err := New(nil, nil, nil, nil).Ask(context.Background(), "hola")
	assert.Error(t, err)
}

func collectText(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}
