package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docquery/docquery/internal/embedding"
	"github.com/docquery/docquery/internal/llm"
	"github.com/docquery/docquery/internal/pipeline"
	"github.com/docquery/docquery/internal/storage"
	"github.com/docquery/docquery/internal/synthesizer"
	"github.com/docquery/docquery/internal/vectorindex/memory"
)

// fakeOllama serves the embeddings protocol with canned vectors per
// prompt. The default vector keeps unknown prompts valid.
type fakeOllama struct {
	mu      sync.Mutex
	vectors map[string][]float64
	down    bool
}

func (f *fakeOllama) handler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.down {
		http.Error(w, "service down", http.StatusInternalServerError)
		return
	}

	var req struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	vec, ok := f.vectors[req.Prompt]
	if !ok {
		vec = []float64{1, 0}
	}
	json.NewEncoder(w).Encode(map[string]any{"embedding": vec})
}

func (f *fakeOllama) setDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

type fakeChat struct {
	answer string
}

func (f *fakeChat) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	return f.answer, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeOllama) {
	t.Helper()

	ollama := &fakeOllama{vectors: map[string][]float64{}}
	ollamaSrv := httptest.NewServer(http.HandlerFunc(ollama.handler))
	t.Cleanup(ollamaSrv.Close)

	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	index := memory.New(2, nil)
	embedder := embedding.NewClient(embedding.Config{BaseURL: ollamaSrv.URL, Dimension: 2})
	synth := synthesizer.New(&fakeChat{answer: "generated answer"}, synthesizer.Config{}, nil)

	p := pipeline.New(store, index, embedder, synth, pipeline.Config{
		ChunkSize:    3,
		ChunkOverlap: 1,
	}, nil)

	handler := NewHandler(p, store, index, nil)
	srv := httptest.NewServer(NewRouter(handler, nil))
	t.Cleanup(srv.Close)

	return srv, ollama
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestIngestEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/documents", IngestRequest{
		Name: "letters.txt",
		Text: "A B C D E F",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decode[IngestResponse](t, resp)
	assert.NotEmpty(t, body.DocumentID)
	assert.Equal(t, "letters.txt", body.Name)
	assert.Equal(t, 3, body.ChunkCount)
	assert.Equal(t, 8, body.TokenCount)
}

func TestIngestEndpoint_Validation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/documents", IngestRequest{Name: "empty.txt", Text: " "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/documents", IngestRequest{Name: "", Text: "content"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIngestEndpoint_InvalidJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/documents", "application/json", bytes.NewReader([]byte("{broken")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearchEndpoint(t *testing.T) {
	srv, ollama := newTestServer(t)

	ollama.vectors["what are the letters?"] = []float64{1, 0.05}

	resp := postJSON(t, srv.URL+"/api/documents", IngestRequest{
		Name: "letters.txt",
		Text: "A B C D E F",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/documents/search", SearchRequest{Query: "what are the letters?"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[SearchResponse](t, resp)
	require.NotEmpty(t, body.Results)
	assert.Equal(t, "letters.txt", body.Results[0].DocumentName)
	assert.Greater(t, body.Results[0].Similarity, 0.4)
	assert.Equal(t, "generated answer", body.Answer)
	assert.Empty(t, body.Warning)
}

func TestSearchEndpoint_EmptyQuery(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/documents/search", SearchRequest{Query: "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearchEndpoint_EmbeddingDown(t *testing.T) {
	srv, ollama := newTestServer(t)

	ollama.setDown(true)

	resp := postJSON(t, srv.URL+"/api/documents/search", SearchRequest{Query: "anything"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestListEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/documents", IngestRequest{
		Name: "letters.txt",
		Text: "A B C D E F",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	listResp, err := http.Get(srv.URL + "/api/documents")
	require.NoError(t, err)
	defer listResp.Body.Close()
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	docs := decode[[]DocumentSummary](t, listResp)
	require.Len(t, docs, 1)
	assert.Equal(t, "letters.txt", docs[0].Name)
	assert.Equal(t, 3, docs[0].ChunkCount)
	assert.Len(t, docs[0].Chunks, 3)
}

func TestDeleteEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/documents", IngestRequest{
		Name: "letters.txt",
		Text: "A B C D E F",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[IngestResponse](t, resp)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/documents/"+created.DocumentID, nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer delResp.Body.Close()
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)

	delResp2, err := http.DefaultClient.Do(req.Clone(context.Background()))
	require.NoError(t, err)
	defer delResp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, delResp2.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[HealthResponse](t, resp)
	assert.Equal(t, "healthy", body.Status)
	assert.Zero(t, body.Documents)
}
