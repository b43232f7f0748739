package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripworks/costing-gpt/internal/analyzer"
	"github.com/tripworks/costing-gpt/internal/blob"
	"github.com/tripworks/costing-gpt/internal/chat"
	"github.com/tripworks/costing-gpt/internal/extract"
	"github.com/tripworks/costing-gpt/internal/metrics"
	"github.com/tripworks/costing-gpt/internal/model"
	"github.com/tripworks/costing-gpt/internal/pipeline"
	"github.com/tripworks/costing-gpt/internal/store"
	"github.com/tripworks/costing-gpt/pkg/llm"
)

type cannedClient struct {
	content string
}

func (c *cannedClient) CreateChatCompletion(context.Context, llm.ChatRequest) (*llm.ChatResponse, error) {
	return &llm.ChatResponse{Message: llm.Message{Role: "assistant", Content: c.content}}, nil
}

func testEnv(t *testing.T) *appEnv {
	t.Helper()
	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	collector := metrics.NewCollector()
	orch := extract.NewOrchestrator(nil, collector)
	return &appEnv{
		Store:     st,
		Pipeline:  pipeline.New(st, blob.NewMemory(), analyzer.NewMock(), orch),
		Chat:      chat.NewService(&cannedClient{content: "hello"}, "test-model", st),
		Collector: collector,
	}
}

func testRouter(t *testing.T) http.Handler {
	return newRouter(testEnv(t), 4*1024*1024, []string{"*"})
}

func multipartBody(t *testing.T, fieldName, fileName, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="`+fieldName+`"; filename="`+fileName+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestUploadDocument(t *testing.T) {
	router := testRouter(t)

	body, contentType := multipartBody(t, "file", "tariff.pdf", "application/pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res pipeline.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, model.DocumentStatusCompleted, res.Document.Status)
	assert.Equal(t, model.MethodStructured, res.Method)
	require.NotNil(t, res.Save)
	assert.True(t, res.Save.Saved)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	router := testRouter(t)

	body, contentType := multipartBody(t, "file", "notes.txt", "text/plain", []byte("hello"))
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestUploadRequiresFile(t *testing.T) {
	router := testRouter(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("note", "no file here"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDocument(t *testing.T) {
	env := testEnv(t)
	router := newRouter(env, 4*1024*1024, []string{"*"})

	body, contentType := multipartBody(t, "file", "tariff.pdf", "application/pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var res pipeline.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents/"+res.Document.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var doc model.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, res.Document.ID, doc.ID)
	assert.Equal(t, model.DocumentStatusCompleted, doc.Status)
}

func TestGetDocumentNotFound(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatEndpoint(t *testing.T) {
	router := testRouter(t)

	payload := `{"messages": [{"role": "user", "content": "rates in Goa?"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var reply chat.Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, "hello", reply.Content)
}

func TestChatRequiresMessages(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages": []}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListTariffs(t *testing.T) {
	env := testEnv(t)
	router := newRouter(env, 4*1024*1024, []string{"*"})

	res := env.Store.SaveTariff(context.Background(), "", &model.TariffRecord{
		HotelName: "Sunrise Residency", City: "Goa", BaseRate: 7500,
	}, "")
	require.True(t, res.Saved)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tariffs?city=goa", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Tariffs []model.TariffListing `json:"tariffs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Tariffs, 1)
	assert.Equal(t, "Sunrise Residency", payload.Tariffs[0].HotelName)

	// Empty result is an empty list, not null.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tariffs?city=pune", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"tariffs":[]`)
}

func TestMetricsEndpoint(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var snap metrics.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Zero(t, snap.Documents)
}

func TestTenantHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/tariffs", nil)
	assert.Equal(t, store.DefaultTenant, tenantID(req))

	req.Header.Set("X-Tenant-ID", "acme")
	assert.Equal(t, "acme", tenantID(req))
}
