package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"defect-bot/internal/container"
	"defect-bot/internal/domain/entity"
	"defect-bot/internal/infrastructure/storage"
)

type stubClassifier struct {
	raw entity.RawPrediction
	err error
}

func (s *stubClassifier) Classify(ctx context.Context, image []byte) (entity.RawPrediction, error) {
	return s.raw, s.err
}

func newTestServer(t *testing.T, classifier *stubClassifier) *Server {
	t.Helper()
	c := container.New(storage.NewMemoryUserRepository(), classifier, storage.NewMemoryKVStore(), nil, nil)
	c.History.Load(context.Background())
	return New(c, nil)
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "photo.jpg")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestServer_Classes(t *testing.T) {
	s := newTestServer(t, &stubClassifier{})

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/classes", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var classes []entity.DefectClass
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &classes))
	require.Len(t, classes, len(entity.DefaultClassTable))
	require.Equal(t, entity.DefectClass{Index: 3, Name: "Çukur Yüzey"}, classes[3])
}

func TestServer_PredictRecordsHistory(t *testing.T) {
	s := newTestServer(t, &stubClassifier{raw: entity.RawPrediction{ClassIndex: 2, Confidence: 0.93}})

	body, ct := multipartBody(t, []byte{0xFF, 0xD8, 0xFF})
	req := httptest.NewRequest(http.MethodPost, "/predict", body)
	req.Header.Set("Content-Type", ct)

	rec := do(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Yamalar", resp["className"])
	require.Equal(t, "#34C759", resp["color"])
	require.Equal(t, "Sınıf: Yamalar\nGüven: 93.00%", resp["summary"])
	require.NotEmpty(t, resp["entryId"])

	entries := s.app.History.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, "Yamalar", entries[0].Result)
}

func TestServer_PredictRawBodyWithoutRecord(t *testing.T) {
	s := newTestServer(t, &stubClassifier{raw: entity.RawPrediction{ClassIndex: 0, Confidence: 0.6}})

	req := httptest.NewRequest(http.MethodPost, "/predict?record=false", bytes.NewReader([]byte{1, 2, 3}))
	req.Header.Set("Content-Type", "image/jpeg")

	rec := do(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"severity":"warn"`)
	require.Zero(t, s.app.History.Len())
}

func TestServer_PredictBadInput(t *testing.T) {
	s := newTestServer(t, &stubClassifier{})

	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/predict", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, httptest.NewRequest(http.MethodPost, "/predict?record=maybe", strings.NewReader("x")))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_PredictFailureMapsToBadGateway(t *testing.T) {
	s := newTestServer(t, &stubClassifier{err: entity.NewPredictionError(entity.ErrEmptyPredictions, nil)})

	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader("img")))
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Hata: Tahminler Boş", resp.Message)
	require.Equal(t, entity.ColorNeutral.Hex(), resp.Color)
	require.Zero(t, s.app.History.Len())
}

func TestServer_HistoryQueryDeleteClear(t *testing.T) {
	classifier := &stubClassifier{}
	s := newTestServer(t, classifier)

	for _, raw := range []entity.RawPrediction{
		{ClassIndex: 0, Confidence: 0.9},
		{ClassIndex: 1, Confidence: 0.4},
		{ClassIndex: 0, Confidence: 0.7},
	} {
		classifier.raw = raw
		rec := do(t, s, httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader("img")))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/history?category=%C3%87atlama&order=asc", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var view []entity.HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view, 2)
	for _, e := range view {
		require.Equal(t, "Çatlama", e.Result)
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/history?order=sideways", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	payload := `{"category":"Kapsama","offsets":[0,5]}`
	rec = do(t, s, httptest.NewRequest(http.MethodPost, "/history/delete", strings.NewReader(payload)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"removed":1}`, rec.Body.String())
	require.Equal(t, 2, s.app.History.Len())

	rec = do(t, s, httptest.NewRequest(http.MethodDelete, "/history", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Zero(t, s.app.History.Len())
}

func TestServer_DeleteByListedIDs(t *testing.T) {
	classifier := &stubClassifier{raw: entity.RawPrediction{ClassIndex: 0, Confidence: 0.9}}
	s := newTestServer(t, classifier)

	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader("img")))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/history", nil))
	var listed []entity.HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)

	// запись, появившаяся после получения списка, не должна пострадать
	classifier.raw = entity.RawPrediction{ClassIndex: 1, Confidence: 0.5}
	rec = do(t, s, httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader("img")))
	require.Equal(t, http.StatusOK, rec.Code)

	payload := `{"ids":["` + listed[0].ID.String() + `"]}`
	rec = do(t, s, httptest.NewRequest(http.MethodPost, "/history/delete", strings.NewReader(payload)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"removed":1}`, rec.Body.String())

	entries := s.app.History.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, "Kapsama", entries[0].Result)
}

func TestServer_PredictRawBodyWithFormContentType(t *testing.T) {
	s := newTestServer(t, &stubClassifier{raw: entity.RawPrediction{ClassIndex: 4, Confidence: 0.85}})

	// тип по умолчанию у curl --data-binary
	req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader([]byte{0xFF, 0xD8, 0xFF, 0xE0}))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := do(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"className":"Hadde Kabukları"`)
}

func TestServer_PredictMultipartWithoutFile(t *testing.T) {
	s := newTestServer(t, &stubClassifier{})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("note", "no image"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/predict", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	rec := do(t, s, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), `multipart field \"file\" is required`)
}
