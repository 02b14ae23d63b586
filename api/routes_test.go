package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"CashbookRecon/internal/reportstore"
	"CashbookRecon/internal/workspace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestHandler(t *testing.T) (http.Handler, *reportstore.MemoryStore) {
	t.Helper()
	store := reportstore.NewMemoryStore()
	reg := workspace.NewRegistry(time.Hour, time.Hour, "", time.UTC)
	return NewHandler(Deps{Store: store, Registry: reg, AllowedOrigins: []string{"http://localhost:3000"}}), store
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestCashbookFlow(t *testing.T) {
	h, store := newTestHandler(t)

	rec, out := do(t, h, http.MethodPost, "/api/workspaces", map[string]string{"source": "sales", "name": "Harare Branch", "posId": "POS-9"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := out["id"].(string)
	base := "/api/workspaces/" + id

	rec, out = do(t, h, http.MethodPost, base+"/rows", map[string]interface{}{
		"bank": "CBZ Bank Limited",
		"rows": []map[string]interface{}{
			{"Date": "2024-05-01", "Name": "Alice", "Gross Premium": 100, "Cancellation": 10},
			{"Date": "2024-05-02", "Name": "Bob", "gross_premium": "50"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, out)
	assert.Equal(t, 2.0, out["loaded"])

	rec, out = do(t, h, http.MethodPost, base+"/search", map[string]string{"term": "alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, out["matches"])

	rec, out = do(t, h, http.MethodPatch, base+"/cells", map[string]interface{}{"row": 0, "field": "Commission %", "value": "20"})
	require.Equal(t, http.StatusOK, rec.Code, out)
	row := out["row"].(map[string]interface{})
	assert.Equal(t, "$72.00", row["record"].(map[string]interface{})["Net Premium"])

	rec, _ = do(t, h, http.MethodPatch, base+"/cells", map[string]interface{}{"row": 0, "field": "Net Premium", "value": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, out = do(t, h, http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusOK, rec.Code, out)
	reportID := int64(out["reportId"].(float64))

	rep, err := store.Get(context.Background(), reportID)
	require.NoError(t, err)
	require.Len(t, rep.TableData, 1)
	assert.Equal(t, "Alice", rep.TableData[0].Get("Name"))
	assert.Equal(t, "20", rep.TableData[0].Get("Commission %"))
	assert.Equal(t, "POS-9", rep.PosID)

	rec, out = do(t, h, http.MethodGet, "/api/reports?source=sales&q=harare", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["rows"], 1)

	rec, _ = do(t, h, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, h, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadSpreadsheet(t *testing.T) {
	h, _ := newTestHandler(t)
	_, out := do(t, h, http.MethodPost, "/api/workspaces", map[string]string{"source": "payments", "name": "Payments"})
	id := out["id"].(string)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("bank", "Steward Bank"))
	fw, err := mw.CreateFormFile("file", "payments.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Ref,Payee,Amount\nTX-1,Acme,12.50\nTX-2,Zimtrade,7\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/workspaces/"+id+"/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Loaded    int             `json:"loaded"`
		Workspace workspace.State `json:"workspace"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Loaded)
	assert.Equal(t, []string{"Ref", "Payee", "Amount", "Bank"}, resp.Workspace.Columns)
	assert.Equal(t, "Steward Bank", resp.Workspace.Rows[1].Record.Get("Bank"))
}

func TestUploadRejectsUnsupportedFile(t *testing.T) {
	h, _ := newTestHandler(t)
	_, out := do(t, h, http.MethodPost, "/api/workspaces", map[string]string{"source": "sales"})
	id := out["id"].(string)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("bank", "CBZ Bank Limited")
	fw, _ := mw.CreateFormFile("file", "notes.txt")
	fw.Write([]byte("hello"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/workspaces/"+id+"/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSnapshotEndpoints(t *testing.T) {
	h, _ := newTestHandler(t)
	_, out := do(t, h, http.MethodPost, "/api/workspaces", map[string]string{"source": "sales", "name": "Mutare"})
	id := out["id"].(string)
	do(t, h, http.MethodPost, "/api/workspaces/"+id+"/rows", map[string]interface{}{
		"bank": "FBC Bank Limited",
		"rows": []map[string]interface{}{{"Name": "Carol", "Gross Premium": 40}},
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/workspaces/"+id+"/snapshot", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var snap workspace.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, id, snap.ID)

	do(t, h, http.MethodDelete, "/api/workspaces/"+id, nil)
	rec, out = do(t, h, http.MethodPost, "/api/workspaces/restore", snap)
	require.Equal(t, http.StatusOK, rec.Code, out)
	assert.Equal(t, id, out["id"])

	rec, out = do(t, h, http.MethodGet, "/api/workspaces/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ws := out["workspace"].(map[string]interface{})
	assert.Equal(t, 1.0, ws["total"])
}

func TestRateLimit(t *testing.T) {
	store := reportstore.NewMemoryStore()
	reg := workspace.NewRegistry(time.Hour, time.Hour, "", time.UTC)
	h := NewHandler(Deps{Store: store, Registry: reg, Limiter: rate.NewLimiter(rate.Every(time.Hour), 1)})

	rec, _ := do(t, h, http.MethodPost, "/api/workspaces", map[string]string{"source": "sales"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec, _ = do(t, h, http.MethodPost, "/api/workspaces", map[string]string{"source": "sales"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/api/reports", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "reads are not limited")
}

func TestCORSAndFallbacks(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/reports/upload", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec, out := do(t, h, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, out["success"])

	rec, _ = do(t, h, http.MethodPut, "/api/reports", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec, out = do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])

	rec, out = do(t, h, http.MethodGet, "/api/banks", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, out["banks"], "CBZ Bank Limited")
}
