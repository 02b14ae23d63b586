package cashbook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"CashbookRecon/api/constants"
	"CashbookRecon/internal/checksum"
	"CashbookRecon/internal/reportstore"
	"CashbookRecon/internal/workspace"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorkspace(t *testing.T, opts workspace.Options) (*workspace.Registry, string) {
	t.Helper()
	reg := workspace.NewRegistry(time.Hour, time.Hour, "", time.UTC)
	ws, err := reg.Create(opts)
	require.NoError(t, err)
	return reg, ws.ID()
}

func call(h http.HandlerFunc, method, id, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(method, "/api/workspaces/"+id, strings.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"id": id})
	rec := httptest.NewRecorder()
	h(rec, req)
	var out map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

const salesRows = `{"bank":"ZB Bank Limited","rows":[
{"Date":"2024-05-01","Name":"Alice","Gross Premium":"1,200.50","Cancellation":"200.50"},
{"Date":"2024-05-02","Name":"Bob","Gross Premium":80}]}`

func TestUnknownWorkspaceIs404(t *testing.T) {
	reg, _ := newWorkspace(t, workspace.Options{Source: "sales"})
	for _, h := range []http.HandlerFunc{GetWorkspace(reg), Clear(reg), ResetSearch(reg), GetSnapshot(reg), DeleteWorkspace(reg)} {
		rec, out := call(h, http.MethodGet, "missing", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, constants.ErrWorkspaceNotFound, out["error"])
	}
}

func TestCreateWorkspaceValidates(t *testing.T) {
	reg := workspace.NewRegistry(time.Hour, time.Hour, "", time.UTC)
	rec, _ := call(CreateWorkspace(reg), http.MethodPost, "", `{"source":"ledger"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = call(CreateWorkspace(reg), http.MethodPost, "", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, reg.Count())
}

func TestLoadRowsAndEdit(t *testing.T) {
	reg, id := newWorkspace(t, workspace.Options{Source: "sales", Name: "Gweru"})

	rec, out := call(LoadRows(reg), http.MethodPost, id, salesRows)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ws := out["workspace"].(map[string]interface{})
	first := ws["rows"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "$1000.00", first["record"].(map[string]interface{})["Actual Gross"])

	rec, out = call(EditCell(reg), http.MethodPatch, id, `{"row":1,"field":"ppaGross","value":100}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec2 := out["row"].(map[string]interface{})["record"].(map[string]interface{})
	assert.Equal(t, "$100.00", rec2["Net PPA"])
	assert.Equal(t, "$180.00", rec2["Expected remittances"])

	rec, _ = call(EditCell(reg), http.MethodPatch, id, `{"field":"ppaGross","value":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "row is required")
	rec, _ = call(EditCell(reg), http.MethodPatch, id, `{"row":7,"field":"ppaGross","value":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = call(EditCell(reg), http.MethodPatch, id, `{"row":0,"field":"Bank","value":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoadRowsNeedsBankAndRows(t *testing.T) {
	reg, id := newWorkspace(t, workspace.Options{Source: "sales"})
	rec, _ := call(LoadRows(reg), http.MethodPost, id, `{"bank":"","rows":[{"Name":"A"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = call(LoadRows(reg), http.MethodPost, id, `{"bank":"CABS"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = call(LoadRows(reg), http.MethodPost, id, `{"bank":"CABS","rows":[["A"]]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchAndCurrency(t *testing.T) {
	reg, id := newWorkspace(t, workspace.Options{Source: "sales"})
	call(LoadRows(reg), http.MethodPost, id, salesRows)

	rec, _ := call(Search(reg), http.MethodPost, id, `{"term":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, out := call(Search(reg), http.MethodPost, id, `{"term":"nobody"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.0, out["matches"])
	assert.Empty(t, out["workspace"].(map[string]interface{})["rows"])

	rec, _ = call(SetCurrency(reg), http.MethodPut, id, `{"currency":"GBP"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	call(ResetSearch(reg), http.MethodDelete, id, "")
	rec, out = call(SetCurrency(reg), http.MethodPut, id, `{"currency":"ZWG"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	ws := out["workspace"].(map[string]interface{})
	first := ws["rows"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "ZWG 1000.00", first["record"].(map[string]interface{})["Actual Gross"])
}

type downStore struct{ reportstore.Store }

func (downStore) Save(context.Context, reportstore.NewReport) (int64, error) {
	return 0, &reportstore.StoreError{Op: "save", Err: errors.New("dial tcp: refused")}
}

func TestSave(t *testing.T) {
	reg, id := newWorkspace(t, workspace.Options{Source: "sales"})
	call(LoadRows(reg), http.MethodPost, id, salesRows)
	store := reportstore.NewMemoryStore()

	rec, out := call(Save(reg, store), http.MethodPost, id, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "name is required")
	assert.Contains(t, out["error"], "name")

	rec, _ = call(Save(reg, downStore{}), http.MethodPost, id, `{"name":"Masvingo"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec, out = call(GetWorkspace(reg), http.MethodGet, id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2.0, out["workspace"].(map[string]interface{})["total"], "failed save keeps the table")

	assert.Equal(t, "", out["workspace"].(map[string]interface{})["name"], "failed save keeps the header")
	rec, _ = call(Save(reg, store), http.MethodPost, id, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, out = call(Save(reg, store), http.MethodPost, id, `{"name":"Masvingo"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Report saved successfully", out["message"])
	rep, err := store.Get(context.Background(), int64(out["reportId"].(float64)))
	require.NoError(t, err)
	assert.Equal(t, "Masvingo", rep.Name)
	assert.Equal(t, "ZB Bank Limited", rep.Bank)
	assert.Len(t, rep.TableData, 2)
}

func TestSetHeader(t *testing.T) {
	reg, id := newWorkspace(t, workspace.Options{Source: "sales", Name: "Gweru"})
	rec, out := call(SetHeader(reg), http.MethodPut, id, `{"posId":"POS-3"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	ws := out["workspace"].(map[string]interface{})
	assert.Equal(t, "Gweru", ws["name"])
	assert.Equal(t, "POS-3", ws["posId"])
}

func multipartBody(t *testing.T, filename string, content []byte, fields ...string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("bank", "Metbank Limited"))
	for i := 0; i+1 < len(fields); i += 2 {
		require.NoError(t, mw.WriteField(fields[i], fields[i+1]))
	}
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestUploadFile(t *testing.T) {
	reg, id := newWorkspace(t, workspace.Options{Source: "sales"})

	body, ct := multipartBody(t, "cashbook.csv", []byte("Date,Name,Gross Premium\n2024-05-01,Alice,50\n,,\n"))
	req := mux.SetURLVars(httptest.NewRequest(http.MethodPost, "/", body), map[string]string{"id": id})
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	UploadFile(reg, 1<<20)(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Loaded   int    `json:"loaded"`
		File     string `json:"file"`
		Checksum string `json:"checksum"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 1, out.Loaded)
	assert.Equal(t, "cashbook.csv", out.File)
	assert.Len(t, out.Checksum, 64)
}

func TestUploadFileChecksum(t *testing.T) {
	reg, id := newWorkspace(t, workspace.Options{Source: "sales"})
	content := []byte("Date,Name,Gross Premium\n2024-05-01,Alice,50\n")

	body, ct := multipartBody(t, "cashbook.csv", content, "checksum", "deadbeef")
	req := mux.SetURLVars(httptest.NewRequest(http.MethodPost, "/", body), map[string]string{"id": id})
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	UploadFile(reg, 1<<20)(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), constants.ErrChecksumMismatch)

	body, ct = multipartBody(t, "cashbook.csv", content, "checksum", checksum.Sum(content))
	req = mux.SetURLVars(httptest.NewRequest(http.MethodPost, "/", body), map[string]string{"id": id})
	req.Header.Set("Content-Type", ct)
	rec = httptest.NewRecorder()
	UploadFile(reg, 1<<20)(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestUploadFileTooLarge(t *testing.T) {
	reg, id := newWorkspace(t, workspace.Options{Source: "sales"})
	body, ct := multipartBody(t, "big.csv", bytes.Repeat([]byte("a,b\n"), 4096))
	req := mux.SetURLVars(httptest.NewRequest(http.MethodPost, "/", body), map[string]string{"id": id})
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	UploadFile(reg, 1024)(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUploadFileWithoutFile(t *testing.T) {
	reg, id := newWorkspace(t, workspace.Options{Source: "sales"})
	rec, out := call(UploadFile(reg, 1<<20), http.MethodPost, id, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, constants.ErrNoFileUploaded, out["error"])
}
