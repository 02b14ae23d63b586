package cashbook

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"CashbookRecon/api/constants"
	"CashbookRecon/api/utils"
	"CashbookRecon/internal/checksum"
	"CashbookRecon/internal/reportstore"
	"CashbookRecon/internal/spreadsheet"
	"CashbookRecon/internal/workspace"

	"github.com/gorilla/mux"
)

func workspaceFrom(w http.ResponseWriter, r *http.Request, reg *workspace.Registry) (*workspace.Workspace, bool) {
	ws, err := reg.Get(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return nil, false
	}
	return ws, true
}

func respondState(w http.ResponseWriter, ws *workspace.Workspace, extra map[string]interface{}) {
	fields := map[string]interface{}{"workspace": ws.State()}
	for k, v := range extra {
		fields[k] = v
	}
	utils.RespondWithPayload(w, http.StatusOK, fields)
}

// Handler: CreateWorkspace
// Body: {source, name, posId, currency}
func CreateWorkspace(reg *workspace.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var opts workspace.Options
		if !utils.DecodeJSON(w, r, &opts) {
			return
		}
		ws, err := reg.Create(opts)
		if err != nil {
			utils.RespondWithDomainError(w, err)
			return
		}
		utils.RespondWithPayload(w, http.StatusCreated, map[string]interface{}{
			"id":        ws.ID(),
			"workspace": ws.State(),
		})
	}
}

// Handler: GetWorkspace
func GetWorkspace(reg *workspace.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspaceFrom(w, r, reg)
		if !ok {
			return
		}
		respondState(w, ws, nil)
	}
}

// Handler: UploadFile
// Multipart form with a spreadsheet in "file" and the bank in "bank".
func UploadFile(reg *workspace.Registry, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspaceFrom(w, r, reg)
		if !ok {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				utils.RespondWithError(w, http.StatusRequestEntityTooLarge, constants.ErrUploadTooLarge)
				return
			}
			utils.RespondWithError(w, http.StatusBadRequest, constants.ErrNoFileUploaded)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, constants.ErrNoFileUploaded)
			return
		}
		defer file.Close()
		if !spreadsheet.Supported(header.Filename) {
			utils.RespondWithError(w, http.StatusBadRequest, constants.ErrUnsupportedFile)
			return
		}
		data, err := io.ReadAll(file)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, constants.ErrUnreadableFile)
			return
		}
		sum, err := checksum.NewMatcher(r.FormValue("checksum")).Verify(data)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, constants.ErrChecksumMismatch)
			return
		}
		rows, err := spreadsheet.Read(header.Filename, data)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, constants.ErrUnreadableFile+": "+err.Error())
			return
		}
		n, err := ws.Load(rows, r.FormValue("bank"))
		if err != nil {
			utils.RespondWithDomainError(w, err)
			return
		}
		respondState(w, ws, map[string]interface{}{"loaded": n, "file": header.Filename, "checksum": sum})
	}
}

type rowsRequest struct {
	Bank string          `json:"bank"`
	Rows json.RawMessage `json:"rows"`
}

// Handler: LoadRows
// Loads rows a client has already parsed. Column order is kept.
func LoadRows(reg *workspace.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspaceFrom(w, r, reg)
		if !ok {
			return
		}
		var req rowsRequest
		if !utils.DecodeJSON(w, r, &req) {
			return
		}
		rows, err := spreadsheet.ReadJSON(req.Rows)
		if err != nil || rows == nil {
			utils.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidRequestBody)
			return
		}
		n, err := ws.Load(rows, req.Bank)
		if err != nil {
			utils.RespondWithDomainError(w, err)
			return
		}
		respondState(w, ws, map[string]interface{}{"loaded": n})
	}
}

type editRequest struct {
	Row   *int        `json:"row"`
	Field string      `json:"field"`
	Value interface{} `json:"value"`
}

// Handler: EditCell
// Row is a position in the active view.
func EditCell(reg *workspace.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspaceFrom(w, r, reg)
		if !ok {
			return
		}
		var req editRequest
		if !utils.DecodeJSON(w, r, &req) {
			return
		}
		if req.Row == nil || req.Field == "" {
			utils.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		rs, err := ws.Edit(*req.Row, req.Field, req.Value)
		if err != nil {
			utils.RespondWithDomainError(w, err)
			return
		}
		utils.RespondWithPayload(w, http.StatusOK, map[string]interface{}{"row": rs})
	}
}

// Handler: Search
// Body: {term}
func Search(reg *workspace.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspaceFrom(w, r, reg)
		if !ok {
			return
		}
		var req struct {
			Term string `json:"term"`
		}
		if !utils.DecodeJSON(w, r, &req) {
			return
		}
		n, err := ws.Search(req.Term)
		if err != nil {
			utils.RespondWithDomainError(w, err)
			return
		}
		respondState(w, ws, map[string]interface{}{"matches": n})
	}
}

// Handler: ResetSearch
func ResetSearch(reg *workspace.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspaceFrom(w, r, reg)
		if !ok {
			return
		}
		ws.ResetSearch()
		respondState(w, ws, nil)
	}
}

// Handler: SetCurrency
// Body: {currency}
func SetCurrency(reg *workspace.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspaceFrom(w, r, reg)
		if !ok {
			return
		}
		var req struct {
			Currency string `json:"currency"`
		}
		if !utils.DecodeJSON(w, r, &req) {
			return
		}
		if err := ws.SetCurrency(req.Currency); err != nil {
			utils.RespondWithDomainError(w, err)
			return
		}
		respondState(w, ws, nil)
	}
}

// Handler: SetHeader
// Body: {name, posId}. Empty values keep the current ones.
func SetHeader(reg *workspace.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspaceFrom(w, r, reg)
		if !ok {
			return
		}
		var req struct {
			Name  string `json:"name"`
			PosID string `json:"posId"`
		}
		if !utils.DecodeJSON(w, r, &req) {
			return
		}
		ws.SetHeader(req.Name, req.PosID)
		respondState(w, ws, nil)
	}
}

// Handler: Clear
func Clear(reg *workspace.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspaceFrom(w, r, reg)
		if !ok {
			return
		}
		ws.Clear()
		respondState(w, ws, nil)
	}
}

// Handler: Save
// Optional body {name, posId} updates the header first.
func Save(reg *workspace.Registry, store reportstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspaceFrom(w, r, reg)
		if !ok {
			return
		}
		var req struct {
			Name  string `json:"name"`
			PosID string `json:"posId"`
		}
		if r.ContentLength != 0 && !utils.DecodeJSON(w, r, &req) {
			return
		}
		id, err := ws.SaveAs(r.Context(), store, req.Name, req.PosID)
		if err != nil {
			utils.RespondWithDomainError(w, err)
			return
		}
		utils.RespondWithPayload(w, http.StatusOK, map[string]interface{}{
			"message":  constants.MsgReportSaved,
			"reportId": id,
		})
	}
}

// Handler: GetSnapshot
func GetSnapshot(reg *workspace.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspaceFrom(w, r, reg)
		if !ok {
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, ws.Snapshot())
	}
}

// Handler: RestoreSnapshot
// Body is a snapshot as returned by GetSnapshot.
func RestoreSnapshot(reg *workspace.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var snap workspace.Snapshot
		if !utils.DecodeJSON(w, r, &snap) {
			return
		}
		ws, err := reg.Restore(snap)
		if err != nil {
			utils.RespondWithDomainError(w, err)
			return
		}
		utils.RespondWithPayload(w, http.StatusOK, map[string]interface{}{
			"id":        ws.ID(),
			"workspace": ws.State(),
		})
	}
}

// Handler: DeleteWorkspace
func DeleteWorkspace(reg *workspace.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if err := reg.Delete(id); err != nil {
			utils.RespondWithDomainError(w, err)
			return
		}
		utils.RespondWithPayload(w, http.StatusOK, map[string]interface{}{"id": id})
	}
}
