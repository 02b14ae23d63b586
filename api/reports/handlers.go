package reports

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"CashbookRecon/api/constants"
	"CashbookRecon/api/utils"
	"CashbookRecon/internal/ledger"
	"CashbookRecon/internal/logger"
	"CashbookRecon/internal/reportstore"

	"github.com/gorilla/mux"
)

type uploadRequest struct {
	Name      string          `json:"name"`
	PosID     string          `json:"posId"`
	Date      string          `json:"date"`
	Source    string          `json:"source"`
	Currency  string          `json:"currency"`
	TableData json.RawMessage `json:"tableData"`
}

// Handler: UploadReport
// Persists a serialized table posted by a client.
func UploadReport(store reportstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req uploadRequest
		if !utils.DecodeJSON(w, r, &req) {
			return
		}
		raw := bytes.TrimSpace(req.TableData)
		if len(raw) == 0 || raw[0] != '[' {
			utils.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidTableData)
			return
		}
		var table []ledger.Record
		if err := json.Unmarshal(raw, &table); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidTableData)
			return
		}
		if strings.TrimSpace(req.Date) == "" {
			req.Date = reportstore.Today()
		}
		source := strings.ToLower(strings.TrimSpace(req.Source))
		if p, err := ledger.ProfileFor(source); err == nil {
			source = p.Source
		}

		nr := reportstore.NewReport{
			Name:      strings.TrimSpace(req.Name),
			PosID:     strings.TrimSpace(req.PosID),
			Date:      strings.TrimSpace(req.Date),
			Source:    source,
			Currency:  strings.ToUpper(strings.TrimSpace(req.Currency)),
			TableData: table,
		}
		if err := nr.Validate(); err != nil {
			utils.RespondWithDomainError(w, err)
			return
		}
		id, err := store.Save(r.Context(), nr)
		if err != nil {
			utils.RespondWithDomainError(w, err)
			return
		}
		logger.Audit("report %d saved: %q pos=%q source=%s rows=%d", id, nr.Name, nr.PosID, nr.Source, len(table))
		utils.RespondWithPayload(w, http.StatusOK, map[string]interface{}{
			"message":  constants.MsgReportSaved,
			"reportId": id,
			"name":     nr.Name,
			"posId":    nr.PosID,
			"date":     nr.Date,
			"source":   nr.Source,
		})
	}
}

// Handler: ListReports
// Newest first. ?source keeps one source, ?q matches name or POS id.
func ListReports(store reportstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, paged, err := utils.ExtractPagination(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		all, err := store.List(r.Context())
		if err != nil {
			utils.RespondWithDomainError(w, err)
			return
		}
		rows := filterSummaries(all, r.URL.Query().Get("source"), r.URL.Query().Get("q"))

		resp := map[string]interface{}{}
		if paged {
			page.SetPaginationStats(len(rows))
			start, end := page.Bounds(len(rows))
			rows = rows[start:end]
			resp["pagination"] = page
		}
		resp["rows"] = rows
		utils.RespondWithPayload(w, http.StatusOK, resp)
	}
}

func filterSummaries(in []reportstore.Summary, source, q string) []reportstore.Summary {
	source = strings.ToLower(strings.TrimSpace(source))
	if p, err := ledger.ProfileFor(source); err == nil {
		source = p.Source
	}
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]reportstore.Summary, 0, len(in))
	for _, s := range in {
		if source != "" && s.Source != source {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(s.Name), q) && !strings.Contains(strings.ToLower(s.PosID), q) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func reportID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidReportID)
		return 0, false
	}
	return id, true
}

// Handler: GetReport
func GetReport(store reportstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := reportID(w, r)
		if !ok {
			return
		}
		rep, err := store.Get(r.Context(), id)
		if err != nil {
			utils.RespondWithDomainError(w, err)
			return
		}
		utils.RespondWithPayload(w, http.StatusOK, map[string]interface{}{"report": rep})
	}
}

// Handler: DeleteReport
func DeleteReport(store reportstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := reportID(w, r)
		if !ok {
			return
		}
		if err := store.Delete(r.Context(), id); err != nil {
			utils.RespondWithDomainError(w, err)
			return
		}
		logger.Audit("report %d deleted", id)
		utils.RespondWithPayload(w, http.StatusOK, map[string]interface{}{
			"message": constants.MsgReportDeleted,
			"id":      id,
		})
	}
}
