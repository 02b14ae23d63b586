package utils

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"CashbookRecon/api/constants"
	"CashbookRecon/internal/ledger"
	"CashbookRecon/internal/reportstore"
	"CashbookRecon/internal/workspace"
)

// Error response helper
func RespondWithError(w http.ResponseWriter, status int, errMsg string) {
	log.Println("[ERROR]", errMsg)
	w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   errMsg,
	})
}

// RespondWithJSON writes body as-is with the given status.
func RespondWithJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		LogError("encoding response: %v", err)
	}
}

// RespondWithPayload merges fields into a {"success": true} envelope.
func RespondWithPayload(w http.ResponseWriter, status int, fields map[string]interface{}) {
	resp := map[string]interface{}{"success": true}
	for k, v := range fields {
		resp[k] = v
	}
	RespondWithJSON(w, status, resp)
}

// RespondWithDomainError maps ledger, store and workspace errors to a status.
func RespondWithDomainError(w http.ResponseWriter, err error) {
	var ve *ledger.ValidationError
	var se *reportstore.StoreError
	switch {
	case errors.As(err, &ve):
		RespondWithError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, reportstore.ErrNotFound):
		RespondWithError(w, http.StatusNotFound, constants.ErrReportNotFound)
	case errors.Is(err, workspace.ErrNotFound):
		RespondWithError(w, http.StatusNotFound, constants.ErrWorkspaceNotFound)
	case errors.As(err, &se):
		LogError("store %s: %v", se.Op, se.Err)
		RespondWithError(w, http.StatusInternalServerError, constants.ErrStore)
	default:
		RespondWithError(w, http.StatusInternalServerError, err.Error())
	}
}

// DecodeJSON decodes the request body into v, writing a 400 on failure.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
		return false
	}
	return true
}

// LogError writes an [ERROR] line. Without args msg is logged verbatim.
func LogError(msg string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf("[ERROR] "+msg, args...)
	} else {
		log.Println("[ERROR]", msg)
	}
}
