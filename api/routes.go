package api

import (
	"net/http"

	"CashbookRecon/api/cashbook"
	"CashbookRecon/api/constants"
	"CashbookRecon/api/reports"
	"CashbookRecon/api/utils"
	"CashbookRecon/internal/config"
	"CashbookRecon/internal/ledger"
	"CashbookRecon/internal/logger"
	"CashbookRecon/internal/reportstore"
	"CashbookRecon/internal/workspace"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

// Deps are the collaborators the HTTP layer serves.
type Deps struct {
	Store          reportstore.Store
	Registry       *workspace.Registry
	MaxUploadBytes int64
	Limiter        *rate.Limiter
	AllowedOrigins []string
}

func NewRouter(d Deps) *mux.Router {
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = int64(config.DefaultMaxUploadMB) << 20
	}
	limited := rateLimitMiddleware(d.Limiter)
	store, reg := d.Store, d.Registry

	router := mux.NewRouter()
	router.HandleFunc("/health", HealthHandler(d)).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/banks", BanksHandler).Methods(http.MethodGet)

	// Reports
	api.Handle("/reports/upload", limited(reports.UploadReport(store))).Methods(http.MethodPost)
	api.HandleFunc("/reports", reports.ListReports(store)).Methods(http.MethodGet)
	api.HandleFunc("/reports/{id}", reports.GetReport(store)).Methods(http.MethodGet)
	api.Handle("/reports/{id}", limited(reports.DeleteReport(store))).Methods(http.MethodDelete)

	// Workspaces
	api.Handle("/workspaces", limited(cashbook.CreateWorkspace(reg))).Methods(http.MethodPost)
	api.Handle("/workspaces/restore", limited(cashbook.RestoreSnapshot(reg))).Methods(http.MethodPost)
	api.HandleFunc("/workspaces/{id}", cashbook.GetWorkspace(reg)).Methods(http.MethodGet)
	api.Handle("/workspaces/{id}", limited(cashbook.DeleteWorkspace(reg))).Methods(http.MethodDelete)
	api.Handle("/workspaces/{id}/upload", limited(cashbook.UploadFile(reg, d.MaxUploadBytes))).Methods(http.MethodPost)
	api.Handle("/workspaces/{id}/rows", limited(cashbook.LoadRows(reg))).Methods(http.MethodPost)
	api.Handle("/workspaces/{id}/cells", limited(cashbook.EditCell(reg))).Methods(http.MethodPatch)
	api.Handle("/workspaces/{id}/search", limited(cashbook.Search(reg))).Methods(http.MethodPost)
	api.Handle("/workspaces/{id}/search", limited(cashbook.ResetSearch(reg))).Methods(http.MethodDelete)
	api.Handle("/workspaces/{id}/currency", limited(cashbook.SetCurrency(reg))).Methods(http.MethodPut)
	api.Handle("/workspaces/{id}/header", limited(cashbook.SetHeader(reg))).Methods(http.MethodPut)
	api.Handle("/workspaces/{id}/clear", limited(cashbook.Clear(reg))).Methods(http.MethodPost)
	api.Handle("/workspaces/{id}/save", limited(cashbook.Save(reg, store))).Methods(http.MethodPost)
	api.HandleFunc("/workspaces/{id}/snapshot", cashbook.GetSnapshot(reg)).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(notFoundHandler)
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
	})
	return router
}

// NewHandler wraps the router in the gateway middleware chain.
func NewHandler(d Deps) http.Handler {
	return recoverMiddleware(accessLogMiddleware(corsMiddleware(d.AllowedOrigins)(NewRouter(d))))
}

func HealthHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		live := 0
		if d.Registry != nil {
			live = d.Registry.Count()
		}
		utils.RespondWithPayload(w, http.StatusOK, map[string]interface{}{
			"status":     "ok",
			"workspaces": live,
		})
	}
}

// BanksHandler lists the banks and currencies offered at upload.
func BanksHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithPayload(w, http.StatusOK, map[string]interface{}{
		"banks":      config.Banks,
		"currencies": []string{ledger.DefaultCurrency, "ZWG"},
	})
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	logger.Audit("[Gateway] [Error] %s from %s (route not found)", r.URL.Path, r.RemoteAddr)
	utils.RespondWithError(w, http.StatusNotFound, constants.ErrRouteNotFound)
}
