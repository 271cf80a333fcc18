package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/saamuelsam/sales-gamification/internal/app"
	"github.com/saamuelsam/sales-gamification/internal/core"
)

// createSale handles POST /api/sales. Returns the full pipeline result:
// the sale row, the points granted, the commission breakdown, and whether a
// reward or level-up fired.
func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	var req app.CreateSaleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.CreateSale(r.Context(), claims.UserID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result)
}

// listSales handles GET /api/sales?status=&limit=.
func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	var status *core.SaleStatus
	if q := r.URL.Query().Get("status"); q != "" {
		st := core.SaleStatus(q)
		status = &st
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.svc.ListSales(r.Context(), claims.UserID, status, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// getSale handles GET /api/sales/{id}.
func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	sale, err := h.svc.GetSale(r.Context(), chi.URLParam(r, "id"), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sale)
}

// updateSale handles PATCH /api/sales/{id}.
func (h *Handler) updateSale(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	var patch core.SalePatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	sale, err := h.svc.UpdateSale(r.Context(), chi.URLParam(r, "id"), claims.UserID, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sale)
}

// deleteSale handles DELETE /api/sales/{id}.
func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	if err := h.svc.DeleteSale(r.Context(), chi.URLParam(r, "id"), claims.UserID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// salesStats handles GET /api/sales/stats.
func (h *Handler) salesStats(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	stats, err := h.svc.GetSalesStats(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, stats)
}

// salesChart handles GET /api/sales/chart.
func (h *Handler) salesChart(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	chart, err := h.svc.GetSalesChart(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, chart)
}
