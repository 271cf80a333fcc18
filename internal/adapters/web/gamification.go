package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/saamuelsam/sales-gamification/internal/core"
)

// ── Points ────────────────────────────────────────────────────────────────────

// points handles GET /api/points.
func (h *Handler) points(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	result, err := h.svc.GetPoints(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// pointsHistory handles GET /api/points/history.
func (h *Handler) pointsHistory(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	result, err := h.svc.GetPointsHistory(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// pointsRanking handles GET /api/points/ranking?limit=.
func (h *Handler) pointsRanking(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.svc.GetRanking(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// ── Levels ────────────────────────────────────────────────────────────────────

// listLevels handles GET /api/levels.
func (h *Handler) listLevels(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListLevels(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// levelPathway handles GET /api/levels/pathway.
func (h *Handler) levelPathway(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	pathway, err := h.svc.GetLevelPathway(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, pathway)
}

// userGoals handles GET /api/levels/goals.
func (h *Handler) userGoals(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	goals, err := h.svc.GetUserGoals(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, goals)
}

// createLevel handles POST /api/levels (admin).
func (h *Handler) createLevel(w http.ResponseWriter, r *http.Request) {
	var in core.LevelInput
	if !decodeJSON(w, r, &in) {
		return
	}

	level, err := h.svc.CreateLevel(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, level)
}

// updateLevel handles PATCH /api/levels/{id} (admin).
func (h *Handler) updateLevel(w http.ResponseWriter, r *http.Request) {
	var patch core.LevelPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	level, err := h.svc.UpdateLevel(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, level)
}

// deleteLevel handles DELETE /api/levels/{id} (admin).
func (h *Handler) deleteLevel(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteLevel(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Commissions ───────────────────────────────────────────────────────────────

// listCommissions handles GET /api/commissions.
func (h *Handler) listCommissions(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	result, err := h.svc.GetCommissions(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// commissionSummary handles GET /api/commissions/summary.
func (h *Handler) commissionSummary(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	summary, err := h.svc.GetCommissionSummary(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, summary)
}

// payCommission handles POST /api/commissions/{id}/pay (admin).
func (h *Handler) payCommission(w http.ResponseWriter, r *http.Request) {
	commission, err := h.svc.MarkCommissionPaid(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, commission)
}

// commissionReport handles GET /api/commissions/report?start_date=&end_date= (admin).
func (h *Handler) commissionReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.GetCommissionReport(r.Context(),
		r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, report)
}

// ── Rewards ───────────────────────────────────────────────────────────────────

// listRewards handles GET /api/rewards.
func (h *Handler) listRewards(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	result, err := h.svc.GetRewards(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// deliverReward handles POST /api/rewards/{id}/deliver (admin).
func (h *Handler) deliverReward(w http.ResponseWriter, r *http.Request) {
	reward, err := h.svc.MarkRewardDelivered(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, reward)
}
