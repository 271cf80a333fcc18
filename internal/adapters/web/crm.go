package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/saamuelsam/sales-gamification/internal/app"
	"github.com/saamuelsam/sales-gamification/internal/core"
)

// ── Notifications ─────────────────────────────────────────────────────────────

// listNotifications handles GET /api/notifications?unread=&limit=.
func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	unreadOnly := r.URL.Query().Get("unread") == "true"
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.svc.GetNotifications(r.Context(), claims.UserID, unreadOnly, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// markNotificationRead handles PATCH /api/notifications/{id}/read.
func (h *Handler) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	if err := h.svc.MarkNotificationRead(r.Context(), chi.URLParam(r, "id"), claims.UserID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// markAllNotificationsRead handles POST /api/notifications/read-all.
func (h *Handler) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	count, err := h.svc.MarkAllNotificationsRead(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	type response struct {
		Updated int `json:"updated"`
	}
	writeJSON(w, response{Updated: count})
}

// deleteNotification handles DELETE /api/notifications/{id}.
func (h *Handler) deleteNotification(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	if err := h.svc.DeleteNotification(r.Context(), chi.URLParam(r, "id"), claims.UserID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Clients ───────────────────────────────────────────────────────────────────

// createClient handles POST /api/clients.
func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	var in core.ClientInput
	if !decodeJSON(w, r, &in) {
		return
	}

	client, err := h.svc.CreateClient(r.Context(), claims.UserID, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, client)
}

// listClients handles GET /api/clients?search=.
func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	result, err := h.svc.ListClients(r.Context(), claims.UserID, r.URL.Query().Get("search"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// getClient handles GET /api/clients/{id}.
func (h *Handler) getClient(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	client, err := h.svc.GetClient(r.Context(), chi.URLParam(r, "id"), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, client)
}

// updateClient handles PUT /api/clients/{id}.
func (h *Handler) updateClient(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	var in core.ClientInput
	if !decodeJSON(w, r, &in) {
		return
	}

	client, err := h.svc.UpdateClient(r.Context(), chi.URLParam(r, "id"), claims.UserID, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, client)
}

// deleteClient handles DELETE /api/clients/{id}.
func (h *Handler) deleteClient(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	if err := h.svc.DeleteClient(r.Context(), chi.URLParam(r, "id"), claims.UserID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Benefits ──────────────────────────────────────────────────────────────────

// listBenefits handles GET /api/benefits.
func (h *Handler) listBenefits(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListBenefits(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// listUserBenefits handles GET /api/benefits/me — only the perks unlocked by
// the caller's current level.
func (h *Handler) listUserBenefits(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	result, err := h.svc.ListUserBenefits(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// createBenefit handles POST /api/benefits (admin).
func (h *Handler) createBenefit(w http.ResponseWriter, r *http.Request) {
	var in core.BenefitInput
	if !decodeJSON(w, r, &in) {
		return
	}

	benefit, err := h.svc.CreateBenefit(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, benefit)
}

// updateBenefit handles PUT /api/benefits/{id} (admin).
func (h *Handler) updateBenefit(w http.ResponseWriter, r *http.Request) {
	var in core.BenefitInput
	if !decodeJSON(w, r, &in) {
		return
	}

	benefit, err := h.svc.UpdateBenefit(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, benefit)
}

// deleteBenefit handles DELETE /api/benefits/{id} (admin).
func (h *Handler) deleteBenefit(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteBenefit(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Team & Dashboard ──────────────────────────────────────────────────────────

// listTeam handles GET /api/team.
func (h *Handler) listTeam(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	team, err := h.svc.GetTeam(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, team)
}

// addTeamMember handles POST /api/team — creates an account sponsored by the
// caller.
func (h *Handler) addTeamMember(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	var req app.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	member, err := h.svc.AddTeamMember(r.Context(), claims.UserID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, member)
}

// dashboard handles GET /api/dashboard.
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	d, err := h.svc.GetDashboard(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, d)
}

// deactivateUser handles DELETE /api/team/{id} (admin). The account is
// soft-disabled; its sales and points history stay intact.
func (h *Handler) deactivateUser(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeactivateUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// teamDashboard handles GET /api/dashboard/team.
func (h *Handler) teamDashboard(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	d, err := h.svc.GetTeamDashboard(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, d)
}
