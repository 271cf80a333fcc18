package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/saamuelsam/sales-gamification/internal/app"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string) http.Handler {
	h := &Handler{
		svc:       svc,
		jwtSecret: jwtSecret,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	// ── Health (public) ───────────────────────────────────────────────────────
	r.Get("/api/health", h.health)

	// ── Auth (public) ─────────────────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB
		r.Post("/api/auth/register", h.register)
		r.Post("/api/auth/login", h.login)
		r.Post("/api/auth/logout", h.logout)
	})

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		// Auth
		r.Get("/api/auth/me", h.me)

		// Sales
		r.Post("/api/sales", h.createSale)
		r.Get("/api/sales", h.listSales)
		r.Get("/api/sales/stats", h.salesStats)
		r.Get("/api/sales/chart", h.salesChart)
		r.Get("/api/sales/{id}", h.getSale)
		r.Patch("/api/sales/{id}", h.updateSale)
		r.Delete("/api/sales/{id}", h.deleteSale)

		// Points
		r.Get("/api/points", h.points)
		r.Get("/api/points/history", h.pointsHistory)
		r.Get("/api/points/ranking", h.pointsRanking)

		// Levels
		r.Get("/api/levels", h.listLevels)
		r.Get("/api/levels/pathway", h.levelPathway)
		r.Get("/api/levels/goals", h.userGoals)

		// Commissions
		r.Get("/api/commissions", h.listCommissions)
		r.Get("/api/commissions/summary", h.commissionSummary)

		// Rewards
		r.Get("/api/rewards", h.listRewards)

		// Notifications
		r.Get("/api/notifications", h.listNotifications)
		r.Patch("/api/notifications/{id}/read", h.markNotificationRead)
		r.Post("/api/notifications/read-all", h.markAllNotificationsRead)
		r.Delete("/api/notifications/{id}", h.deleteNotification)

		// Clients
		r.Post("/api/clients", h.createClient)
		r.Get("/api/clients", h.listClients)
		r.Get("/api/clients/{id}", h.getClient)
		r.Put("/api/clients/{id}", h.updateClient)
		r.Delete("/api/clients/{id}", h.deleteClient)

		// Benefits
		r.Get("/api/benefits", h.listBenefits)
		r.Get("/api/benefits/me", h.listUserBenefits)

		// Team
		r.Get("/api/team", h.listTeam)
		r.Post("/api/team", h.addTeamMember)

		// Dashboard
		r.Get("/api/dashboard", h.dashboard)
		r.Get("/api/dashboard/team", h.teamDashboard)

		// ── Admin: catalog and payout administration ──────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAdmin)
			r.Post("/api/levels", h.createLevel)
			r.Patch("/api/levels/{id}", h.updateLevel)
			r.Delete("/api/levels/{id}", h.deleteLevel)
			r.Post("/api/commissions/{id}/pay", h.payCommission)
			r.Get("/api/commissions/report", h.commissionReport)
			r.Post("/api/rewards/{id}/deliver", h.deliverReward)
			r.Delete("/api/team/{id}", h.deactivateUser)
			r.Post("/api/benefits", h.createBenefit)
			r.Put("/api/benefits/{id}", h.updateBenefit)
			r.Delete("/api/benefits/{id}", h.deleteBenefit)
		})
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// decodeJSON decodes the request body into v and writes an appropriate error
// response on failure. Returns HTTP 413 when the body exceeds the size limit
// set by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
