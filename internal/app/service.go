package app

import (
	"context"

	"github.com/saamuelsam/sales-gamification/internal/core"
)

// ApplicationService is the single interface the web adapter calls. It
// decouples presentation from business logic. Implementations must contain
// no HTTP types and no display logic of any kind.
type ApplicationService interface {
	// RegisterUser creates a root account with no sponsor.
	RegisterUser(ctx context.Context, req RegisterRequest) (*core.User, error)

	// AuthenticateUser verifies credentials and returns the account.
	AuthenticateUser(ctx context.Context, email, password string) (*core.User, error)

	// GetUser returns one account by id.
	GetUser(ctx context.Context, userID string) (*core.User, error)

	// AddTeamMember creates an account sponsored by parentID.
	AddTeamMember(ctx context.Context, parentID string, req RegisterRequest) (*core.User, error)

	// GetTeam returns the caller's direct downline with totals.
	GetTeam(ctx context.Context, userID string) ([]core.TeamMemberSummary, error)

	// DeactivateUser soft-disables an account (admin).
	DeactivateUser(ctx context.Context, userID string) error

	// CreateSale runs the full sale pipeline: sale, points, commission,
	// monthly reward check, and level-up detection in one transaction.
	CreateSale(ctx context.Context, userID string, req CreateSaleRequest) (*core.SaleResult, error)

	// GetSale returns one sale with its point and commission rows.
	GetSale(ctx context.Context, saleID, userID string) (*core.SaleDetail, error)

	// ListSales returns the caller's sales, optionally filtered by status.
	ListSales(ctx context.Context, userID string, status *core.SaleStatus, limit int) (*SaleListResult, error)

	// UpdateSale applies a partial update. Points and commissions are never
	// recomputed here.
	UpdateSale(ctx context.Context, saleID, userID string, patch core.SalePatch) (*core.Sale, error)

	// DeleteSale removes a sale with its points and commissions.
	DeleteSale(ctx context.Context, saleID, userID string) error

	// GetSalesStats returns per-status aggregates for the caller.
	GetSalesStats(ctx context.Context, userID string) (*core.SalesStats, error)

	// GetSalesChart returns monthly and per-status chart series.
	GetSalesChart(ctx context.Context, userID string) (*core.SalesChartData, error)

	// GetPoints returns the caller's lifetime total.
	GetPoints(ctx context.Context, userID string) (*PointsResult, error)

	// GetPointsHistory returns the caller's ledger entries, newest first.
	GetPointsHistory(ctx context.Context, userID string) (*PointsHistoryResult, error)

	// GetRanking returns the company-wide points leaderboard.
	GetRanking(ctx context.Context, limit int) (*RankingResult, error)

	// ListLevels returns the ladder ordered by phase.
	ListLevels(ctx context.Context) (*LevelListResult, error)

	// GetLevelPathway returns every level annotated with the caller's progress.
	GetLevelPathway(ctx context.Context, userID string) ([]core.PathwayLevel, error)

	// GetUserGoals returns the caller's position and next-level requirements.
	GetUserGoals(ctx context.Context, userID string) (*core.UserGoals, error)

	// CreateLevel, UpdateLevel, DeleteLevel administer the ladder.
	CreateLevel(ctx context.Context, in core.LevelInput) (*core.Level, error)
	UpdateLevel(ctx context.Context, levelID string, patch core.LevelPatch) (*core.Level, error)
	DeleteLevel(ctx context.Context, levelID string) error

	// GetCommissions returns the caller's commissions joined with sale data.
	GetCommissions(ctx context.Context, userID string) (*CommissionListResult, error)

	// GetCommissionSummary returns paid/unpaid totals for the caller.
	GetCommissionSummary(ctx context.Context, userID string) (*core.CommissionSummary, error)

	// MarkCommissionPaid settles one commission.
	MarkCommissionPaid(ctx context.Context, commissionID string) (*core.Commission, error)

	// GetCommissionReport returns the company-wide payout report for a period.
	GetCommissionReport(ctx context.Context, startDate, endDate string) ([]core.CommissionReportRow, error)

	// GetRewards returns the caller's rewards, newest first.
	GetRewards(ctx context.Context, userID string) (*RewardListResult, error)

	// MarkRewardDelivered fulfils one reward.
	MarkRewardDelivered(ctx context.Context, rewardID string) (*core.Reward, error)

	// Notifications.
	GetNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) (*NotificationListResult, error)
	MarkNotificationRead(ctx context.Context, notificationID, userID string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int, error)
	DeleteNotification(ctx context.Context, notificationID, userID string) error

	// Clients.
	CreateClient(ctx context.Context, userID string, in core.ClientInput) (*core.Client, error)
	GetClient(ctx context.Context, clientID, userID string) (*core.Client, error)
	ListClients(ctx context.Context, userID, search string) (*ClientListResult, error)
	UpdateClient(ctx context.Context, clientID, userID string, in core.ClientInput) (*core.Client, error)
	DeleteClient(ctx context.Context, clientID, userID string) error

	// Benefits.
	CreateBenefit(ctx context.Context, in core.BenefitInput) (*core.Benefit, error)
	ListBenefits(ctx context.Context) (*BenefitListResult, error)
	ListUserBenefits(ctx context.Context, userID string) (*BenefitListResult, error)
	UpdateBenefit(ctx context.Context, benefitID string, in core.BenefitInput) (*core.Benefit, error)
	DeleteBenefit(ctx context.Context, benefitID string) error

	// GetDashboard returns the caller's aggregated dashboard.
	GetDashboard(ctx context.Context, userID string) (*core.Dashboard, error)

	// GetTeamDashboard aggregates the caller's direct downline.
	GetTeamDashboard(ctx context.Context, userID string) (*core.TeamDashboard, error)
}
