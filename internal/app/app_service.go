package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/saamuelsam/sales-gamification/internal/core"
)

type appService struct {
	users         core.UserService
	sales         core.SaleService
	ledger        core.PointsLedger
	catalog       core.LevelCatalog
	commissions   core.CommissionService
	rewards       core.RewardChecker
	notifications core.NotificationService
	clients       core.ClientService
	benefits      core.BenefitService
	dashboard     core.DashboardService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	users core.UserService,
	sales core.SaleService,
	ledger core.PointsLedger,
	catalog core.LevelCatalog,
	commissions core.CommissionService,
	rewards core.RewardChecker,
	notifications core.NotificationService,
	clients core.ClientService,
	benefits core.BenefitService,
	dashboard core.DashboardService,
) ApplicationService {
	return &appService{
		users:         users,
		sales:         sales,
		ledger:        ledger,
		catalog:       catalog,
		commissions:   commissions,
		rewards:       rewards,
		notifications: notifications,
		clients:       clients,
		benefits:      benefits,
		dashboard:     dashboard,
	}
}

func (s *appService) RegisterUser(ctx context.Context, req RegisterRequest) (*core.User, error) {
	return s.users.Register(ctx, core.RegisterInput(req))
}

func (s *appService) AuthenticateUser(ctx context.Context, email, password string) (*core.User, error) {
	return s.users.Authenticate(ctx, email, password)
}

func (s *appService) GetUser(ctx context.Context, userID string) (*core.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *appService) AddTeamMember(ctx context.Context, parentID string, req RegisterRequest) (*core.User, error) {
	return s.users.AddTeamMember(ctx, parentID, core.RegisterInput(req))
}

func (s *appService) DeactivateUser(ctx context.Context, userID string) error {
	return s.users.Deactivate(ctx, userID)
}

func (s *appService) GetTeam(ctx context.Context, userID string) ([]core.TeamMemberSummary, error) {
	return s.users.Team(ctx, userID)
}

func (s *appService) CreateSale(ctx context.Context, userID string, req CreateSaleRequest) (*core.SaleResult, error) {
	return s.sales.CreateSale(ctx, userID, req.toInput())
}

func (s *appService) GetSale(ctx context.Context, saleID, userID string) (*core.SaleDetail, error) {
	return s.sales.GetSale(ctx, saleID, userID)
}

func (s *appService) ListSales(ctx context.Context, userID string, status *core.SaleStatus, limit int) (*SaleListResult, error) {
	sales, err := s.sales.ListUserSales(ctx, userID, status, limit)
	if err != nil {
		return nil, err
	}
	return &SaleListResult{Sales: sales, Count: len(sales)}, nil
}

func (s *appService) UpdateSale(ctx context.Context, saleID, userID string, patch core.SalePatch) (*core.Sale, error) {
	return s.sales.UpdateSale(ctx, saleID, userID, patch)
}

func (s *appService) DeleteSale(ctx context.Context, saleID, userID string) error {
	return s.sales.DeleteSale(ctx, saleID, userID)
}

func (s *appService) GetSalesStats(ctx context.Context, userID string) (*core.SalesStats, error) {
	return s.sales.Stats(ctx, userID)
}

func (s *appService) GetSalesChart(ctx context.Context, userID string) (*core.SalesChartData, error) {
	return s.sales.ChartData(ctx, userID)
}

func (s *appService) GetPoints(ctx context.Context, userID string) (*PointsResult, error) {
	total, err := s.ledger.TotalPoints(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &PointsResult{TotalPoints: total}, nil
}

func (s *appService) GetPointsHistory(ctx context.Context, userID string) (*PointsHistoryResult, error) {
	entries, err := s.ledger.History(ctx, userID)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	if len(entries) > 0 {
		// History is newest-first; the first row carries the running total.
		total = entries[0].AccumulatedPoints
	}
	return &PointsHistoryResult{Entries: entries, Total: total}, nil
}

func (s *appService) GetRanking(ctx context.Context, limit int) (*RankingResult, error) {
	ranking, err := s.ledger.Ranking(ctx, limit)
	if err != nil {
		return nil, err
	}
	return &RankingResult{Ranking: ranking}, nil
}

func (s *appService) ListLevels(ctx context.Context) (*LevelListResult, error) {
	levels, err := s.catalog.ListLevels(ctx)
	if err != nil {
		return nil, err
	}
	return &LevelListResult{Levels: levels}, nil
}

func (s *appService) GetLevelPathway(ctx context.Context, userID string) ([]core.PathwayLevel, error) {
	return s.catalog.Pathway(ctx, userID)
}

func (s *appService) GetUserGoals(ctx context.Context, userID string) (*core.UserGoals, error) {
	return s.catalog.UserGoals(ctx, userID)
}

func (s *appService) CreateLevel(ctx context.Context, in core.LevelInput) (*core.Level, error) {
	return s.catalog.Create(ctx, in)
}

func (s *appService) UpdateLevel(ctx context.Context, levelID string, patch core.LevelPatch) (*core.Level, error) {
	return s.catalog.Update(ctx, levelID, patch)
}

func (s *appService) DeleteLevel(ctx context.Context, levelID string) error {
	return s.catalog.Delete(ctx, levelID)
}

func (s *appService) GetCommissions(ctx context.Context, userID string) (*CommissionListResult, error) {
	commissions, err := s.commissions.GetUserCommissions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &CommissionListResult{Commissions: commissions}, nil
}

func (s *appService) GetCommissionSummary(ctx context.Context, userID string) (*core.CommissionSummary, error) {
	return s.commissions.GetUserSummary(ctx, userID)
}

func (s *appService) MarkCommissionPaid(ctx context.Context, commissionID string) (*core.Commission, error) {
	return s.commissions.MarkAsPaid(ctx, commissionID)
}

func (s *appService) GetCommissionReport(ctx context.Context, startDate, endDate string) ([]core.CommissionReportRow, error) {
	return s.commissions.Report(ctx, startDate, endDate)
}

func (s *appService) GetRewards(ctx context.Context, userID string) (*RewardListResult, error) {
	rewards, err := s.rewards.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &RewardListResult{Rewards: rewards}, nil
}

func (s *appService) MarkRewardDelivered(ctx context.Context, rewardID string) (*core.Reward, error) {
	return s.rewards.MarkDelivered(ctx, rewardID)
}

func (s *appService) GetNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) (*NotificationListResult, error) {
	notifications, err := s.notifications.List(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, err
	}
	unread, err := s.notifications.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &NotificationListResult{Notifications: notifications, UnreadCount: unread}, nil
}

func (s *appService) MarkNotificationRead(ctx context.Context, notificationID, userID string) error {
	return s.notifications.MarkAsRead(ctx, notificationID, userID)
}

func (s *appService) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	return s.notifications.MarkAllAsRead(ctx, userID)
}

func (s *appService) DeleteNotification(ctx context.Context, notificationID, userID string) error {
	return s.notifications.Delete(ctx, notificationID, userID)
}

func (s *appService) CreateClient(ctx context.Context, userID string, in core.ClientInput) (*core.Client, error) {
	return s.clients.Create(ctx, userID, in)
}

func (s *appService) GetClient(ctx context.Context, clientID, userID string) (*core.Client, error) {
	return s.clients.Get(ctx, clientID, userID)
}

func (s *appService) ListClients(ctx context.Context, userID, search string) (*ClientListResult, error) {
	clients, err := s.clients.List(ctx, userID, search)
	if err != nil {
		return nil, err
	}
	return &ClientListResult{Clients: clients, Count: len(clients)}, nil
}

func (s *appService) UpdateClient(ctx context.Context, clientID, userID string, in core.ClientInput) (*core.Client, error) {
	return s.clients.Update(ctx, clientID, userID, in)
}

func (s *appService) DeleteClient(ctx context.Context, clientID, userID string) error {
	return s.clients.Delete(ctx, clientID, userID)
}

func (s *appService) CreateBenefit(ctx context.Context, in core.BenefitInput) (*core.Benefit, error) {
	return s.benefits.Create(ctx, in)
}

func (s *appService) ListBenefits(ctx context.Context) (*BenefitListResult, error) {
	benefits, err := s.benefits.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return &BenefitListResult{Benefits: benefits}, nil
}

func (s *appService) ListUserBenefits(ctx context.Context, userID string) (*BenefitListResult, error) {
	benefits, err := s.benefits.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &BenefitListResult{Benefits: benefits}, nil
}

func (s *appService) UpdateBenefit(ctx context.Context, benefitID string, in core.BenefitInput) (*core.Benefit, error) {
	return s.benefits.Update(ctx, benefitID, in)
}

func (s *appService) DeleteBenefit(ctx context.Context, benefitID string) error {
	return s.benefits.Delete(ctx, benefitID)
}

func (s *appService) GetDashboard(ctx context.Context, userID string) (*core.Dashboard, error) {
	return s.dashboard.Personal(ctx, userID)
}

func (s *appService) GetTeamDashboard(ctx context.Context, userID string) (*core.TeamDashboard, error) {
	return s.dashboard.Team(ctx, userID)
}
