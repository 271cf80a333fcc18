package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// DashboardUser is the caller's profile as shown on the dashboard. Level is
// resolved live from accumulated points; the users.level cache is never
// written from here.
type DashboardUser struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	LevelName string `json:"level_name"`
	Phase     int    `json:"phase"`
}

type Dashboard struct {
	User               DashboardUser   `json:"user"`
	TotalPoints        decimal.Decimal `json:"total_points"`
	MonthlyPoints      decimal.Decimal `json:"monthly_points"`
	MonthlySales       int             `json:"monthly_sales"`
	TotalCommission    decimal.Decimal `json:"total_commission"`
	UnpaidCommission   decimal.Decimal `json:"unpaid_commission"`
	NextLevel          *Level          `json:"next_level,omitempty"`
	PointsToNextLevel  decimal.Decimal `json:"points_to_next_level"`
	ProgressPercentage int             `json:"progress_percentage"`
	RecentSales        []SaleDetail    `json:"recent_sales"`
	PendingRewards     []Reward        `json:"pending_rewards"`
}

// TeamDashboard aggregates one sponsor's direct downline.
type TeamDashboard struct {
	Members        []TeamMemberSummary `json:"members"`
	TeamSize       int                 `json:"team_size"`
	TeamPoints     decimal.Decimal     `json:"team_points"`
	TeamSalesValue decimal.Decimal     `json:"team_sales_value"`
	TeamSalesCount int                 `json:"team_sales_count"`
}

type DashboardService interface {
	Personal(ctx context.Context, userID string) (*Dashboard, error)
	Team(ctx context.Context, userID string) (*TeamDashboard, error)
}

type dashboardService struct {
	pool    *pgxpool.Pool
	ledger  PointsLedger
	catalog LevelCatalog
	sales   SaleService
	users   UserService
	now     func() time.Time
}

func NewDashboardService(pool *pgxpool.Pool, ledger PointsLedger, catalog LevelCatalog, sales SaleService, users UserService) DashboardService {
	return &dashboardService{
		pool:    pool,
		ledger:  ledger,
		catalog: catalog,
		sales:   sales,
		users:   users,
		now:     time.Now,
	}
}

func (s *dashboardService) Personal(ctx context.Context, userID string) (*Dashboard, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	total, err := s.ledger.TotalPoints(ctx, userID)
	if err != nil {
		return nil, err
	}
	level, err := s.catalog.LevelForPoints(ctx, s.pool, total)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		User: DashboardUser{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			Role:      user.Role,
			LevelName: level.Name,
			Phase:     level.PhaseNumber,
		},
		TotalPoints: total,
	}

	start := monthStart(s.now())
	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(p.points), 0),
		       COUNT(DISTINCT s.id)::int
		FROM sales s
		LEFT JOIN points p ON p.sale_id = s.id
		WHERE s.user_id = $1 AND s.created_at >= $2
		  AND s.status NOT IN ('cancelled', 'financing_denied')
	`, userID, start).Scan(&d.MonthlyPoints, &d.MonthlySales)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly totals: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_commission), 0),
		       COALESCE(SUM(total_commission) FILTER (WHERE NOT paid), 0)
		FROM commissions
		WHERE user_id = $1
	`, userID).Scan(&d.TotalCommission, &d.UnpaidCommission)
	if err != nil {
		return nil, fmt.Errorf("failed to query commission totals: %w", err)
	}

	next, err := s.catalog.NextLevel(ctx, level.PhaseNumber)
	if err != nil {
		return nil, err
	}
	if next != nil {
		d.NextLevel = next
		d.PointsToNextLevel = next.PointsRequired.Sub(total)
		if d.PointsToNextLevel.IsNegative() {
			d.PointsToNextLevel = decimal.Zero
		}
		span := next.PointsRequired.Sub(level.PointsRequired)
		if span.IsPositive() {
			pct := total.Sub(level.PointsRequired).Div(span).Mul(decimal.NewFromInt(100)).IntPart()
			if pct < 0 {
				pct = 0
			}
			if pct > 100 {
				pct = 100
			}
			d.ProgressPercentage = int(pct)
		}
	} else {
		d.ProgressPercentage = 100
	}

	d.RecentSales, err = s.sales.ListUserSales(ctx, userID, nil, 5)
	if err != nil {
		return nil, err
	}

	rewardRows, err := s.pool.Query(ctx, `
		SELECT `+rewardColumns+` FROM rewards
		WHERE user_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending rewards: %w", err)
	}
	defer rewardRows.Close()
	for rewardRows.Next() {
		r, err := scanReward(rewardRows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		d.PendingRewards = append(d.PendingRewards, *r)
	}
	if err := rewardRows.Err(); err != nil {
		return nil, err
	}

	return d, nil
}

func (s *dashboardService) Team(ctx context.Context, userID string) (*TeamDashboard, error) {
	members, err := s.users.Team(ctx, userID)
	if err != nil {
		return nil, err
	}

	d := &TeamDashboard{Members: members, TeamSize: len(members)}
	for _, m := range members {
		d.TeamPoints = d.TeamPoints.Add(m.TotalPoints)
		d.TeamSalesCount += m.TotalSales
	}

	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(s.value), 0)
		FROM sales s
		JOIN users u ON u.id = s.user_id
		WHERE u.parent_id = $1
	`, userID).Scan(&d.TeamSalesValue)
	if err != nil {
		return nil, fmt.Errorf("failed to query team sales value: %w", err)
	}
	return d, nil
}
