package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// consortiumRate is the fixed commission rate for consortium sales,
// independent of the consultant's level.
var consortiumRate = decimal.RequireFromString("0.05")

var oneHundred = decimal.NewFromInt(100)

// CommissionBreakdown is the result of the commission calculation for one sale.
type CommissionBreakdown struct {
	SaleCommission      decimal.Decimal `json:"sale"`
	InsuranceCommission decimal.Decimal `json:"insurance"`
	TotalCommission     decimal.Decimal `json:"total"`
}

// ComputeCommission maps (sale input, level snapshot) to a commission
// breakdown. Consortium sales pay a flat 5% of the consortium value and never
// an insurance commission; every other type pays the level's personal
// percentage of the sale value plus, when insured, the level's insurance
// percentage of the insurance value. Pure — no I/O, no rounding beyond
// decimal precision.
func ComputeCommission(in *CreateSaleInput, level *Level) CommissionBreakdown {
	if in.SaleType == SaleTypeConsortium {
		sale := in.ConsortiumValue.Mul(consortiumRate)
		return CommissionBreakdown{
			SaleCommission:      sale,
			InsuranceCommission: decimal.Zero,
			TotalCommission:     sale,
		}
	}

	sale := in.Value.Mul(level.PersonalCommission).Div(oneHundred)
	insurance := decimal.Zero
	if in.InsuranceValue != nil {
		insurance = in.InsuranceValue.Mul(level.InsuranceCommission).Div(oneHundred)
	}
	return CommissionBreakdown{
		SaleCommission:      sale,
		InsuranceCommission: insurance,
		TotalCommission:     sale.Add(insurance),
	}
}

// ── Commission records ────────────────────────────────────────────────────────

// CommissionSummary aggregates a user's earned, paid, and pending commissions.
type CommissionSummary struct {
	UserID       string          `json:"user_id"`
	UserName     string          `json:"user_name"`
	TotalEarned  decimal.Decimal `json:"total_earned"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	TotalPending decimal.Decimal `json:"total_pending"`
	CountPaid    int             `json:"count_paid"`
	CountPending int             `json:"count_pending"`
}

// CommissionWithSale is a commission row joined with its sale's key fields.
type CommissionWithSale struct {
	Commission
	ClientName string          `json:"client_name"`
	SaleValue  decimal.Decimal `json:"sale_value"`
	Kilowatts  decimal.Decimal `json:"kilowatts"`
	ClosedAt   *time.Time      `json:"closed_at,omitempty"`
}

// CommissionReportRow is one user's totals in the admin commission report.
type CommissionReportRow struct {
	UserID           string          `json:"user_id"`
	UserName         string          `json:"user_name"`
	Email            string          `json:"email"`
	TotalEarned      decimal.Decimal `json:"total_earned"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	TotalPending     decimal.Decimal `json:"total_pending"`
	TotalCommissions int             `json:"total_commissions"`
}

// CommissionService provides read and admin operations over commission rows.
// Creation happens only inside the sale transaction (SaleService).
type CommissionService interface {
	GetUserCommissions(ctx context.Context, userID string) ([]CommissionWithSale, error)
	GetUserSummary(ctx context.Context, userID string) (*CommissionSummary, error)
	// MarkAsPaid sets paid/paid_at on a commission. Admin action; the row is
	// otherwise immutable.
	MarkAsPaid(ctx context.Context, commissionID string) (*Commission, error)
	Report(ctx context.Context, startDate, endDate string) ([]CommissionReportRow, error)
}

type commissionService struct {
	pool *pgxpool.Pool
}

func NewCommissionService(pool *pgxpool.Pool) CommissionService {
	return &commissionService{pool: pool}
}

func (s *commissionService) GetUserCommissions(ctx context.Context, userID string) ([]CommissionWithSale, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.user_id, c.sale_id, c.sale_commission, c.insurance_commission,
		       c.total_commission, c.paid, c.paid_at, c.created_at,
		       s.client_name, s.value, s.kilowatts, s.closed_at
		FROM commissions c
		JOIN sales s ON s.id = c.sale_id
		WHERE c.user_id = $1
		ORDER BY c.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query commissions: %w", err)
	}
	defer rows.Close()

	var out []CommissionWithSale
	for rows.Next() {
		var c CommissionWithSale
		if err := rows.Scan(&c.ID, &c.UserID, &c.SaleID, &c.SaleCommission, &c.InsuranceCommission,
			&c.TotalCommission, &c.Paid, &c.PaidAt, &c.CreatedAt,
			&c.ClientName, &c.SaleValue, &c.Kilowatts, &c.ClosedAt); err != nil {
			return nil, fmt.Errorf("failed to scan commission: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *commissionService) GetUserSummary(ctx context.Context, userID string) (*CommissionSummary, error) {
	var sum CommissionSummary
	err := s.pool.QueryRow(ctx, `
		SELECT u.id, u.name,
		       COALESCE(SUM(c.total_commission), 0),
		       COALESCE(SUM(CASE WHEN c.paid THEN c.total_commission ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN NOT c.paid THEN c.total_commission ELSE 0 END), 0),
		       COUNT(CASE WHEN c.paid THEN 1 END)::int,
		       COUNT(CASE WHEN NOT c.paid THEN 1 END)::int
		FROM users u
		LEFT JOIN commissions c ON c.user_id = u.id
		WHERE u.id = $1
		GROUP BY u.id, u.name
	`, userID).Scan(&sum.UserID, &sum.UserName, &sum.TotalEarned, &sum.TotalPaid,
		&sum.TotalPending, &sum.CountPaid, &sum.CountPending)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query commission summary: %w", err)
	}
	return &sum, nil
}

func (s *commissionService) MarkAsPaid(ctx context.Context, commissionID string) (*Commission, error) {
	var c Commission
	err := s.pool.QueryRow(ctx, `
		UPDATE commissions
		SET paid = TRUE, paid_at = NOW()
		WHERE id = $1
		RETURNING id, user_id, sale_id, sale_commission, insurance_commission,
		          total_commission, paid, paid_at, created_at
	`, commissionID).Scan(&c.ID, &c.UserID, &c.SaleID, &c.SaleCommission, &c.InsuranceCommission,
		&c.TotalCommission, &c.Paid, &c.PaidAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("commission %s: %w", commissionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to mark commission paid: %w", err)
	}
	return &c, nil
}

func (s *commissionService) Report(ctx context.Context, startDate, endDate string) ([]CommissionReportRow, error) {
	query := `
		SELECT u.id, u.name, u.email,
		       COALESCE(SUM(c.total_commission), 0),
		       COALESCE(SUM(CASE WHEN c.paid THEN c.total_commission ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN NOT c.paid THEN c.total_commission ELSE 0 END), 0),
		       COUNT(c.id)::int
		FROM users u
		LEFT JOIN commissions c ON c.user_id = u.id
	`
	args := []any{}
	where := " WHERE u.is_active = TRUE"
	if startDate != "" {
		args = append(args, startDate)
		where += fmt.Sprintf(" AND c.created_at >= $%d", len(args))
	}
	if endDate != "" {
		args = append(args, endDate)
		where += fmt.Sprintf(" AND c.created_at <= $%d", len(args))
	}
	query += where + " GROUP BY u.id, u.name, u.email ORDER BY 4 DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query commission report: %w", err)
	}
	defer rows.Close()

	var out []CommissionReportRow
	for rows.Next() {
		var r CommissionReportRow
		if err := rows.Scan(&r.UserID, &r.UserName, &r.Email, &r.TotalEarned,
			&r.TotalPaid, &r.TotalPending, &r.TotalCommissions); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
