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

const saleColumns = `id, user_id, client_id, client_name, value, kilowatts, insurance_value,
	sale_type, consortium_value, consortium_term, consortium_monthly_payment,
	consortium_admin_fee, template_type, notes, status, product_delivered,
	delivery_date, installation_proof_url, closed_at, created_at, updated_at`

func scanSale(row pgx.Row) (*Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.UserID, &s.ClientID, &s.ClientName, &s.Value, &s.Kilowatts,
		&s.InsuranceValue, &s.SaleType, &s.ConsortiumValue, &s.ConsortiumTerm,
		&s.ConsortiumMonthlyPayment, &s.ConsortiumAdminFee, &s.TemplateType, &s.Notes,
		&s.Status, &s.ProductDelivered, &s.DeliveryDate, &s.InstallationProofURL,
		&s.ClosedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// PointsGrant reports the points outcome of one sale creation.
type PointsGrant struct {
	Earned      decimal.Decimal `json:"earned"`
	Accumulated decimal.Decimal `json:"accumulated"`
}

// SaleResult is the full outcome of a committed sale creation.
type SaleResult struct {
	Sale          *Sale               `json:"sale"`
	Points        PointsGrant         `json:"points"`
	Commission    CommissionBreakdown `json:"commission"`
	RewardAwarded bool                `json:"reward_awarded"`
	LevelUp       LevelUpResult       `json:"level_up"`
}

// SaleDetail is a sale joined with its point and commission rows.
type SaleDetail struct {
	Sale
	Points              *decimal.Decimal `json:"points,omitempty"`
	AccumulatedPoints   *decimal.Decimal `json:"accumulated_points,omitempty"`
	SaleCommission      *decimal.Decimal `json:"sale_commission,omitempty"`
	InsuranceCommission *decimal.Decimal `json:"insurance_commission,omitempty"`
	TotalCommission     *decimal.Decimal `json:"total_commission,omitempty"`
}

// SalePatch is the whitelisted update payload for a sale. Points and
// commission are snapshot-at-creation: editing value, kilowatts, or any other
// field never re-triggers the calculators.
type SalePatch struct {
	ClientName           *string          `json:"client_name,omitempty"`
	Value                *decimal.Decimal `json:"value,omitempty"`
	Kilowatts            *decimal.Decimal `json:"kilowatts,omitempty"`
	InsuranceValue       *decimal.Decimal `json:"insurance_value,omitempty"`
	Status               *SaleStatus      `json:"status,omitempty"`
	Notes                *string          `json:"notes,omitempty"`
	ProductDelivered     *bool            `json:"product_delivered,omitempty"`
	DeliveryDate         *time.Time       `json:"delivery_date,omitempty"`
	InstallationProofURL *string          `json:"installation_proof_url,omitempty"`
}

// SalesStats aggregates one user's sales by status.
type SalesStats struct {
	TotalSales       int             `json:"total_sales"`
	TotalValue       decimal.Decimal `json:"total_value"`
	TotalKilowatts   decimal.Decimal `json:"total_kilowatts"`
	ApprovedSales    int             `json:"approved_sales"`
	NegotiationSales int             `json:"negotiation_sales"`
	PendingSales     int             `json:"pending_sales"`
	DeniedSales      int             `json:"denied_sales"`
	DeliveredSales   int             `json:"delivered_sales"`
}

// MonthlyChartPoint is one month's sales count and value.
type MonthlyChartPoint struct {
	Month string          `json:"month"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// StatusChartPoint is one status bucket.
type StatusChartPoint struct {
	Status SaleStatus `json:"status"`
	Count  int        `json:"count"`
}

// SalesChartData feeds the dashboard charts.
type SalesChartData struct {
	Monthly  []MonthlyChartPoint `json:"monthly"`
	ByStatus []StatusChartPoint  `json:"by_status"`
}

// SaleService sequences sale creation, update, and deletion. Creation is the
// transactional orchestrator: sale insert, points append, commission insert,
// reward check, and level-up detection all commit or roll back together.
type SaleService interface {
	CreateSale(ctx context.Context, userID string, in CreateSaleInput) (*SaleResult, error)
	GetSale(ctx context.Context, saleID, userID string) (*SaleDetail, error)
	ListUserSales(ctx context.Context, userID string, status *SaleStatus, limit int) ([]SaleDetail, error)
	UpdateSale(ctx context.Context, saleID, userID string, patch SalePatch) (*Sale, error)
	DeleteSale(ctx context.Context, saleID, userID string) error
	Stats(ctx context.Context, userID string) (*SalesStats, error)
	ChartData(ctx context.Context, userID string) (*SalesChartData, error)
}

type saleService struct {
	pool     *pgxpool.Pool
	ledger   PointsLedger
	catalog  LevelCatalog
	rewards  RewardChecker
	detector LevelUpDetector
	now      func() time.Time
}

func NewSaleService(pool *pgxpool.Pool, ledger PointsLedger, catalog LevelCatalog, rewards RewardChecker, detector LevelUpDetector) SaleService {
	return &saleService{
		pool:     pool,
		ledger:   ledger,
		catalog:  catalog,
		rewards:  rewards,
		detector: detector,
		now:      time.Now,
	}
}

func (s *saleService) CreateSale(ctx context.Context, userID string, in CreateSaleInput) (*SaleResult, error) {
	// Fail fast: validation happens before any connection is taken.
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sale, err := scanSale(tx.QueryRow(ctx, `
		INSERT INTO sales (
			user_id, client_id, client_name, value, kilowatts, insurance_value,
			sale_type, consortium_value, consortium_term, consortium_monthly_payment,
			consortium_admin_fee, template_type, notes, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 'negotiation')
		RETURNING `+saleColumns,
		userID, in.ClientID, in.ClientName, in.Value, in.Kilowatts, in.InsuranceValue,
		in.SaleType, in.ConsortiumValue, in.ConsortiumTerm, in.ConsortiumMonthlyPayment,
		in.ConsortiumAdminFee, in.TemplateType, in.Notes))
	if err != nil {
		return nil, fmt.Errorf("failed to insert sale: %w", err)
	}

	// 1 kW = 1 point, regardless of sale type.
	entry, err := s.ledger.AppendTx(ctx, tx, userID, sale.ID, in.Kilowatts,
		fmt.Sprintf("Venda: %s", in.ClientName))
	if err != nil {
		return nil, err
	}

	// The commission rate is a point-in-time snapshot of the level the user
	// held when the sale was made, resolved from accumulated points.
	previousTotal := entry.AccumulatedPoints.Sub(entry.Points)
	level, err := s.catalog.LevelForPoints(ctx, tx, previousTotal)
	if err != nil {
		return nil, err
	}

	breakdown := ComputeCommission(&in, level)
	_, err = tx.Exec(ctx, `
		INSERT INTO commissions (user_id, sale_id, sale_commission, insurance_commission, total_commission)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, sale.ID, breakdown.SaleCommission, breakdown.InsuranceCommission, breakdown.TotalCommission)
	if err != nil {
		return nil, fmt.Errorf("failed to insert commission: %w", err)
	}

	awarded, err := s.rewards.CheckMonthlyRewardTx(ctx, tx, userID, s.now())
	if err != nil {
		return nil, err
	}

	// Level-up failures never abort the sale.
	levelUp := s.detector.CheckLevelUpTx(ctx, tx, userID, entry.AccumulatedPoints)

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit sale: %w", err)
	}

	return &SaleResult{
		Sale: sale,
		Points: PointsGrant{
			Earned:      entry.Points,
			Accumulated: entry.AccumulatedPoints,
		},
		Commission:    breakdown,
		RewardAwarded: awarded,
		LevelUp:       levelUp,
	}, nil
}

func (s *saleService) GetSale(ctx context.Context, saleID, userID string) (*SaleDetail, error) {
	var d SaleDetail
	err := s.pool.QueryRow(ctx, `
		SELECT s.id, s.user_id, s.client_id, s.client_name, s.value, s.kilowatts, s.insurance_value,
		       s.sale_type, s.consortium_value, s.consortium_term, s.consortium_monthly_payment,
		       s.consortium_admin_fee, s.template_type, s.notes, s.status, s.product_delivered,
		       s.delivery_date, s.installation_proof_url, s.closed_at, s.created_at, s.updated_at,
		       p.points, p.accumulated_points,
		       c.sale_commission, c.insurance_commission, c.total_commission
		FROM sales s
		LEFT JOIN points p ON p.sale_id = s.id
		LEFT JOIN commissions c ON c.sale_id = s.id
		WHERE s.id = $1 AND s.user_id = $2
	`, saleID, userID).Scan(
		&d.ID, &d.UserID, &d.ClientID, &d.ClientName, &d.Value, &d.Kilowatts, &d.InsuranceValue,
		&d.SaleType, &d.ConsortiumValue, &d.ConsortiumTerm, &d.ConsortiumMonthlyPayment,
		&d.ConsortiumAdminFee, &d.TemplateType, &d.Notes, &d.Status, &d.ProductDelivered,
		&d.DeliveryDate, &d.InstallationProofURL, &d.ClosedAt, &d.CreatedAt, &d.UpdatedAt,
		&d.Points, &d.AccumulatedPoints,
		&d.SaleCommission, &d.InsuranceCommission, &d.TotalCommission)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("sale %s: %w", saleID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch sale %s: %w", saleID, err)
	}
	return &d, nil
}

func (s *saleService) ListUserSales(ctx context.Context, userID string, status *SaleStatus, limit int) ([]SaleDetail, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT s.id, s.user_id, s.client_id, s.client_name, s.value, s.kilowatts, s.insurance_value,
		       s.sale_type, s.consortium_value, s.consortium_term, s.consortium_monthly_payment,
		       s.consortium_admin_fee, s.template_type, s.notes, s.status, s.product_delivered,
		       s.delivery_date, s.installation_proof_url, s.closed_at, s.created_at, s.updated_at,
		       p.points, p.accumulated_points,
		       c.sale_commission, c.insurance_commission, c.total_commission
		FROM sales s
		LEFT JOIN points p ON p.sale_id = s.id
		LEFT JOIN commissions c ON c.sale_id = s.id
		WHERE s.user_id = $1
	`
	args := []any{userID}
	if status != nil {
		args = append(args, *status)
		query += fmt.Sprintf(" AND s.status = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY s.created_at DESC LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var out []SaleDetail
	for rows.Next() {
		var d SaleDetail
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.ClientID, &d.ClientName, &d.Value, &d.Kilowatts, &d.InsuranceValue,
			&d.SaleType, &d.ConsortiumValue, &d.ConsortiumTerm, &d.ConsortiumMonthlyPayment,
			&d.ConsortiumAdminFee, &d.TemplateType, &d.Notes, &d.Status, &d.ProductDelivered,
			&d.DeliveryDate, &d.InstallationProofURL, &d.ClosedAt, &d.CreatedAt, &d.UpdatedAt,
			&d.Points, &d.AccumulatedPoints,
			&d.SaleCommission, &d.InsuranceCommission, &d.TotalCommission); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *saleService) UpdateSale(ctx context.Context, saleID, userID string, patch SalePatch) (*Sale, error) {
	if patch.Status != nil {
		valid := false
		for _, st := range ValidSaleStatuses {
			if *patch.Status == st {
				valid = true
				break
			}
		}
		if !valid {
			return nil, validationErr("status", "invalid status %q", *patch.Status)
		}
	}
	if patch.Value != nil && !patch.Value.IsPositive() {
		return nil, validationErr("value", "must be > 0")
	}
	if patch.Kilowatts != nil && !patch.Kilowatts.IsPositive() {
		return nil, validationErr("kilowatts", "must be > 0")
	}

	var exists string
	err := s.pool.QueryRow(ctx,
		"SELECT id FROM sales WHERE id = $1 AND user_id = $2", saleID, userID).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("sale %s: %w", saleID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch sale %s: %w", saleID, err)
	}

	sets := []string{}
	args := []any{}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.ClientName != nil {
		add("client_name", *patch.ClientName)
	}
	if patch.Value != nil {
		add("value", *patch.Value)
	}
	if patch.Kilowatts != nil {
		add("kilowatts", *patch.Kilowatts)
	}
	if patch.InsuranceValue != nil {
		add("insurance_value", *patch.InsuranceValue)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
		if *patch.Status == SaleStatusApproved {
			sets = append(sets, "closed_at = NOW()")
		}
	}
	if patch.Notes != nil {
		add("notes", *patch.Notes)
	}
	if patch.ProductDelivered != nil {
		add("product_delivered", *patch.ProductDelivered)
	}
	if patch.DeliveryDate != nil {
		add("delivery_date", *patch.DeliveryDate)
	}
	if patch.InstallationProofURL != nil {
		add("installation_proof_url", *patch.InstallationProofURL)
	}

	if len(sets) == 0 {
		return nil, validationErr("", "no fields to update")
	}
	sets = append(sets, "updated_at = NOW()")

	query := "UPDATE sales SET "
	for i, set := range sets {
		if i > 0 {
			query += ", "
		}
		query += set
	}
	args = append(args, saleID, userID)
	query += fmt.Sprintf(" WHERE id = $%d AND user_id = $%d RETURNING %s", len(args)-1, len(args), saleColumns)

	sale, err := scanSale(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to update sale %s: %w", saleID, err)
	}
	return sale, nil
}

func (s *saleService) DeleteSale(ctx context.Context, saleID, userID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists string
	err = tx.QueryRow(ctx,
		"SELECT id FROM sales WHERE id = $1 AND user_id = $2", saleID, userID).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("sale %s: %w", saleID, ErrNotFound)
		}
		return fmt.Errorf("failed to fetch sale %s: %w", saleID, err)
	}

	// Children first: points, commissions, then the sale itself.
	// Accumulated totals on later entries are deliberately not compacted.
	if _, err := tx.Exec(ctx, "DELETE FROM points WHERE sale_id = $1", saleID); err != nil {
		return fmt.Errorf("failed to delete points for sale %s: %w", saleID, err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM commissions WHERE sale_id = $1", saleID); err != nil {
		return fmt.Errorf("failed to delete commissions for sale %s: %w", saleID, err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM sales WHERE id = $1", saleID); err != nil {
		return fmt.Errorf("failed to delete sale %s: %w", saleID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit sale deletion: %w", err)
	}
	return nil
}

func (s *saleService) Stats(ctx context.Context, userID string) (*SalesStats, error) {
	var st SalesStats
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*)::int,
		       COALESCE(SUM(value), 0),
		       COALESCE(SUM(kilowatts), 0),
		       COUNT(CASE WHEN status = 'approved' THEN 1 END)::int,
		       COUNT(CASE WHEN status = 'negotiation' THEN 1 END)::int,
		       COUNT(CASE WHEN status = 'pending' THEN 1 END)::int,
		       COUNT(CASE WHEN status = 'financing_denied' THEN 1 END)::int,
		       COUNT(CASE WHEN status = 'delivered' THEN 1 END)::int
		FROM sales
		WHERE user_id = $1
	`, userID).Scan(&st.TotalSales, &st.TotalValue, &st.TotalKilowatts, &st.ApprovedSales,
		&st.NegotiationSales, &st.PendingSales, &st.DeniedSales, &st.DeliveredSales)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales stats: %w", err)
	}
	return &st, nil
}

func (s *saleService) ChartData(ctx context.Context, userID string) (*SalesChartData, error) {
	monthlyRows, err := s.pool.Query(ctx, `
		SELECT TO_CHAR(created_at, 'Mon'), COUNT(*)::int, COALESCE(SUM(value), 0)
		FROM sales
		WHERE user_id = $1 AND created_at >= NOW() - INTERVAL '6 months'
		GROUP BY TO_CHAR(created_at, 'Mon'), EXTRACT(MONTH FROM created_at)
		ORDER BY EXTRACT(MONTH FROM created_at)
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly chart data: %w", err)
	}
	defer monthlyRows.Close()

	data := &SalesChartData{}
	for monthlyRows.Next() {
		var p MonthlyChartPoint
		if err := monthlyRows.Scan(&p.Month, &p.Count, &p.Total); err != nil {
			return nil, fmt.Errorf("failed to scan monthly chart point: %w", err)
		}
		data.Monthly = append(data.Monthly, p)
	}
	if err := monthlyRows.Err(); err != nil {
		return nil, err
	}

	statusRows, err := s.pool.Query(ctx, `
		SELECT status, COUNT(*)::int
		FROM sales
		WHERE user_id = $1
		GROUP BY status
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status chart data: %w", err)
	}
	defer statusRows.Close()

	for statusRows.Next() {
		var p StatusChartPoint
		if err := statusRows.Scan(&p.Status, &p.Count); err != nil {
			return nil, fmt.Errorf("failed to scan status chart point: %w", err)
		}
		data.ByStatus = append(data.ByStatus, p)
	}
	return data, statusRows.Err()
}
