package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PointHistoryEntry is a ledger row joined with its sale.
type PointHistoryEntry struct {
	PointEntry
	ClientName string          `json:"client_name"`
	SaleValue  decimal.Decimal `json:"sale_value"`
	Kilowatts  decimal.Decimal `json:"kilowatts"`
}

// RankingEntry is one row of the points leaderboard.
type RankingEntry struct {
	UserID      string          `json:"user_id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	TotalPoints decimal.Decimal `json:"total_points"`
	TotalSales  int             `json:"total_sales"`
}

// PointsLedger is the append-only record of point grants. Appends happen only
// inside the sale transaction; the running total is materialized on each row.
type PointsLedger interface {
	// AppendTx writes one ledger entry inside tx, computing the new running
	// total from the user's current maximum. Not idempotent — the caller must
	// guarantee at-most-once execution per sale.
	AppendTx(ctx context.Context, tx pgx.Tx, userID, saleID string, points decimal.Decimal, description string) (*PointEntry, error)
	// TotalPoints returns MAX(accumulated_points) for the user, 0 if none.
	TotalPoints(ctx context.Context, userID string) (decimal.Decimal, error)
	History(ctx context.Context, userID string) ([]PointHistoryEntry, error)
	Ranking(ctx context.Context, limit int) ([]RankingEntry, error)
}

type pointsLedger struct {
	pool *pgxpool.Pool
}

func NewPointsLedger(pool *pgxpool.Pool) PointsLedger {
	return &pointsLedger{pool: pool}
}

func (l *pointsLedger) AppendTx(ctx context.Context, tx pgx.Tx, userID, saleID string, points decimal.Decimal, description string) (*PointEntry, error) {
	// Lock the user's latest entry so concurrent sales by the same user
	// serialize on the running total instead of losing updates. A user with
	// no prior entries has no row to lock; first-sale races are prevented by
	// the enclosing transaction's isolation.
	var currentTotal decimal.Decimal
	err := tx.QueryRow(ctx, `
		SELECT COALESCE((
			SELECT accumulated_points FROM points
			WHERE user_id = $1
			ORDER BY accumulated_points DESC
			LIMIT 1
			FOR UPDATE
		), 0)
	`, userID).Scan(&currentTotal)
	if err != nil {
		return nil, fmt.Errorf("failed to read accumulated points for user %s: %w", userID, err)
	}

	var e PointEntry
	err = tx.QueryRow(ctx, `
		INSERT INTO points (user_id, sale_id, points, accumulated_points, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, sale_id, points, accumulated_points, description, created_at
	`, userID, saleID, points, currentTotal.Add(points), description).Scan(
		&e.ID, &e.UserID, &e.SaleID, &e.Points, &e.AccumulatedPoints, &e.Description, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert point entry: %w", err)
	}
	return &e, nil
}

func (l *pointsLedger) TotalPoints(ctx context.Context, userID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := l.pool.QueryRow(ctx,
		"SELECT COALESCE(MAX(accumulated_points), 0) FROM points WHERE user_id = $1",
		userID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read total points for user %s: %w", userID, err)
	}
	return total, nil
}

func (l *pointsLedger) History(ctx context.Context, userID string) ([]PointHistoryEntry, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT p.id, p.user_id, p.sale_id, p.points, p.accumulated_points,
		       COALESCE(p.description, ''), p.created_at,
		       s.client_name, s.value, s.kilowatts
		FROM points p
		JOIN sales s ON s.id = p.sale_id
		WHERE p.user_id = $1
		ORDER BY p.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query point history: %w", err)
	}
	defer rows.Close()

	var out []PointHistoryEntry
	for rows.Next() {
		var h PointHistoryEntry
		if err := rows.Scan(&h.ID, &h.UserID, &h.SaleID, &h.Points, &h.AccumulatedPoints,
			&h.Description, &h.CreatedAt, &h.ClientName, &h.SaleValue, &h.Kilowatts); err != nil {
			return nil, fmt.Errorf("failed to scan point entry: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (l *pointsLedger) Ranking(ctx context.Context, limit int) ([]RankingEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := l.pool.Query(ctx, `
		SELECT u.id, u.name, u.email,
		       COALESCE(MAX(p.accumulated_points), 0) AS total_points,
		       COUNT(DISTINCT s.id)::int AS total_sales
		FROM users u
		LEFT JOIN points p ON p.user_id = u.id
		LEFT JOIN sales s ON s.user_id = u.id AND s.status NOT IN ('cancelled', 'financing_denied')
		WHERE u.is_active = TRUE
		GROUP BY u.id, u.name, u.email
		ORDER BY total_points DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranking: %w", err)
	}
	defer rows.Close()

	var out []RankingEntry
	for rows.Next() {
		var r RankingEntry
		if err := rows.Scan(&r.UserID, &r.Name, &r.Email, &r.TotalPoints, &r.TotalSales); err != nil {
			return nil, fmt.Errorf("failed to scan ranking row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// monthStart returns the first instant of t's calendar month in t's location.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
