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

// monthlyKwThreshold is the kilowatt total that earns the monthly basket.
var monthlyKwThreshold = decimal.NewFromInt(400)

const rewardColumns = `id, user_id, reward_type, description, points_earned,
	threshold_reached, status, award_month, created_at`

func scanReward(row pgx.Row) (*Reward, error) {
	var r Reward
	err := row.Scan(&r.ID, &r.UserID, &r.RewardType, &r.Description, &r.PointsEarned,
		&r.ThresholdReached, &r.Status, &r.AwardMonth, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// RewardChecker evaluates the monthly kilowatt rule and manages reward rows.
type RewardChecker interface {
	// CheckMonthlyRewardTx runs after every sale creation, inside the sale's
	// transaction. It sums the user's kilowatts for the current calendar month
	// (excluding cancelled and financing_denied sales) and awards at most one
	// cesta_basica per user per month. The unique constraint on
	// (user_id, reward_type, award_month) makes the award race-free: a
	// conflicting insert is a no-op, not an error. Returns whether this call
	// awarded the reward. Errors abort the enclosing sale transaction.
	CheckMonthlyRewardTx(ctx context.Context, tx pgx.Tx, userID string, now time.Time) (bool, error)
	List(ctx context.Context, userID string) ([]Reward, error)
	// MarkDelivered transitions a pending reward to delivered (admin).
	MarkDelivered(ctx context.Context, rewardID string) (*Reward, error)
}

type rewardChecker struct {
	pool *pgxpool.Pool
}

func NewRewardChecker(pool *pgxpool.Pool) RewardChecker {
	return &rewardChecker{pool: pool}
}

func (c *rewardChecker) CheckMonthlyRewardTx(ctx context.Context, tx pgx.Tx, userID string, now time.Time) (bool, error) {
	firstOfMonth := monthStart(now)

	var totalKw decimal.Decimal
	var totalSales int
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(kilowatts), 0), COUNT(*)::int
		FROM sales
		WHERE user_id = $1
		  AND created_at >= $2
		  AND status NOT IN ('cancelled', 'financing_denied')
	`, userID, firstOfMonth).Scan(&totalKw, &totalSales)
	if err != nil {
		return false, fmt.Errorf("failed to aggregate monthly kilowatts: %w", err)
	}

	if totalKw.LessThan(monthlyKwThreshold) || totalSales < 1 {
		return false, nil
	}

	var rewardID string
	err = tx.QueryRow(ctx, `
		INSERT INTO rewards (user_id, reward_type, description, points_earned, threshold_reached, status, award_month)
		VALUES ($1, 'cesta_basica', 'Cesta Básica - 400 kW atingidos no mês', $2, $3, 'pending', $4)
		ON CONFLICT (user_id, reward_type, award_month) DO NOTHING
		RETURNING id
	`, userID, totalKw, monthlyKwThreshold, firstOfMonth).Scan(&rewardID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Already awarded this month.
			return false, nil
		}
		return false, fmt.Errorf("failed to insert monthly reward: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO notifications (user_id, type, title, message, metadata)
		VALUES ($1, 'reward', '🎁 Parabéns! Você ganhou uma Cesta Básica!',
		        'Você atingiu 400 kW este mês e conquistou uma Cesta Básica! Entre em contato com a administração para retirar seu prêmio.',
		        $2)
	`, userID, map[string]any{
		"reward_type": string(RewardCestaBasica),
		"kw_total":    totalKw.String(),
		"threshold":   monthlyKwThreshold.String(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to insert reward notification: %w", err)
	}
	return true, nil
}

func (c *rewardChecker) List(ctx context.Context, userID string) ([]Reward, error) {
	rows, err := c.pool.Query(ctx,
		"SELECT "+rewardColumns+" FROM rewards WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rewards: %w", err)
	}
	defer rows.Close()

	var out []Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (c *rewardChecker) MarkDelivered(ctx context.Context, rewardID string) (*Reward, error) {
	r, err := scanReward(c.pool.QueryRow(ctx, `
		UPDATE rewards SET status = 'delivered'
		WHERE id = $1
		RETURNING `+rewardColumns, rewardID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("reward %s: %w", rewardID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to mark reward delivered: %w", err)
	}
	return r, nil
}
