package core

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LevelUpResult describes a detected level transition.
type LevelUpResult struct {
	LeveledUp     bool             `json:"leveled_up"`
	PreviousLevel string           `json:"previous_level,omitempty"`
	NewLevel      string           `json:"new_level,omitempty"`
	Bonus         *decimal.Decimal `json:"bonus,omitempty"`
	Allowance     *decimal.Decimal `json:"allowance,omitempty"`
	Reward        string           `json:"reward,omitempty"`
}

// LevelUpDetector compares a user's recomputed points total against the level
// catalog and applies the transition side effects.
type LevelUpDetector interface {
	// CheckLevelUpTx runs inside the sale transaction. A detected transition
	// updates the user's cached level and role, inserts a level_up reward, and
	// emits a notification. Any failure is converted into a benign
	// {LeveledUp: false}: a level-up problem must never roll back the sale.
	// The side effects run under a savepoint so a failed statement cannot
	// poison the enclosing transaction.
	CheckLevelUpTx(ctx context.Context, tx pgx.Tx, userID string, newAccumulated decimal.Decimal) LevelUpResult
}

type levelUpDetector struct {
	pool    *pgxpool.Pool
	catalog LevelCatalog
}

func NewLevelUpDetector(pool *pgxpool.Pool, catalog LevelCatalog) LevelUpDetector {
	return &levelUpDetector{pool: pool, catalog: catalog}
}

func (d *levelUpDetector) CheckLevelUpTx(ctx context.Context, tx pgx.Tx, userID string, newAccumulated decimal.Decimal) LevelUpResult {
	none := LevelUpResult{LeveledUp: false}

	// Nested Begin creates a savepoint on the outer transaction.
	sub, err := tx.Begin(ctx)
	if err != nil {
		log.Printf("level-up check: savepoint failed for user %s: %v", userID, err)
		return none
	}

	result, err := d.detect(ctx, sub, userID, newAccumulated)
	if err != nil {
		log.Printf("level-up check failed for user %s: %v", userID, err)
		_ = sub.Rollback(ctx)
		return none
	}
	if err := sub.Commit(ctx); err != nil {
		log.Printf("level-up check: savepoint release failed for user %s: %v", userID, err)
		return none
	}
	return result
}

func (d *levelUpDetector) detect(ctx context.Context, tx pgx.Tx, userID string, newAccumulated decimal.Decimal) (LevelUpResult, error) {
	none := LevelUpResult{LeveledUp: false}

	var currentLevel string
	if err := tx.QueryRow(ctx, "SELECT level FROM users WHERE id = $1", userID).Scan(&currentLevel); err != nil {
		return none, fmt.Errorf("failed to fetch user level: %w", err)
	}

	newLevel, err := d.catalog.LevelForPoints(ctx, tx, newAccumulated)
	if err != nil {
		return none, err
	}
	if newLevel.Name == currentLevel {
		return none, nil
	}

	_, err = tx.Exec(ctx, `
		UPDATE users SET level = $1, role = $2, level_synced_at = NOW()
		WHERE id = $3
	`, newLevel.Name, RoleForPhase(newLevel.PhaseNumber), userID)
	if err != nil {
		return none, fmt.Errorf("failed to update user level: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO rewards (user_id, reward_type, description, points_earned, threshold_reached, status)
		VALUES ($1, 'level_up', $2, $3, $4, 'pending')
		ON CONFLICT (user_id, reward_type, award_month) DO NOTHING
	`, userID, fmt.Sprintf("Parabéns! Você subiu para %s!", newLevel.Name),
		newAccumulated, newLevel.PointsRequired)
	if err != nil {
		return none, fmt.Errorf("failed to insert level-up reward: %w", err)
	}

	message := fmt.Sprintf("🆙 Você atingiu o nível **%s**!\n\n", newLevel.Name)
	if newLevel.AdvancementBonus.IsPositive() {
		message += fmt.Sprintf("💰 Bônus: R$ %s\n", newLevel.AdvancementBonus.StringFixed(2))
	}
	if newLevel.FixedAllowance.IsPositive() {
		message += fmt.Sprintf("🎁 Ajuda de Custo: R$ %s/mês\n", newLevel.FixedAllowance.StringFixed(2))
	}
	rewardText := ""
	if newLevel.AdvancementReward != nil {
		rewardText = *newLevel.AdvancementReward
		message += fmt.Sprintf("🏆 %s\n", rewardText)
	}
	message += fmt.Sprintf("\n💼 Comissão Pessoal: %s%%", newLevel.PersonalCommission)

	_, err = tx.Exec(ctx, `
		INSERT INTO notifications (user_id, type, title, message, metadata)
		VALUES ($1, 'level_up', $2, $3, $4)
	`, userID,
		fmt.Sprintf("🆙 Parabéns! Você é %s!", newLevel.Name),
		message,
		map[string]any{
			"newLevel":      newLevel.Name,
			"previousLevel": currentLevel,
			"bonus":         newLevel.AdvancementBonus.String(),
			"helpValue":     newLevel.FixedAllowance.String(),
			"reward":        rewardText,
			"commission":    newLevel.PersonalCommission.String(),
		})
	if err != nil {
		return none, fmt.Errorf("failed to insert level-up notification: %w", err)
	}

	return LevelUpResult{
		LeveledUp:     true,
		PreviousLevel: currentLevel,
		NewLevel:      newLevel.Name,
		Bonus:         &newLevel.AdvancementBonus,
		Allowance:     &newLevel.FixedAllowance,
		Reward:        rewardText,
	}, nil
}
