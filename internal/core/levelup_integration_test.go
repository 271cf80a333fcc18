package core_test

import (
	"context"
	"testing"

	"github.com/saamuelsam/sales-gamification/internal/core"
)

func TestLevelUpDetector_PromotionOnThreshold(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := newSaleService(pool)
	ctx := context.Background()
	userID := seedTestUser(t, pool, "Gabriel Horta", "gabriel@example.com")

	// 1000 accumulated points reaches the Master threshold.
	result, err := svc.CreateSale(ctx, userID, core.CreateSaleInput{
		ClientName: "Cliente", Value: dec("100000"), Kilowatts: dec("1000"),
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	if !result.LevelUp.LeveledUp {
		t.Fatal("expected level up at 1000 points")
	}
	if result.LevelUp.PreviousLevel != "Elite" || result.LevelUp.NewLevel != "Master" {
		t.Errorf("transition = %s → %s, want Elite → Master",
			result.LevelUp.PreviousLevel, result.LevelUp.NewLevel)
	}
	if result.LevelUp.Bonus == nil || !result.LevelUp.Bonus.Equal(dec("1000")) {
		t.Errorf("bonus = %v, want 1000", result.LevelUp.Bonus)
	}

	// The cached level and role follow the transition.
	var level, role string
	err = pool.QueryRow(ctx, "SELECT level, role FROM users WHERE id = $1", userID).Scan(&level, &role)
	if err != nil {
		t.Fatalf("Failed to fetch user: %v", err)
	}
	if level != "Master" {
		t.Errorf("cached level = %q, want Master", level)
	}
	if role != "master_consultant" {
		t.Errorf("role = %q, want master_consultant", role)
	}

	// A level_up reward and a notification are written in the same commit.
	var rewardCount, notificationCount int
	err = pool.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM rewards WHERE user_id = $1 AND reward_type = 'level_up'),
		       (SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND type = 'level_up')
	`, userID).Scan(&rewardCount, &notificationCount)
	if err != nil {
		t.Fatalf("Failed to count side effects: %v", err)
	}
	if rewardCount != 1 || notificationCount != 1 {
		t.Errorf("level_up rewards/notifications = %d/%d, want 1/1", rewardCount, notificationCount)
	}
}

func TestLevelUpDetector_NoTransitionBelowThreshold(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := newSaleService(pool)
	ctx := context.Background()
	userID := seedTestUser(t, pool, "Helena Prado", "helena@example.com")

	result, err := svc.CreateSale(ctx, userID, core.CreateSaleInput{
		ClientName: "Cliente", Value: dec("99900"), Kilowatts: dec("999"),
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	if result.LevelUp.LeveledUp {
		t.Error("level up at 999 points, threshold is 1000")
	}

	var level string
	if err := pool.QueryRow(ctx, "SELECT level FROM users WHERE id = $1", userID).Scan(&level); err != nil {
		t.Fatalf("Failed to fetch user: %v", err)
	}
	if level != "Elite" {
		t.Errorf("cached level = %q, want Elite", level)
	}
}

func TestLevelUpDetector_FailureDoesNotAbortSale(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := newSaleService(pool)
	ctx := context.Background()
	userID := seedTestUser(t, pool, "Igor Matos", "igor@example.com")

	// Pre-award this month's basket so the reward checker takes its no-op
	// path and only the level-up detector touches notifications.
	_, err := pool.Exec(ctx, `
		INSERT INTO rewards (user_id, reward_type, description, status)
		VALUES ($1, 'cesta_basica', 'seed', 'pending')
	`, userID)
	if err != nil {
		t.Fatalf("Failed to pre-award reward: %v", err)
	}

	// Break the detector's notification insert. The savepoint confines the
	// failure; the sale itself must still commit.
	if _, err := pool.Exec(ctx, "ALTER TABLE notifications RENAME TO notifications_hidden"); err != nil {
		t.Fatalf("Failed to hide notifications table: %v", err)
	}
	defer func() {
		if _, err := pool.Exec(context.Background(),
			"ALTER TABLE notifications_hidden RENAME TO notifications"); err != nil {
			t.Errorf("Failed to restore notifications table: %v", err)
		}
	}()

	result, err := svc.CreateSale(ctx, userID, core.CreateSaleInput{
		ClientName: "Cliente", Value: dec("120000"), Kilowatts: dec("1200"),
	})
	if err != nil {
		t.Fatalf("CreateSale failed despite level-up isolation: %v", err)
	}
	if result.LevelUp.LeveledUp {
		t.Error("level up reported despite failed side effects")
	}

	// Sale, points, and commission all committed.
	var saleCount, pointCount, commissionCount int
	err = pool.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM sales WHERE user_id = $1),
		       (SELECT COUNT(*) FROM points WHERE user_id = $1),
		       (SELECT COUNT(*) FROM commissions WHERE user_id = $1)
	`, userID).Scan(&saleCount, &pointCount, &commissionCount)
	if err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	if saleCount != 1 || pointCount != 1 || commissionCount != 1 {
		t.Errorf("row counts = %d/%d/%d, want 1/1/1", saleCount, pointCount, commissionCount)
	}

	// The savepoint rollback also undid the cached level update.
	var level string
	if err := pool.QueryRow(ctx, "SELECT level FROM users WHERE id = $1", userID).Scan(&level); err != nil {
		t.Fatalf("Failed to fetch user: %v", err)
	}
	if level != "Elite" {
		t.Errorf("cached level = %q, want Elite after rolled-back side effects", level)
	}
}
