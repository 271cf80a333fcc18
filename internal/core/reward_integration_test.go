package core_test

import (
	"context"
	"testing"

	"github.com/saamuelsam/sales-gamification/internal/core"
)

func TestRewardChecker_ThresholdCrossingAwardsOnce(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := newSaleService(pool)
	ctx := context.Background()
	userID := seedTestUser(t, pool, "Paula Mendes", "paula@example.com")

	// 250 kW — under the threshold, no reward.
	first, err := svc.CreateSale(ctx, userID, core.CreateSaleInput{
		ClientName: "Cliente A", Value: dec("25000"), Kilowatts: dec("250"),
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	if first.RewardAwarded {
		t.Error("reward at 250 kW, want none")
	}

	// +200 kW crosses 400 — exactly one reward.
	second, err := svc.CreateSale(ctx, userID, core.CreateSaleInput{
		ClientName: "Cliente B", Value: dec("20000"), Kilowatts: dec("200"),
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	if !second.RewardAwarded {
		t.Error("expected reward when monthly total crosses 400 kW")
	}

	// Further sales in the same month never duplicate the award.
	third, err := svc.CreateSale(ctx, userID, core.CreateSaleInput{
		ClientName: "Cliente C", Value: dec("10000"), Kilowatts: dec("100"),
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	if third.RewardAwarded {
		t.Error("duplicate monthly reward")
	}

	var count int
	err = pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM rewards WHERE user_id = $1 AND reward_type = 'cesta_basica'",
		userID).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count rewards: %v", err)
	}
	if count != 1 {
		t.Errorf("cesta_basica rewards = %d, want 1", count)
	}

	// The award carries a notification.
	var notifications int
	err = pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND type = 'reward'",
		userID).Scan(&notifications)
	if err != nil {
		t.Fatalf("Failed to count notifications: %v", err)
	}
	if notifications != 1 {
		t.Errorf("reward notifications = %d, want 1", notifications)
	}
}

func TestRewardChecker_CancelledSalesExcluded(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := newSaleService(pool)
	ctx := context.Background()
	userID := seedTestUser(t, pool, "Tiago Nunes", "tiago@example.com")

	first, err := svc.CreateSale(ctx, userID, core.CreateSaleInput{
		ClientName: "Cliente A", Value: dec("30000"), Kilowatts: dec("300"),
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	// Cancel the first sale; its kilowatts no longer count.
	cancelled := core.SaleStatusCancelled
	if _, err := svc.UpdateSale(ctx, first.Sale.ID, userID, core.SalePatch{Status: &cancelled}); err != nil {
		t.Fatalf("UpdateSale failed: %v", err)
	}

	// 300 (cancelled) + 250 = 250 counted kW, still under the threshold.
	second, err := svc.CreateSale(ctx, userID, core.CreateSaleInput{
		ClientName: "Cliente B", Value: dec("25000"), Kilowatts: dec("250"),
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	if second.RewardAwarded {
		t.Error("cancelled sale counted toward the monthly threshold")
	}

	// Another 200 kW brings the counted total to 450.
	third, err := svc.CreateSale(ctx, userID, core.CreateSaleInput{
		ClientName: "Cliente C", Value: dec("20000"), Kilowatts: dec("200"),
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	if !third.RewardAwarded {
		t.Error("expected reward at 450 counted kW")
	}
}

func TestRewardChecker_MarkDelivered(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := newSaleService(pool)
	rewards := core.NewRewardChecker(pool)
	ctx := context.Background()
	userID := seedTestUser(t, pool, "Clara Reis", "clara@example.com")

	result, err := svc.CreateSale(ctx, userID, core.CreateSaleInput{
		ClientName: "Cliente", Value: dec("45000"), Kilowatts: dec("450"),
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	if !result.RewardAwarded {
		t.Fatal("expected reward at 450 kW")
	}

	list, err := rewards.List(ctx, userID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("rewards = %d, want 1", len(list))
	}
	if list[0].Status != "pending" {
		t.Errorf("status = %q, want pending", list[0].Status)
	}

	delivered, err := rewards.MarkDelivered(ctx, list[0].ID)
	if err != nil {
		t.Fatalf("MarkDelivered failed: %v", err)
	}
	if delivered.Status != "delivered" {
		t.Errorf("status = %q, want delivered", delivered.Status)
	}
}
