package core_test

import (
	"context"
	"testing"

	"github.com/saamuelsam/sales-gamification/internal/core"
)

func TestPointsLedger_RunningTotalAccumulates(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := newSaleService(pool)
	ledger := core.NewPointsLedger(pool)
	ctx := context.Background()
	userID := seedTestUser(t, pool, "Rafael Souza", "rafael@example.com")

	kilowatts := []string{"100", "150", "120"}
	expected := []string{"100", "250", "370"}

	for i, kw := range kilowatts {
		result, err := svc.CreateSale(ctx, userID, core.CreateSaleInput{
			ClientName: "Cliente",
			Value:      dec("10000"),
			Kilowatts:  dec(kw),
		})
		if err != nil {
			t.Fatalf("CreateSale %d failed: %v", i, err)
		}
		if !result.Points.Accumulated.Equal(dec(expected[i])) {
			t.Errorf("sale %d: accumulated = %s, want %s", i, result.Points.Accumulated, expected[i])
		}
	}

	total, err := ledger.TotalPoints(ctx, userID)
	if err != nil {
		t.Fatalf("TotalPoints failed: %v", err)
	}
	if !total.Equal(dec("370")) {
		t.Errorf("total = %s, want 370", total)
	}

	history, err := ledger.History(ctx, userID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}
	// Newest first.
	if !history[0].AccumulatedPoints.Equal(dec("370")) {
		t.Errorf("latest entry accumulated = %s, want 370", history[0].AccumulatedPoints)
	}
}

func TestPointsLedger_DeleteDoesNotCompactLaterTotals(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := newSaleService(pool)
	ledger := core.NewPointsLedger(pool)
	ctx := context.Background()
	userID := seedTestUser(t, pool, "Fernanda Dias", "fernanda@example.com")

	first, err := svc.CreateSale(ctx, userID, core.CreateSaleInput{
		ClientName: "Cliente A",
		Value:      dec("10000"),
		Kilowatts:  dec("100"),
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	second, err := svc.CreateSale(ctx, userID, core.CreateSaleInput{
		ClientName: "Cliente B",
		Value:      dec("20000"),
		Kilowatts:  dec("200"),
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	if !second.Points.Accumulated.Equal(dec("300")) {
		t.Fatalf("second accumulated = %s, want 300", second.Points.Accumulated)
	}

	// Deleting the first sale removes its ledger row but leaves the later
	// accumulated total as written.
	if err := svc.DeleteSale(ctx, first.Sale.ID, userID); err != nil {
		t.Fatalf("DeleteSale failed: %v", err)
	}

	total, err := ledger.TotalPoints(ctx, userID)
	if err != nil {
		t.Fatalf("TotalPoints failed: %v", err)
	}
	if !total.Equal(dec("300")) {
		t.Errorf("total after delete = %s, want 300 (no compaction)", total)
	}

	// The next sale continues from the surviving maximum.
	third, err := svc.CreateSale(ctx, userID, core.CreateSaleInput{
		ClientName: "Cliente C",
		Value:      dec("5000"),
		Kilowatts:  dec("50"),
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	if !third.Points.Accumulated.Equal(dec("350")) {
		t.Errorf("third accumulated = %s, want 350", third.Points.Accumulated)
	}
}

func TestPointsLedger_Ranking(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := newSaleService(pool)
	ledger := core.NewPointsLedger(pool)
	ctx := context.Background()

	alice := seedTestUser(t, pool, "Alice", "alice@example.com")
	bob := seedTestUser(t, pool, "Bob", "bob@example.com")

	if _, err := svc.CreateSale(ctx, alice, core.CreateSaleInput{
		ClientName: "Cliente", Value: dec("10000"), Kilowatts: dec("300"),
	}); err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	if _, err := svc.CreateSale(ctx, bob, core.CreateSaleInput{
		ClientName: "Cliente", Value: dec("10000"), Kilowatts: dec("150"),
	}); err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	ranking, err := ledger.Ranking(ctx, 10)
	if err != nil {
		t.Fatalf("Ranking failed: %v", err)
	}
	if len(ranking) != 2 {
		t.Fatalf("ranking length = %d, want 2", len(ranking))
	}
	if ranking[0].UserID != alice {
		t.Errorf("ranking[0] = %s, want alice on top", ranking[0].Name)
	}
	if !ranking[0].TotalPoints.Equal(dec("300")) {
		t.Errorf("ranking[0] points = %s, want 300", ranking[0].TotalPoints)
	}
}
