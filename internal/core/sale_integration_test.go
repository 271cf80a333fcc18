package core_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/saamuelsam/sales-gamification/internal/core"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Clean and seed test DB
	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE notifications, rewards, commissions, points, sales, clients, benefits, levels, users CASCADE;

		INSERT INTO levels (
			phase_number, name, subtitle, points_required, max_lines,
			personal_commission, insurance_commission, network_commission,
			fixed_allowance, monthly_sales_goal, advancement_bonus, advancement_reward
		) VALUES
			(1, 'Elite', 'Iniciar jornada de vendas', 0, 1, 5, 5, 0, 0, NULL, 0, NULL),
			(2, 'Master', NULL, 1000, 2, 7, 5, 2, 0, NULL, 1000, 'Jantar com acompanhante'),
			(3, 'Consultor Sênior', NULL, 10000, 4, 10, 5, 1.5, 1518, NULL, 1500, 'Jantar com acompanhante'),
			(4, 'Consultor Prime', NULL, 500000, 5, 12, 5, 1.5, 1518, 800000, 1500, 'Jantar no Ilamare com acompanhante'),
			(5, 'Executivo', NULL, 2000000, 0, 15, 5, 1, 5000, 400000, 10000, 'Fim de semana em Balneário Camboriú');
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

func seedTestUser(t *testing.T, pool *pgxpool.Pool, name, email string) string {
	var id string
	err := pool.QueryRow(context.Background(), `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, 'x')
		RETURNING id
	`, name, email).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to seed test user: %v", err)
	}
	return id
}

func newSaleService(pool *pgxpool.Pool) core.SaleService {
	catalog := core.NewLevelCatalog(pool)
	ledger := core.NewPointsLedger(pool)
	rewards := core.NewRewardChecker(pool)
	detector := core.NewLevelUpDetector(pool, catalog)
	return core.NewSaleService(pool, ledger, catalog, rewards, detector)
}

func TestSaleService_CreateSale_Direct(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := newSaleService(pool)
	ctx := context.Background()
	userID := seedTestUser(t, pool, "Maria Silva", "maria@example.com")

	result, err := svc.CreateSale(ctx, userID, core.CreateSaleInput{
		ClientName:     "Cliente A",
		Value:          dec("30000"),
		Kilowatts:      dec("350"),
		InsuranceValue: decPtr("2000"),
		SaleType:       core.SaleTypeDirect,
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	if result.Sale.Status != core.SaleStatusNegotiation {
		t.Errorf("status = %q, want negotiation", result.Sale.Status)
	}
	if !result.Points.Earned.Equal(dec("350")) {
		t.Errorf("points earned = %s, want 350 (1 kW = 1 point)", result.Points.Earned)
	}
	if !result.Points.Accumulated.Equal(dec("350")) {
		t.Errorf("accumulated = %s, want 350", result.Points.Accumulated)
	}
	// Elite level: 30000 × 5% + 2000 × 5%
	if !result.Commission.SaleCommission.Equal(dec("1500")) {
		t.Errorf("sale commission = %s, want 1500", result.Commission.SaleCommission)
	}
	if !result.Commission.InsuranceCommission.Equal(dec("100")) {
		t.Errorf("insurance commission = %s, want 100", result.Commission.InsuranceCommission)
	}
	if result.RewardAwarded {
		t.Error("reward awarded at 350 kW, want none below the 400 kW threshold")
	}
	if result.LevelUp.LeveledUp {
		t.Error("level up at 350 points, want none below 1000")
	}

	// All three rows must exist after commit.
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
}

func TestSaleService_CreateSale_Consortium(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := newSaleService(pool)
	ctx := context.Background()
	userID := seedTestUser(t, pool, "Carlos Oliveira", "carlos@example.com")

	term := 60
	result, err := svc.CreateSale(ctx, userID, core.CreateSaleInput{
		ClientName:      "Cliente B",
		Value:           dec("50000"),
		Kilowatts:       dec("420"),
		InsuranceValue:  decPtr("3000"),
		SaleType:        core.SaleTypeConsortium,
		ConsortiumValue: decPtr("50000"),
		ConsortiumTerm:  &term,
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	// Flat 5% of consortium value, zero insurance commission.
	if !result.Commission.SaleCommission.Equal(dec("2500")) {
		t.Errorf("sale commission = %s, want 2500", result.Commission.SaleCommission)
	}
	if !result.Commission.InsuranceCommission.IsZero() {
		t.Errorf("insurance commission = %s, want 0 for consortium", result.Commission.InsuranceCommission)
	}
	if !result.Points.Earned.Equal(dec("420")) {
		t.Errorf("points earned = %s, want 420", result.Points.Earned)
	}

	// 420 kW in the month crosses the 400 kW threshold.
	if !result.RewardAwarded {
		t.Error("expected monthly reward at 420 kW")
	}
	var rewardCount int
	err = pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM rewards WHERE user_id = $1 AND reward_type = 'cesta_basica'",
		userID).Scan(&rewardCount)
	if err != nil {
		t.Fatalf("Failed to count rewards: %v", err)
	}
	if rewardCount != 1 {
		t.Errorf("cesta_basica rewards = %d, want 1", rewardCount)
	}
}

func TestSaleService_CreateSale_ValidationLeavesNoSideEffects(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := newSaleService(pool)
	ctx := context.Background()
	userID := seedTestUser(t, pool, "Ana Costa", "ana@example.com")

	_, err := svc.CreateSale(ctx, userID, core.CreateSaleInput{
		ClientName: "Cliente C",
		Value:      dec("0"),
		Kilowatts:  dec("100"),
	})
	if err == nil {
		t.Fatal("expected validation error for zero value")
	}
	if !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %T: %v", err, err)
	}

	var count int
	if err := pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM sales WHERE user_id = $1", userID).Scan(&count); err != nil {
		t.Fatalf("Failed to count sales: %v", err)
	}
	if count != 0 {
		t.Errorf("sales after failed validation = %d, want 0", count)
	}
}

func TestSaleService_CreateSale_Atomicity(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := newSaleService(pool)
	ctx := context.Background()
	userID := seedTestUser(t, pool, "Pedro Lima", "pedro@example.com")

	// An empty level catalog makes the commission snapshot unresolvable,
	// failing the pipeline after the sale and points inserts.
	if _, err := pool.Exec(ctx, "DELETE FROM levels"); err != nil {
		t.Fatalf("Failed to empty level catalog: %v", err)
	}

	_, err := svc.CreateSale(ctx, userID, core.CreateSaleInput{
		ClientName: "Cliente D",
		Value:      dec("10000"),
		Kilowatts:  dec("100"),
	})
	if err == nil {
		t.Fatal("expected CreateSale to fail with an empty level catalog")
	}

	// Nothing may survive the rollback.
	var saleCount, pointCount, commissionCount int
	err = pool.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM sales WHERE user_id = $1),
		       (SELECT COUNT(*) FROM points WHERE user_id = $1),
		       (SELECT COUNT(*) FROM commissions WHERE user_id = $1)
	`, userID).Scan(&saleCount, &pointCount, &commissionCount)
	if err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	if saleCount != 0 || pointCount != 0 || commissionCount != 0 {
		t.Errorf("rows after rollback = %d/%d/%d, want 0/0/0", saleCount, pointCount, commissionCount)
	}
}

func TestSaleService_UpdateSale_ApprovalSetsClosedAt(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := newSaleService(pool)
	ctx := context.Background()
	userID := seedTestUser(t, pool, "Lucas Rocha", "lucas@example.com")

	created, err := svc.CreateSale(ctx, userID, core.CreateSaleInput{
		ClientName: "Cliente E",
		Value:      dec("20000"),
		Kilowatts:  dec("200"),
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	approved := core.SaleStatusApproved
	updated, err := svc.UpdateSale(ctx, created.Sale.ID, userID, core.SalePatch{Status: &approved})
	if err != nil {
		t.Fatalf("UpdateSale failed: %v", err)
	}
	if updated.Status != core.SaleStatusApproved {
		t.Errorf("status = %q, want approved", updated.Status)
	}
	if updated.ClosedAt == nil {
		t.Error("closed_at not set on approval")
	}

	// Editing the value must not touch the commission snapshot.
	newValue := dec("99999")
	if _, err := svc.UpdateSale(ctx, created.Sale.ID, userID, core.SalePatch{Value: &newValue}); err != nil {
		t.Fatalf("UpdateSale failed: %v", err)
	}
	var total string
	err = pool.QueryRow(ctx,
		"SELECT total_commission::text FROM commissions WHERE sale_id = $1", created.Sale.ID).Scan(&total)
	if err != nil {
		t.Fatalf("Failed to fetch commission: %v", err)
	}
	if !dec(total).Equal(dec("1000")) {
		t.Errorf("commission after value edit = %s, want unchanged 1000", total)
	}
}

func TestSaleService_UpdateSale_RejectsUnknownStatus(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := newSaleService(pool)
	ctx := context.Background()
	userID := seedTestUser(t, pool, "Bruna Alves", "bruna@example.com")

	created, err := svc.CreateSale(ctx, userID, core.CreateSaleInput{
		ClientName: "Cliente F",
		Value:      dec("5000"),
		Kilowatts:  dec("50"),
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	bogus := core.SaleStatus("archived")
	_, err = svc.UpdateSale(ctx, created.Sale.ID, userID, core.SalePatch{Status: &bogus})
	if err == nil {
		t.Fatal("expected error for unknown status")
	}
	if !core.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestSaleService_DeleteSale_OwnershipScoped(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := newSaleService(pool)
	ctx := context.Background()
	owner := seedTestUser(t, pool, "Dono", "dono@example.com")
	other := seedTestUser(t, pool, "Outro", "outro@example.com")

	created, err := svc.CreateSale(ctx, owner, core.CreateSaleInput{
		ClientName: "Cliente G",
		Value:      dec("8000"),
		Kilowatts:  dec("80"),
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	// Deletion by a different user must not find the sale.
	err = svc.DeleteSale(ctx, created.Sale.ID, other)
	if err == nil {
		t.Fatal("expected deletion by non-owner to fail")
	}
	if !isNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}

	if err := svc.DeleteSale(ctx, created.Sale.ID, owner); err != nil {
		t.Fatalf("DeleteSale by owner failed: %v", err)
	}

	var saleCount, pointCount, commissionCount int
	err = pool.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM sales WHERE id = $1),
		       (SELECT COUNT(*) FROM points WHERE sale_id = $1),
		       (SELECT COUNT(*) FROM commissions WHERE sale_id = $1)
	`, created.Sale.ID).Scan(&saleCount, &pointCount, &commissionCount)
	if err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	if saleCount != 0 || pointCount != 0 || commissionCount != 0 {
		t.Errorf("rows after delete = %d/%d/%d, want 0/0/0", saleCount, pointCount, commissionCount)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}
