package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	webAdapter "github.com/saamuelsam/sales-gamification/internal/adapters/web"
	"github.com/saamuelsam/sales-gamification/internal/app"
	"github.com/saamuelsam/sales-gamification/internal/core"
	"github.com/saamuelsam/sales-gamification/internal/db"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	catalog := core.NewLevelCatalog(pool)
	ledger := core.NewPointsLedger(pool)
	rewards := core.NewRewardChecker(pool)
	detector := core.NewLevelUpDetector(pool, catalog)
	saleService := core.NewSaleService(pool, ledger, catalog, rewards, detector)
	commissionService := core.NewCommissionService(pool)
	notificationService := core.NewNotificationService(pool)
	userService := core.NewUserService(pool)
	clientService := core.NewClientService(pool)
	benefitService := core.NewBenefitService(pool, ledger, catalog)
	dashboardService := core.NewDashboardService(pool, ledger, catalog, saleService, userService)

	svc := app.NewAppService(
		userService,
		saleService,
		ledger,
		catalog,
		commissionService,
		rewards,
		notificationService,
		clientService,
		benefitService,
		dashboardService,
	)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
