package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/quicklendx/quicklendx/internal/auth"
	"github.com/quicklendx/quicklendx/internal/backup"
	"github.com/quicklendx/quicklendx/internal/bid"
	"github.com/quicklendx/quicklendx/internal/config"
	"github.com/quicklendx/quicklendx/internal/database"
	"github.com/quicklendx/quicklendx/internal/escrow"
	"github.com/quicklendx/quicklendx/internal/event"
	qlxHttp "github.com/quicklendx/quicklendx/internal/http"
	auditHandler "github.com/quicklendx/quicklendx/internal/http/audit"
	backupHandler "github.com/quicklendx/quicklendx/internal/http/backup"
	bidHandler "github.com/quicklendx/quicklendx/internal/http/bid"
	invoiceHandler "github.com/quicklendx/quicklendx/internal/http/invoice"
	kycHandler "github.com/quicklendx/quicklendx/internal/http/kyc"
	ratingHandler "github.com/quicklendx/quicklendx/internal/http/rating"
	settlementHandler "github.com/quicklendx/quicklendx/internal/http/settlement"
	"github.com/quicklendx/quicklendx/internal/invoice"
	"github.com/quicklendx/quicklendx/internal/ledger"
	"github.com/quicklendx/quicklendx/internal/rating"
	"github.com/quicklendx/quicklendx/internal/verification"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString(), database.Pool{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()

	if err := ledger.EnsureSchema(ctx, db); err != nil {
		slog.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	store := ledger.NewPostgres(db)

	guard := auth.NewGuard(store)
	if err := guard.EnsureAdmin(ctx, auth.Identity(cfg.Auth.Admin)); err != nil {
		slog.Error("failed to bind admin identity", "error", err)
		os.Exit(1)
	}

	emitter := event.NewEmitter(slog.Default())

	var (
		kycService        = verification.NewService(store, emitter)
		escrowEngine      = escrow.NewEngine(emitter, cfg.Fees.FundingBps)
		settlementService = escrow.NewService(store, escrowEngine, emitter, cfg.Fees.PlatformBps)
		invoiceService    = invoice.NewService(store, emitter, kycService, escrowEngine)
		bidService        = bid.NewService(store, escrowEngine, emitter)
		ratingService     = rating.NewService(store, emitter)
		eventService      = event.NewService(store)
		backupService     = backup.NewService(store, emitter)
	)

	var (
		invoicesH   = invoiceHandler.NewHandler(invoiceService, guard, eventService)
		bidsH       = bidHandler.NewHandler(bidService, guard)
		settlementH = settlementHandler.NewHandler(settlementService, guard)
		ratingsH    = ratingHandler.NewHandler(ratingService, guard)
		kycH        = kycHandler.NewHandler(kycService, guard)
		backupsH    = backupHandler.NewHandler(backupService, guard)
		auditH      = auditHandler.NewHandler(eventService, guard)
	)

	router := qlxHttp.New([]byte(cfg.Auth.JWTSecret), invoicesH, bidsH, settlementH, ratingsH, kycH, backupsH, auditH)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "app", cfg.App.Name, "port", port)

	server := &http.Server{
		Addr:         port,
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	if err := server.ListenAndServe(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
