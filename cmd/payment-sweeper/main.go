package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	paymentspostgres "github.com/commercegrid/backoffice/internal/domains/payments/adapters/persistence/postgres"
	paymentsapp "github.com/commercegrid/backoffice/internal/domains/payments/application"
	platformpostgres "github.com/commercegrid/backoffice/internal/platform/postgres"
)

// One-shot job that reports PENDING payment transactions older than the
// cutoff and expired PENDING authorizations. It only reports; cancellation
// and voiding stay with the payment workflow.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot sweep payments")
	}

	service := paymentsapp.NewService(paymentspostgres.NewRepository(db), paymentsapp.WithLogger(logger))
	now := time.Now().UTC()

	stale, err := service.StalePending(ctx, now.Add(-hoursFromEnv("STALE_PAYMENT_HOURS", 24)))
	if err != nil {
		log.Fatalf("failed to list stale pending transactions: %v", err)
	}
	for _, tx := range stale {
		logger.Warn("stale pending transaction",
			slog.Int64("transactionId", tx.ID),
			slog.Int64("orderId", tx.OrderID),
			slog.String("type", string(tx.Type)),
			slog.String("amount", tx.Amount.StringFixed(2)),
			slog.Time("createdAt", tx.CreatedAt),
		)
	}

	expired, err := service.ExpiredAuthorizations(ctx, now.Add(-hoursFromEnv("AUTHORIZATION_TTL_HOURS", 72)))
	if err != nil {
		log.Fatalf("failed to list expired authorizations: %v", err)
	}
	for _, tx := range expired {
		logger.Warn("expired authorization",
			slog.Int64("transactionId", tx.ID),
			slog.Int64("orderId", tx.OrderID),
			slog.String("amount", tx.Amount.StringFixed(2)),
			slog.Time("createdAt", tx.CreatedAt),
		)
	}

	logger.Info("payment sweep completed",
		slog.Int("stalePending", len(stale)),
		slog.Int("expiredAuthorizations", len(expired)),
	)
}

func hoursFromEnv(key string, fallback int) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return time.Duration(fallback) * time.Hour
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		return time.Duration(fallback) * time.Hour
	}
	return time.Duration(hours) * time.Hour
}
