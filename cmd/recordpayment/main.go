// Command recordpayment records an offline payment (cash, bank
// transfer, insurance settlement) against an invoice or a booking from
// the clinic back office.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/clinicdesk/payments/internal/application"
	"github.com/clinicdesk/payments/internal/application/services"
	"github.com/clinicdesk/payments/internal/config"
	"github.com/clinicdesk/payments/internal/domain"
	"github.com/clinicdesk/payments/internal/infrastructure/cache"
	"github.com/clinicdesk/payments/internal/infrastructure/persistence"
	"github.com/clinicdesk/payments/internal/infrastructure/persistence/postgres"
)

// inlineScheduler recomputes the balance before the command exits, so
// the front desk sees the updated figures immediately.
type inlineScheduler struct {
	balances *services.CachedBalances
	logger   *slog.Logger
}

func (s *inlineScheduler) Schedule(job application.RecomputeJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	if job.InvoiceID != "" {
		_, err = s.balances.RefreshInvoice(ctx, job.InvoiceID)
	} else {
		_, err = s.balances.RefreshBooking(ctx, job.BookingID)
	}
	if err != nil {
		s.logger.Warn("balance refresh failed, cache will refill on next read",
			"invoice_id", job.InvoiceID,
			"booking_id", job.BookingID,
			"error", err,
		)
	}
}

func main() {
	var (
		customerID = flag.String("customer", "", "customer id (required)")
		amount     = flag.String("amount", "", "decimal amount, e.g. 80.00 (required)")
		currency   = flag.String("currency", "EUR", "ISO currency code")
		invoiceID  = flag.String("invoice", "", "invoice id to pay against")
		bookingID  = flag.String("booking", "", "booking id to pay against (deposit)")
		notes      = flag.String("note", "", "free-form note")
		recordedBy = flag.String("by", "", "staff member recording the payment")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := cfg.Logger.NewLogger()

	if *customerID == "" || *amount == "" {
		fmt.Fprintln(os.Stderr, "usage: recordpayment -customer <id> -amount <decimal> [-invoice <id> | -booking <id>]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	amountCents, err := domain.ParseAmount(*amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid amount: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persistence.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := cache.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	paymentRepo := postgres.NewPaymentRepository(db)
	billingRepo := postgres.NewBillingRepository(db)

	calculator := services.NewBalanceCalculator(paymentRepo, billingRepo, logger)
	balanceCache := cache.NewBalanceCache(redisClient, cfg.Redis.TTL)
	balances := services.NewCachedBalances(calculator, balanceCache, logger)

	recorder := services.NewOfflineRecorder(
		paymentRepo,
		billingRepo,
		&inlineScheduler{balances: balances, logger: logger},
		logger,
	)

	cmd := services.RecordOfflineCommand{
		CustomerID:  *customerID,
		AmountCents: amountCents,
		Currency:    *currency,
		Notes:       *notes,
		RecordedBy:  *recordedBy,
	}
	if *invoiceID != "" {
		cmd.InvoiceID = invoiceID
	}
	if *bookingID != "" {
		cmd.BookingID = bookingID
	}

	payment, err := recorder.Record(ctx, cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "record failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("recorded payment %s: %s %s\n",
		payment.ID,
		domain.FormatCents(payment.AmountCents),
		payment.Currency,
	)
}
