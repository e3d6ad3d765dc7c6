package service

import (
	"context"
	"fmt"
	"time"

	"github.com/realbarber/rbc-wallet-bfa-go/internal/domain"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/infra/observability"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/port"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/wallet"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service/wallet")

// DefaultPageSize is how many history entries one screen fetches.
const DefaultPageSize = 200

// WalletService opens wallet screens against the CRM ledger.
type WalletService struct {
	ledger    port.LedgerClient
	guard     port.SubmissionGuard
	presenter *wallet.Presenter
	metrics   *observability.Metrics
	logger    *zap.Logger
	pageSize  int
}

// NewWalletService creates the wallet service with all dependencies injected.
func NewWalletService(
	ledger port.LedgerClient,
	guard port.SubmissionGuard,
	presenter *wallet.Presenter,
	metrics *observability.Metrics,
	logger *zap.Logger,
	pageSize int,
) *WalletService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &WalletService{
		ledger:    ledger,
		guard:     guard,
		presenter: presenter,
		metrics:   metrics,
		logger:    logger,
		pageSize:  pageSize,
	}
}

// Presenter returns the presenter used to shape every view.
func (s *WalletService) Presenter() *wallet.Presenter {
	return s.presenter
}

// Open creates a screen for one caller. token is the CRM credential;
// session identifies the caller for the in-flight guard.
func (s *WalletService) Open(token, session string) *Screen {
	return &Screen{
		svc:     s,
		token:   token,
		session: session,
		query:   domain.HistoryQuery{Limit: s.pageSize, Page: 1},
	}
}

// Health reports the BFA itself and, when the client can tell, the ledger.
func (s *WalletService) Health() domain.HealthStatus {
	now := time.Now().Format(time.RFC3339)
	services := []domain.ServiceHealth{
		{Name: "rbc-wallet-bfa", Status: domain.HealthHealthy, LastChecked: now},
	}
	if hr, ok := s.ledger.(port.HealthReporter); ok {
		services = append(services, domain.ServiceHealth{Name: "ledger", Status: hr.Health(), LastChecked: now})
	}

	overall := domain.HealthHealthy
	for _, svc := range services {
		if svc.Status == domain.HealthUnhealthy {
			overall = domain.HealthUnhealthy
			break
		}
		if svc.Status == domain.HealthDegraded {
			overall = domain.HealthDegraded
		}
	}
	return domain.HealthStatus{Status: overall, Services: services}
}

// TransferCommand is a transfer as typed into the form.
type TransferCommand struct {
	Amount       string
	ReceiverID   string
	ReceiverType string
	Note         string
}

// Transfer runs one complete send from a fresh screen: the amount is
// parsed first so malformed input never reaches the ledger, then the
// balance is fetched and the form submitted.
func (s *WalletService) Transfer(ctx context.Context, token, session string, cmd TransferCommand) (*domain.TransferResult, error) {
	ctx, span := tracer.Start(ctx, "WalletService.Transfer")
	defer span.End()
	span.SetAttributes(
		attribute.String("receiver.id", cmd.ReceiverID),
		attribute.String("receiver.type", cmd.ReceiverType),
	)

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("transfer", time.Since(start))
	}()

	if _, err := wallet.ParseAmount(cmd.Amount); err != nil {
		s.metrics.IncrTransfer(observability.TransferRejected)
		return nil, err
	}

	screen := s.Open(token, session)
	defer screen.Close()

	if err := screen.LoadBalance(ctx); err != nil {
		return nil, fmt.Errorf("balance fetch: %w", err)
	}

	form := screen.NewTransferForm(cmd.ReceiverID, cmd.ReceiverType)
	form.Amount = cmd.Amount
	form.Note = cmd.Note
	return form.Submit(ctx)
}
