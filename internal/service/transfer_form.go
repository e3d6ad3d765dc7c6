package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/realbarber/rbc-wallet-bfa-go/internal/domain"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/infra/observability"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/wallet"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// TransferForm composes one transfer to a fixed recipient on a screen.
type TransferForm struct {
	screen       *Screen
	receiverID   string
	receiverType string

	mu     sync.Mutex
	Amount string
	Note   string
}

// NewTransferForm opens a composition form for receiverID.
func (s *Screen) NewTransferForm(receiverID, receiverType string) *TransferForm {
	return &TransferForm{
		screen:       s,
		receiverID:   receiverID,
		receiverType: receiverType,
	}
}

// Fields returns the current amount and note.
func (f *TransferForm) Fields() (amount, note string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Amount, f.Note
}

// Submit validates the form against the screen's balance and sends it.
//
// A malformed amount never touches the network. A stale balance is
// fetched again before it is compared, and the submit is refused when
// that fetch fails. Validation failures leave the fields as typed. While a submission for the same session and recipient is on the
// wire, further submits fail with ErrSubmissionInFlight. On success the
// fields are cleared and the screen reloads balance and history; on
// failure the fields are kept so the user can retry.
func (f *TransferForm) Submit(ctx context.Context) (*domain.TransferResult, error) {
	ctx, span := tracer.Start(ctx, "TransferForm.Submit")
	defer span.End()

	s := f.screen
	svc := s.svc

	amount, note := f.Fields()
	if _, err := wallet.ParseAmount(amount); err != nil {
		svc.metrics.IncrTransfer(observability.TransferRejected)
		svc.logger.Debug("transfer rejected", zap.String("session", s.session), zap.Error(err))
		return nil, err
	}

	balance, err := s.freshBalance(ctx)
	if err != nil {
		svc.metrics.IncrTransfer(observability.TransferFailed)
		svc.logger.Warn("balance refresh before transfer failed", zap.String("session", s.session), zap.Error(err))
		return nil, fmt.Errorf("balance refresh: %w", err)
	}

	req, err := wallet.ValidateTransfer(amount, f.receiverID, f.receiverType, note, balance)
	if err != nil {
		svc.metrics.IncrTransfer(observability.TransferRejected)
		svc.logger.Debug("transfer rejected", zap.String("session", s.session), zap.Error(err))
		return nil, err
	}
	span.SetAttributes(attribute.Float64("amount", req.Amount))

	key := s.guardKey(req.ReceiverID)
	release, ok, err := svc.guard.TryAcquire(ctx, key)
	if err != nil {
		svc.metrics.IncrTransfer(observability.TransferFailed)
		svc.logger.Error("submission guard unavailable", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("submission guard: %w", err)
	}
	if !ok {
		svc.metrics.IncrGuardRejection()
		svc.logger.Warn("transfer already in flight", zap.String("key", key))
		return nil, &domain.ErrSubmissionInFlight{Key: key}
	}

	start := time.Now()
	created, err := svc.ledger.Transfer(ctx, s.token, req)
	svc.metrics.RecordRequestDuration("ledger_transfer", time.Since(start))
	release()

	if err != nil {
		svc.metrics.IncrTransfer(observability.TransferFailed)
		svc.metrics.IncrExternalError("ledger")
		svc.logger.Error("transfer failed",
			zap.String("session", s.session),
			zap.String("receiver_id", req.ReceiverID),
			zap.Float64("amount", req.Amount),
			zap.Error(err),
		)
		span.RecordError(err)
		return nil, err
	}

	svc.metrics.IncrTransfer(observability.TransferSucceeded)
	svc.logger.Info("transfer sent",
		zap.String("session", s.session),
		zap.String("receiver_id", req.ReceiverID),
		zap.Float64("amount", req.Amount),
	)

	f.mu.Lock()
	f.Amount, f.Note = "", ""
	f.mu.Unlock()

	s.mu.Lock()
	s.balance.Invalidate()
	s.mu.Unlock()

	if err := s.Load(ctx); err != nil {
		svc.logger.Warn("reload after transfer failed", zap.String("session", s.session), zap.Error(err))
	}

	result := &domain.TransferResult{
		Message: svc.presenter.Locale.MsgTransferSent,
		Balance: s.Balance(),
	}
	if created != nil {
		v := svc.presenter.Entry(created)
		result.Entry = &v
	}
	return result, nil
}
