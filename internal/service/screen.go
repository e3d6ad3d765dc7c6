package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/realbarber/rbc-wallet-bfa-go/internal/domain"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/wallet"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Screen is one open wallet view. It owns its copy of the balance and
// history; nothing is shared between screens. Results that arrive after
// Close, or after a newer load of the same resource started, are dropped.
type Screen struct {
	svc     *WalletService
	token   string
	session string
	query   domain.HistoryQuery

	mu     sync.Mutex
	closed bool

	balance        wallet.BalanceTracker
	balanceGen     uint64
	balanceLoading bool
	balanceErr     error

	history        []domain.LedgerEntry
	pagination     domain.Pagination
	historyGen     uint64
	historyLoading bool
	historyErr     error
}

// Load fetches balance and history concurrently. A failure of one does
// not cancel the other; both errors are joined.
func (s *Screen) Load(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Screen.Load")
	defer span.End()

	start := time.Now()
	defer func() {
		s.svc.metrics.RecordRequestDuration("load", time.Since(start))
	}()

	var balanceErr, historyErr error
	var g errgroup.Group
	g.Go(func() error {
		balanceErr = s.LoadBalance(ctx)
		return nil
	})
	g.Go(func() error {
		historyErr = s.LoadHistory(ctx)
		return nil
	})
	g.Wait()

	return errors.Join(balanceErr, historyErr)
}

// LoadBalance fetches the authoritative balance.
func (s *Screen) LoadBalance(ctx context.Context) error {
	s.mu.Lock()
	s.balanceGen++
	gen := s.balanceGen
	s.balanceLoading = true
	s.mu.Unlock()

	b, err := s.svc.ledger.GetBalance(ctx, s.token)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.balanceGen {
		s.svc.metrics.IncrDiscardedLoad()
		return err
	}
	s.balanceLoading = false
	if err != nil {
		s.balanceErr = err
		s.svc.metrics.IncrExternalError("ledger")
		s.svc.logger.Warn("balance fetch failed", zap.String("session", s.session), zap.Error(err))
		return err
	}
	s.balanceErr = nil
	s.balance.Set(*b)
	return nil
}

// LoadHistory fetches the configured history page.
func (s *Screen) LoadHistory(ctx context.Context) error {
	s.mu.Lock()
	s.historyGen++
	gen := s.historyGen
	s.historyLoading = true
	q := s.query
	s.mu.Unlock()

	page, err := s.svc.ledger.GetHistory(ctx, s.token, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.historyGen {
		s.svc.metrics.IncrDiscardedLoad()
		return err
	}
	s.historyLoading = false
	if err != nil {
		s.historyErr = err
		s.svc.metrics.IncrExternalError("ledger")
		s.svc.logger.Warn("history fetch failed", zap.String("session", s.session), zap.Error(err))
		return err
	}
	s.historyErr = nil
	s.history = page.Entries
	s.pagination = page.Pagination
	if len(page.Entries) < page.Pagination.Total {
		s.svc.logger.Debug("history truncated to first page",
			zap.Int("fetched", len(page.Entries)),
			zap.Int("total", page.Pagination.Total),
		)
	}
	return nil
}

// SetPage changes which history page the next load fetches.
func (s *Screen) SetPage(limit, page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > 0 {
		s.query.Limit = limit
	}
	if page > 0 {
		s.query.Page = page
	}
}

// Close marks the screen gone. Loads still on the wire are discarded.
func (s *Screen) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// State is a snapshot of everything the screen shows.
func (s *Screen) State() domain.WalletOverview {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.svc.presenter
	return domain.WalletOverview{
		Balance:        s.balanceViewLocked(),
		BalanceLoading: s.balanceLoading,
		BalanceError:   s.errorMessage(s.balanceErr),
		History:        p.Entries(s.history),
		HistoryLoading: s.historyLoading,
		HistoryError:   s.errorMessage(s.historyErr),
		Pagination:     s.pagination,
	}
}

// Balance returns the displayed balance, or nil before a successful fetch.
func (s *Screen) Balance() *domain.BalanceView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balanceViewLocked()
}

// Entries returns every fetched entry shaped for the history list.
func (s *Screen) Entries() []domain.EntryView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.svc.presenter.Entries(s.history)
}

// Entry returns the detail view of a single fetched entry.
func (s *Screen) Entry(id string) (*domain.EntryView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.history {
		if s.history[i].ID == id {
			v := s.svc.presenter.Entry(&s.history[i])
			return &v, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "entry", ID: id}
}

// Buckets groups the fetched history by local calendar day.
func (s *Screen) Buckets() []domain.DayBucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.svc.presenter.Buckets(s.history)
}

// Directory lists the counterparties found in history, filtered by name.
func (s *Screen) Directory(query string) []domain.Counterparty {
	s.mu.Lock()
	defer s.mu.Unlock()
	return wallet.FilterDirectory(s.svc.presenter.Directory(s.history), query)
}

// Thread returns the conversation with one counterparty. name overrides
// the party name taken from history when the caller already knows it.
func (s *Screen) Thread(partyID, name string) domain.ThreadView {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.svc.presenter
	thread := wallet.Thread(s.history, partyID)
	name, avatar := p.ThreadPartner(thread, name)
	return domain.ThreadView{
		PartyID:   partyID,
		Name:      name,
		AvatarURL: avatar,
		Messages:  p.ThreadMessages(thread),
		Balance:   s.balanceViewLocked(),
	}
}

// Preview computes the balance left after sending rawAmount. Unparseable
// input counts as nothing pending.
func (s *Screen) Preview(rawAmount string) domain.Preview {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, _ := s.balance.Authoritative()
	pending, err := wallet.ParseAmount(rawAmount)
	if err != nil {
		pending = 0
	}
	remaining := s.balance.Remaining(pending)
	return domain.Preview{
		Balance:   balance,
		Pending:   pending,
		Remaining: remaining,
		Formatted: s.svc.presenter.FormatBalance(remaining),
		CanSend:   !s.balance.Stale() && wallet.CanSend(rawAmount, balance, false),
	}
}

// freshBalance returns the authoritative balance, fetching it again first
// when it is missing or stale.
func (s *Screen) freshBalance(ctx context.Context) (float64, error) {
	s.mu.Lock()
	stale := s.balance.Stale()
	s.mu.Unlock()

	if stale {
		if err := s.LoadBalance(ctx); err != nil {
			return 0, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balance.Stale() {
		return 0, &domain.ErrStaleBalance{}
	}
	amount, _ := s.balance.Authoritative()
	return amount, nil
}

// balanceViewLocked is nil until a balance is fetched and again while a
// transfer has made it stale.
func (s *Screen) balanceViewLocked() *domain.BalanceView {
	if s.balance.Stale() {
		return nil
	}
	amount, _ := s.balance.Authoritative()
	b := s.balance.Balance()
	return &domain.BalanceView{
		Amount:    amount,
		Formatted: s.svc.presenter.FormatBalance(amount),
		Owner:     b.Entity.Name,
		FetchedAt: s.balance.FetchedAt(),
	}
}

func (s *Screen) errorMessage(err error) string {
	return s.svc.presenter.LoadErrorMessage(err)
}

// guardKey scopes the in-flight flag to one caller and one recipient.
func (s *Screen) guardKey(receiverID string) string {
	return fmt.Sprintf("%s:%s", s.session, receiverID)
}
