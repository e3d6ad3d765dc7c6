package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/realbarber/rbc-wallet-bfa-go/internal/domain"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("client")

const (
	balancePath  = "/api/rb-coins/balance"
	historyPath  = "/api/rb-coins/history"
	transferPath = "/api/rb-coins/transfer"

	maxErrorBody = 4 << 10
)

// LedgerClient calls the RBC ledger of the CRM backend.
type LedgerClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	limiter    *rate.Limiter
	bulkhead   *resilience.Bulkhead
	loc        *time.Location
}

// NewLedgerClient creates a new LedgerClient. A nil limiter disables rate
// limiting. Timestamps the CRM sends without an offset are read in loc
// (UTC when nil).
func NewLedgerClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, limiter *rate.Limiter, loc *time.Location) *LedgerClient {
	if loc == nil {
		loc = time.UTC
	}
	return &LedgerClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
		limiter:    limiter,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		loc:        loc,
	}
}

// Health maps the breaker state: closed is healthy, half-open degraded,
// open unhealthy.
func (c *LedgerClient) Health() string {
	switch c.cb.State() {
	case gobreaker.StateOpen:
		return domain.HealthUnhealthy
	case gobreaker.StateHalfOpen:
		return domain.HealthDegraded
	default:
		return domain.HealthHealthy
	}
}

// GetBalance fetches the authoritative balance with retry, circuit breaker, and tracing.
func (c *LedgerClient) GetBalance(ctx context.Context, token string) (*domain.Balance, error) {
	ctx, span := tracer.Start(ctx, "LedgerClient.GetBalance")
	defer span.End()

	var resp balanceResponse
	err := c.execute(ctx, true, func() error {
		return c.do(ctx, http.MethodGet, balancePath, token, nil, &resp)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return &domain.Balance{
		Amount: resp.Balance,
		Entity: domain.BalanceEntity{
			ID:    resp.Entity.ID,
			Name:  resp.Entity.Name,
			Phone: resp.Entity.Phone,
			Type:  resp.Entity.Type,
		},
		FetchedAt: time.Now(),
	}, nil
}

// GetHistory fetches one page of wallet history with retry, circuit breaker, and tracing.
func (c *LedgerClient) GetHistory(ctx context.Context, token string, q domain.HistoryQuery) (*domain.HistoryPage, error) {
	ctx, span := tracer.Start(ctx, "LedgerClient.GetHistory")
	defer span.End()
	span.SetAttributes(attribute.Int("history.limit", q.Limit), attribute.Int("history.page", q.Page))

	params := url.Values{}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	path := historyPath
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp historyResponse
	err := c.execute(ctx, true, func() error {
		return c.do(ctx, http.MethodGet, path, token, nil, &resp)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	entries, dropped, err := decodeEntries(resp.Data, c.loc)
	if err != nil {
		span.RecordError(err)
		return nil, &domain.ErrExternalService{Service: "ledger", Err: err}
	}
	span.SetAttributes(
		attribute.Int("history.entries", len(entries)),
		attribute.Int("history.dropped", dropped),
	)

	return &domain.HistoryPage{Entries: entries, Pagination: resp.Pagination}, nil
}

// Transfer submits a peer transfer. It is never retried: the ledger has
// no idempotency key and a lost response could otherwise send twice.
func (c *LedgerClient) Transfer(ctx context.Context, token string, req *domain.TransferRequest) (*domain.LedgerEntry, error) {
	ctx, span := tracer.Start(ctx, "LedgerClient.Transfer")
	defer span.End()
	span.SetAttributes(
		attribute.String("receiver.id", req.ReceiverID),
		attribute.String("receiver.type", string(req.ReceiverType)),
		attribute.Float64("amount", req.Amount),
	)

	var raw json.RawMessage
	err := c.execute(ctx, false, func() error {
		return c.do(ctx, http.MethodPost, transferPath, token, req, &raw)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var created wireEntry
	if err := json.Unmarshal(raw, &created); err != nil {
		// The transfer went through; only the echo is unreadable.
		span.RecordError(err)
		return nil, nil
	}
	e := created.toDomain(c.loc)
	if !e.Valid() {
		return nil, nil
	}
	return &e, nil
}

// execute runs fn behind the bulkhead and circuit breaker, with retries
// when retry is set, and maps the outcome to domain errors.
func (c *LedgerClient) execute(ctx context.Context, retry bool, fn func() error) error {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return err
	}
	defer c.bulkhead.Release()

	_, err := c.cb.Execute(func() (any, error) {
		if retry {
			return nil, resilience.RetryWithBackoff(ctx, c.cfg, fn)
		}
		return nil, fn()
	})
	if err == nil {
		return nil
	}
	if resilience.IsBreakerOpen(err) {
		return &domain.ErrCircuitOpen{Service: "ledger"}
	}
	return &domain.ErrExternalService{Service: "ledger", Err: resilience.Unwrap(err)}
}

// do performs a single HTTP round trip. 401 and other 4xx are permanent.
func (c *LedgerClient) do(ctx context.Context, method, path, token string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return resilience.Permanent(err)
		}
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return resilience.Permanent(err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return resilience.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return resilience.Permanent(ctx.Err())
		}
		return &domain.ErrNetwork{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return resilience.Permanent(&domain.ErrUnauthenticated{})
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		httpErr := &domain.ErrHTTP{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return resilience.Permanent(httpErr)
		}
		return httpErr
	}

	if raw, ok := out.(*json.RawMessage); ok {
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return &domain.ErrNetwork{Err: err}
		}
		*raw = b
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resilience.Permanent(fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}

// readErrorMessage pulls a human message out of an error body: the
// "error" or "message" field of a JSON object, or short plain text.
func readErrorMessage(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return ""
	}

	if b[0] == '{' {
		var payload struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(b, &payload) == nil {
			if payload.Error != "" {
				return payload.Error
			}
			return payload.Message
		}
		return ""
	}
	if b[0] == '<' {
		return "" // HTML error page
	}
	return string(b)
}
