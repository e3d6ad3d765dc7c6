package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/realbarber/rbc-wallet-bfa-go/internal/domain"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/handler"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/infra/cache"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/infra/client"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/infra/guard"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/infra/observability"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/infra/resilience"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/service"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/wallet"

	"go.uber.org/zap"
)

// fakeCRM serves the three rb-coins endpoints from an in-memory balance.
type fakeCRM struct {
	mu        sync.Mutex
	balance   float64
	history   []map[string]any
	transfers []map[string]any
}

func (f *fakeCRM) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer crm-token" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/rb-coins/balance":
		json.NewEncoder(w).Encode(map[string]any{
			"balance": f.balance,
			"entity":  map[string]any{"id": "c1", "name": "Jan Novák", "phone": "+420", "type": "CLIENT"},
		})
	case r.Method == http.MethodGet && r.URL.Path == "/api/rb-coins/history":
		json.NewEncoder(w).Encode(map[string]any{
			"data":       f.history,
			"pagination": map[string]any{"total": len(f.history), "page": 1, "limit": 200, "pages": 1},
		})
	case r.Method == http.MethodPost && r.URL.Path == "/api/rb-coins/transfer":
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		amount, _ := body["amount"].(float64)
		if amount > f.balance {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Insufficient balance"})
			return
		}
		f.balance -= amount
		f.transfers = append(f.transfers, body)
		entry := map[string]any{
			"id": "tx-new", "amount": amount, "type": "TRANSFER", "direction": "sent",
			"description": body["description"],
			"otherParty":  map[string]any{"id": body["receiverId"], "name": "Pavel", "type": body["receiverType"]},
			"createdAt":   time.Now().UTC().Format(time.RFC3339),
		}
		f.history = append([]map[string]any{entry}, f.history...)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(entry)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newIntegrationRouter(crmURL string) http.Handler {
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cb := resilience.NewCircuitBreaker("test")
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 10}
	httpClient := &http.Client{Timeout: 5 * time.Second}

	svc := service.NewWalletService(
		client.NewLedgerClient(httpClient, crmURL, cb, cfg, nil, time.UTC),
		guard.NewMemory(cache.New[string](time.Minute)),
		wallet.NewPresenter(wallet.English, wallet.Avatars{}, time.UTC),
		metrics,
		logger,
		200,
	)
	return handler.NewRouter(svc, metrics, logger, []string{"*"})
}

// TestIntegration_TransferFlow drives the BFA against a fake CRM.
func TestIntegration_TransferFlow(t *testing.T) {
	crm := &fakeCRM{
		balance: 100,
		history: []map[string]any{
			{"id": "t1", "amount": 30, "type": "TRANSFER", "direction": "received",
				"otherParty": map[string]any{"id": "P", "name": "Pavel", "type": "EMPLOYEE"},
				"createdAt":  time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)},
		},
	}
	crmServer := httptest.NewServer(crm)
	defer crmServer.Close()

	router := newIntegrationRouter(crmServer.URL)

	call := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body != "" {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
		} else {
			req = httptest.NewRequest(method, path, nil)
		}
		req.Header.Set("Authorization", "Bearer crm-token")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	// --- Overview ---
	rec := call(http.MethodGet, "/v1/wallet/overview", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var overview domain.WalletOverview
	if err := json.NewDecoder(rec.Body).Decode(&overview); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if overview.Balance == nil || overview.Balance.Amount != 100 {
		t.Fatalf("expected balance 100, got %+v", overview.Balance)
	}
	if overview.Balance.Owner != "Jan Novák" {
		t.Errorf("expected owner 'Jan Novák', got '%s'", overview.Balance.Owner)
	}
	if len(overview.History) != 1 || overview.History[0].SignedAmount != "+30 RBC" {
		t.Fatalf("unexpected history %+v", overview.History)
	}

	// --- Transfer ---
	rec = call(http.MethodPost, "/v1/wallet/transfers", `{"amount": "1 0,5", "receiverId": "P", "receiverType": "EMPLOYEE", "note": " tip "}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var result domain.TransferResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Balance == nil || result.Balance.Amount != 89.5 {
		t.Errorf("expected re-fetched balance 89.5, got %+v", result.Balance)
	}

	crm.mu.Lock()
	if len(crm.transfers) != 1 {
		t.Fatalf("expected 1 transfer at the CRM, got %d", len(crm.transfers))
	}
	sent := crm.transfers[0]
	crm.mu.Unlock()
	if sent["amount"] != 10.5 || sent["receiverId"] != "P" || sent["receiverType"] != "EMPLOYEE" || sent["description"] != "tip" {
		t.Errorf("unexpected transfer body %v", sent)
	}

	// --- Conversation now shows both transfers ---
	rec = call(http.MethodGet, "/v1/wallet/recipients/P/thread", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var thread domain.ThreadView
	if err := json.NewDecoder(rec.Body).Decode(&thread); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(thread.Messages) != 2 || thread.Messages[1].Align != domain.AlignEnd {
		t.Errorf("expected sent transfer last and right-aligned, got %+v", thread.Messages)
	}

	// --- Insufficient balance caught before the CRM ---
	rec = call(http.MethodPost, "/v1/wallet/transfers", `{"amount": "500", "receiverId": "P"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
}

// TestIntegration_RejectedToken tests 401 handling from the CRM.
func TestIntegration_RejectedToken(t *testing.T) {
	crmServer := httptest.NewServer(&fakeCRM{})
	defer crmServer.Close()

	router := newIntegrationRouter(crmServer.URL)

	req := httptest.NewRequest(http.MethodGet, "/v1/wallet/balance", nil)
	req.Header.Set("Authorization", "Bearer stale-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

// TestIntegration_HealthReportsLedger checks the breaker-backed health entry.
func TestIntegration_HealthReportsLedger(t *testing.T) {
	crmServer := httptest.NewServer(&fakeCRM{})
	defer crmServer.Close()

	router := newIntegrationRouter(crmServer.URL)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var health domain.HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if health.Status != domain.HealthHealthy || len(health.Services) != 2 {
		t.Errorf("expected healthy BFA and ledger, got %+v", health)
	}
}
