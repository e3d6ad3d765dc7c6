package domain

import "time"

// ============================================================
// Derived presentation structures (never persisted)
// ============================================================

// Counterparty is one entry of the recipient directory built from history.
type Counterparty struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Type                 PartyType `json:"type"`
	AvatarURL            string    `json:"avatar_url,omitempty"`
	LastTransactionLabel string    `json:"last_transaction_label,omitempty"`
	LastTransactionAt    time.Time `json:"last_transaction_at"`
}

// EntryView is a ledger entry shaped for a list row or detail sheet.
type EntryView struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	SignedAmount   string     `json:"signed_amount"`
	AvatarURL      string     `json:"avatar_url"`
	TypeLabel      string     `json:"type_label"`
	DirectionLabel string     `json:"direction_label"`
	Detail         string     `json:"detail"`
	Time           string     `json:"time"`
	PerformedBy    string     `json:"performed_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// Alignment is the side a chat bubble sits on.
type Alignment string

const (
	AlignEnd   Alignment = "end"
	AlignStart Alignment = "start"
)

// ThreadMessage is one bubble of a counterparty conversation.
type ThreadMessage struct {
	ID          string    `json:"id"`
	Align       Alignment `json:"align"`
	AmountText  string    `json:"amount_text"`
	Description string    `json:"description,omitempty"`
	TimeLabel   string    `json:"time_label"`
	CreatedAt   time.Time `json:"created_at"`
}

// DayBucket groups history entries that share a local calendar date.
type DayBucket struct {
	Date    string      `json:"date"` // YYYY-MM-DD
	Label   string      `json:"label"`
	Entries []EntryView `json:"entries"`
}

// BalanceView is the balance as displayed.
type BalanceView struct {
	Amount    float64   `json:"amount"`
	Formatted string    `json:"formatted"`
	Owner     string    `json:"owner,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Preview is the live "balance after this send" calculation.
type Preview struct {
	Balance   float64 `json:"balance"`
	Pending   float64 `json:"pending"`
	Remaining float64 `json:"remaining"`
	Formatted string  `json:"formatted"`
	CanSend   bool    `json:"can_send"`
}

// WalletMetrics is the snapshot served by the wallet metrics endpoint.
type WalletMetrics struct {
	TransfersSucceeded int64   `json:"transfers_succeeded"`
	TransfersFailed    int64   `json:"transfers_failed"`
	TransfersRejected  int64   `json:"transfers_rejected"`
	GuardRejections    int64   `json:"guard_rejections"`
	LedgerErrors       int64   `json:"ledger_errors"`
	DiscardedLoads     int64   `json:"discarded_loads"`
	SuccessRate        float64 `json:"success_rate"`
}

// WalletOverview is a screen's state: balance and history load
// independently, so each carries its own loading flag and error.
type WalletOverview struct {
	Balance        *BalanceView `json:"balance"`
	BalanceLoading bool         `json:"balance_loading"`
	BalanceError   string       `json:"balance_error,omitempty"`
	History        []EntryView  `json:"history"`
	HistoryLoading bool         `json:"history_loading"`
	HistoryError   string       `json:"history_error,omitempty"`
	Pagination     Pagination   `json:"pagination"`
}

// ThreadView is the conversation with one counterparty.
type ThreadView struct {
	PartyID   string          `json:"party_id"`
	Name      string          `json:"name"`
	AvatarURL string          `json:"avatar_url,omitempty"`
	Messages  []ThreadMessage `json:"messages"`
	Balance   *BalanceView    `json:"balance,omitempty"`
}

// TransferResult is returned after the ledger accepted a transfer.
type TransferResult struct {
	Message string       `json:"message"`
	Entry   *EntryView   `json:"entry,omitempty"`
	Balance *BalanceView `json:"balance,omitempty"`
}
