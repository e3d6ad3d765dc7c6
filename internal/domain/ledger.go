// Package domain defines the core wallet entities for the RBC wallet BFA.
// These models are independent of the CRM wire format and represent the
// canonical data structures used throughout the service.
package domain

import "time"

// ============================================================
// Ledger entries
// ============================================================

// EntryType is the kind of a wallet transaction.
type EntryType string

const (
	EntryTransfer   EntryType = "TRANSFER"
	EntryCashback   EntryType = "CASHBACK"
	EntryDeposit    EntryType = "DEPOSIT"
	EntryWithdrawal EntryType = "WITHDRAWAL"
)

// Direction tells whether the authenticated user sent or received the amount.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// PartyType distinguishes clients from staff.
type PartyType string

const (
	PartyClient   PartyType = "CLIENT"
	PartyEmployee PartyType = "EMPLOYEE"
)

// Party is the other side of a transaction.
type Party struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       PartyType `json:"type"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	Identifier string    `json:"identifier,omitempty"` // phone or email
}

// Performer is the staff member who executed a transaction on behalf of the system.
type Performer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LedgerEntry is a single wallet transaction.
// Amount is always a magnitude; the sign lives in Direction.
type LedgerEntry struct {
	ID          string     `json:"id"`
	Amount      float64    `json:"amount"`
	Type        EntryType  `json:"type"`
	Direction   Direction  `json:"direction"`
	Description string     `json:"description,omitempty"`
	OtherParty  *Party     `json:"other_party,omitempty"`
	PerformedBy *Performer `json:"performed_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsTransfer reports whether the entry is a peer transfer.
func (e *LedgerEntry) IsTransfer() bool {
	return e.Type == EntryTransfer
}

// PartyID returns the counterparty id, or "" when there is none.
func (e *LedgerEntry) PartyID() string {
	if e.OtherParty == nil {
		return ""
	}
	return e.OtherParty.ID
}

// Valid checks the entry invariants: non-negative amount, and a transfer
// always names its counterparty.
func (e *LedgerEntry) Valid() bool {
	if e.Amount < 0 {
		return false
	}
	if e.IsTransfer() && e.PartyID() == "" {
		return false
	}
	return true
}

// HistoryQuery selects a page of the ledger history.
type HistoryQuery struct {
	Limit int
	Page  int
}

// Pagination mirrors the paging block returned with a history page.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// HistoryPage is one fetched page of ledger entries, in backend order
// (reverse chronological).
type HistoryPage struct {
	Entries    []LedgerEntry `json:"entries"`
	Pagination Pagination    `json:"pagination"`
}

// ============================================================
// Balance
// ============================================================

// BalanceEntity identifies the wallet owner as the ledger knows it.
type BalanceEntity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Type  string `json:"type"`
}

// Balance is the authoritative wallet balance as of FetchedAt.
type Balance struct {
	Amount    float64       `json:"amount"`
	Entity    BalanceEntity `json:"entity"`
	FetchedAt time.Time     `json:"fetched_at"`
}

// ============================================================
// Transfers
// ============================================================

// TransferRequest is the validated payload sent to the ledger.
type TransferRequest struct {
	Amount       float64   `json:"amount"`
	ReceiverID   string    `json:"receiverId"`
	ReceiverType PartyType `json:"receiverType"`
	Description  string    `json:"description,omitempty"`
}
