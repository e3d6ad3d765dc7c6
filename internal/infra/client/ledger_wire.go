package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/realbarber/rbc-wallet-bfa-go/internal/domain"
)

// ============================================================
// CRM wire format. Everything is normalised here so nothing past the
// client branches on the backend's shape.
// ============================================================

type balanceResponse struct {
	Balance float64 `json:"balance"`
	Entity  struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Phone string `json:"phone"`
		Type  string `json:"type"`
	} `json:"entity"`
}

type historyResponse struct {
	Data       json.RawMessage   `json:"data"`
	Pagination domain.Pagination `json:"pagination"`
}

type wireParty struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Identifier string  `json:"identifier"`
	AvatarURL  *string `json:"avatarUrl"`
	Type       string  `json:"type"`
}

type wirePerformer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type wireEntry struct {
	ID          string         `json:"id"`
	Amount      flexNumber     `json:"amount"`
	Type        string         `json:"type"`
	Description *string        `json:"description"`
	Direction   string         `json:"direction"`
	OtherParty  *wireParty     `json:"otherParty"`
	PerformedBy *wirePerformer `json:"performedBy"`
	CreatedAt   string         `json:"createdAt"`
	UpdatedAt   string         `json:"updatedAt"`
}

// flexNumber accepts 120, 120.5 and "120.50".
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("amount %s: %w", b, err)
	}
	*n = flexNumber(v)
	return nil
}

func (w *wireEntry) toDomain(loc *time.Location) domain.LedgerEntry {
	amount := float64(w.Amount)
	dir := domain.Direction(strings.ToLower(strings.TrimSpace(w.Direction)))
	if dir != domain.DirectionSent && dir != domain.DirectionReceived {
		dir = domain.DirectionReceived
		if amount < 0 {
			dir = domain.DirectionSent
		}
	}
	if amount < 0 {
		amount = -amount
	}

	e := domain.LedgerEntry{
		ID:        w.ID,
		Amount:    amount,
		Type:      domain.EntryType(strings.ToUpper(strings.TrimSpace(w.Type))),
		Direction: dir,
		CreatedAt: parseTime(w.CreatedAt, loc),
		UpdatedAt: parseTime(w.UpdatedAt, loc),
	}
	if w.Description != nil {
		e.Description = *w.Description
	}
	if w.OtherParty != nil && w.OtherParty.ID != "" {
		p := &domain.Party{
			ID:         w.OtherParty.ID,
			Name:       w.OtherParty.Name,
			Identifier: w.OtherParty.Identifier,
			Type:       domain.PartyType(strings.ToUpper(w.OtherParty.Type)),
		}
		if w.OtherParty.AvatarURL != nil {
			p.AvatarURL = *w.OtherParty.AvatarURL
		}
		e.OtherParty = p
	}
	if w.PerformedBy != nil {
		e.PerformedBy = &domain.Performer{ID: w.PerformedBy.ID, Name: w.PerformedBy.Name}
	}
	return e
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// parseTime reads an ISO 8601 timestamp. A timestamp without an offset is
// wall time in loc. Anything unreadable becomes the zero time, which sorts
// last in the directory.
func parseTime(s string, loc *time.Location) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t
		}
	}
	return time.Time{}
}

// decodeEntries accepts the history "data" field either as an ordered
// array or as an object keyed by entry id. Objects have no order of their
// own, so they are put in the backend's usual newest-first order. Entries
// that break the ledger invariants are dropped and counted.
func decodeEntries(raw json.RawMessage, loc *time.Location) ([]domain.LedgerEntry, int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []domain.LedgerEntry{}, 0, nil
	}

	dropped := 0
	keep := func(out []domain.LedgerEntry, e domain.LedgerEntry) []domain.LedgerEntry {
		if !e.Valid() {
			dropped++
			return out
		}
		return append(out, e)
	}

	switch raw[0] {
	case '[':
		var items []wireEntry
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, 0, fmt.Errorf("decode history list: %w", err)
		}
		out := make([]domain.LedgerEntry, 0, len(items))
		for i := range items {
			out = keep(out, items[i].toDomain(loc))
		}
		return out, dropped, nil

	case '{':
		var byID map[string]wireEntry
		if err := json.Unmarshal(raw, &byID); err != nil {
			return nil, 0, fmt.Errorf("decode history map: %w", err)
		}
		ids := make([]string, 0, len(byID))
		for id := range byID {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		out := make([]domain.LedgerEntry, 0, len(byID))
		for _, id := range ids {
			w := byID[id]
			if w.ID == "" {
				w.ID = id
			}
			out = keep(out, w.toDomain(loc))
		}
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
		return out, dropped, nil
	}

	return nil, 0, fmt.Errorf("decode history: unexpected data shape %q", raw[:1])
}
