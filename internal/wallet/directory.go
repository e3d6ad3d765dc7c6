package wallet

import (
	"fmt"
	"sort"
	"strings"

	"github.com/realbarber/rbc-wallet-bfa-go/internal/domain"
)

// Directory builds one recipient per distinct counterparty id, most recent
// interaction first. Entries without a counterparty id are skipped. Name,
// type and avatar come from the first entry seen for an id; only the last
// transaction label and time move forward.
func (p *Presenter) Directory(history []domain.LedgerEntry) []domain.Counterparty {
	byID := make(map[string]int)
	out := make([]domain.Counterparty, 0)

	for i := range history {
		e := &history[i]
		id := e.PartyID()
		if id == "" {
			continue
		}
		label := p.lastTransactionLabel(e)

		idx, seen := byID[id]
		if !seen {
			name := e.OtherParty.Name
			if name == "" {
				name = p.Locale.UnknownParty
			}
			typ := e.OtherParty.Type
			if typ == "" {
				typ = domain.PartyClient
			}
			byID[id] = len(out)
			out = append(out, domain.Counterparty{
				ID:                   id,
				Name:                 name,
				Type:                 typ,
				AvatarURL:            e.OtherParty.AvatarURL,
				LastTransactionLabel: label,
				LastTransactionAt:    e.CreatedAt,
			})
			continue
		}

		cur := &out[idx]
		if e.CreatedAt.After(cur.LastTransactionAt) {
			cur.LastTransactionLabel = label
			cur.LastTransactionAt = e.CreatedAt
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastTransactionAt, out[j].LastTransactionAt
		if a.IsZero() || b.IsZero() {
			return !a.IsZero() && b.IsZero()
		}
		return a.After(b)
	})
	return out
}

func (p *Presenter) lastTransactionLabel(e *domain.LedgerEntry) string {
	if !e.IsTransfer() {
		return e.Description
	}
	amount := p.Locale.FormatAmount(magnitude(e.Amount))
	if e.Direction == domain.DirectionSent {
		return fmt.Sprintf(p.Locale.YouSent, amount, Currency)
	}
	return fmt.Sprintf(p.Locale.TheySent, amount, Currency)
}

// FilterDirectory keeps recipients whose name contains query, ignoring
// case. A blank query returns the directory as is. The input is never
// modified.
func FilterDirectory(dir []domain.Counterparty, query string) []domain.Counterparty {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return dir
	}
	out := make([]domain.Counterparty, 0, len(dir))
	for _, c := range dir {
		if strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return out
}
