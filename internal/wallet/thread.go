package wallet

import (
	"sort"
	"time"

	"github.com/realbarber/rbc-wallet-bfa-go/internal/domain"
)

// Thread returns the transfers exchanged with one counterparty, oldest
// first, so the conversation reads top to bottom.
func Thread(history []domain.LedgerEntry, counterpartyID string) []domain.LedgerEntry {
	out := make([]domain.LedgerEntry, 0)
	if counterpartyID == "" {
		return out
	}
	for _, e := range history {
		if e.IsTransfer() && e.PartyID() == counterpartyID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// ThreadMessages renders a thread as chat bubbles. Alignment depends only
// on direction.
func (p *Presenter) ThreadMessages(thread []domain.LedgerEntry) []domain.ThreadMessage {
	now := p.now()
	out := make([]domain.ThreadMessage, 0, len(thread))
	for i := range thread {
		e := &thread[i]
		align := domain.AlignStart
		if e.Direction == domain.DirectionSent {
			align = domain.AlignEnd
		}
		out = append(out, domain.ThreadMessage{
			ID:          e.ID,
			Align:       align,
			AmountText:  p.SignedAmount(e),
			Description: e.Description,
			TimeLabel:   p.ChatTimeLabel(e.CreatedAt, now),
			CreatedAt:   e.CreatedAt,
		})
	}
	return out
}

// ChatTimeLabel is the clock time within the last 24 hours, the
// "yesterday" label within 48 hours, and day + short month after that.
func (p *Presenter) ChatTimeLabel(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	local := t.In(p.Zone)
	age := now.Sub(t)
	switch {
	case age < 24*time.Hour:
		return local.Format("15:04")
	case age < 48*time.Hour:
		return p.Locale.ChatYesterday
	default:
		return p.Locale.FormatDayShortMonth(local)
	}
}

// ThreadPartner picks the display name and avatar for a conversation
// header: the explicit name if given, else the first message's party.
func (p *Presenter) ThreadPartner(thread []domain.LedgerEntry, name string) (string, string) {
	var avatar string
	if len(thread) > 0 && thread[0].OtherParty != nil {
		if name == "" {
			name = thread[0].OtherParty.Name
		}
		avatar = thread[0].OtherParty.AvatarURL
	}
	if name == "" {
		name = p.Locale.UnknownParty
	}
	return name, avatar
}
