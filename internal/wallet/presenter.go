// Package wallet is the wallet ledger view model: pure functions that turn
// the ledger's balance and flat transaction history into what the app
// renders (list rows, a recipient directory, conversation threads, day
// buckets) and that validate a transfer before it is sent.
package wallet

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/realbarber/rbc-wallet-bfa-go/internal/domain"
)

// Avatars are the placeholder images used when a party has no avatar.
type Avatars struct {
	Transfer string
	Business string
}

// Presenter carries everything that is not a pure function of an entry:
// the locale, placeholder images, the local time zone and the clock.
type Presenter struct {
	Locale  *Locale
	Avatars Avatars
	Zone    *time.Location
	Now     func() time.Time
}

// NewPresenter builds a presenter with the wall clock. A nil zone means UTC.
func NewPresenter(locale *Locale, avatars Avatars, zone *time.Location) *Presenter {
	if locale == nil {
		locale = Czech
	}
	if zone == nil {
		zone = time.UTC
	}
	return &Presenter{Locale: locale, Avatars: avatars, Zone: zone, Now: time.Now}
}

func (p *Presenter) now() time.Time {
	if p.Now == nil {
		return time.Now().In(p.Zone)
	}
	return p.Now().In(p.Zone)
}

// ============================================================
// Ledger entry normalizer
// ============================================================

// Title is the short row label. First match wins: gift card marker,
// cashback marker, counterparty name, the business itself.
func (p *Presenter) Title(e *domain.LedgerEntry) string {
	switch {
	case strings.HasPrefix(e.Description, GiftCardMarker):
		return p.Locale.GiftCardTitle
	case strings.HasPrefix(e.Description, CashbackMarker):
		return p.Locale.CashbackTitle
	case e.OtherParty != nil && e.OtherParty.Name != "":
		return e.OtherParty.Name
	default:
		return p.Locale.BusinessName
	}
}

// SignedAmount renders "-1 200 RBC" for sent entries and "+30 RBC" otherwise.
func (p *Presenter) SignedAmount(e *domain.LedgerEntry) string {
	sign := "+"
	if e.Direction == domain.DirectionSent {
		sign = "-"
	}
	return sign + p.Locale.FormatAmount(magnitude(e.Amount)) + " " + Currency
}

// Avatar resolves the image for an entry row.
func (p *Presenter) Avatar(e *domain.LedgerEntry) string {
	if e.OtherParty != nil && e.OtherParty.AvatarURL != "" {
		return e.OtherParty.AvatarURL
	}
	if e.IsTransfer() {
		return p.Avatars.Transfer
	}
	return p.Avatars.Business
}

// Detail is the long description shown on the detail sheet.
func (p *Presenter) Detail(e *domain.LedgerEntry) string {
	desc := strings.TrimSpace(e.Description)
	if strings.HasPrefix(desc, GiftCardMarker) {
		code := strings.TrimSpace(strings.TrimPrefix(desc, GiftCardMarker))
		if code == "" {
			return p.Locale.GiftCardDetailEmpty
		}
		return fmt.Sprintf(p.Locale.GiftCardDetail, code)
	}
	if desc == "" {
		return p.Locale.EmptyDetail
	}
	return desc
}

// DirectionLabel is "sent" or "received" in the locale.
func (p *Presenter) DirectionLabel(e *domain.LedgerEntry) string {
	if e.Direction == domain.DirectionSent {
		return p.Locale.Sent
	}
	return p.Locale.Received
}

// Entry shapes one ledger entry for a list row or detail sheet.
func (p *Presenter) Entry(e *domain.LedgerEntry) domain.EntryView {
	v := domain.EntryView{
		ID:             e.ID,
		Title:          p.Title(e),
		SignedAmount:   p.SignedAmount(e),
		AvatarURL:      p.Avatar(e),
		TypeLabel:      p.Locale.typeLabel(e.Type),
		DirectionLabel: p.DirectionLabel(e),
		Detail:         p.Detail(e),
		CreatedAt:      e.CreatedAt,
	}
	if !e.CreatedAt.IsZero() {
		v.Time = e.CreatedAt.In(p.Zone).Format("15:04")
	}
	if e.PerformedBy != nil {
		v.PerformedBy = e.PerformedBy.Name
	}
	if !e.UpdatedAt.IsZero() && !e.UpdatedAt.Equal(e.CreatedAt) {
		u := e.UpdatedAt
		v.UpdatedAt = &u
	}
	return v
}

// Entries shapes a whole history page, keeping its order.
func (p *Presenter) Entries(history []domain.LedgerEntry) []domain.EntryView {
	out := make([]domain.EntryView, 0, len(history))
	for i := range history {
		out = append(out, p.Entry(&history[i]))
	}
	return out
}

// FormatBalance renders a balance with no decimals.
func (p *Presenter) FormatBalance(v float64) string {
	return p.Locale.FormatAmount(v)
}

// ErrorMessage turns any error of the wallet flow into a displayable string.
func (p *Presenter) ErrorMessage(err error) string {
	var (
		invalidAmount *domain.ErrInvalidAmount
		insufficient  *domain.ErrInsufficientBalance
		invalidRecv   *domain.ErrInvalidRecipient
		inFlight      *domain.ErrSubmissionInFlight
		unauth        *domain.ErrUnauthenticated
		httpErr       *domain.ErrHTTP
		validation    *domain.ErrValidation
		stale         *domain.ErrStaleBalance
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &invalidAmount):
		return p.Locale.MsgInvalidAmount
	case errors.As(err, &insufficient):
		return p.Locale.MsgInsufficientBalance
	case errors.As(err, &invalidRecv):
		return p.Locale.MsgInvalidRecipient
	case errors.As(err, &inFlight):
		return p.Locale.MsgInFlight
	case errors.As(err, &unauth):
		return p.Locale.MsgUnauthenticated
	case errors.As(err, &httpErr):
		return httpErr.Error()
	case errors.As(err, &validation):
		return validation.Error()
	case errors.As(err, &stale):
		return p.Locale.MsgLoadFailed
	default:
		return p.Locale.MsgTransferFailed
	}
}

// LoadErrorMessage is ErrorMessage for a failed fetch: anything that is
// not an answer from the ledger reads as a load failure.
func (p *Presenter) LoadErrorMessage(err error) string {
	var (
		unauth  *domain.ErrUnauthenticated
		httpErr *domain.ErrHTTP
	)
	if err == nil {
		return ""
	}
	if errors.As(err, &unauth) || errors.As(err, &httpErr) {
		return p.ErrorMessage(err)
	}
	return p.Locale.MsgLoadFailed
}

func magnitude(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
