package wallet

import (
	"math"
	"strings"
	"time"

	"github.com/realbarber/rbc-wallet-bfa-go/internal/domain"

	"github.com/goodsign/monday"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Currency is the ledger's unit.
const Currency = "RBC"

// Description prefixes the ledger uses to tag system-generated entries.
const (
	GiftCardMarker = "Created gift card:"
	CashbackMarker = "Cashback z nákupu"
)

// Locale holds every user-facing string of the wallet view model.
type Locale struct {
	Tag language.Tag

	Today              string
	Yesterday          string
	DayBeforeYesterday string
	ChatYesterday      string

	GiftCardTitle string
	CashbackTitle string
	BusinessName  string
	UnknownParty  string

	YouSent  string // amount, currency
	TheySent string // amount, currency

	Sent      string
	Received  string
	TypeLabel map[domain.EntryType]string
	OtherType string

	GiftCardDetail      string // code
	GiftCardDetailEmpty string
	EmptyDetail         string

	DateLocale          monday.Locale
	DayMonthLayout      string
	DayShortMonthLayout string
	// GenitiveMonths replaces the month in day + month dates where the
	// date locale only knows the nominative form.
	GenitiveMonths *[12]string

	MsgInvalidAmount       string
	MsgInsufficientBalance string
	MsgInvalidRecipient    string
	MsgInFlight            string
	MsgUnauthenticated     string
	MsgTransferFailed      string
	MsgTransferSent        string
	MsgLoadFailed          string
}

// Czech is the app's native locale.
var Czech = &Locale{
	Tag: language.Czech,

	Today:              "Dnes",
	Yesterday:          "Včera",
	DayBeforeYesterday: "Předevčírem",
	ChatYesterday:      "Včera",

	GiftCardTitle: "Vytvoření dárkové karty",
	CashbackTitle: "Cashback",
	BusinessName:  "RealBarber",
	UnknownParty:  "?",

	YouSent:  "Poslali jste %s %s",
	TheySent: "Poslali vám %s %s",

	Sent:     "Odesláno",
	Received: "Přijato",
	TypeLabel: map[domain.EntryType]string{
		domain.EntryTransfer:   "Převod",
		domain.EntryCashback:   "Cashback",
		domain.EntryDeposit:    "Věrnostní odměna",
		domain.EntryWithdrawal: "Platba",
	},
	OtherType: "Transakce",

	GiftCardDetail:      "Vytvoření karty s kódem – %s",
	GiftCardDetailEmpty: "Vytvoření dárkové karty",
	EmptyDetail:         "–",

	DateLocale:          monday.LocaleCsCZ,
	DayMonthLayout:      "2. January",
	DayShortMonthLayout: "2. Jan",
	GenitiveMonths: &[12]string{
		"ledna", "února", "března", "dubna", "května", "června",
		"července", "srpna", "září", "října", "listopadu", "prosince",
	},

	MsgInvalidAmount:       "Zadejte platnou částku.",
	MsgInsufficientBalance: "Nemáte dostatek RBC.",
	MsgInvalidRecipient:    "Vyberte příjemce.",
	MsgInFlight:            "Převod se již odesílá.",
	MsgUnauthenticated:     "Přihlášení vypršelo, přihlaste se znovu.",
	MsgTransferFailed:      "Převod se nezdařil.",
	MsgTransferSent:        "Převod byl odeslán.",
	MsgLoadFailed:          "Nepodařilo se načíst data.",
}

// English mirrors Czech for non-Czech clients.
var English = &Locale{
	Tag: language.English,

	Today:              "Today",
	Yesterday:          "Yesterday",
	DayBeforeYesterday: "The day before yesterday",
	ChatYesterday:      "Yesterday",

	GiftCardTitle: "Gift card creation",
	CashbackTitle: "Cashback",
	BusinessName:  "RealBarber",
	UnknownParty:  "?",

	YouSent:  "You sent %s %s",
	TheySent: "They sent you %s %s",

	Sent:     "Sent",
	Received: "Received",
	TypeLabel: map[domain.EntryType]string{
		domain.EntryTransfer:   "Transfer",
		domain.EntryCashback:   "Cashback",
		domain.EntryDeposit:    "Loyalty reward",
		domain.EntryWithdrawal: "Payment",
	},
	OtherType: "Transaction",

	GiftCardDetail:      "Gift card created with code %s",
	GiftCardDetailEmpty: "Gift card creation",
	EmptyDetail:         "–",

	DateLocale:          monday.LocaleEnUS,
	DayMonthLayout:      "2 January",
	DayShortMonthLayout: "2 Jan",

	MsgInvalidAmount:       "Enter a valid amount.",
	MsgInsufficientBalance: "You do not have enough RBC.",
	MsgInvalidRecipient:    "Choose a recipient.",
	MsgInFlight:            "The transfer is already being sent.",
	MsgUnauthenticated:     "Your session has expired, please sign in again.",
	MsgTransferFailed:      "The transfer failed.",
	MsgTransferSent:        "Transfer sent.",
	MsgLoadFailed:          "Could not load your wallet.",
}

// LocaleFor maps a config code ("cs", "en", "en-GB", ...) to a locale.
// Anything that is not English falls back to Czech.
func LocaleFor(code string) *Locale {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(code)), "en") {
		return English
	}
	return Czech
}

// FormatAmount renders a magnitude with no fractional digits and the
// locale's thousands separator.
func (l *Locale) FormatAmount(v float64) string {
	p := message.NewPrinter(l.Tag)
	return p.Sprintf("%d", int64(math.Round(v)))
}

// FormatDayMonth renders "day + full month name". monday's cs_CZ rules
// print the nominative ("březen"), so GenitiveMonths takes over there.
func (l *Locale) FormatDayMonth(t time.Time) string {
	if l.GenitiveMonths != nil {
		return monday.Format(t, "2.", l.DateLocale) + " " + l.GenitiveMonths[t.Month()-1]
	}
	return monday.Format(t, l.DayMonthLayout, l.DateLocale)
}

// FormatDayShortMonth renders "day + abbreviated month".
func (l *Locale) FormatDayShortMonth(t time.Time) string {
	return monday.Format(t, l.DayShortMonthLayout, l.DateLocale)
}

func (l *Locale) typeLabel(t domain.EntryType) string {
	if s, ok := l.TypeLabel[t]; ok {
		return s
	}
	return l.OtherType
}
