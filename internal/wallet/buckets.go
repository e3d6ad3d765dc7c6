package wallet

import (
	"sort"
	"time"

	"github.com/realbarber/rbc-wallet-bfa-go/internal/domain"
)

const dateKeyLayout = "2006-01-02"

// Buckets groups history by local calendar date, newest day first. Within
// a day the backend order is kept as is.
func (p *Presenter) Buckets(history []domain.LedgerEntry) []domain.DayBucket {
	groups := make(map[string][]domain.LedgerEntry)
	for _, e := range history {
		key := p.dateKey(e.CreatedAt)
		groups[key] = append(groups[key], e)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	now := p.now()
	out := make([]domain.DayBucket, 0, len(keys))
	for _, k := range keys {
		out = append(out, domain.DayBucket{
			Date:    k,
			Label:   p.BucketLabel(k, now),
			Entries: p.Entries(groups[k]),
		})
	}
	return out
}

// BucketLabel names a YYYY-MM-DD key relative to now: today, yesterday,
// the day before yesterday, otherwise day + full month name.
func (p *Presenter) BucketLabel(key string, now time.Time) string {
	now = now.In(p.Zone)
	today := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, p.Zone)
	switch key {
	case today.Format(dateKeyLayout):
		return p.Locale.Today
	case today.AddDate(0, 0, -1).Format(dateKeyLayout):
		return p.Locale.Yesterday
	case today.AddDate(0, 0, -2).Format(dateKeyLayout):
		return p.Locale.DayBeforeYesterday
	}
	d, err := time.ParseInLocation(dateKeyLayout, key, p.Zone)
	if err != nil {
		return key
	}
	return p.Locale.FormatDayMonth(d)
}

func (p *Presenter) dateKey(t time.Time) string {
	return t.In(p.Zone).Format(dateKeyLayout)
}
