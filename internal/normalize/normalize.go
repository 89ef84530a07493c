// Package normalize flattens a NewsResponse into an ordered list of NewsItems.
package normalize

import (
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"producthot/internal/model"
)

const (
	layoutZH = "2006/1/2 15:04:05"
	layoutEN = "1/2/2006, 3:04:05 PM"
)

// Options controls locale formatting and the synthetic views placeholder.
type Options struct {
	Locale   string         // zh (default) or en
	Location *time.Location // default time.Local
	// SynthesizeViews fills Views with a display-only placeholder in [100, 1099].
	// It carries no analytics meaning. Views stay 0 otherwise.
	SynthesizeViews bool
	Rand            *rand.Rand
	Logger          *slog.Logger
}

// Transform walks new_products, reddits and trendings in that order, then sources
// and posts in payload order, assigning ids 1..N. Posts without a title are skipped
// and do not consume an id.
func Transform(resp model.NewsResponse, opts Options) []model.NewsItem {
	l := opts.Logger
	if l == nil {
		l = slog.Default()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	out := make([]model.NewsItem, 0, resp.PostCount())
	id := 0
	for _, cat := range model.Categories {
		for _, src := range resp.Sources(cat) {
			updated, err := ParseTime(src.UpdateTime)
			date := strings.TrimSpace(src.UpdateTime)
			if err != nil {
				l.Warn("normalize: unparseable update_time", "source", src.Title, "value", src.UpdateTime)
			} else {
				date = FormatDate(updated.In(loc), opts.Locale)
			}

			for i, p := range src.Posts {
				if strings.TrimSpace(p.Title) == "" {
					l.Warn("normalize: skipping post without title", "category", cat, "source", src.Title, "index", i)
					continue
				}
				id++
				item := model.NewsItem{
					ID:        id,
					Title:     p.Title,
					Link:      p.URL,
					Date:      date,
					Likes:     max(p.Upvotes, 0),
					Category:  cat,
					Tags:      []string{src.Title},
					UpdatedAt: updated,
				}
				if p.Description != nil {
					item.Summary = *p.Description
				}
				if opts.SynthesizeViews {
					item.Views = placeholderViews(opts.Rand)
				}
				out = append(out, item)
			}
		}
	}
	return out
}

func placeholderViews(r *rand.Rand) int {
	if r != nil {
		return 100 + r.IntN(1000)
	}
	return 100 + rand.IntN(1000)
}

// ParseTime parses an upstream update_time. Timestamps without a zone are UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	if t2, err2 := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.UTC); err2 == nil {
		return t2, nil
	}
	return time.Time{}, err
}

// FormatDate renders t the way the locale's date-time string looks, e.g.
// 2024/1/1 08:00:00 for zh and 1/1/2024, 8:00:00 AM for en.
func FormatDate(t time.Time, locale string) string {
	if strings.EqualFold(strings.TrimSpace(locale), "en") {
		return t.Format(layoutEN)
	}
	return t.Format(layoutZH)
}
