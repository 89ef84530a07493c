package state

import (
	"fmt"
	"sort"
	"strings"

	"producthot/internal/model"
)

type SortKey string

const (
	SortByDate  SortKey = "date"
	SortByViews SortKey = "views"
	SortByLikes SortKey = "likes"
)

// ParseSortKey accepts date, views or likes; empty means date.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortByDate, nil
	case SortByDate, SortByViews, SortByLikes:
		return k, nil
	default:
		return "", fmt.Errorf("state: unknown sort key %q", s)
	}
}

// Filter selects and orders news items. The zero value keeps everything, newest first.
type Filter struct {
	Category model.Category `json:"category,omitempty"`
	Query    string         `json:"query,omitempty"`
	Sort     SortKey        `json:"sort,omitempty"`
}

// Apply returns a filtered, sorted copy of items. Items are kept when they match
// the category (if set) and contain the query, case-insensitively, in the title or
// summary. Sorting is stable and descending on the sort key.
func (f Filter) Apply(items []model.NewsItem) []model.NewsItem {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]model.NewsItem, 0, len(items))
	for _, it := range items {
		if f.Category != "" && it.Category != f.Category {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(it.Title), q) &&
			!strings.Contains(strings.ToLower(it.Summary), q) {
			continue
		}
		out = append(out, it)
	}

	switch f.Sort {
	case SortByViews:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Views > out[j].Views })
	case SortByLikes:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Likes > out[j].Likes })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	}
	return out
}
