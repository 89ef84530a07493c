// Package channels regroups normalized items into per-category channel view models.
package channels

import (
	"log/slog"
	"strings"
	"time"

	"producthot/internal/model"
	"producthot/internal/normalize"
)

// Meta is the display metadata of one channel.
type Meta struct {
	Names      map[string]string // by locale
	Icon       model.IconKind
	Color      string
	BgGradient string
}

var metas = map[model.Category]Meta{
	model.CategoryNewProducts: {
		Names:      map[string]string{"zh": "新产品发布", "en": "New Products"},
		Icon:       model.IconZap,
		Color:      "#FF6154",
		BgGradient: "from-orange-500/20 to-red-500/20",
	},
	model.CategoryReddits: {
		Names:      map[string]string{"zh": "Reddit 讨论", "en": "Reddit Discussions"},
		Icon:       model.IconUsers,
		Color:      "#FF4500",
		BgGradient: "from-red-500/20 to-orange-500/20",
	},
	model.CategoryTrendings: {
		Names:      map[string]string{"zh": "趋势热点", "en": "Trending"},
		Icon:       model.IconTrendingUp,
		Color:      "#00D084",
		BgGradient: "from-green-500/20 to-emerald-500/20",
	},
}

var placeholders = map[string]string{
	"zh": "暂无更新",
	"en": "No updates yet",
}

// MetaFor returns the metadata of a category.
func MetaFor(c model.Category) (Meta, bool) {
	m, ok := metas[c]
	return m, ok
}

// Placeholder is the updateTime shown for a category without sources.
func Placeholder(locale string) string {
	if p, ok := placeholders[lang(locale)]; ok {
		return p
	}
	return placeholders["zh"]
}

// Options controls how update times are rendered.
type Options struct {
	Locale   string
	Location *time.Location
}

// Partition returns exactly three channels in category order. Each channel's
// updateTime comes from the first source of its category in resp, or the
// placeholder when the category is empty; articles keep the order of items.
func Partition(items []model.NewsItem, resp model.NewsResponse, opts Options) []model.Channel {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	out := make([]model.Channel, 0, len(model.Categories))
	for _, cat := range model.Categories {
		m := metas[cat]
		ch := model.Channel{
			ID:         cat,
			Name:       m.Names[lang(opts.Locale)],
			Icon:       m.Icon,
			Color:      m.Color,
			BgGradient: m.BgGradient,
			UpdateTime: Placeholder(opts.Locale),
			Articles:   []model.NewsItem{},
		}
		if srcs := resp.Sources(cat); len(srcs) > 0 {
			ch.UpdateTime = updateTime(srcs[0].UpdateTime, opts.Locale, loc)
		}
		for _, it := range items {
			if it.Category == cat {
				ch.Articles = append(ch.Articles, it)
			}
		}
		out = append(out, ch)
	}
	return out
}

// Find returns the channel with the given id.
func Find(chs []model.Channel, id model.Category) (model.Channel, bool) {
	for _, ch := range chs {
		if ch.ID == id {
			return ch, true
		}
	}
	return model.Channel{}, false
}

func updateTime(raw, locale string, loc *time.Location) string {
	t, err := normalize.ParseTime(raw)
	if err != nil {
		slog.Debug("channels: keeping raw update_time", "value", raw)
		return raw
	}
	return normalize.FormatDate(t.In(loc), locale)
}

func lang(locale string) string {
	if strings.EqualFold(strings.TrimSpace(locale), "en") {
		return "en"
	}
	return "zh"
}
