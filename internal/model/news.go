package model

import "time"

// Category names one of the three fixed news groupings returned by the news API.
type Category string

const (
	CategoryNewProducts Category = "new_products"
	CategoryReddits     Category = "reddits"
	CategoryTrendings   Category = "trendings"
)

// Categories lists the categories in their fixed iteration order.
var Categories = []Category{CategoryNewProducts, CategoryReddits, CategoryTrendings}

// NewsPost is one item from an upstream source.
type NewsPost struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Description *string `json:"description"`
	Upvotes     int     `json:"upvotes"`
}

// NewsSource is one upstream channel's snapshot at fetch time.
// Posts keep the source-provided relevance order.
type NewsSource struct {
	Title      string     `json:"title"`
	Logo       *string    `json:"logo"`
	UpdateTime string     `json:"update_time"`
	Posts      []NewsPost `json:"posts"`
}

// NewsResponse is the full payload of GET /api/news.
type NewsResponse struct {
	NewProducts []NewsSource `json:"new_products"`
	Reddits     []NewsSource `json:"reddits"`
	Trendings   []NewsSource `json:"trendings"`
}

// EnsureCategories replaces missing (nil) category lists with empty ones.
func (r *NewsResponse) EnsureCategories() {
	if r.NewProducts == nil {
		r.NewProducts = []NewsSource{}
	}
	if r.Reddits == nil {
		r.Reddits = []NewsSource{}
	}
	if r.Trendings == nil {
		r.Trendings = []NewsSource{}
	}
}

// Sources returns the source list for a category.
func (r NewsResponse) Sources(c Category) []NewsSource {
	switch c {
	case CategoryNewProducts:
		return r.NewProducts
	case CategoryReddits:
		return r.Reddits
	case CategoryTrendings:
		return r.Trendings
	default:
		return nil
	}
}

// PostCount returns the number of posts across all categories.
func (r NewsResponse) PostCount() int {
	n := 0
	for _, c := range Categories {
		for _, s := range r.Sources(c) {
			n += len(s.Posts)
		}
	}
	return n
}

// NewsItem is the flattened, UI-ready record. IDs are scoped to one fetch
// and are not persistent keys.
type NewsItem struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Link      string    `json:"link"`
	Date      string    `json:"date"`
	Views     int       `json:"views"`
	Likes     int       `json:"likes"`
	Category  Category  `json:"category"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IconKind tags the icon a channel is drawn with; renderers resolve it.
type IconKind string

const (
	IconZap        IconKind = "zap"
	IconUsers      IconKind = "users"
	IconTrendingUp IconKind = "trending-up"
)

// Channel is the derived view model for one category.
type Channel struct {
	ID         Category   `json:"id"`
	Name       string     `json:"name"`
	Icon       IconKind   `json:"icon"`
	UpdateTime string     `json:"updateTime"`
	Color      string     `json:"color"`
	BgGradient string     `json:"bgGradient"`
	Articles   []NewsItem `json:"articles"`
}
