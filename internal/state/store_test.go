package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"producthot/internal/model"

	"github.com/stretchr/testify/require"
)

type memPersister struct {
	mu    sync.Mutex
	prefs *Prefs
	saves int
	err   error
}

func (m *memPersister) LoadPrefs(context.Context) (Prefs, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.prefs == nil {
		return Prefs{}, false, m.err
	}
	return *m.prefs, true, m.err
}

func (m *memPersister) SavePrefs(_ context.Context, p Prefs) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.prefs = &p
	m.saves++
	return nil
}

func TestFavorites_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil)

	require.NoError(t, s.AddFavorite(ctx, 5))
	require.NoError(t, s.AddFavorite(ctx, 5))
	require.Equal(t, []int{5}, s.Favorites())

	require.NoError(t, s.RemoveFavorite(ctx, 5))
	require.NoError(t, s.RemoveFavorite(ctx, 5))
	require.Empty(t, s.Favorites())
}

func TestHistory_CapAndRecency(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil)
	for id := 1; id <= 105; id++ {
		require.NoError(t, s.AddHistory(ctx, id))
	}

	h := s.History()
	require.Len(t, h, HistoryLimit)
	for i, id := range h {
		require.Equal(t, 105-i, id)
	}

	require.NoError(t, s.AddHistory(ctx, 50))
	h = s.History()
	require.Len(t, h, HistoryLimit)
	require.Equal(t, 50, h[0])
	require.Equal(t, 105, h[1])
	count := 0
	for _, id := range h {
		if id == 50 {
			count++
		}
	}
	require.Equal(t, 1, count)

	require.NoError(t, s.ClearHistory(ctx))
	require.Empty(t, s.History())
}

func TestBookmarks_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil)
	require.NoError(t, s.AddBookmark(ctx, 1))
	require.NoError(t, s.AddBookmark(ctx, 2))
	require.NoError(t, s.AddBookmark(ctx, 1))
	require.Equal(t, []int{1, 2}, s.Bookmarks())
	require.NoError(t, s.RemoveBookmark(ctx, 3))
	require.NoError(t, s.RemoveBookmark(ctx, 1))
	require.Equal(t, []int{2}, s.Bookmarks())
}

func TestSetNews_ReplacesList(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil)
	require.NoError(t, s.Dispatch(ctx, SetNews{Items: []model.NewsItem{{ID: 1}, {ID: 2}}}))
	require.NoError(t, s.Dispatch(ctx, SetNews{Items: []model.NewsItem{{ID: 7}}}))
	require.Equal(t, []model.NewsItem{{ID: 7}}, s.News())

	require.NoError(t, s.Dispatch(ctx, SetLoading{Loading: true}))
	require.NoError(t, s.Dispatch(ctx, SetError{Message: "boom"}))
	snap := s.Snapshot()
	require.True(t, snap.Loading)
	require.Equal(t, "boom", snap.Error)
}

func TestFetchGenerations(t *testing.T) {
	s := New(nil, nil)
	s.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }

	g1 := s.BeginFetch()
	g2 := s.BeginFetch()
	require.Greater(t, g2, g1)

	require.NoError(t, s.CompleteFetch(g2, []model.NewsItem{{ID: 1, Title: "new"}}, nil))
	require.ErrorIs(t, s.CompleteFetch(g1, []model.NewsItem{{ID: 1, Title: "old"}}, nil), ErrStaleGeneration)
	require.ErrorIs(t, s.FailFetch(g1, errors.New("late")), ErrStaleGeneration)

	snap := s.Snapshot()
	require.Equal(t, "new", snap.News[0].Title)
	require.False(t, snap.Loading)
	require.Empty(t, snap.Error)
	require.Equal(t, 2025, snap.LastUpdated.Year())
}

func TestFailFetch_KeepsPreviousNews(t *testing.T) {
	s := New(nil, nil)
	g := s.BeginFetch()
	require.NoError(t, s.CompleteFetch(g, []model.NewsItem{{ID: 1}}, nil))

	g = s.BeginFetch()
	require.True(t, s.Snapshot().Loading)
	require.NoError(t, s.FailFetch(g, errors.New("upstream down")))

	snap := s.Snapshot()
	require.Len(t, snap.News, 1)
	require.False(t, snap.Loading)
	require.Equal(t, "upstream down", snap.Error)

	g = s.BeginFetch()
	require.NoError(t, s.CompleteFetch(g, nil, nil))
	require.Empty(t, s.Snapshot().Error)
}

func TestDispatch_PersistsPreferences(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{}
	s := New(p, nil)

	require.NoError(t, s.AddFavorite(ctx, 3))
	require.NoError(t, s.AddHistory(ctx, 9))
	require.NoError(t, s.Dispatch(ctx, SetFilter{Filter: Filter{Query: "go"}}))
	require.Equal(t, 2, p.saves)
	require.Equal(t, []int{3}, p.prefs.Favorites)
	require.Equal(t, []int{9}, p.prefs.History)

	settings := s.Settings()
	settings.Theme = ThemeDark
	require.NoError(t, s.Dispatch(ctx, UpdateSettings{Settings: settings}))
	require.Equal(t, ThemeDark, p.prefs.Settings.Theme)

	restored := New(p, nil)
	require.NoError(t, restored.Load(ctx))
	require.Equal(t, []int{3}, restored.Favorites())
	require.Equal(t, []int{9}, restored.History())
	require.Equal(t, ThemeDark, restored.Settings().Theme)
}

func TestDispatch_SaveErrorKeepsChange(t *testing.T) {
	p := &memPersister{err: errors.New("redis down")}
	s := New(p, nil)
	err := s.AddFavorite(context.Background(), 1)
	require.Error(t, err)
	require.Equal(t, []int{1}, s.Favorites())
}

func TestDispatch_InvalidSettingsRejected(t *testing.T) {
	s := New(nil, nil)
	bad := DefaultSettings()
	bad.Theme = "neon"
	require.Error(t, s.Dispatch(context.Background(), UpdateSettings{Settings: bad}))
	require.Equal(t, ThemeSystem, s.Settings().Theme)
}

func TestLoad_SanitizesStoredPrefs(t *testing.T) {
	hist := make([]int, 0, 120)
	for i := 0; i < 120; i++ {
		hist = append(hist, i)
	}
	p := &memPersister{prefs: &Prefs{
		Favorites: []int{1, 1, 2},
		History:   hist,
		Settings:  Settings{Theme: "neon"},
	}}
	s := New(p, nil)
	require.NoError(t, s.Load(context.Background()))
	require.Equal(t, []int{1, 2}, s.Favorites())
	require.Len(t, s.History(), HistoryLimit)
	require.Equal(t, DefaultSettings(), s.Settings())
}

func TestLoad_NoRecordKeepsDefaults(t *testing.T) {
	s := New(&memPersister{}, nil)
	require.NoError(t, s.Load(context.Background()))
	require.Equal(t, DefaultSettings(), s.Settings())
	require.Empty(t, s.Favorites())
}

func TestFiltered_UsesStoredFilter(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil)
	require.NoError(t, s.Dispatch(ctx, SetNews{Items: []model.NewsItem{
		{ID: 1, Title: "Go 1.24", Category: model.CategoryTrendings, Likes: 1},
		{ID: 2, Title: "Rust", Category: model.CategoryTrendings, Likes: 5},
		{ID: 3, Title: "go tools", Category: model.CategoryReddits, Likes: 9},
	}}))
	require.NoError(t, s.Dispatch(ctx, SetFilter{Filter: Filter{Query: "GO", Sort: SortByLikes}}))

	got := s.Filtered()
	require.Len(t, got, 2)
	require.Equal(t, 3, got[0].ID)
	require.Equal(t, 1, got[1].ID)

	require.Error(t, s.Dispatch(ctx, SetFilter{Filter: Filter{Sort: "random"}}))

	require.NoError(t, s.Dispatch(ctx, ResetFilter{}))
	require.Len(t, s.Filtered(), 3)
}

func TestStore_ConcurrentDispatch(t *testing.T) {
	ctx := context.Background()
	s := New(&memPersister{}, nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_ = s.AddFavorite(ctx, id%10)
			_ = s.AddHistory(ctx, id)
		}(i)
	}
	wg.Wait()
	require.Len(t, s.Favorites(), 10)
	require.Len(t, s.History(), 50)
}
