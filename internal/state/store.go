// Package state holds the news list, loading flags and user preferences behind
// a single mutation-gated store.
package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"producthot/internal/model"
)

// HistoryLimit caps the read history.
const HistoryLimit = 100

// ErrStaleGeneration is returned when a fetch finishes after a newer one started.
var ErrStaleGeneration = errors.New("state: stale fetch generation")

// Prefs is the persisted part of the state.
type Prefs struct {
	Favorites []int    `json:"favorites"`
	History   []int    `json:"history"`
	Bookmarks []int    `json:"bookmarks"`
	Settings  Settings `json:"settings"`
}

// Persister saves and restores preferences.
type Persister interface {
	LoadPrefs(ctx context.Context) (Prefs, bool, error)
	SavePrefs(ctx context.Context, p Prefs) error
}

// Snapshot is a copy of the store contents.
type Snapshot struct {
	News        []model.NewsItem `json:"news"`
	Channels    []model.Channel  `json:"channels"`
	Loading     bool             `json:"loading"`
	Error       string           `json:"error,omitempty"`
	Favorites   []int            `json:"favorites"`
	History     []int            `json:"history"`
	Bookmarks   []int            `json:"bookmarks"`
	Settings    Settings         `json:"settings"`
	Filter      Filter           `json:"filter"`
	Generation  uint64           `json:"generation"`
	LastUpdated time.Time        `json:"lastUpdated"`
}

func (s Snapshot) prefs() Prefs {
	return Prefs{
		Favorites: slices.Clone(s.Favorites),
		History:   slices.Clone(s.History),
		Bookmarks: slices.Clone(s.Bookmarks),
		Settings:  s.Settings,
	}
}

func (s Snapshot) clone() Snapshot {
	c := s
	c.News = slices.Clone(s.News)
	c.Channels = slices.Clone(s.Channels)
	c.Favorites = slices.Clone(s.Favorites)
	c.History = slices.Clone(s.History)
	c.Bookmarks = slices.Clone(s.Bookmarks)
	return c
}

// Store is safe for concurrent use. All mutations go through Dispatch.
type Store struct {
	mu   sync.RWMutex
	data Snapshot

	saveMu    sync.Mutex // orders persisted writes
	persister Persister
	log       *slog.Logger
	now       func() time.Time
}

// New creates an empty store with default settings. p may be nil.
func New(p Persister, l *slog.Logger) *Store {
	if l == nil {
		l = slog.Default()
	}
	return &Store{
		data: Snapshot{
			News:      []model.NewsItem{},
			Channels:  []model.Channel{},
			Favorites: []int{},
			History:   []int{},
			Bookmarks: []int{},
			Settings:  DefaultSettings(),
		},
		persister: p,
		log:       l,
		now:       time.Now,
	}
}

// Load restores persisted preferences. A missing record keeps the defaults.
func (s *Store) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	p, ok, err := s.persister.LoadPrefs(ctx)
	if err != nil {
		return fmt.Errorf("state: load prefs: %w", err)
	}
	if !ok {
		return nil
	}
	if err := p.Settings.Validate(); err != nil {
		s.log.Warn("state: ignoring invalid stored settings", "error", err)
		p.Settings = DefaultSettings()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Favorites = uniq(p.Favorites)
	s.data.Bookmarks = uniq(p.Bookmarks)
	s.data.History = uniq(p.History)
	if len(s.data.History) > HistoryLimit {
		s.data.History = s.data.History[:HistoryLimit]
	}
	s.data.Settings = p.Settings
	return nil
}

// Dispatch applies a. Preference changes are handed to the persister; a save
// failure is returned but the in-memory change stays.
func (s *Store) Dispatch(ctx context.Context, a Action) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if err := a.apply(&s.data); err != nil {
		s.mu.Unlock()
		return err
	}
	var p *Prefs
	if a.Kind().persisted() && s.persister != nil {
		pp := s.data.prefs()
		p = &pp
	}
	s.mu.Unlock()

	s.log.Debug("state: dispatched", "action", a.Kind())
	if p == nil {
		return nil
	}
	if err := s.persister.SavePrefs(ctx, *p); err != nil {
		return fmt.Errorf("state: save prefs: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.clone()
}

// News returns the current items.
func (s *Store) News() []model.NewsItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.data.News)
}

// Channels returns the current channel buckets.
func (s *Store) Channels() []model.Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.data.Channels)
}

func (s *Store) Favorites() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.data.Favorites)
}

func (s *Store) History() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.data.History)
}

func (s *Store) Bookmarks() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.data.Bookmarks)
}

func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Settings
}

// Filtered applies the stored filter to the current news.
func (s *Store) Filtered() []model.NewsItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Filter.Apply(s.data.News)
}

// BeginFetch marks a fetch in flight and returns its generation.
func (s *Store) BeginFetch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Generation++
	s.data.Loading = true
	return s.data.Generation
}

// CompleteFetch replaces news and channels with the result of fetch gen.
// Results of superseded fetches are dropped with ErrStaleGeneration.
func (s *Store) CompleteFetch(gen uint64, items []model.NewsItem, chs []model.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.data.Generation {
		return ErrStaleGeneration
	}
	s.data.News = slices.Clone(items)
	s.data.Channels = slices.Clone(chs)
	s.data.Loading = false
	s.data.Error = ""
	s.data.LastUpdated = s.now()
	return nil
}

// FailFetch records the error of fetch gen and keeps the previously loaded news.
func (s *Store) FailFetch(gen uint64, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.data.Generation {
		return ErrStaleGeneration
	}
	s.data.Loading = false
	if err != nil {
		s.data.Error = err.Error()
	}
	return nil
}

func (s *Store) AddFavorite(ctx context.Context, id int) error {
	return s.Dispatch(ctx, AddFavorite{ID: id})
}

func (s *Store) RemoveFavorite(ctx context.Context, id int) error {
	return s.Dispatch(ctx, RemoveFavorite{ID: id})
}

func (s *Store) AddHistory(ctx context.Context, id int) error {
	return s.Dispatch(ctx, AddHistory{ID: id})
}

func (s *Store) ClearHistory(ctx context.Context) error {
	return s.Dispatch(ctx, ClearHistory{})
}

func (s *Store) AddBookmark(ctx context.Context, id int) error {
	return s.Dispatch(ctx, AddBookmark{ID: id})
}

func (s *Store) RemoveBookmark(ctx context.Context, id int) error {
	return s.Dispatch(ctx, RemoveBookmark{ID: id})
}

func uniq(ids []int) []int {
	out := make([]int, 0, len(ids))
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
