package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"producthot/internal/model"
	"producthot/internal/state"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists preferences, the auth token and cached news responses.
// Preference keys are namespaced by profile.
type RedisStore struct {
	rdb     *redis.Client
	prefix  string
	profile string
}

func NewRedisStore(rdb *redis.Client, prefix, profile string) *RedisStore {
	if prefix == "" {
		prefix = "producthot"
	}
	if profile == "" {
		profile = "default"
	}
	return &RedisStore{rdb: rdb, prefix: prefix, profile: profile}
}

func (s *RedisStore) profileKey(name string) string {
	return fmt.Sprintf("%s:profile:%s:%s", s.prefix, s.profile, name)
}

func (s *RedisStore) favoritesKey() string { return s.profileKey("favorites") }
func (s *RedisStore) historyKey() string   { return s.profileKey("history") }
func (s *RedisStore) bookmarksKey() string { return s.profileKey("bookmarks") }
func (s *RedisStore) settingsKey() string  { return s.profileKey("settings") }
func (s *RedisStore) tokenKey() string     { return s.profileKey("token") }

func (s *RedisStore) newsKey(lang string) string {
	return fmt.Sprintf("%s:cache:news:%s", s.prefix, lang)
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// SavePrefs replaces the stored preferences in one transaction.
func (s *RedisStore) SavePrefs(ctx context.Context, p state.Prefs) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, ids := range map[string][]int{
			s.favoritesKey(): p.Favorites,
			s.historyKey():   p.History,
			s.bookmarksKey(): p.Bookmarks,
		} {
			pipe.Del(ctx, key)
			if len(ids) > 0 {
				vals := make([]any, len(ids))
				for i, id := range ids {
					vals[i] = id
				}
				pipe.RPush(ctx, key, vals...)
			}
		}
		pipe.HSet(ctx, s.settingsKey(), map[string]any{
			"theme":            string(p.Settings.Theme),
			"language":         p.Settings.Language,
			"notifications":    strconv.FormatBool(p.Settings.Notifications),
			"auto_refresh":     strconv.FormatBool(p.Settings.AutoRefresh),
			"refresh_interval": p.Settings.RefreshInterval.String(),
		})
		return nil
	})
	return err
}

// LoadPrefs reads the stored preferences. ok is false when nothing was saved yet.
func (s *RedisStore) LoadPrefs(ctx context.Context) (state.Prefs, bool, error) {
	var (
		fav, hist, book *redis.StringSliceCmd
		settings        *redis.MapStringStringCmd
	)
	_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		fav = pipe.LRange(ctx, s.favoritesKey(), 0, -1)
		hist = pipe.LRange(ctx, s.historyKey(), 0, -1)
		book = pipe.LRange(ctx, s.bookmarksKey(), 0, -1)
		settings = pipe.HGetAll(ctx, s.settingsKey())
		return nil
	})
	if err != nil {
		return state.Prefs{}, false, err
	}

	var p state.Prefs
	if p.Favorites, err = parseIDs(fav.Val()); err != nil {
		return state.Prefs{}, false, err
	}
	if p.History, err = parseIDs(hist.Val()); err != nil {
		return state.Prefs{}, false, err
	}
	if p.Bookmarks, err = parseIDs(book.Val()); err != nil {
		return state.Prefs{}, false, err
	}

	p.Settings = state.DefaultSettings()
	for k, v := range settings.Val() {
		if err := p.Settings.Set(k, v); err != nil {
			slog.Warn("storage: ignoring stored setting", "key", k, "value", v, "error", err)
		}
	}

	ok := len(settings.Val()) > 0 || len(p.Favorites) > 0 || len(p.History) > 0 || len(p.Bookmarks) > 0
	return p, ok, nil
}

func parseIDs(vals []string) ([]int, error) {
	out := make([]int, 0, len(vals))
	for _, v := range vals {
		id, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("storage: bad id %q: %w", v, err)
		}
		out = append(out, id)
	}
	return out, nil
}

// Token returns the stored auth token, or "" when none is set.
func (s *RedisStore) Token(ctx context.Context) (string, error) {
	tok, err := s.rdb.Get(ctx, s.tokenKey()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return tok, err
}

// SetToken stores the auth token. A non-positive ttl keeps it until cleared.
func (s *RedisStore) SetToken(ctx context.Context, token string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return s.rdb.Set(ctx, s.tokenKey(), token, ttl).Err()
}

func (s *RedisStore) ClearToken(ctx context.Context) error {
	return s.rdb.Del(ctx, s.tokenKey()).Err()
}

// CachedNews returns the cached response for lang.
func (s *RedisStore) CachedNews(ctx context.Context, lang string) (model.NewsResponse, bool, error) {
	b, err := s.rdb.Get(ctx, s.newsKey(lang)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.NewsResponse{}, false, nil
	}
	if err != nil {
		return model.NewsResponse{}, false, err
	}
	var resp model.NewsResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		return model.NewsResponse{}, false, err
	}
	resp.EnsureCategories()
	return resp, true, nil
}

// CacheNews stores resp for lang, expiring after ttl.
func (s *RedisStore) CacheNews(ctx context.Context, lang string, resp model.NewsResponse, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.newsKey(lang), b, ttl).Err()
}

// ClearNewsCache removes cached responses for all languages.
func (s *RedisStore) ClearNewsCache(ctx context.Context) error {
	keys, err := s.rdb.Keys(ctx, s.newsKey("*")).Result()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}
