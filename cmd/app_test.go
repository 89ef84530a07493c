package cmd

import (
	"context"
	"testing"
	"time"

	"producthot/internal/config"
	"producthot/internal/state"

	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func loadConfig(t *testing.T, values map[string]any) config.Config {
	t.Helper()
	v := viper.New()
	for k, val := range values {
		v.Set(k, val)
	}
	cfg, err := config.Load(v)
	require.NoError(t, err)
	return cfg
}

func TestNewApp_StoredRefreshIntervalDrivesTicker(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := loadConfig(t, map[string]any{"redis.addr": mr.Addr()})
	require.Zero(t, cfg.Refresh.Interval)

	ctx := context.Background()
	a, err := newApp(ctx, cfg, true)
	require.NoError(t, err)
	defer a.Close()
	require.Equal(t, 5*time.Minute, a.refresher.Period())

	s := a.store.Settings()
	s.RefreshInterval = 30 * time.Minute
	require.NoError(t, a.store.Dispatch(ctx, state.UpdateSettings{Settings: s}))
	require.Equal(t, 30*time.Minute, a.refresher.Period())
}

func TestNewApp_ConfiguredRefreshIntervalOverrides(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := loadConfig(t, map[string]any{"redis.addr": mr.Addr(), "refresh.interval": "2m"})

	ctx := context.Background()
	a, err := newApp(ctx, cfg, true)
	require.NoError(t, err)
	defer a.Close()

	s := a.store.Settings()
	s.RefreshInterval = 30 * time.Minute
	require.NoError(t, a.store.Dispatch(ctx, state.UpdateSettings{Settings: s}))
	require.Equal(t, 2*time.Minute, a.refresher.Period())
}

func TestNewApp_SeedsLanguageWithoutRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	cfg := loadConfig(t, map[string]any{"redis.addr": addr, "app.locale": "en"})

	a, err := newApp(context.Background(), cfg, false)
	require.NoError(t, err)
	defer a.Close()
	require.Nil(t, a.redis)
	require.Equal(t, "en", a.store.Settings().Language)
	require.Error(t, a.requireStore())
}
