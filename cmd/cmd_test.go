package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"producthot/internal/model"

	"github.com/stretchr/testify/require"
)

type fakeAnalyst struct {
	summarized []string
	fail       string
}

func (f *fakeAnalyst) AnalyzeChannels(context.Context, []model.Channel, string) (string, error) {
	return "themes", nil
}

func (f *fakeAnalyst) SummarizeItem(_ context.Context, it model.NewsItem, lang string) (string, error) {
	if it.Title == f.fail {
		return "", errors.New("rate limited")
	}
	f.summarized = append(f.summarized, it.Title)
	return lang + ": " + it.Title, nil
}

func TestParseIDArgs(t *testing.T) {
	ids, err := parseIDArgs([]string{"3", " 7 "})
	require.NoError(t, err)
	require.Equal(t, []int{3, 7}, ids)

	for _, bad := range []string{"0", "-1", "x"} {
		_, err := parseIDArgs([]string{bad})
		require.Error(t, err, bad)
	}
}

func TestSummarizeArticles(t *testing.T) {
	chs := []model.Channel{{
		ID: model.CategoryTrendings,
		Articles: []model.NewsItem{
			{Title: "a"},
			{Title: "b", Summary: "kept"},
			{Title: "c"},
			{Title: "d"},
		},
	}}
	an := &fakeAnalyst{fail: "c"}

	out := summarizeArticles(context.Background(), an, chs, "en", 3)
	require.Equal(t, []string{"a"}, an.summarized)
	require.Equal(t, "en: a", out[0].Articles[0].Summary)
	require.Equal(t, "kept", out[0].Articles[1].Summary)
	require.Empty(t, out[0].Articles[2].Summary)
	require.Empty(t, out[0].Articles[3].Summary)
	require.Empty(t, chs[0].Articles[0].Summary, "input must not be modified")
}

func TestPrintChannels(t *testing.T) {
	var buf bytes.Buffer
	printChannels(&buf, []model.Channel{{
		Name:       "趋势热点",
		UpdateTime: "暂无更新",
		Articles:   []model.NewsItem{{ID: 4, Title: "ollama", Link: "https://github.com/ollama/ollama", Likes: 12}},
	}}, "mock data")

	out := buf.String()
	require.Contains(t, out, "(mock data)")
	require.Contains(t, out, "== 趋势热点 [暂无更新] ==")
	require.Contains(t, out, "ollama")
	require.Contains(t, out, "▲12")
	require.Contains(t, out, "https://github.com/ollama/ollama")
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", truncate(" abc ", 5))
	require.Equal(t, "新产…", truncate("新产品发布", 3))
}
