package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"producthot/internal/model"

	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func fakeOpenAI(t *testing.T, reply string, got *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": reply}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewOpenAI_Disabled(t *testing.T) {
	_, err := NewOpenAI(Config{})
	require.ErrorIs(t, err, ErrDisabled)

	_, err = NewOpenAI(Config{APIKey: "k"})
	require.Error(t, err)
}

func TestAnalyzeChannels(t *testing.T) {
	var req chatRequest
	srv := fakeOpenAI(t, "  Agents are eating SaaS.  ", &req)

	c, err := NewOpenAI(Config{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	chs := []model.Channel{
		{ID: model.CategoryNewProducts, Articles: []model.NewsItem{{Title: "Barrier", Likes: 347, Tags: []string{"Product Hunt"}}}},
		{ID: model.CategoryReddits},
		{ID: model.CategoryTrendings, Articles: []model.NewsItem{{Title: "n8n-io/n8n", Likes: 695, Tags: []string{"Github Trending"}}}},
	}
	out, err := c.AnalyzeChannels(context.Background(), chs, "zh")
	require.NoError(t, err)
	require.Equal(t, "Agents are eating SaaS.", out)

	require.Equal(t, "gpt-4o-mini", req.Model)
	require.Len(t, req.Messages, 2)
	require.Contains(t, req.Messages[0].Content, "Simplified Chinese")
	require.Contains(t, req.Messages[1].Content, "- Barrier (Product Hunt, 347 upvotes)")
	require.NotContains(t, req.Messages[1].Content, "[reddits]")
}

func TestAnalyzeChannels_NothingToAnalyze(t *testing.T) {
	c, err := NewOpenAI(Config{APIKey: "sk-test", Model: "m", BaseURL: "http://unused.invalid/v1"})
	require.NoError(t, err)
	out, err := c.AnalyzeChannels(context.Background(), []model.Channel{{ID: model.CategoryReddits}}, "en")
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestSummarizeItem(t *testing.T) {
	var req chatRequest
	srv := fakeOpenAI(t, "A focus app.", &req)
	c, err := NewOpenAI(Config{APIKey: "sk-test", Model: "m", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	out, err := c.SummarizeItem(context.Background(), model.NewsItem{Title: "Barrier", Summary: strings.Repeat("x", 2000)}, "")
	require.NoError(t, err)
	require.Equal(t, "A focus app.", out)
	require.Contains(t, req.Messages[0].Content, "English")
	require.Less(t, len(req.Messages[1].Content), 1100)
}
