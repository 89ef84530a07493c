package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"producthot/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// Analyst produces trend commentary over the current channels.
type Analyst interface {
	// AnalyzeChannels returns a short analysis of what the channels have in common, in the given language.
	AnalyzeChannels(ctx context.Context, chs []model.Channel, language string) (string, error)
	// SummarizeItem writes a one or two sentence blurb for a single item.
	SummarizeItem(ctx context.Context, item model.NewsItem, language string) (string, error)
}

// ErrDisabled is returned by New when no API key is configured.
var ErrDisabled = errors.New("ai: no api key configured")

// OpenAIClient implements Analyst using the Chat Completions API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string // optional
}

func NewOpenAI(cfg Config) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrDisabled
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("ai: model must be specified")
	}
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cc), model: cfg.Model}, nil
}

const perChannelLimit = 8

func (o *OpenAIClient) AnalyzeChannels(ctx context.Context, chs []model.Channel, language string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	user := channelDigest(chs)
	if user == "" {
		return "", nil
	}
	sys := fmt.Sprintf(`
		You are a product analyst. Write in %s.
		Given today's new products, community discussions and trending repositories,
		return 3 ~ 5 sentences naming the strongest themes and one product opportunity they suggest.
		Plain text, no links, no lists.
		`, languageName(language))
	out, err := o.create(ctx, sys, user)
	if err != nil {
		slog.Error("openai: analyze channels error", "err", err)
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (o *OpenAIClient) SummarizeItem(ctx context.Context, item model.NewsItem, language string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()
	content := strings.TrimSpace(item.Summary)
	if content == "" {
		content = item.Title
	}
	if r := []rune(content); len(r) > 1000 {
		content = string(r[:1000])
	}
	sys := fmt.Sprintf("Summarize the text in %s in 1-2 sentences (20-60 words). Plain text only.", languageName(language))
	out, err := o.create(ctx, sys, fmt.Sprintf("Title: %s\nContent: %s", item.Title, content))
	if err != nil {
		slog.Error("openai: summarize item error", "err", err)
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (o *OpenAIClient) create(ctx context.Context, system, user string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.4,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// channelDigest lists the top items of every non-empty channel, one per line.
func channelDigest(chs []model.Channel) string {
	b := &strings.Builder{}
	for _, ch := range chs {
		if len(ch.Articles) == 0 {
			continue
		}
		fmt.Fprintf(b, "[%s]\n", ch.ID)
		for i, a := range ch.Articles {
			if i >= perChannelLimit {
				break
			}
			src := ""
			if len(a.Tags) > 0 {
				src = a.Tags[0]
			}
			fmt.Fprintf(b, "- %s (%s, %d upvotes)\n", a.Title, src, a.Likes)
		}
	}
	return b.String()
}

func languageName(lang string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "zh":
		return "Simplified Chinese"
	case "", "en":
		return "English"
	default:
		return lang
	}
}
