package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"producthot/internal/ai"
	"producthot/internal/config"
	"producthot/internal/digest"
	"producthot/internal/model"

	"github.com/spf13/cobra"
)

var (
	digestOut  string
	digestAI   bool
	digestTopN int
	digestHTML bool
)

// digestCmd writes the current channels as a Markdown digest.
var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Fetch news and write a Markdown digest",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		defer cancel()

		a, err := newApp(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.refresher.Refresh(ctx, false); err != nil {
			return err
		}
		chs := a.store.Channels()
		lang := a.store.Settings().Language
		now := time.Now().In(a.loc)

		var summary string
		if digestAI {
			analyst, err := newAnalyst(cfg)
			if err != nil {
				return err
			}
			chs = summarizeArticles(ctx, analyst, chs, lang, digestTopN)
			if s, err := analyst.AnalyzeChannels(ctx, chs, lang); err != nil {
				slog.Warn("digest: channel analysis failed", "error", err)
			} else {
				summary = s
			}
		}

		d := digest.Build(chs, digest.Options{
			Title:   cfg.Digest.Title,
			Preface: cfg.Digest.Preface,
			Summary: summary,
			Locale:  lang,
			TopN:    digestTopN,
			Now:     now,
		})
		dir := cfg.Digest.OutputDir
		if digestOut != "" {
			dir = digestOut
		}
		path, err := digest.WriteFile(dir, d)
		if err != nil {
			return fmt.Errorf("digest: write: %w", err)
		}
		slog.Info("digest: generated", "file", path, "sections", len(d.Sections))
		fmt.Fprintf(cmd.OutOrStdout(), "Generated: %s\n", path)
		if digestHTML {
			page, err := digest.RenderHTML(d)
			if err != nil {
				return err
			}
			htmlPath := strings.TrimSuffix(path, ".md") + ".html"
			if err := os.WriteFile(htmlPath, []byte(page), 0o644); err != nil {
				return fmt.Errorf("digest: write: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated: %s\n", htmlPath)
		}
		return nil
	},
}

// digestInspectCmd prints the frontmatter of a digest file.
var digestInspectCmd = &cobra.Command{
	Use:   "inspect <markdown_path>",
	Short: "Parse a digest file and print its frontmatter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := digest.ParseFile(args[0])
		if err != nil {
			return err
		}
		meta := doc.Meta
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "frontmatter keys: %s\n", strings.Join(doc.Keys, ", "))
		fmt.Fprintf(w, "title: %s\nslug: %s\ndatetime: %s\n", meta.Title, meta.Slug, meta.Datetime)
		fmt.Fprintf(w, "body bytes: %d\n", len(doc.Body))
		return nil
	},
}

func newAnalyst(cfg config.Config) (ai.Analyst, error) {
	c, err := ai.NewOpenAI(ai.Config{APIKey: cfg.OpenAI.APIKey, Model: cfg.OpenAI.Model, BaseURL: cfg.OpenAI.BaseURL})
	if errors.Is(err, ai.ErrDisabled) {
		return nil, fmt.Errorf("%w: set openai.api_key or PRODUCTHOT_OPENAI_API_KEY", err)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// summarizeArticles fills empty summaries of the first topN articles per channel.
// Failures keep the article as is.
func summarizeArticles(ctx context.Context, an ai.Analyst, chs []model.Channel, lang string, topN int) []model.Channel {
	out := make([]model.Channel, len(chs))
	for i, ch := range chs {
		ch.Articles = slices.Clone(ch.Articles)
		for j := range ch.Articles {
			if topN > 0 && j >= topN {
				break
			}
			if strings.TrimSpace(ch.Articles[j].Summary) != "" {
				continue
			}
			s, err := an.SummarizeItem(ctx, ch.Articles[j], lang)
			if err != nil {
				slog.Warn("digest: summarize failed", "title", ch.Articles[j].Title, "error", err)
				continue
			}
			ch.Articles[j].Summary = s
		}
		out[i] = ch
	}
	return out
}

func init() {
	digestCmd.AddCommand(digestInspectCmd)
	rootCmd.AddCommand(digestCmd)
	digestCmd.Flags().StringVarP(&digestOut, "out", "o", "", "output directory (default: digest.output_dir)")
	digestCmd.Flags().BoolVar(&digestAI, "ai", false, "add an AI trend summary and fill missing item summaries")
	digestCmd.Flags().BoolVar(&digestHTML, "html", false, "also write an HTML rendering next to the Markdown file")
	digestCmd.Flags().IntVar(&digestTopN, "top", 10, "items per channel; 0 keeps all")
}
