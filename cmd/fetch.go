package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"producthot/internal/channels"
	"producthot/internal/model"
	"producthot/internal/newsapi"
	"producthot/internal/normalize"

	"github.com/spf13/cobra"
)

var (
	fetchLang    string
	fetchJSON    bool
	fetchRefresh bool
)

// fetchCmd fetches the news once and prints the channels.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch news once and print it by channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		a, err := newApp(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		lang := fetchLang
		if lang == "" {
			lang = a.store.Settings().Language
		}
		fetch := a.news.GetNews
		if fetchRefresh {
			fetch = a.news.Refresh
		}
		res, err := fetch(ctx, lang)
		if err != nil {
			return err
		}
		lang, _ = newsapi.NormalizeLanguage(lang)

		items := normalize.Transform(res.Data, normalize.Options{
			Locale:          lang,
			Location:        a.loc,
			SynthesizeViews: cfg.Features.SynthesizeViews,
		})
		chs := channels.Partition(items, res.Data, channels.Options{Locale: lang, Location: a.loc})

		if fetchJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"success":  res.Success,
				"message":  res.Message,
				"channels": chs,
			})
		}
		printChannels(cmd.OutOrStdout(), chs, res.Message)
		return nil
	},
}

func printChannels(w io.Writer, chs []model.Channel, message string) {
	fmt.Fprintf(w, "(%s)\n", message)
	for _, ch := range chs {
		fmt.Fprintf(w, "\n== %s [%s] ==\n", ch.Name, ch.UpdateTime)
		for _, it := range ch.Articles {
			fmt.Fprintf(w, "%4d  %-60s ▲%d\n", it.ID, truncate(it.Title, 60), it.Likes)
			if it.Link != "" {
				fmt.Fprintf(w, "      %s\n", it.Link)
			}
		}
	}
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringVarP(&fetchLang, "lang", "l", "", "language: zh or en (default: stored setting)")
	fetchCmd.Flags().BoolVar(&fetchJSON, "json", false, "print channels as JSON")
	fetchCmd.Flags().BoolVar(&fetchRefresh, "refresh", false, "bypass the response cache")
}
