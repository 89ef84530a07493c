package cmd

import (
	"encoding/json"
	"fmt"
	"net/url"

	"producthot/internal/debugapi"

	"github.com/spf13/cobra"
)

var (
	debugFollow bool
	debugHops   int
	debugJSON   bool
)

// debugAPICmd probes endpoints and reports their redirect chains.
var debugAPICmd = &cobra.Command{
	Use:   "debug-api [url...]",
	Short: "Trace API endpoints and their redirects",
	Long:  "Probes the given URLs, or the project endpoints under api.base_url, and prints a Markdown report.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		var eps []debugapi.Endpoint
		if len(args) == 0 {
			eps = debugapi.ProjectEndpoints(cfg.API.BaseURL)
		}
		for _, raw := range args {
			u, err := url.Parse(raw)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("debug-api: not an absolute URL: %q", raw)
			}
			eps = append(eps, debugapi.Endpoint{URL: raw})
		}

		results := debugapi.TraceMany(cmd.Context(), eps, debugapi.Options{
			FollowRedirects: debugFollow,
			MaxHops:         debugHops,
			Timeout:         cfg.API.Timeout,
		})
		if debugJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}
		fmt.Fprint(cmd.OutOrStdout(), debugapi.Report(results))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(debugAPICmd)
	debugAPICmd.Flags().BoolVar(&debugFollow, "follow", false, "follow redirects")
	debugAPICmd.Flags().IntVar(&debugHops, "max-hops", 5, "redirects followed with --follow")
	debugAPICmd.Flags().BoolVar(&debugJSON, "json", false, "print results as JSON")
}
