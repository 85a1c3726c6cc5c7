// poolctl is the maintenance CLI for the prize pool engine: scheduled jobs
// and operators use it to backfill pools, check supply, and invalidate stale
// offers through the HTTP API.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var apiBase string

func main() {
	root := &cobra.Command{
		Use:           "poolctl",
		Short:         "Maintenance commands for the prize pool engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", defaultAPIBase(), "base URL of the engine API")

	root.AddCommand(
		availableCmd(),
		previewCmd(),
		ensureCmd(),
		regenerateCmd(),
		staleCmd(),
		vipCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func defaultAPIBase() string {
	if v := strings.TrimSpace(os.Getenv("POOLCTL_API")); v != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://localhost:8080"
}

func availableCmd() *cobra.Command {
	var bundleSize int
	cmd := &cobra.Command{
		Use:   "available <game-id>",
		Short: "Show one available pool for a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := fmt.Sprintf("/v1/games/%s/pools/available?bundle_size=%d", url.PathEscape(args[0]), bundleSize)
			return get(path)
		},
	}
	cmd.Flags().IntVar(&bundleSize, "bundle-size", 1, "bundle size")
	return cmd
}

func previewCmd() *cobra.Command {
	var bundleSize int
	var marginPct float64
	cmd := &cobra.Command{
		Use:   "preview <game-id>",
		Short: "Preview the bundle price for a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := fmt.Sprintf("/v1/games/%s/pricing/preview?bundle_size=%d", url.PathEscape(args[0]), bundleSize)
			if marginPct > 0 {
				path += "&margin_pct=" + strconv.FormatFloat(marginPct, 'f', -1, 64)
			}
			return get(path)
		},
	}
	cmd.Flags().IntVar(&bundleSize, "bundle-size", 1, "bundle size")
	cmd.Flags().Float64Var(&marginPct, "margin", 0, "margin override (0 uses the game's margin)")
	return cmd
}

func ensureCmd() *cobra.Command {
	var bundleSize, floor int
	cmd := &cobra.Command{
		Use:   "ensure <game-id>",
		Short: "Top pool supply up to the floor",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := fmt.Sprintf("/v1/games/%s/supply/ensure", url.PathEscape(args[0]))
			return post(path, map[string]any{"bundle_size": bundleSize, "floor": floor})
		},
	}
	cmd.Flags().IntVar(&bundleSize, "bundle-size", 1, "bundle size")
	cmd.Flags().IntVar(&floor, "floor", 5, "minimum available pools")
	return cmd
}

func regenerateCmd() *cobra.Command {
	var bundleSize, count int
	cmd := &cobra.Command{
		Use:   "regenerate <game-id>",
		Short: "Generate pools for a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := fmt.Sprintf("/v1/games/%s/pools/regenerate", url.PathEscape(args[0]))
			return post(path, map[string]any{"bundle_size": bundleSize, "count": count})
		},
	}
	cmd.Flags().IntVar(&bundleSize, "bundle-size", 1, "bundle size")
	cmd.Flags().IntVar(&count, "count", 1, "pools to generate")
	return cmd
}

func staleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stale <game-id>",
		Short: "Mark every available pool for a game stale",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := fmt.Sprintf("/v1/games/%s/pools/stale", url.PathEscape(args[0]))
			return post(path, map[string]any{})
		},
	}
}

func vipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vip <game-id>",
		Short: "Show the VIP promotion chains for a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := fmt.Sprintf("/v1/games/%s/vip/slots", url.PathEscape(args[0]))
			return get(path)
		},
	}
}

var httpClient = &http.Client{Timeout: 30 * time.Second}

func get(path string) error {
	resp, err := httpClient.Get(apiBase + path)
	if err != nil {
		return err
	}
	return printResponse(resp)
}

func post(path string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := httpClient.Post(apiBase+path, "application/json", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, raw, "", "  ") == nil {
		fmt.Println(pretty.String())
	} else {
		fmt.Println(string(raw))
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("api returned %s", resp.Status)
	}
	return nil
}
