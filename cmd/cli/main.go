package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fxledger-cli",
		Short:         "FX ledger CLI tool",
		Long:          `A command line interface for interacting with the fxledger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the fxledger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(balanceCmd(), entriesCmd(), ratesCmd(), overrideCmd(), ledgerCmd())
	return rootCmd
}

func balanceCmd() *cobra.Command {
	var start, end, currency string

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show opening, net and final balance for a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			var report map[string]any
			if err := apiCall(http.MethodGet, "/api/v1/balance", query("start", start, "end", end, "currency", currency), nil, &report); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Range:    %v .. %v (%v)\n", report["range_start"], report["range_end"], report["display_currency"])
			fmt.Fprintf(w, "Opening:  %v\n", report["opening_balance"])
			fmt.Fprintf(w, "Net:      %v\n", report["range_net"])
			fmt.Fprintf(w, "Final:    %v\n", report["final_balance"])
			if stale, _ := report["rates_stale"].(bool); stale {
				fmt.Fprintln(w, "Warning: live rates unavailable, default rates were used")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Range end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&currency, "currency", "", "Display currency")
	return cmd
}

func entriesCmd() *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List normalized ledger entries in a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Entries []struct {
					ID       string `json:"id"`
					FlowSign string `json:"flow_sign"`
					Amount   string `json:"amount"`
					Currency string `json:"currency"`
					Date     string `json:"date"`
					Origin   string `json:"origin"`
				} `json:"entries"`
			}
			if err := apiCall(http.MethodGet, "/api/v1/entries", query("start", start, "end", end), nil, &resp); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tID\tFLOW\tAMOUNT\tCURRENCY\tORIGIN")
			for _, e := range resp.Entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", e.Date, truncate(e.ID, 24), e.FlowSign, e.Amount, e.Currency, e.Origin)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Range end (YYYY-MM-DD)")
	return cmd
}

func ratesCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "rates [currency]",
		Short: "Show resolved exchange rates for a date",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/rates"
			if len(args) == 1 {
				path += "/" + url.PathEscape(strings.ToUpper(args[0]))
			}

			var resp any
			if err := apiCall(http.MethodGet, path, query("date", date), nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch live rates now",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp any
			if err := apiCall(http.MethodPost, "/api/v1/rates/refresh", nil, nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Date (YYYY-MM-DD), defaults to today")
	cmd.AddCommand(refreshCmd)
	return cmd
}

func overrideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Manage manual rate overrides",
	}

	setCmd := &cobra.Command{
		Use:   "set <date> <currency> <rate|null>",
		Short: "Set a manual rate, or delete it with null",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"rate": nil}
			if !strings.EqualFold(args[2], "null") {
				body["rate"] = args[2]
			}

			var resp struct {
				Applied bool `json:"applied"`
			}
			path := "/api/v1/overrides/" + url.PathEscape(args[0]) + "/" + url.PathEscape(strings.ToUpper(args[1]))
			if err := apiCall(http.MethodPut, path, nil, body, &resp); err != nil {
				return err
			}
			return reportApplied(cmd.OutOrStdout(), resp.Applied)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear <date>",
		Short: "Remove every override on a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Applied bool `json:"applied"`
			}
			if err := apiCall(http.MethodDelete, "/api/v1/overrides/"+url.PathEscape(args[0]), nil, nil, &resp); err != nil {
				return err
			}
			return reportApplied(cmd.OutOrStdout(), resp.Applied)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List dates with overrides, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp any
			if err := apiCall(http.MethodGet, "/api/v1/overrides", nil, nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.AddCommand(setCmd, clearCmd, listCmd)
	return cmd
}

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	var a, b, c, currency string
	continuityCmd := &cobra.Command{
		Use:   "continuity",
		Short: "Check that adjoining windows [a,b] and [b+1,c] chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result map[string]any
			err := apiCall(http.MethodGet, "/api/v1/ledger/continuity", query("a", a, "b", b, "c", c, "currency", currency), nil, &result)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Continuity check PASSED\n")
			fmt.Fprintf(cmd.OutOrStdout(), "Status: %v\n", result["status"])
			return nil
		},
	}

	continuityCmd.Flags().StringVar(&a, "a", "", "First window start (YYYY-MM-DD)")
	continuityCmd.Flags().StringVar(&b, "b", "", "First window end (YYYY-MM-DD)")
	continuityCmd.Flags().StringVar(&c, "c", "", "Second window end (YYYY-MM-DD)")
	continuityCmd.Flags().StringVar(&currency, "currency", "", "Display currency")
	for _, name := range []string{"a", "b", "c"} {
		_ = continuityCmd.MarkFlagRequired(name)
	}

	cmd.AddCommand(continuityCmd)
	return cmd
}

// apiCall sends a request and decodes a 2xx JSON response into out.
func apiCall(method, path string, q url.Values, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	target := strings.TrimRight(baseURL, "/") + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequest(method, target, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("request FAILED (Status: %d)\nResponse: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// query builds url.Values from key/value pairs, skipping empty values.
func query(kv ...string) url.Values {
	q := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			q.Set(kv[i], kv[i+1])
		}
	}
	return q
}

func reportApplied(w io.Writer, applied bool) error {
	if applied {
		fmt.Fprintln(w, "applied")
		return nil
	}
	fmt.Fprintln(w, "not applied (locked, invalid, or nothing to change)")
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
