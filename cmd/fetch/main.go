package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"marketdata/internal/config"
	"marketdata/internal/provider"
	"marketdata/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	timeout    int
	logLevel   string
}

func newRootCmd(out io.Writer) *cobra.Command {
	var opts rootOptions
	root := &cobra.Command{
		Use:          "fetch",
		Short:        "Query market data providers from the command line",
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.yaml (optional)")
	root.PersistentFlags().IntVar(&opts.timeout, "timeout", 0, "request timeout seconds (overrides config)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides config)")

	root.AddCommand(priceCmd(&opts))
	root.AddCommand(batchCmd(&opts))
	root.AddCommand(statsCmd(&opts))
	root.AddCommand(statusCmd(&opts))
	return root
}

func (o *rootOptions) service() (*service.Service, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if o.timeout > 0 {
		cfg.Server.RequestTimeoutSec = o.timeout
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	cfg.Log.Format = "console"
	logger := cfg.Log.NewLogger(os.Stderr)
	return service.New(cfg, service.Options{Logger: &logger})
}

func priceCmd(opts *rootOptions) *cobra.Command {
	var noCache bool
	cmd := &cobra.Command{
		Use:   "price <stocks|crypto> <SYMBOL>",
		Short: "Fetch one quote through the fallback chain",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			class, err := provider.ParseAssetClass(args[0])
			if err != nil {
				return err
			}
			svc, err := opts.service()
			if err != nil {
				return err
			}
			defer svc.Close(context.Background())

			symbol := strings.ToUpper(args[1])
			var q *provider.Quote
			switch {
			case noCache && class == provider.Stocks:
				q, err = svc.GetStockPrice(cmd.Context(), symbol)
			case noCache && class == provider.Crypto:
				q, err = svc.GetCryptoPrice(cmd.Context(), symbol)
			default:
				q, err = svc.GetPriceWithCache(cmd.Context(), symbol, class)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), q)
		},
	}
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the quote cache")
	return cmd
}

func batchCmd(opts *rootOptions) *cobra.Command {
	var stocks, crypto []string
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Fetch many quotes concurrently; failed symbols are omitted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(stocks)+len(crypto) == 0 {
				return fmt.Errorf("at least one of --stocks or --crypto is required")
			}
			svc, err := opts.service()
			if err != nil {
				return err
			}
			defer svc.Close(context.Background())
			return printJSON(cmd.OutOrStdout(), svc.BatchFetchPrices(cmd.Context(), upper(stocks), upper(crypto)))
		},
	}
	cmd.Flags().StringSliceVar(&stocks, "stocks", nil, "comma-separated stock symbols")
	cmd.Flags().StringSliceVar(&crypto, "crypto", nil, "comma-separated crypto symbols")
	return cmd
}

func statsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print per-key usage with masked keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service()
			if err != nil {
				return err
			}
			defer svc.Close(context.Background())
			return printJSON(cmd.OutOrStdout(), svc.GetAPIStats())
		},
	}
}

func statusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print provider availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service()
			if err != nil {
				return err
			}
			defer svc.Close(context.Background())
			return printJSON(cmd.OutOrStdout(), svc.GetPublicAPIStatus())
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func upper(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}
