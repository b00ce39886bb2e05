package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"blinkpay/pkg/pricing"
	"blinkpay/pkg/types"
)

var watchPrices bool

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Show fiat prices of the configured assets",
	Long: `Show the fiat price of every configured asset. With --watch the prices are
refreshed every prices.interval until interrupted.

Examples:
  blinkpay prices
  blinkpay prices --watch`,
	Run: runPrices,
}

func init() {
	rootCmd.AddCommand(pricesCmd)

	pricesCmd.Flags().BoolVarP(&watchPrices, "watch", "w", false, "Keep refreshing prices")
}

func runPrices(cmd *cobra.Command, args []string) {
	a, err := newApp(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var fetcher *pricing.Fetcher
	fetcher = pricing.NewFetcher(a.prices, a.registry.Symbols(),
		pricing.WithInterval(a.cfg.Prices.Interval),
		pricing.WithNotifier(a.notifier),
		pricing.WithLogger(a.log.Named("pricing")),
		pricing.WithOnUpdate(func() {
			if watchPrices {
				displayPrices(a, fetcher.Quotes())
			}
		}),
	)
	a.fetcher = fetcher

	if watchPrices {
		if a.jsonOutput {
			fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
			os.Exit(1)
		}
		fmt.Printf("\nRefreshing every %s. Press Ctrl+C to stop.\n", a.cfg.Prices.Interval)
		fetcher.Start(ctx)
		<-ctx.Done()
		return
	}

	a.startSpinner(" Fetching prices...")
	err = fetcher.Refresh(ctx)
	a.stopSpinner()
	if err != nil {
		a.close()
		os.Exit(1)
	}

	quotes := fetcher.Quotes()
	if a.jsonOutput {
		output := make(map[string]string, len(quotes))
		for _, q := range quotes {
			output[q.Symbol] = q.UnitPrice.String()
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}
	displayPrices(a, quotes)
}

func displayPrices(a *app, quotes []types.PriceQuote) {
	currency := strings.ToUpper(a.cfg.Prices.Currency)
	now := time.Now()

	fmt.Println("\n" + strings.Repeat("=", 50))
	color.Green("                  PRICES (%s)", currency)
	fmt.Println(strings.Repeat("=", 50))

	for _, q := range quotes {
		line := fmt.Sprintf("  %-8s  %14s", color.YellowString(q.Symbol), q.UnitPrice.StringFixed(6))
		if q.Stale(a.cfg.Prices.MaxAge, now) {
			line += color.HiBlackString("  (stale)")
		}
		fmt.Println(line)
	}

	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("  Updated %s\n\n", now.Format("15:04:05"))
}
