package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"blinkpay/pkg/types"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show wallet balances of the configured assets",
	Run:   runBalance,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

type assetBalance struct {
	Symbol string          `json:"symbol"`
	Amount decimal.Decimal `json:"amount"`
	Value  decimal.Decimal `json:"value"`
}

func runBalance(cmd *cobra.Command, args []string) {
	a, err := newApp(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.connect(ctx); err != nil {
		printError(err)
		os.Exit(1)
	}
	owner := a.wallet.PublicKey()

	a.startSpinner(" Fetching balances...")

	_ = a.fetcher.Refresh(ctx)
	prices := a.fetcher.Prices()

	var balances []assetBalance
	for _, as := range a.registry.Assets() {
		var amount decimal.Decimal
		switch kind := as.Kind.(type) {
		case types.Native:
			amount, err = a.ledger.GetBalance(ctx, owner)
		case types.Fungible:
			amount, err = a.ledger.GetTokenBalance(ctx, owner, kind.Mint)
		}
		if err != nil {
			a.log.Sugar().Warnw("balance lookup failed", "symbol", as.Symbol, "error", err)
			continue
		}
		balances = append(balances, assetBalance{
			Symbol: as.Symbol,
			Amount: amount,
			Value:  amount.Mul(prices[as.Symbol]),
		})
	}

	a.stopSpinner()

	if a.jsonOutput {
		jsonData, _ := json.MarshalIndent(map[string]interface{}{
			"owner":    owner.String(),
			"balances": balances,
		}, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	currency := strings.ToUpper(a.cfg.Prices.Currency)
	total := decimal.Zero

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                      BALANCES")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("\n  Wallet: %s\n\n", color.CyanString(owner.String()))

	for _, b := range balances {
		fmt.Printf("  %-8s  %20s  ≈ %s %s\n", color.YellowString(b.Symbol), b.Amount.String(), b.Value.StringFixed(2), currency)
		total = total.Add(b.Value)
	}

	fmt.Printf("\n  Total:    %s %s\n", total.StringFixed(2), currency)
	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}
