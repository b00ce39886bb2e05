package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent transactions of the wallet",
	Long: `List the most recent transactions involving the configured wallet.

Examples:
  blinkpay history
  blinkpay history --limit 25`,
	Run: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of transactions to show")
}

func runHistory(cmd *cobra.Command, args []string) {
	a, err := newApp(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.wallet.Connect(ctx); err != nil {
		printError(err)
		os.Exit(1)
	}
	owner := a.wallet.PublicKey()

	a.startSpinner(" Fetching recent transactions...")
	activity, err := a.ledger.RecentSignatures(ctx, owner, historyLimit)
	a.stopSpinner()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if a.jsonOutput {
		jsonData, _ := json.MarshalIndent(activity, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	if len(activity) == 0 {
		fmt.Println("\nNo transactions found.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 110))
	color.Green("                                          RECENT TRANSACTIONS")
	fmt.Println(strings.Repeat("=", 110))

	for _, act := range activity {
		when := "unknown"
		if !act.BlockTime.IsZero() {
			when = act.BlockTime.Format("2006-01-02 15:04:05")
		}
		status := color.GreenString("ok")
		if act.Failed {
			status = color.RedString("failed")
		}
		fmt.Printf("  %s  %-6s  %s\n", when, status, color.HiBlackString(act.Signature))
	}

	fmt.Println(strings.Repeat("=", 110) + "\n")
}
