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

	"blinkpay/pkg/flow"
	"blinkpay/pkg/ledger"
	"blinkpay/pkg/parser"
	"blinkpay/pkg/types"
)

var (
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <signature|deposit-address>",
	Short: "Check a transaction or a swap",
	Long: `Check the confirmation status of a Solana transaction signature, or the
execution status of a swap by its deposit address.

Examples:
  blinkpay status 5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW
  blinkpay status <deposit-address> --watch
  blinkpay status <deposit-address> --watch --interval 10`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch swap status updates until the swap completes")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

func runStatus(cmd *cobra.Command, args []string) {
	ref := strings.TrimSpace(args[0])

	a, err := newApp(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if parser.ClassifyReference(ref) == parser.ReferenceSignature {
		if err := checkTransaction(ctx, a, ref); err != nil {
			printError(err)
			os.Exit(1)
		}
		return
	}

	if err := a.cfg.RequireSwapToken(); err != nil {
		printError(err)
		os.Exit(1)
	}

	if watchStatus {
		watchSwapStatus(ctx, a, ref)
	} else {
		checkSwapStatus(ctx, a, ref)
	}
}

func checkTransaction(ctx context.Context, a *app, signature string) error {
	a.startSpinner(" Checking transaction...")
	confirmation, err := a.ledger.GetConfirmation(ctx, signature)
	var info *ledger.TransactionInfo
	if err == nil && confirmation != types.ConfirmationPending {
		info, err = a.ledger.GetTransactionInfo(ctx, signature)
	}
	a.stopSpinner()
	if err != nil {
		return err
	}

	if a.jsonOutput {
		output := map[string]interface{}{
			"signature": signature,
			"status":    confirmation,
		}
		if info != nil {
			output["slot"] = info.Slot
			output["fee"] = info.Fee
			output["block_time"] = info.BlockTime
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return nil
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                     TRANSACTION STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Signature:       %s\n", color.CyanString(signature))
	fmt.Printf("  Status:          %s\n", getColoredStatus(string(confirmation)))
	if info != nil {
		fmt.Printf("  Slot:            %d\n", info.Slot)
		fmt.Printf("  Fee:             %d lamports\n", info.Fee)
		if !info.BlockTime.IsZero() {
			fmt.Printf("  Block Time:      %s\n", info.BlockTime.Format("2006-01-02 15:04:05"))
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
	return nil
}

func checkSwapStatus(ctx context.Context, a *app, depositAddress string) {
	a.startSpinner(" Checking swap status...")
	status, err := a.oneClick.GetSwapStatus(ctx, depositAddress)
	a.stopSpinner()

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if a.jsonOutput {
		jsonData, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayStatus(status)
	}
}

func watchSwapStatus(ctx context.Context, a *app, depositAddress string) {
	if a.jsonOutput {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		os.Exit(1)
	}

	fmt.Printf("\nWatching swap status (Deposit Address: %s)\n", color.CyanString(depositAddress))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n\n", watchInterval)

	interval := time.Duration(watchInterval) * time.Second
	final, err := flow.WaitForSwap(ctx, a.oneClick, depositAddress, interval, func(status *types.SwapStatus) {
		displayStatus(status)
	}, a.log)
	if err != nil {
		return
	}
	printSuccess(fmt.Sprintf("Swap finished with status %s", getColoredStatus(final.Status)))
}

func displayStatus(status *types.SwapStatus) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                        SWAP STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Deposit Address: %s\n", color.CyanString(status.DepositAddress))
	fmt.Printf("  Status:          %s\n", getColoredStatus(status.Status))
	fmt.Printf("  Last Updated:    %s\n", status.UpdatedAt.Format("2006-01-02 15:04:05"))

	for _, hash := range status.OriginTxs {
		if hash != "" {
			fmt.Printf("  Deposit Tx:      %s\n", color.HiBlackString(hash))
		}
	}
	for _, hash := range status.DestinationTxs {
		if hash != "" {
			fmt.Printf("  Withdrawal Tx:   %s\n", color.HiBlackString(hash))
		}
	}

	if status.AmountIn != "" {
		fmt.Printf("  Amount In:       %s\n", status.AmountIn)
	}
	if status.AmountOut != "" {
		fmt.Printf("  Amount Out:      %s\n", status.AmountOut)
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func getColoredStatus(status string) string {
	status = strings.ToUpper(status)

	switch status {
	case "SUCCESS", "COMPLETED", "CONFIRMED":
		return color.GreenString(status)
	case "PENDING_DEPOSIT", "PENDING", "PROCESSING":
		return color.YellowString(status)
	case "FAILED", "REFUNDED":
		return color.RedString(status)
	case "INCOMPLETE_DEPOSIT":
		return color.MagentaString(status)
	default:
		return status
	}
}
