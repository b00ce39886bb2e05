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
	"blinkpay/pkg/parser"
	"blinkpay/pkg/types"
)

var (
	toChain       string
	recipientAddr string
	refundAddr    string
	waitForSwap   bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <source-token> to <dest-token>",
	Short: "Swap a Solana token for another token on any chain",
	Long: `Swap tokens from your Solana wallet using the NEAR Intents 1Click API.

The deposit is sent from your wallet to the quoted deposit address and
reported to 1Click. Refunds go back to your wallet unless --refund-to is set.

IMPORTANT:
  - You MUST specify --recipient (where you'll receive tokens)
  - The recipient must be valid for the destination chain

Examples:
  blinkpay swap 1 SOL to USDC --to-chain eth --recipient 0x123...
  blinkpay swap 100 USDC to SOL --to-chain sol --recipient <solana-addr> --wait
  blinkpay swap 0.5 SOL to NEAR --to-chain near --recipient your.near --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().StringVar(&toChain, "to-chain", "", "Destination blockchain (optional)")
	swapCmd.Flags().StringVar(&recipientAddr, "recipient", "", "Recipient address (REQUIRED - where you'll receive tokens)")
	swapCmd.Flags().StringVar(&refundAddr, "refund-to", "", "Refund address on Solana (defaults to your wallet)")
	swapCmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip confirmation prompt")
	swapCmd.Flags().BoolVar(&waitForSwap, "wait", false, "Wait until the swap completes")
}

func runSwap(cmd *cobra.Command, args []string) {
	routeReq, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	routeReq.DestChain = toChain
	routeReq.RecipientAddr = recipientAddr
	routeReq.RefundAddr = refundAddr

	a, err := newApp(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if err := a.cfg.RequireSwapToken(); err != nil {
		printError(err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exitErr := func(err error) {
		a.close()
		printError(err)
		os.Exit(1)
	}

	if err := a.connect(ctx); err != nil {
		exitErr(err)
	}
	swaps := flow.NewSwapFlow(a.flow, a.oneClick)

	a.startSpinner(" Fetching quote...")
	route, err := swaps.Quote(ctx, *routeReq)
	a.stopSpinner()
	if err != nil {
		if a.verbose {
			fmt.Printf("\nDebug: This might be due to:\n")
			fmt.Printf("  1. Invalid JWT token\n")
			fmt.Printf("  2. Token not found (try: blinkpay list-tokens --chain sol)\n")
			fmt.Printf("  3. Recipient not valid for the destination chain\n")
		}
		exitErr(err)
	}

	if !a.jsonOutput {
		displayRoute(route)
	}

	if !skipConfirm && !a.jsonOutput {
		if !confirm("Proceed with swap?") {
			a.close()
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}
	}

	a.startSpinner(" Sending deposit...")
	result := swaps.Execute(ctx, route)
	a.stopSpinner()

	if !result.Succeeded() {
		a.close()
		reportResult(a, result)
		return
	}

	var final *types.SwapStatus
	if waitForSwap {
		if !a.jsonOutput {
			fmt.Printf("\nWaiting for swap to complete. Press Ctrl+C to stop.\n")
		}
		final, err = swaps.Wait(ctx, route.DepositAddress, 10*time.Second, func(st *types.SwapStatus) {
			if !a.jsonOutput {
				fmt.Printf("  %s  %s\n", time.Now().Format("15:04:05"), getColoredStatus(st.Status))
			}
		})
		if err != nil && a.verbose {
			fmt.Printf("\nDebug: stopped waiting: %v\n", err)
		}
	}
	a.close()

	if a.jsonOutput {
		output := map[string]interface{}{
			"deposit_address":   route.DepositAddress,
			"source_amount":     route.AmountIn.String(),
			"source_token":      route.FromSymbol,
			"dest_amount":       route.ExpectedOut,
			"dest_token":        route.ToSymbol,
			"time_estimate_sec": route.TimeEstimate.Seconds(),
			"signature":         result.Signature,
			"status":            "deposit_sent",
		}
		if final != nil {
			output["status"] = final.Status
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Printf("  Signature: %s\n", color.CyanString(result.Signature))
	if final != nil {
		displayStatus(final)
		return
	}

	fmt.Println("\nYou can monitor the swap status using:")
	color.Cyan("  blinkpay status %s\n", route.DepositAddress)
}

func displayRoute(route *types.Route) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     SWAP QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Deposit Address:   %s\n", color.CyanString(route.DepositAddress))
	fmt.Printf("  From:              %s %s\n", route.AmountIn.String(), color.YellowString(route.FromSymbol))
	fmt.Printf("  To:                ~%s %s\n", route.ExpectedOut, color.YellowString(route.ToSymbol))
	fmt.Printf("  Estimated Time:    %.0f seconds\n", route.TimeEstimate.Seconds())
	fmt.Printf("  Source Chain:      %s\n", route.SourceChain)
	if route.DestChain != "" {
		fmt.Printf("  Destination Chain: %s\n", route.DestChain)
	}
	fmt.Printf("  Quote Valid Until: %s\n", route.Deadline.Format("2006-01-02 15:04:05"))

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}
