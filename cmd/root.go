package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "blinkpay",
	Short: "Donate, pay, stake and swap on Solana from the command line",
	Long: `blinkpay sends Solana transfers for Blink As A Service flows: donations to
campaigns, direct payments, staking deposits and cross-chain swaps through the
NEAR Intents 1Click API. Every transfer is validated, built, signed with your
configured wallet, and followed until the network confirms it.

Examples:
  blinkpay donate 0.5 SOL --campaign clean-water
  blinkpay pay 25 USDC --to 9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin
  blinkpay stake 1000 BARK
  blinkpay swap 1 SOL to USDC --to-chain eth --recipient 0x123...
  blinkpay prices --watch
  blinkpay status <signature|deposit-address>`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
