package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"blinkpay/pkg/flow"
	"blinkpay/pkg/form"
	"blinkpay/pkg/parser"
)

var payTo string

var payCmd = &cobra.Command{
	Use:   "pay <amount> <asset> --to <address>",
	Short: "Send a payment to a Solana address",
	Long: `Send SOL or a supported token directly to a Solana address.

The recipient can be given with --to or inline.

Examples:
  blinkpay pay 0.5 SOL --to 9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin
  blinkpay pay 25 USDC to 9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin --yes`,
	Args: cobra.MinimumNArgs(2),
	Run:  runPay,
}

func init() {
	rootCmd.AddCommand(payCmd)

	payCmd.Flags().StringVar(&payTo, "to", "", "Recipient address")
	payCmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip confirmation prompt")
}

func runPay(cmd *cobra.Command, args []string) {
	amount, symbol, destination := args[0], args[1], payTo

	if len(args) > 2 {
		parsed, err := parser.ParseTransferCommand(strings.Join(args, " "))
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		amount, symbol, destination = parsed.Amount, parsed.Symbol, parsed.Destination
	}

	if destination == "" {
		printError(fmt.Errorf("recipient address is required. Use --to to specify it"))
		os.Exit(1)
	}

	a, err := newApp(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	fm := form.New(form.WithDestination(destination))
	fm.Set(form.FieldAmount, amount)
	fm.Set(form.FieldAsset, symbol)

	runTransfer(a, transfer{
		kind:  flow.KindPayment,
		form:  fm,
		title: "PAYMENT",
	})
}
