package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"blinkpay/pkg/flow"
	"blinkpay/pkg/form"
)

var stakeCmd = &cobra.Command{
	Use:   "stake <amount> [asset]",
	Short: "Deposit tokens into the staking vault",
	Long: `Transfer tokens to the configured staking vault (staking_vault).
The asset defaults to BARK.

Examples:
  blinkpay stake 1000
  blinkpay stake 2 SOL --yes`,
	Args: cobra.RangeArgs(1, 2),
	Run:  runStake,
}

func init() {
	rootCmd.AddCommand(stakeCmd)

	stakeCmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip confirmation prompt")
}

func runStake(cmd *cobra.Command, args []string) {
	a, err := newApp(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if err := a.cfg.RequireStakingVault(); err != nil {
		printError(err)
		a.close()
		os.Exit(1)
	}

	symbol := "BARK"
	if len(args) > 1 {
		symbol = args[1]
	}

	fm := form.New(form.WithDestination(a.cfg.StakingVault))
	fm.Set(form.FieldAmount, args[0])
	fm.Set(form.FieldAsset, symbol)

	runTransfer(a, transfer{
		kind:  flow.KindStake,
		form:  fm,
		title: "STAKE",
	})
}
