package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"blinkpay/config"
	"blinkpay/pkg/flow"
	"blinkpay/pkg/form"
)

var (
	campaignID    string
	listCampaigns bool
)

var donateCmd = &cobra.Command{
	Use:   "donate <amount> [asset]",
	Short: "Donate to a campaign",
	Long: `Donate SOL or a supported token to one of the configured campaigns.
The asset defaults to SOL and the campaign to animal-shelter.

Examples:
  blinkpay donate --list
  blinkpay donate 0.5
  blinkpay donate 25 USDC --campaign clean-water
  blinkpay donate 10000 BARK --campaign tree-planting --yes`,
	Args: cobra.RangeArgs(0, 2),
	Run:  runDonate,
}

func init() {
	rootCmd.AddCommand(donateCmd)

	donateCmd.Flags().StringVarP(&campaignID, "campaign", "c", "animal-shelter", "Campaign to donate to")
	donateCmd.Flags().BoolVar(&listCampaigns, "list", false, "List campaigns and exit")
	donateCmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip confirmation prompt")
}

func runDonate(cmd *cobra.Command, args []string) {
	a, err := newApp(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if listCampaigns {
		displayCampaigns(a.cfg.Campaigns, a.jsonOutput)
		return
	}

	if len(args) == 0 {
		printError(fmt.Errorf("amount is required"))
		os.Exit(1)
	}

	campaign, err := a.cfg.Campaign(campaignID)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	symbol := "SOL"
	if len(args) > 1 {
		symbol = args[1]
	}

	fm := form.New(form.WithDestination(campaign.Address))
	fm.Set(form.FieldAmount, args[0])
	fm.Set(form.FieldAsset, symbol)

	runTransfer(a, transfer{
		kind:   flow.KindDonation,
		form:   fm,
		target: campaign.Name,
		title:  "DONATION",
	})
}

func displayCampaigns(campaigns []config.CampaignConfig, jsonOutput bool) {
	if jsonOutput {
		jsonData, _ := json.MarshalIndent(campaigns, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                         CAMPAIGNS")
	fmt.Println(strings.Repeat("=", 70))

	for _, c := range campaigns {
		fmt.Printf("\n  %s  %s\n", color.YellowString("%-16s", c.ID), c.Name)
		fmt.Printf("  %-16s  %s\n", "", color.HiBlackString(c.Description))
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}
