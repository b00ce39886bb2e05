package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"blinkpay/pkg/asset"
	"blinkpay/pkg/types"
)

var (
	tokenChain  string
	tokenSymbol string
)

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens", "ls"},
	Short:   "List tokens supported for swaps",
	Long: `List the tokens the 1Click API can route swaps to and from.

Swaps always start from Solana, so --chain sol lists the tokens you can swap from.
Tokens that match a configured asset are marked with *.

Examples:
  blinkpay list-tokens
  blinkpay list-tokens --chain sol
  blinkpay list-tokens --symbol USDC`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&tokenChain, "chain", "", "Only show tokens on this blockchain")
	tokensCmd.Flags().StringVar(&tokenSymbol, "symbol", "", "Only show symbols containing this text")
}

func runListTokens(cmd *cobra.Command, args []string) {
	a, err := newApp(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a.startSpinner(" Loading swap routes...")
	all, err := a.oneClick.GetSupportedTokens(ctx)
	a.stopSpinner()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	tokens := filterTokens(all, tokenChain, tokenSymbol)
	if a.jsonOutput {
		out, _ := json.MarshalIndent(tokens, "", "  ")
		fmt.Println(string(out))
		return
	}
	printTokenTable(tokens, configuredMints(a.registry))
}

func filterTokens(tokens []oneclick.TokenResponse, chain, symbol string) []oneclick.TokenResponse {
	var out []oneclick.TokenResponse
	for _, token := range tokens {
		if chain != "" && !strings.EqualFold(token.GetBlockchain(), chain) {
			continue
		}
		if symbol != "" && !strings.Contains(strings.ToUpper(token.GetSymbol()), strings.ToUpper(symbol)) {
			continue
		}
		out = append(out, token)
	}
	return out
}

// configuredMints returns the mint addresses of the registry's fungible assets
func configuredMints(reg *asset.Registry) map[string]bool {
	mints := make(map[string]bool)
	for _, as := range reg.Assets() {
		if f, ok := as.Kind.(types.Fungible); ok {
			mints[f.Mint.String()] = true
		}
	}
	return mints
}

// groupByChain buckets tokens per blockchain, each bucket sorted by symbol
func groupByChain(tokens []oneclick.TokenResponse) ([]string, map[string][]oneclick.TokenResponse) {
	groups := make(map[string][]oneclick.TokenResponse)
	for _, token := range tokens {
		groups[token.GetBlockchain()] = append(groups[token.GetBlockchain()], token)
	}

	names := make([]string, 0, len(groups))
	for name, group := range groups {
		names = append(names, name)
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].GetSymbol() < group[j].GetSymbol()
		})
	}
	sort.Strings(names)
	return names, groups
}

func printTokenTable(tokens []oneclick.TokenResponse, mine map[string]bool) {
	if len(tokens) == 0 {
		fmt.Println("\nNo swap routes match these filters.")
		return
	}

	chains, groups := groupByChain(tokens)
	rule := strings.Repeat("─", 80)

	for _, chain := range chains {
		fmt.Printf("\n%s %s\n", color.CyanString(strings.ToUpper(chain)), color.HiBlackString("(%d)", len(groups[chain])))
		fmt.Println(rule)
		for _, token := range groups[chain] {
			mark := " "
			if mine[token.GetContractAddress()] {
				mark = color.GreenString("*")
			}
			addr := token.GetContractAddress()
			if len(addr) > 24 {
				addr = addr[:10] + "..." + addr[len(addr)-10:]
			}
			fmt.Printf(" %s %-12s $%-14s %2d dp  %s\n",
				mark,
				color.YellowString(token.GetSymbol()),
				fmt.Sprintf("%.4f", token.GetPrice()),
				int(token.GetDecimals()),
				color.HiBlackString(addr))
		}
	}

	fmt.Println(rule)
	fmt.Printf("%d tokens on %d chains\n\n", len(tokens), len(chains))
}
