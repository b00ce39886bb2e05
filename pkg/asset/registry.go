package asset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"blinkpay/config"
	"blinkpay/pkg/types"
)

// Asset describes a transferable asset and how to price it
type Asset struct {
	Symbol     string
	Kind       types.AssetKind
	Decimals   uint8
	PriceID    string           // price service id (e.g. coingecko "solana")
	FixedPrice *decimal.Decimal // used when the price service does not list the asset
}

// Registry resolves asset symbols
type Registry struct {
	assets map[string]Asset
}

// NewRegistry builds a registry from configured assets
func NewRegistry(cfg map[string]config.AssetConfig) (*Registry, error) {
	r := &Registry{assets: make(map[string]Asset, len(cfg))}

	for symbol, ac := range cfg {
		symbol = NormalizeSymbol(symbol)

		a := Asset{
			Symbol:   symbol,
			Decimals: ac.Decimals,
			PriceID:  ac.PriceID,
		}

		if ac.Mint == "" {
			a.Kind = types.Native{}
			a.Decimals = types.NativeDecimals
		} else {
			mint, err := solana.PublicKeyFromBase58(ac.Mint)
			if err != nil {
				return nil, fmt.Errorf("asset %s: invalid mint address: %w", symbol, err)
			}
			a.Kind = types.Fungible{Mint: mint, Decimals: ac.Decimals}
		}

		if ac.FixedPrice > 0 {
			p := decimal.NewFromFloat(ac.FixedPrice)
			a.FixedPrice = &p
		}

		r.assets[symbol] = a
	}

	return r, nil
}

// Lookup returns the asset for a symbol
func (r *Registry) Lookup(symbol string) (Asset, error) {
	a, ok := r.assets[NormalizeSymbol(symbol)]
	if !ok {
		return Asset{}, fmt.Errorf("%w: %s", types.ErrUnsupportedAsset, symbol)
	}
	return a, nil
}

// Symbols returns all registered symbols, sorted
func (r *Registry) Symbols() []string {
	symbols := make([]string, 0, len(r.assets))
	for s := range r.assets {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Assets returns all registered assets ordered by symbol
func (r *Registry) Assets() []Asset {
	out := make([]Asset, 0, len(r.assets))
	for _, s := range r.Symbols() {
		out = append(out, r.assets[s])
	}
	return out
}

// NormalizeSymbol normalizes token symbols to standard format
func NormalizeSymbol(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))

	aliases := map[string]string{
		"WSOL": "SOL",
	}
	if normalized, exists := aliases[symbol]; exists {
		return normalized
	}
	return symbol
}
