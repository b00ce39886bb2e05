// Package pricing fetches fiat prices and wallet balances on an interval.
package pricing

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"blinkpay/pkg/asset"
)

// PriceService returns the fiat unit price for each known symbol
type PriceService interface {
	GetPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
}

// BalanceService returns the native balance of an account
type BalanceService interface {
	GetBalance(ctx context.Context, owner solana.PublicKey) (decimal.Decimal, error)
}

type fixedPrices struct {
	next     PriceService
	registry *asset.Registry
}

// WithFixedPrices wraps next so assets with a configured fixed price are
// answered locally. Only the remaining symbols reach next.
func WithFixedPrices(next PriceService, registry *asset.Registry) PriceService {
	return &fixedPrices{next: next, registry: registry}
}

func (f *fixedPrices) GetPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(symbols))
	remaining := make([]string, 0, len(symbols))

	for _, symbol := range symbols {
		a, err := f.registry.Lookup(symbol)
		if err == nil && a.FixedPrice != nil {
			prices[a.Symbol] = *a.FixedPrice
			continue
		}
		remaining = append(remaining, symbol)
	}

	if len(remaining) == 0 {
		return prices, nil
	}

	fetched, err := f.next.GetPrices(ctx, remaining)
	if err != nil {
		return nil, err
	}
	for symbol, price := range fetched {
		prices[asset.NormalizeSymbol(symbol)] = price
	}

	return prices, nil
}
