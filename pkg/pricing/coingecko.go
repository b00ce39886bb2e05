package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"blinkpay/pkg/asset"
)

// CoinGecko fetches fiat prices from the CoinGecko simple price endpoint
type CoinGecko struct {
	baseURL    string
	apiKey     string
	currency   string
	registry   *asset.Registry
	httpClient *http.Client
}

// NewCoinGecko creates a CoinGecko price client. Symbols are mapped to
// CoinGecko ids through the asset registry.
func NewCoinGecko(baseURL, apiKey, currency string, timeout time.Duration, registry *asset.Registry) *CoinGecko {
	if currency == "" {
		currency = "usd"
	}
	return &CoinGecko{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		currency:   strings.ToLower(currency),
		registry:   registry,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetPrices returns the unit price of each symbol that has a CoinGecko id.
// Symbols without one are left out.
func (c *CoinGecko) GetPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	idToSymbol := make(map[string]string)
	for _, symbol := range symbols {
		a, err := c.registry.Lookup(symbol)
		if err != nil || a.PriceID == "" {
			continue
		}
		idToSymbol[a.PriceID] = a.Symbol
	}

	prices := make(map[string]decimal.Decimal, len(idToSymbol))
	if len(idToSymbol) == 0 {
		return prices, nil
	}

	ids := make([]string, 0, len(idToSymbol))
	for id := range idToSymbol {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=%s",
		c.baseURL,
		url.QueryEscape(strings.Join(ids, ",")),
		url.QueryEscape(c.currency),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("coingecko error (status %d): %s", resp.StatusCode, body)
	}

	// {"solana":{"usd":150.12},"usd-coin":{"usd":1}}
	var raw map[string]map[string]decimal.Decimal
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	for id, quotes := range raw {
		symbol, ok := idToSymbol[id]
		if !ok {
			continue
		}
		if price, ok := quotes[c.currency]; ok {
			prices[symbol] = price
		}
	}

	return prices, nil
}
