package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"
	"github.com/shopspring/decimal"

	"blinkpay/pkg/types"
)

// SolanaChain is the 1Click blockchain id for Solana
const SolanaChain = "sol"

// OneClickClient wraps the 1Click SDK
type OneClickClient struct {
	client      *oneclick.APIClient
	jwtToken    string
	slippageBps float32
	deadline    time.Duration
}

// Option configures a OneClickClient
type Option func(*OneClickClient)

// WithSlippage sets the slippage tolerance in basis points
func WithSlippage(bps int) Option {
	return func(c *OneClickClient) {
		if bps > 0 {
			c.slippageBps = float32(bps)
		}
	}
}

// WithDeadline sets how long a quoted deposit address stays valid
func WithDeadline(d time.Duration) Option {
	return func(c *OneClickClient) {
		if d > 0 {
			c.deadline = d
		}
	}
}

// NewOneClickClient creates a new 1Click API client. An empty baseURL keeps
// the SDK default server.
func NewOneClickClient(baseURL, jwtToken string, opts ...Option) *OneClickClient {
	config := oneclick.NewConfiguration()
	if baseURL != "" {
		config.Servers = oneclick.ServerConfigurations{{URL: strings.TrimRight(baseURL, "/")}}
	}
	config.HTTPClient = &http.Client{Timeout: 30 * time.Second}

	c := &OneClickClient{
		client:      oneclick.NewAPIClient(config),
		jwtToken:    jwtToken,
		slippageBps: 100,
		deadline:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *OneClickClient) authed(ctx context.Context) context.Context {
	return context.WithValue(ctx, oneclick.ContextAccessToken, c.jwtToken)
}

// GetSupportedTokens retrieves all supported tokens
func (c *OneClickClient) GetSupportedTokens(ctx context.Context) ([]oneclick.TokenResponse, error) {
	resp, httpResp, err := c.client.OneClickAPI.GetTokens(c.authed(ctx)).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get tokens: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != 200 {
		return nil, fmt.Errorf("API returned status code %d", httpResp.StatusCode)
	}

	return resp, nil
}

// FindToken searches for a token by symbol across all chains
func (c *OneClickClient) FindToken(ctx context.Context, symbol string) (*oneclick.TokenResponse, error) {
	tokens, err := c.GetSupportedTokens(ctx)
	if err != nil {
		return nil, err
	}
	return findToken(tokens, symbol, "")
}

// FindTokenOnChain searches for a token by symbol on a specific chain
func (c *OneClickClient) FindTokenOnChain(ctx context.Context, symbol, chain string) (*oneclick.TokenResponse, error) {
	tokens, err := c.GetSupportedTokens(ctx)
	if err != nil {
		return nil, err
	}
	return findToken(tokens, symbol, chain)
}

// findToken matches symbol exactly, then by substring. A non-empty chain
// only allows exact matches on that chain.
func findToken(tokens []oneclick.TokenResponse, symbol, chain string) (*oneclick.TokenResponse, error) {
	symbol = strings.ToUpper(symbol)
	chain = strings.ToLower(chain)

	for i := range tokens {
		if strings.ToUpper(tokens[i].GetSymbol()) != symbol {
			continue
		}
		if chain == "" || strings.ToLower(tokens[i].GetBlockchain()) == chain {
			return &tokens[i], nil
		}
	}

	if chain != "" {
		return nil, fmt.Errorf("token '%s' not found on chain '%s'", symbol, chain)
	}

	for i := range tokens {
		if strings.Contains(strings.ToUpper(tokens[i].GetSymbol()), symbol) {
			return &tokens[i], nil
		}
	}

	return nil, fmt.Errorf("token '%s' not found", symbol)
}

// GetRoute requests a quote with a real deposit address for req
func (c *OneClickClient) GetRoute(ctx context.Context, req types.RouteRequest) (*types.Route, error) {
	tokens, err := c.GetSupportedTokens(ctx)
	if err != nil {
		return nil, err
	}

	sourceToken, err := findToken(tokens, req.SourceToken, req.SourceChain)
	if err != nil {
		return nil, fmt.Errorf("source token error: %w", err)
	}

	destToken, err := findToken(tokens, req.DestToken, req.DestChain)
	if err != nil {
		return nil, fmt.Errorf("destination token error: %w", err)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidAmount, req.Amount)
	}

	amountStr, err := smallestUnit(amount, int32(sourceToken.GetDecimals()))
	if err != nil {
		return nil, err
	}

	recipient := req.RecipientAddr
	if recipient == "" {
		return nil, fmt.Errorf("recipient address is required. Use --recipient flag to specify where you want to receive the tokens")
	}
	if err := ValidateRecipient(destToken.GetBlockchain(), recipient); err != nil {
		return nil, err
	}

	refundTo := req.RefundAddr
	if refundTo == "" {
		return nil, fmt.Errorf("refund address is required")
	}

	deadline := time.Now().Add(c.deadline)

	quoteReq := oneclick.NewQuoteRequest(
		false,                    // dry - false to get a real deposit address
		"EXACT_INPUT",            // swapType
		c.slippageBps,            // slippageTolerance
		sourceToken.GetAssetId(), // originAsset
		"ORIGIN_CHAIN",           // depositType
		destToken.GetAssetId(),   // destinationAsset
		amountStr,                // amount in smallest unit
		refundTo,                 // refundTo
		"ORIGIN_CHAIN",           // refundType
		recipient,                // recipient
		"DESTINATION_CHAIN",      // recipientType
		deadline,                 // deadline
	)

	resp, httpResp, err := c.client.OneClickAPI.GetQuote(c.authed(ctx)).QuoteRequest(*quoteReq).Execute()
	if err != nil {
		return nil, apiError("failed to get quote from API", httpResp, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("API returned status code %d", httpResp.StatusCode)
	}

	if resp == nil {
		return nil, fmt.Errorf("empty quote response")
	}

	quote := resp.GetQuote()
	route := &types.Route{
		FromSymbol:     strings.ToUpper(sourceToken.GetSymbol()),
		ToSymbol:       strings.ToUpper(destToken.GetSymbol()),
		SourceChain:    sourceToken.GetBlockchain(),
		DestChain:      destToken.GetBlockchain(),
		AmountIn:       amount,
		ExpectedOut:    quote.GetAmountOutFormatted(),
		DepositAddress: quote.GetDepositAddress(),
		TimeEstimate:   time.Duration(float64(quote.GetTimeEstimate()) * float64(time.Second)),
		Deadline:       deadline,
	}
	if quote.HasDepositMemo() {
		route.DepositMemo = quote.GetDepositMemo()
	}

	return route, nil
}

// GetSwapStatus checks the execution status of a swap
func (c *OneClickClient) GetSwapStatus(ctx context.Context, depositAddress string) (*types.SwapStatus, error) {
	resp, httpResp, err := c.client.OneClickAPI.GetExecutionStatus(c.authed(ctx)).DepositAddress(depositAddress).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != 200 {
		return nil, fmt.Errorf("API returned status code %d", httpResp.StatusCode)
	}

	status := &types.SwapStatus{
		DepositAddress: depositAddress,
		Status:         strings.ToUpper(resp.GetStatus()),
		UpdatedAt:      resp.GetUpdatedAt(),
	}

	details := resp.GetSwapDetails()
	status.AmountIn = details.GetAmountInFormatted()
	status.AmountOut = details.GetAmountOutFormatted()
	for _, tx := range details.GetOriginChainTxHashes() {
		status.OriginTxs = append(status.OriginTxs, tx.GetHash())
	}
	for _, tx := range details.GetDestinationChainTxHashes() {
		status.DestinationTxs = append(status.DestinationTxs, tx.GetHash())
	}

	return status, nil
}

// SubmitDepositTx tells 1Click which transaction funded the deposit address
func (c *OneClickClient) SubmitDepositTx(ctx context.Context, depositAddress, txHash string) error {
	req := oneclick.NewSubmitDepositTxRequest(depositAddress, txHash)

	_, httpResp, err := c.client.OneClickAPI.SubmitDepositTx(c.authed(ctx)).SubmitDepositTxRequest(*req).Execute()
	if err != nil {
		return fmt.Errorf("failed to submit deposit: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != 200 && httpResp.StatusCode != 201 {
		return fmt.Errorf("API returned status code %d", httpResp.StatusCode)
	}

	return nil
}

// GetPrices returns USD prices reported by 1Click for Solana tokens
func (c *OneClickClient) GetPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	tokens, err := c.GetSupportedTokens(ctx)
	if err != nil {
		return nil, err
	}

	prices := make(map[string]decimal.Decimal, len(symbols))
	for _, symbol := range symbols {
		token, err := findToken(tokens, symbol, SolanaChain)
		if err != nil {
			continue
		}
		price := decimal.NewFromFloat(float64(token.GetPrice()))
		if price.IsPositive() {
			prices[strings.ToUpper(symbol)] = price
		}
	}

	return prices, nil
}

func smallestUnit(amount decimal.Decimal, decimals int32) (string, error) {
	scaled := amount.Shift(decimals)
	if !scaled.IsInteger() {
		return "", fmt.Errorf("%w: %s has more than %d decimal places", types.ErrInvalidAmount, amount, decimals)
	}
	return scaled.String(), nil
}

// apiError extracts the server message from a failed SDK call
func apiError(prefix string, httpResp *http.Response, err error) error {
	if httpResp == nil {
		return fmt.Errorf("%s: %w", prefix, err)
	}
	defer httpResp.Body.Close()

	bodyBytes, readErr := io.ReadAll(httpResp.Body)
	if readErr != nil || len(bodyBytes) == 0 {
		return fmt.Errorf("%s (status: %d): %w", prefix, httpResp.StatusCode, err)
	}

	var errorResp map[string]interface{}
	if jsonErr := json.Unmarshal(bodyBytes, &errorResp); jsonErr == nil {
		if message, ok := errorResp["message"].(string); ok {
			return fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, message)
		}
		if errs, ok := errorResp["errors"]; ok {
			return fmt.Errorf("API error (status %d): %v", httpResp.StatusCode, errs)
		}
	}

	return fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, string(bodyBytes))
}
