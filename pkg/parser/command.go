package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mr-tron/base58"

	"blinkpay/pkg/types"
)

var (
	swapPattern     = regexp.MustCompile(`^(\d+\.?\d*)\s+([A-Z0-9]+)\s+TO\s+([A-Z0-9]+)$`)
	transferPattern = regexp.MustCompile(`(?i)^(\d+\.?\d*)\s+([a-z0-9]+)\s+to\s+(\S+)$`)
)

// ParseSwapCommand parses a natural language swap command
// Examples:
//   - "swap 1 SOL to USDC"
//   - "1.5 SOL to ETH"
//   - "100 USDC to SOL"
func ParseSwapCommand(command string) (*types.RouteRequest, error) {
	command = strings.TrimSpace(strings.ToUpper(command))
	command = strings.TrimPrefix(command, "SWAP ")

	matches := swapPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid swap command format. Expected: 'swap <amount> <token> to <token>' (e.g., 'swap 1 SOL to USDC')")
	}

	return &types.RouteRequest{
		Amount:      matches[1],
		SourceToken: NormalizeTokenSymbol(matches[2]),
		DestToken:   NormalizeTokenSymbol(matches[3]),
	}, nil
}

// ValidateRouteRequest validates that a route request has all required fields
func ValidateRouteRequest(req *types.RouteRequest) error {
	if req.Amount == "" {
		return fmt.Errorf("amount is required")
	}
	if req.SourceToken == "" {
		return fmt.Errorf("source token is required")
	}
	if req.DestToken == "" {
		return fmt.Errorf("destination token is required")
	}
	return nil
}

// Transfer is a parsed "<amount> <token> to <address>" command
type Transfer struct {
	Amount      string
	Symbol      string
	Destination string
}

// ParseTransferCommand parses a payment command. The address keeps its case.
// Examples:
//   - "pay 0.5 SOL to 9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
//   - "25 usdc to BARKkeAwhTuFzcLHX4DjotRsmjXQ1MshGrZbn1CUQqMo"
func ParseTransferCommand(command string) (*Transfer, error) {
	command = strings.TrimSpace(command)
	if len(command) > 4 && strings.EqualFold(command[:4], "pay ") {
		command = strings.TrimSpace(command[4:])
	}

	matches := transferPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid payment format. Expected: 'pay <amount> <token> to <address>' (e.g., 'pay 0.5 SOL to <address>')")
	}

	return &Transfer{
		Amount:      matches[1],
		Symbol:      NormalizeTokenSymbol(matches[2]),
		Destination: matches[3],
	}, nil
}

// ReferenceKind says what a status lookup argument refers to
type ReferenceKind int

const (
	ReferenceDeposit ReferenceKind = iota
	ReferenceSignature
	ReferenceAccount
)

// ClassifyReference decides whether ref is a Solana transaction signature, a
// Solana account, or something else (a swap deposit address on another chain).
func ClassifyReference(ref string) ReferenceKind {
	raw, err := base58.Decode(strings.TrimSpace(ref))
	if err != nil {
		return ReferenceDeposit
	}
	switch len(raw) {
	case 64:
		return ReferenceSignature
	case 32:
		return ReferenceAccount
	default:
		return ReferenceDeposit
	}
}

// NormalizeTokenSymbol normalizes token symbols to standard format
func NormalizeTokenSymbol(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))

	aliases := map[string]string{
		"WBTC": "BTC",
		"WETH": "ETH",
		"WSOL": "SOL",
	}

	if normalized, exists := aliases[symbol]; exists {
		return normalized
	}

	return symbol
}
