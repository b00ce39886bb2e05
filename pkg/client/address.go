package client

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
)

var evmChains = map[string]bool{
	"eth":    true,
	"base":   true,
	"arb":    true,
	"bsc":    true,
	"pol":    true,
	"avax":   true,
	"op":     true,
	"gnosis": true,
	"bera":   true,
}

// ValidateRecipient checks that address is well formed for chain. Chains
// without a known format only require a non-empty address.
func ValidateRecipient(chain, address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return fmt.Errorf("recipient address is required")
	}

	chain = strings.ToLower(chain)
	switch {
	case chain == SolanaChain:
		if _, err := solana.PublicKeyFromBase58(address); err != nil {
			return fmt.Errorf("invalid Solana address %q: %w", address, err)
		}
	case evmChains[chain]:
		if !common.IsHexAddress(address) {
			return fmt.Errorf("invalid %s address %q", chain, address)
		}
	}
	return nil
}
