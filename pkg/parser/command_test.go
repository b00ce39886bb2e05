package parser

import (
	"bytes"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSwapCommand(t *testing.T) {
	tests := []struct {
		input      string
		amount     string
		src, dest  string
		shouldFail bool
	}{
		{"swap 1 SOL to USDC", "1", "SOL", "USDC", false},
		{"1.5 sol to eth", "1.5", "SOL", "ETH", false},
		{"  swap 100 wsol to weth ", "100", "SOL", "ETH", false},
		{"swap SOL to USDC", "", "", "", true},
		{"swap 1 SOL USDC", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			req, err := ParseSwapCommand(tt.input)
			if tt.shouldFail {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.amount, req.Amount)
			assert.Equal(t, tt.src, req.SourceToken)
			assert.Equal(t, tt.dest, req.DestToken)
			assert.NoError(t, ValidateRouteRequest(req))
		})
	}
}

func TestParseTransferCommand(t *testing.T) {
	const addr = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"

	tr, err := ParseTransferCommand("pay 0.5 sol to " + addr)
	require.NoError(t, err)
	assert.Equal(t, "0.5", tr.Amount)
	assert.Equal(t, "SOL", tr.Symbol)
	assert.Equal(t, addr, tr.Destination)

	tr, err = ParseTransferCommand("25 USDC TO " + addr)
	require.NoError(t, err)
	assert.Equal(t, "USDC", tr.Symbol)
	assert.Equal(t, addr, tr.Destination)

	_, err = ParseTransferCommand("pay 25 USDC")
	assert.Error(t, err)
}

func TestValidateRouteRequest_Missing(t *testing.T) {
	req, err := ParseSwapCommand("1 SOL to USDC")
	require.NoError(t, err)

	req.DestToken = ""
	assert.ErrorContains(t, ValidateRouteRequest(req), "destination token")
}

func TestClassifyReference(t *testing.T) {
	signature := base58.Encode(bytes.Repeat([]byte{7}, 64))
	account := base58.Encode(bytes.Repeat([]byte{9}, 32))

	assert.Equal(t, ReferenceSignature, ClassifyReference(signature))
	assert.Equal(t, ReferenceAccount, ClassifyReference(account))
	assert.Equal(t, ReferenceDeposit, ClassifyReference("0x2527D0e1e1B1c3a0F8a4c6d0fE1d0E5b1A2c3D4e"))
	assert.Equal(t, ReferenceDeposit, ClassifyReference(""))
}

func TestNormalizeTokenSymbol(t *testing.T) {
	assert.Equal(t, "BTC", NormalizeTokenSymbol("wbtc"))
	assert.Equal(t, "USDC", NormalizeTokenSymbol(" usdc "))
}
