package client

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blinkpay/pkg/types"
)

func token(symbol, chain string) oneclick.TokenResponse {
	var t oneclick.TokenResponse
	t.SetSymbol(symbol)
	t.SetBlockchain(chain)
	return t
}

func TestFindToken(t *testing.T) {
	tokens := []oneclick.TokenResponse{
		token("USDC", "eth"),
		token("USDC", "sol"),
		token("wNEAR", "near"),
	}

	got, err := findToken(tokens, "usdc", "")
	require.NoError(t, err)
	assert.Equal(t, "eth", got.GetBlockchain())

	got, err = findToken(tokens, "USDC", "SOL")
	require.NoError(t, err)
	assert.Equal(t, "sol", got.GetBlockchain())

	got, err = findToken(tokens, "near", "")
	require.NoError(t, err)
	assert.Equal(t, "wNEAR", got.GetSymbol())

	_, err = findToken(tokens, "near", "sol")
	assert.ErrorContains(t, err, "not found on chain")

	_, err = findToken(tokens, "DOGE", "")
	assert.Error(t, err)
}

func TestSmallestUnit(t *testing.T) {
	got, err := smallestUnit(decimal.RequireFromString("1.5"), 6)
	require.NoError(t, err)
	assert.Equal(t, "1500000", got)

	_, err = smallestUnit(decimal.RequireFromString("0.1234567"), 6)
	assert.ErrorIs(t, err, types.ErrInvalidAmount)
}

func TestAPIError(t *testing.T) {
	base := errors.New("400 Bad Request")

	resp := &http.Response{
		StatusCode: 400,
		Body:       io.NopCloser(strings.NewReader(`{"message":"amount is too low"}`)),
	}
	assert.EqualError(t, apiError("failed to get quote", resp, base), "API error (status 400): amount is too low")

	resp = &http.Response{StatusCode: 502, Body: io.NopCloser(strings.NewReader("bad gateway"))}
	assert.EqualError(t, apiError("failed to get quote", resp, base), "API error (status 502): bad gateway")

	assert.ErrorIs(t, apiError("failed to get quote", nil, base), base)
}

func TestNewOneClickClient_Options(t *testing.T) {
	c := NewOneClickClient("https://example.test/", "jwt", WithSlippage(50), WithDeadline(0))

	assert.Equal(t, float32(50), c.slippageBps)
	assert.Equal(t, "jwt", c.jwtToken)
	assert.NotZero(t, c.deadline)
}
