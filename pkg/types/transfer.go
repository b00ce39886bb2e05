package types

import (
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// AssetKind identifies what is being transferred. Only Native and Fungible
// implement it.
type AssetKind interface {
	isAssetKind()
	String() string
}

// Native is the chain's base asset (SOL).
type Native struct{}

func (Native) isAssetKind() {}

func (Native) String() string { return "native" }

// Fungible is a secondary token identified by its mint.
type Fungible struct {
	Mint     solana.PublicKey
	Decimals uint8
}

func (Fungible) isAssetKind() {}

func (f Fungible) String() string { return "fungible:" + f.Mint.String() }

// NativeDecimals is the number of lamports per SOL expressed as a power of ten.
const NativeDecimals = 9

// TransferRequest is a validated request to move value from Source to Destination
type TransferRequest struct {
	Asset       AssetKind
	Symbol      string
	Amount      decimal.Decimal
	Source      solana.PublicKey
	Destination string
}

// Instruction is a built, not yet signed, transfer ready for a wallet
type Instruction struct {
	Request      TransferRequest
	BaseUnits    uint64
	Payer        solana.PublicKey
	Instructions []solana.Instruction
}

// PriceQuote is the last known fiat price of one unit of an asset
type PriceQuote struct {
	Symbol    string
	UnitPrice decimal.Decimal
	AsOf      time.Time
}

// Stale reports whether the quote is older than maxAge. A zero maxAge never
// marks a quote stale.
func (q PriceQuote) Stale(maxAge time.Duration, now time.Time) bool {
	if maxAge <= 0 {
		return false
	}
	return now.Sub(q.AsOf) > maxAge
}
