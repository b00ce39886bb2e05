package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// RouteRequest represents a user's swap command
type RouteRequest struct {
	Amount        string
	SourceToken   string
	DestToken     string
	SourceChain   string
	DestChain     string
	RecipientAddr string
	RefundAddr    string
}

// Route is a quoted path for exchanging one asset for another. The swap is
// executed by depositing AmountIn of FromSymbol to DepositAddress.
type Route struct {
	FromSymbol     string
	ToSymbol       string
	SourceChain    string
	DestChain      string
	AmountIn       decimal.Decimal
	ExpectedOut    string
	DepositAddress string
	DepositMemo    string
	TimeEstimate   time.Duration
	Deadline       time.Time
}

// SwapStatus represents the current status of a swap
type SwapStatus struct {
	DepositAddress string
	Status         string
	AmountIn       string
	AmountOut      string
	OriginTxs      []string
	DestinationTxs []string
	UpdatedAt      time.Time
}

// IsTerminal returns true once the swap can no longer change state
func (s *SwapStatus) IsTerminal() bool {
	switch s.Status {
	case "SUCCESS", "COMPLETED", "FAILED", "REFUNDED":
		return true
	}
	return false
}
