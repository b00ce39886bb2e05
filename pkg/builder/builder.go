package builder

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/shopspring/decimal"

	"blinkpay/pkg/types"
)

// HoldingResolver looks up token holding accounts on the ledger
type HoldingResolver interface {
	// FindHoldingAccount returns the owner's token account for mint, or an
	// error wrapping types.ErrNoHoldingAccount if it has none.
	FindHoldingAccount(ctx context.Context, owner, mint solana.PublicKey) (solana.PublicKey, error)
	AccountExists(ctx context.Context, account solana.PublicKey) (bool, error)
}

// Builder turns transfer requests into unsigned instructions
type Builder struct {
	ledger HoldingResolver
}

// New creates a new transaction builder
func New(ledger HoldingResolver) *Builder {
	return &Builder{ledger: ledger}
}

// Build constructs the instructions for req. Destination and amount are
// checked before any ledger lookup.
func (b *Builder) Build(ctx context.Context, req types.TransferRequest) (*types.Instruction, error) {
	recipient, err := ParseAddress(req.Destination)
	if err != nil {
		return nil, err
	}

	if req.Source.IsZero() {
		return nil, fmt.Errorf("%w: source account is not set", types.ErrWalletNotConnected)
	}

	switch kind := req.Asset.(type) {
	case types.Native:
		return b.buildNative(req, recipient)
	case types.Fungible:
		return b.buildFungible(ctx, req, kind, recipient)
	default:
		return nil, fmt.Errorf("%w: %v", types.ErrUnsupportedAsset, req.Symbol)
	}
}

// buildNative creates a system transfer in lamports
func (b *Builder) buildNative(req types.TransferRequest, recipient solana.PublicKey) (*types.Instruction, error) {
	lamports, err := ToBaseUnits(req.Amount, types.NativeDecimals)
	if err != nil {
		return nil, err
	}

	ix := system.NewTransferInstruction(
		lamports,
		req.Source,
		recipient,
	).Build()

	return &types.Instruction{
		Request:      req,
		BaseUnits:    lamports,
		Payer:        req.Source,
		Instructions: []solana.Instruction{ix},
	}, nil
}

// buildFungible creates an SPL token transfer between associated token accounts
func (b *Builder) buildFungible(ctx context.Context, req types.TransferRequest, kind types.Fungible, recipient solana.PublicKey) (*types.Instruction, error) {
	tokenAmount, err := ToBaseUnits(req.Amount, kind.Decimals)
	if err != nil {
		return nil, err
	}

	if b.ledger == nil {
		return nil, fmt.Errorf("%w: no ledger to resolve %s holdings", types.ErrNoHoldingAccount, req.Symbol)
	}

	sourceTokenAccount, err := b.ledger.FindHoldingAccount(ctx, req.Source, kind.Mint)
	if err != nil {
		if errors.Is(err, types.ErrNoHoldingAccount) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get source token account: %w", err)
	}

	destTokenAccount, _, err := solana.FindAssociatedTokenAddress(recipient, kind.Mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive destination token account: %w", err)
	}

	destAccountExists, err := b.ledger.AccountExists(ctx, destTokenAccount)
	if err != nil {
		return nil, fmt.Errorf("failed to check destination account: %w", err)
	}

	instructions := []solana.Instruction{}

	if !destAccountExists {
		instructions = append(instructions, associatedtokenaccount.NewCreateInstruction(
			req.Source, // payer
			recipient,  // wallet
			kind.Mint,
		).Build())
	}

	instructions = append(instructions, token.NewTransferInstruction(
		tokenAmount,
		sourceTokenAccount,
		destTokenAccount,
		req.Source,
		[]solana.PublicKey{}, // no multisig
	).Build())

	return &types.Instruction{
		Request:      req,
		BaseUnits:    tokenAmount,
		Payer:        req.Source,
		Instructions: instructions,
	}, nil
}

// ParseAddress validates a base58 Solana address
func ParseAddress(address string) (solana.PublicKey, error) {
	if address == "" {
		return solana.PublicKey{}, fmt.Errorf("%w: empty address", types.ErrInvalidDestination)
	}
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %s", types.ErrInvalidDestination, address)
	}
	return pk, nil
}

// ToBaseUnits scales amount by 10^decimals. Amounts that are not positive, carry
// more fractional digits than decimals, or do not fit in a uint64 are rejected.
func ToBaseUnits(amount decimal.Decimal, decimals uint8) (uint64, error) {
	if !amount.IsPositive() {
		return 0, fmt.Errorf("%w: amount must be positive", types.ErrInvalidAmount)
	}

	scaled := amount.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("%w: %s has more than %d decimal places", types.ErrInvalidAmount, amount, decimals)
	}

	units := scaled.BigInt()
	if !units.IsUint64() || units.Cmp(big.NewInt(0)) == 0 {
		return 0, fmt.Errorf("%w: %s is out of range", types.ErrInvalidAmount, amount)
	}

	return units.Uint64(), nil
}

// FromBaseUnits converts an integer amount back to display units
func FromBaseUnits(units uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), -int32(decimals))
}
