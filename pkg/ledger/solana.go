package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"blinkpay/pkg/types"
)

// Activity is one transaction that touched an account
type Activity struct {
	Signature string
	Slot      uint64
	BlockTime time.Time
	Failed    bool
	Memo      string
}

// TransactionInfo summarizes a landed transaction
type TransactionInfo struct {
	Signature string
	Slot      uint64
	Fee       uint64
	Failed    bool
	BlockTime time.Time
}

// Solana reads balances, holding accounts and confirmations from an RPC node
type Solana struct {
	client     *rpc.Client
	commitment rpc.CommitmentType
	log        *zap.Logger
}

// New creates a ledger reader on top of an RPC client
func New(client *rpc.Client, commitment string, log *zap.Logger) *Solana {
	if log == nil {
		log = zap.NewNop()
	}
	return &Solana{
		client:     client,
		commitment: ParseCommitment(commitment),
		log:        log,
	}
}

// Client exposes the underlying RPC client
func (s *Solana) Client() *rpc.Client {
	return s.client
}

// Commitment returns the configured commitment level
func (s *Solana) Commitment() rpc.CommitmentType {
	return s.commitment
}

// Health returns nil when the node reports itself healthy
func (s *Solana) Health(ctx context.Context) error {
	status, err := s.client.GetHealth(ctx)
	if err != nil {
		return fmt.Errorf("failed to get node health: %w", err)
	}
	if status != rpc.HealthOk {
		return fmt.Errorf("node is unhealthy: %s", status)
	}
	return nil
}

// GetBalance returns the SOL balance of owner
func (s *Solana) GetBalance(ctx context.Context, owner solana.PublicKey) (decimal.Decimal, error) {
	balance, err := s.client.GetBalance(ctx, owner, s.commitment)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}
	return decimal.NewFromUint64(balance.Value).Shift(-types.NativeDecimals), nil
}

// GetTokenBalance returns owner's balance of mint. An owner with no holding
// account has a zero balance.
func (s *Solana) GetTokenBalance(ctx context.Context, owner, mint solana.PublicKey) (decimal.Decimal, error) {
	account, err := s.FindHoldingAccount(ctx, owner, mint)
	if err != nil {
		if errors.Is(err, types.ErrNoHoldingAccount) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}

	accountInfo, err := s.client.GetTokenAccountBalance(ctx, account, s.commitment)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get token balance: %w", err)
	}

	amount, err := decimal.NewFromString(accountInfo.Value.Amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse token balance: %w", err)
	}

	return amount.Shift(-int32(accountInfo.Value.Decimals)), nil
}

// FindHoldingAccount returns owner's token account for mint, preferring the
// associated token account when the owner has several.
func (s *Solana) FindHoldingAccount(ctx context.Context, owner, mint solana.PublicKey) (solana.PublicKey, error) {
	mintKey := mint
	out, err := s.client.GetTokenAccountsByOwner(
		ctx,
		owner,
		&rpc.GetTokenAccountsConfig{Mint: &mintKey},
		&rpc.GetTokenAccountsOpts{
			Commitment: s.commitment,
			Encoding:   solana.EncodingBase64,
		},
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to list token accounts: %w", err)
	}

	if out == nil || len(out.Value) == 0 {
		return solana.PublicKey{}, fmt.Errorf("%w: %s holds no %s", types.ErrNoHoldingAccount, owner, mint)
	}

	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err == nil {
		for _, acc := range out.Value {
			if acc.Pubkey.Equals(ata) {
				return ata, nil
			}
		}
	}

	return out.Value[0].Pubkey, nil
}

// AccountExists checks if an account exists on-chain
func (s *Solana) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	accountInfo, err := s.client.GetAccountInfo(ctx, account)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) || strings.Contains(err.Error(), "not found") {
			return false, nil
		}
		return false, err
	}

	return accountInfo.Value != nil, nil
}

// GetConfirmation maps the node's signature status onto a confirmation status.
// Unknown signatures are pending.
func (s *Solana) GetConfirmation(ctx context.Context, signature string) (types.ConfirmationStatus, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return types.ConfirmationPending, fmt.Errorf("invalid transaction signature: %w", err)
	}

	out, err := s.client.GetSignatureStatuses(ctx, false, sig)
	if err != nil {
		return types.ConfirmationPending, fmt.Errorf("failed to get signature status: %w", err)
	}

	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return types.ConfirmationPending, nil
	}

	status := out.Value[0]
	if status.Err != nil {
		s.log.Debug("transaction error reported", zap.String("signature", signature), zap.Any("err", status.Err))
		return types.ConfirmationFailed, nil
	}

	if reached(status.ConfirmationStatus, s.commitment) {
		return types.ConfirmationConfirmed, nil
	}
	return types.ConfirmationPending, nil
}

// RecentSignatures lists the latest transactions involving owner, newest first
func (s *Solana) RecentSignatures(ctx context.Context, owner solana.PublicKey, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 10
	}

	sigs, err := s.client.GetSignaturesForAddressWithOpts(ctx, owner, &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: s.commitment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get signatures: %w", err)
	}

	activity := make([]Activity, 0, len(sigs))
	for _, sig := range sigs {
		a := Activity{
			Signature: sig.Signature.String(),
			Slot:      sig.Slot,
			Failed:    sig.Err != nil,
		}
		if sig.BlockTime != nil {
			a.BlockTime = sig.BlockTime.Time()
		}
		if sig.Memo != nil {
			a.Memo = *sig.Memo
		}
		activity = append(activity, a)
	}

	return activity, nil
}

// GetTransactionInfo retrieves information about a transaction
func (s *Solana) GetTransactionInfo(ctx context.Context, signature string) (*TransactionInfo, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction signature: %w", err)
	}

	txInfo, err := s.client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: s.commitment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	info := &TransactionInfo{
		Signature: signature,
		Slot:      txInfo.Slot,
	}

	if txInfo.Meta != nil {
		info.Fee = txInfo.Meta.Fee
		info.Failed = txInfo.Meta.Err != nil
	}
	if txInfo.BlockTime != nil {
		info.BlockTime = txInfo.BlockTime.Time()
	}

	return info, nil
}

// ParseCommitment returns the commitment level for a config value
func ParseCommitment(commitment string) rpc.CommitmentType {
	switch strings.ToLower(commitment) {
	case "finalized":
		return rpc.CommitmentFinalized
	case "confirmed":
		return rpc.CommitmentConfirmed
	case "processed":
		return rpc.CommitmentProcessed
	default:
		return rpc.CommitmentConfirmed
	}
}

func reached(status rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	rank := map[rpc.ConfirmationStatusType]int{
		rpc.ConfirmationStatusProcessed: 1,
		rpc.ConfirmationStatusConfirmed: 2,
		rpc.ConfirmationStatusFinalized: 3,
	}
	required := map[rpc.CommitmentType]int{
		rpc.CommitmentProcessed: 1,
		rpc.CommitmentConfirmed: 2,
		rpc.CommitmentFinalized: 3,
	}
	return rank[status] >= required[want] && rank[status] > 0
}
