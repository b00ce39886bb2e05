package wallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"blinkpay/pkg/types"
)

// Keypair is a wallet backed by a local private key. It signs and sends
// through an RPC node.
type Keypair struct {
	client        *rpc.Client
	load          KeyLoader
	commitment    rpc.CommitmentType
	skipPreflight bool
	log           *zap.Logger

	mu  sync.RWMutex
	key solana.PrivateKey

	// one transaction at a time per key
	sendMu sync.Mutex
}

// Option configures a Keypair wallet
type Option func(*Keypair)

// WithCommitment sets the preflight commitment
func WithCommitment(c rpc.CommitmentType) Option {
	return func(k *Keypair) {
		k.commitment = c
	}
}

// WithSkipPreflight disables simulation before sending
func WithSkipPreflight(skip bool) Option {
	return func(k *Keypair) {
		k.skipPreflight = skip
	}
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(k *Keypair) {
		if log != nil {
			k.log = log
		}
	}
}

// NewKeypair creates a disconnected wallet. The key is loaded on Connect.
func NewKeypair(client *rpc.Client, load KeyLoader, opts ...Option) *Keypair {
	k := &Keypair{
		client:     client,
		load:       load,
		commitment: rpc.CommitmentConfirmed,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Connect loads the signing key
func (k *Keypair) Connect(ctx context.Context) error {
	key, err := k.load(ctx)
	if err != nil {
		return err
	}

	k.mu.Lock()
	k.key = key
	k.mu.Unlock()

	k.log.Debug("wallet connected", zap.String("public_key", key.PublicKey().String()))
	return nil
}

// Disconnect forgets the signing key
func (k *Keypair) Disconnect() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.key = nil
}

// Connected returns true when a key is loaded
func (k *Keypair) Connected() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.key) > 0
}

// PublicKey returns the wallet address, or the zero key when disconnected
func (k *Keypair) PublicKey() solana.PublicKey {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if len(k.key) == 0 {
		return solana.PublicKey{}
	}
	return k.key.PublicKey()
}

// SignAndSend signs instr with the wallet key and broadcasts it
func (k *Keypair) SignAndSend(ctx context.Context, instr *types.Instruction) (string, error) {
	k.mu.RLock()
	key := k.key
	k.mu.RUnlock()

	if len(key) == 0 {
		return "", types.ErrWalletNotConnected
	}

	publicKey := key.PublicKey()
	if !instr.Payer.Equals(publicKey) {
		return "", fmt.Errorf("instruction payer %s does not match wallet %s", instr.Payer, publicKey)
	}

	k.sendMu.Lock()
	defer k.sendMu.Unlock()

	recent, err := k.client.GetLatestBlockhash(ctx, k.commitment)
	if err != nil {
		return "", fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instr.Instructions,
		recent.Value.Blockhash,
		solana.TransactionPayer(publicKey),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create transaction: %w", err)
	}

	_, err = tx.Sign(func(signer solana.PublicKey) *solana.PrivateKey {
		if signer.Equals(publicKey) {
			return &key
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := k.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       k.skipPreflight,
		PreflightCommitment: k.commitment,
	})
	if err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	return sig.String(), nil
}
