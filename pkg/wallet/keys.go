package wallet

import (
	"context"
	"fmt"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/gagliardetto/solana-go"

	"blinkpay/config"
)

// KeyLoader produces the signing key when the wallet connects
type KeyLoader func(ctx context.Context) (solana.PrivateKey, error)

// ParameterStore reads a single parameter. *ssm.Client satisfies it.
type ParameterStore interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// LoaderFromConfig picks the key source named in the wallet config
func LoaderFromConfig(cfg config.WalletConfig) (KeyLoader, error) {
	switch strings.ToLower(cfg.KeySource) {
	case "", "env":
		return func(context.Context) (solana.PrivateKey, error) {
			return FromBase58(cfg.PrivateKey)
		}, nil
	case "file":
		return func(context.Context) (solana.PrivateKey, error) {
			return FromKeygenFile(cfg.KeyFile)
		}, nil
	case "ssm":
		return func(ctx context.Context) (solana.PrivateKey, error) {
			store, err := newSSMClient(ctx)
			if err != nil {
				return nil, err
			}
			return FromParameterStore(ctx, store, cfg.SSMParameter)
		}, nil
	default:
		return nil, fmt.Errorf("unknown wallet.key_source %q (expected env, file or ssm)", cfg.KeySource)
	}
}

// FromBase58 parses a base58 encoded private key
func FromBase58(encoded string) (solana.PrivateKey, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, fmt.Errorf("private key not configured. Set BLINKPAY_WALLET_PRIVATE_KEY or wallet.private_key")
	}

	key, err := solana.PrivateKeyFromBase58(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

// FromKeygenFile reads a key written by solana-keygen
func FromKeygenFile(path string) (solana.PrivateKey, error) {
	if path == "" {
		return nil, fmt.Errorf("wallet.key_file is not set")
	}

	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file %s: %w", path, err)
	}
	return key, nil
}

// FromParameterStore reads a base58 key from an encrypted SSM parameter
func FromParameterStore(ctx context.Context, store ParameterStore, name string) (solana.PrivateKey, error) {
	if name == "" {
		return nil, fmt.Errorf("wallet.ssm_parameter is not set")
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	decrypt := true
	result, err := store.GetParameter(ctxWithTimeout, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &decrypt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter %s: %w", name, err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return nil, fmt.Errorf("parameter %s has no value", name)
	}

	return FromBase58(*result.Parameter.Value)
}

func newSSMClient(ctx context.Context) (*ssm.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return ssm.NewFromConfig(cfg), nil
}
