package builder

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blinkpay/pkg/types"
)

type fakeLedger struct {
	holding     solana.PublicKey
	holdingErr  error
	exists      bool
	findCalls   int
	existsCalls int
}

func (f *fakeLedger) FindHoldingAccount(ctx context.Context, owner, mint solana.PublicKey) (solana.PublicKey, error) {
	f.findCalls++
	return f.holding, f.holdingErr
}

func (f *fakeLedger) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	f.existsCalls++
	return f.exists, nil
}

var usdcMint = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")

func request(kind types.AssetKind, amount string, dest string) types.TransferRequest {
	return types.TransferRequest{
		Asset:       kind,
		Symbol:      "TEST",
		Amount:      decimal.RequireFromString(amount),
		Source:      solana.NewWallet().PublicKey(),
		Destination: dest,
	}
}

func TestBuild_InvalidDestinationSkipsLedger(t *testing.T) {
	ledger := &fakeLedger{}
	b := New(ledger)

	for _, dest := range []string{"", "not-an-address", "0xabc"} {
		_, err := b.Build(context.Background(), request(types.Fungible{Mint: usdcMint, Decimals: 6}, "1", dest))
		assert.ErrorIs(t, err, types.ErrInvalidDestination, dest)
	}

	assert.Zero(t, ledger.findCalls)
	assert.Zero(t, ledger.existsCalls)
}

func TestBuild_Native(t *testing.T) {
	dest := solana.NewWallet().PublicKey()
	req := request(types.Native{}, "1.5", dest.String())

	instr, err := New(nil).Build(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, uint64(1_500_000_000), instr.BaseUnits)
	assert.Equal(t, req.Source, instr.Payer)
	require.Len(t, instr.Instructions, 1)

	ix := instr.Instructions[0]
	assert.Equal(t, system.ProgramID, ix.ProgramID())

	accounts := ix.Accounts()
	require.Len(t, accounts, 2)
	assert.Equal(t, req.Source, accounts[0].PublicKey)
	assert.True(t, accounts[0].IsSigner)
	assert.Equal(t, dest, accounts[1].PublicKey)

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 12)
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[:4]))
	assert.Equal(t, uint64(1_500_000_000), binary.LittleEndian.Uint64(data[4:]))
}

func TestBuild_NativeExcessPrecision(t *testing.T) {
	req := request(types.Native{}, "0.0000000001", solana.NewWallet().PublicKey().String())

	_, err := New(nil).Build(context.Background(), req)
	assert.ErrorIs(t, err, types.ErrInvalidAmount)
}

func TestBuild_FungibleExistingDestination(t *testing.T) {
	holding := solana.NewWallet().PublicKey()
	ledger := &fakeLedger{holding: holding, exists: true}
	dest := solana.NewWallet().PublicKey()

	instr, err := New(ledger).Build(context.Background(), request(types.Fungible{Mint: usdcMint, Decimals: 6}, "2.5", dest.String()))
	require.NoError(t, err)

	assert.Equal(t, uint64(2_500_000), instr.BaseUnits)
	require.Len(t, instr.Instructions, 1)

	ix := instr.Instructions[0]
	assert.Equal(t, token.ProgramID, ix.ProgramID())

	destATA, _, err := solana.FindAssociatedTokenAddress(dest, usdcMint)
	require.NoError(t, err)

	accounts := ix.Accounts()
	require.GreaterOrEqual(t, len(accounts), 3)
	assert.Equal(t, holding, accounts[0].PublicKey)
	assert.Equal(t, destATA, accounts[1].PublicKey)
	assert.Equal(t, instr.Payer, accounts[2].PublicKey)
}

func TestBuild_FungibleCreatesDestinationAccount(t *testing.T) {
	ledger := &fakeLedger{holding: solana.NewWallet().PublicKey(), exists: false}

	instr, err := New(ledger).Build(context.Background(), request(types.Fungible{Mint: usdcMint, Decimals: 6}, "1", solana.NewWallet().PublicKey().String()))
	require.NoError(t, err)

	require.Len(t, instr.Instructions, 2)
	assert.Equal(t, solana.SPLAssociatedTokenAccountProgramID, instr.Instructions[0].ProgramID())
	assert.Equal(t, token.ProgramID, instr.Instructions[1].ProgramID())
}

func TestBuild_FungibleNoHoldingAccount(t *testing.T) {
	ledger := &fakeLedger{holdingErr: fmt.Errorf("%w: USDC", types.ErrNoHoldingAccount)}

	_, err := New(ledger).Build(context.Background(), request(types.Fungible{Mint: usdcMint, Decimals: 6}, "1", solana.NewWallet().PublicKey().String()))
	assert.ErrorIs(t, err, types.ErrNoHoldingAccount)
	assert.Zero(t, ledger.existsCalls)
}

func TestBuild_FungibleLedgerFailure(t *testing.T) {
	ledger := &fakeLedger{holdingErr: errors.New("rpc down")}

	_, err := New(ledger).Build(context.Background(), request(types.Fungible{Mint: usdcMint, Decimals: 6}, "1", solana.NewWallet().PublicKey().String()))
	require.Error(t, err)
	assert.NotErrorIs(t, err, types.ErrNoHoldingAccount)
	assert.Contains(t, err.Error(), "rpc down")
}

func TestBuild_MissingSource(t *testing.T) {
	req := request(types.Native{}, "1", solana.NewWallet().PublicKey().String())
	req.Source = solana.PublicKey{}

	_, err := New(nil).Build(context.Background(), req)
	assert.ErrorIs(t, err, types.ErrWalletNotConnected)
}

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		amount   string
		decimals uint8
		want     uint64
		wantErr  bool
	}{
		{"1", 9, 1_000_000_000, false},
		{"0.000000001", 9, 1, false},
		{"123.456", 6, 123_456_000, false},
		{"1.2345678", 6, 0, true},
		{"0", 6, 0, true},
		{"-5", 6, 0, true},
		{"99999999999999999999", 9, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got, err := ToBaseUnits(decimal.RequireFromString(tt.amount), tt.decimals)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromBaseUnits(t *testing.T) {
	assert.Equal(t, "1.5", FromBaseUnits(1_500_000, 6).String())
	assert.Equal(t, "0.000000001", FromBaseUnits(1, 9).String())
}
