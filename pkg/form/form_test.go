package form

import (
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blinkpay/config"
	"blinkpay/pkg/asset"
	"blinkpay/pkg/types"
)

const dest = "BARKkeAwhTuFzcLHX4DjotRsmjXQ1MshGrZbn1CUQqMo"

func TestValidate_RequiredFields(t *testing.T) {
	f := New()

	errs := f.Validate()
	require.NotNil(t, errs)
	assert.Equal(t, []string{FieldAmount, FieldAsset, FieldDestination}, errs.Fields())
}

func TestValidate_Amount(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"-1", "amount must be positive"},
		{"0", "amount must be positive"},
		{"abc", "amount must be a number"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			f := New(WithDestination(dest))
			f.Set(FieldAsset, "SOL")
			f.Set(FieldAmount, tt.amount)

			errs := f.Validate()
			require.NotNil(t, errs)
			assert.Equal(t, tt.want, errs[FieldAmount])
			assert.False(t, errs.Has(FieldDestination))
		})
	}
}

func TestValidate_Destination(t *testing.T) {
	f := New(WithDestination("nope"))
	f.Set(FieldAsset, "SOL")
	f.Set(FieldAmount, "1")

	errs := f.Validate()
	require.NotNil(t, errs)
	assert.True(t, errs.Has(FieldDestination))
	assert.Equal(t, "nope", f.Get(FieldDestination))
}

func TestValidate_Valid(t *testing.T) {
	f := New(WithDestination(dest))
	f.Set(FieldAsset, "SOL")
	f.Set(FieldAmount, "0.5")

	assert.Nil(t, f.Validate())
}

func TestFiatEquivalent(t *testing.T) {
	prices := map[string]decimal.Decimal{"SOL": decimal.NewFromInt(150)}

	f := New()
	f.Set(FieldAsset, "sol")
	f.Set(FieldAmount, "10")
	assert.Equal(t, "1500.00", f.FiatString(prices))

	f.Set(FieldAsset, "USDC")
	assert.True(t, f.FiatEquivalent(prices).IsZero())

	f.Set(FieldAsset, "SOL")
	f.Set(FieldAmount, "")
	assert.True(t, f.FiatEquivalent(prices).IsZero())
}

func TestReset_KeepsDestination(t *testing.T) {
	f := New(WithDestination(dest))
	f.Set(FieldAsset, "SOL")
	f.Set(FieldAmount, "1")

	f.Reset()

	assert.Empty(t, f.Get(FieldAmount))
	assert.Equal(t, "SOL", f.Get(FieldAsset))
	assert.Equal(t, dest, f.Get(FieldDestination))
}

func TestRequest(t *testing.T) {
	registry, err := asset.NewRegistry(config.DefaultAssets())
	require.NoError(t, err)
	source := solana.NewWallet().PublicKey()

	f := New(WithDestination(dest))
	f.Set(FieldAsset, "usdc")
	f.Set(FieldAmount, " 2.5 ")

	req, err := f.Request(source, registry)
	require.NoError(t, err)
	assert.Equal(t, "USDC", req.Symbol)
	assert.True(t, req.Amount.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, source, req.Source)
	assert.Equal(t, dest, req.Destination)
	assert.IsType(t, types.Fungible{}, req.Asset)

	f.Set(FieldAsset, "DOGE")
	_, err = f.Request(source, registry)
	assert.ErrorIs(t, err, types.ErrUnsupportedAsset)

	f.Set(FieldAmount, "-3")
	_, err = f.Request(source, registry)
	var verrs types.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestRequest_ConcurrentSet(t *testing.T) {
	registry, err := asset.NewRegistry(config.DefaultAssets())
	require.NoError(t, err)
	source := solana.NewWallet().PublicKey()

	f := New(WithDestination(dest))
	f.Set(FieldAsset, "SOL")
	f.Set(FieldAmount, "1")

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		values := []string{"1", "abc"}
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
				f.Set(FieldAmount, values[i%2])
			}
		}
	}()

	for i := 0; i < 20000; i++ {
		require.NotPanics(t, func() {
			req, err := f.Request(source, registry)
			if err != nil {
				var verrs types.ValidationErrors
				require.ErrorAs(t, err, &verrs)
				assert.Equal(t, "amount must be a number", verrs[FieldAmount])
				return
			}
			assert.True(t, req.Amount.Equal(decimal.NewFromInt(1)))
		})
	}
	close(done)
	wg.Wait()
}
