// Package form holds user-entered transfer fields and derives values from them.
package form

import (
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"blinkpay/pkg/asset"
	"blinkpay/pkg/types"
)

// Field names
const (
	FieldAmount      = "amount"
	FieldAsset       = "asset"
	FieldDestination = "destination"
)

// Form is the state of one transfer form. It is safe for concurrent use.
type Form struct {
	mu       sync.RWMutex
	fields   map[string]string
	required []string
}

// Option configures a Form
type Option func(*Form)

// WithDestination pre-fills the destination, as donation and staking forms do
func WithDestination(address string) Option {
	return func(f *Form) {
		f.fields[FieldDestination] = address
	}
}

// New creates a form requiring amount, asset and destination
func New(opts ...Option) *Form {
	f := &Form{
		fields:   make(map[string]string),
		required: []string{FieldAmount, FieldAsset, FieldDestination},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Set updates a field
func (f *Form) Set(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields[name] = value
}

// Get returns the current value of a field
func (f *Form) Get(name string) string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.fields[name]
}

// Fields returns a copy of all fields
func (f *Form) Fields() map[string]string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make(map[string]string, len(f.fields))
	for k, v := range f.fields {
		out[k] = v
	}
	return out
}

// Reset clears amount after a successful submission, keeping asset and destination
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.fields, FieldAmount)
}

// Validate returns the fields currently failing their constraints. It never
// modifies the form. A nil result means the form is valid.
func (f *Form) Validate() types.ValidationErrors {
	return validate(f.required, f.Fields())
}

func validate(required []string, fields map[string]string) types.ValidationErrors {
	errs := make(types.ValidationErrors)

	for _, name := range required {
		if strings.TrimSpace(fields[name]) == "" {
			errs[name] = name + " is required"
		}
	}

	if raw := strings.TrimSpace(fields[FieldAmount]); raw != "" {
		amount, err := decimal.NewFromString(raw)
		switch {
		case err != nil:
			errs[FieldAmount] = "amount must be a number"
		case !amount.IsPositive():
			errs[FieldAmount] = "amount must be positive"
		}
	}

	if dest := strings.TrimSpace(fields[FieldDestination]); dest != "" {
		if _, err := solana.PublicKeyFromBase58(dest); err != nil {
			errs[FieldDestination] = "destination must be a valid address"
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// FiatEquivalent returns amount × price of the selected asset. An asset missing
// from prices, or an amount that does not parse, yields zero.
func (f *Form) FiatEquivalent(prices map[string]decimal.Decimal) decimal.Decimal {
	f.mu.RLock()
	raw := strings.TrimSpace(f.fields[FieldAmount])
	symbol := asset.NormalizeSymbol(f.fields[FieldAsset])
	f.mu.RUnlock()

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}

	price, ok := prices[symbol]
	if !ok {
		return decimal.Zero
	}

	return amount.Mul(price)
}

// FiatString formats the fiat equivalent with two decimals
func (f *Form) FiatString(prices map[string]decimal.Decimal) string {
	return f.FiatEquivalent(prices).StringFixed(2)
}

// Request validates the form and turns it into a transfer request from source.
// Fields are read once, so a concurrent Set cannot change them between
// validation and conversion.
func (f *Form) Request(source solana.PublicKey, registry *asset.Registry) (types.TransferRequest, error) {
	fields := f.Fields()
	if errs := validate(f.required, fields); errs != nil {
		return types.TransferRequest{}, errs
	}

	a, err := registry.Lookup(fields[FieldAsset])
	if err != nil {
		return types.TransferRequest{}, err
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(fields[FieldAmount]))
	if err != nil {
		return types.TransferRequest{}, types.ValidationErrors{FieldAmount: "amount must be a number"}
	}

	return types.TransferRequest{
		Asset:       a.Kind,
		Symbol:      a.Symbol,
		Amount:      amount,
		Source:      source,
		Destination: strings.TrimSpace(fields[FieldDestination]),
	}, nil
}
