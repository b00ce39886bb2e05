// Package flow runs a transfer from a filled form to a single user
// notification: validate, build, sign and send, confirm, report.
package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"blinkpay/pkg/asset"
	"blinkpay/pkg/executor"
	"blinkpay/pkg/form"
	"blinkpay/pkg/types"
)

// Kind selects the wording of the outcome notification
type Kind string

const (
	KindDonation Kind = "donation"
	KindPayment  Kind = "payment"
	KindStake    Kind = "stake"
	KindSwap     Kind = "swap"
)

var successTitles = map[Kind]string{
	KindDonation: "Thank you for your donation!",
	KindPayment:  "Payment Sent",
	KindStake:    "Staking Successful",
	KindSwap:     "Swap Deposit Sent",
}

var failureTitles = map[Kind]string{
	KindDonation: "Donation Failed",
	KindPayment:  "Payment Failed",
	KindStake:    "Staking Failed",
	KindSwap:     "Swap Failed",
}

// SuccessTitle returns the notification title for a confirmed transfer
func (k Kind) SuccessTitle() string {
	if t, ok := successTitles[k]; ok {
		return t
	}
	return "Transaction Confirmed"
}

// FailureTitle returns the notification title for a failed transfer
func (k Kind) FailureTitle() string {
	if t, ok := failureTitles[k]; ok {
		return t
	}
	return "Transaction Failed"
}

// Wallet is the signing capability a flow submits through
type Wallet interface {
	Connect(ctx context.Context) error
	Disconnect()
	Connected() bool
	PublicKey() solana.PublicKey
	executor.Signer
}

// TransferBuilder builds unsigned instructions
type TransferBuilder interface {
	Build(ctx context.Context, req types.TransferRequest) (*types.Instruction, error)
}

// Submitter signs, sends and confirms an instruction
type Submitter interface {
	Submit(ctx context.Context, signer executor.Signer, instr *types.Instruction) (*executor.Submission, error)
}

// Notifier shows outcome notifications
type Notifier interface {
	Enqueue(item types.NotificationItem) string
}

// PriceSource supplies unit prices for fiat equivalents
type PriceSource interface {
	Prices() map[string]decimal.Decimal
}

// Flow submits transfers described by forms. Dependencies are injected, none
// are global.
type Flow struct {
	wallet    Wallet
	registry  *asset.Registry
	builder   TransferBuilder
	submitter Submitter
	notifier  Notifier
	prices    PriceSource
	currency  string
	serialize bool
	onSubmit  func(*executor.Submission)
	log       *zap.Logger

	mu       sync.Mutex
	inFlight map[solana.PublicKey]bool
}

// Option configures a Flow
type Option func(*Flow)

// WithPrices enables fiat equivalents in notifications
func WithPrices(p PriceSource, currency string) Option {
	return func(f *Flow) {
		f.prices = p
		if currency != "" {
			f.currency = currency
		}
	}
}

// WithSerializedSubmissions rejects a submission while another one from the
// same account is still running
func WithSerializedSubmissions(enabled bool) Option {
	return func(f *Flow) {
		f.serialize = enabled
	}
}

// WithSubmissionHook is called with every submission that reached the executor
func WithSubmissionHook(fn func(*executor.Submission)) Option {
	return func(f *Flow) {
		f.onSubmit = fn
	}
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(f *Flow) {
		if log != nil {
			f.log = log
		}
	}
}

// New creates a flow
func New(wallet Wallet, registry *asset.Registry, builder TransferBuilder, submitter Submitter, notifier Notifier, opts ...Option) *Flow {
	f := &Flow{
		wallet:    wallet,
		registry:  registry,
		builder:   builder,
		submitter: submitter,
		notifier:  notifier,
		currency:  "USD",
		serialize: true,
		log:       zap.NewNop(),
		inFlight:  make(map[solana.PublicKey]bool),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Wallet returns the wallet the flow signs with
func (f *Flow) Wallet() Wallet {
	return f.wallet
}

// SubmitOption adjusts a single submission
type SubmitOption func(*submitOptions)

type submitOptions struct {
	target string
}

// WithTarget names the recipient in the notification, e.g. a campaign name
func WithTarget(name string) SubmitOption {
	return func(o *submitOptions) {
		o.target = name
	}
}

// Submit runs one transfer for the form and enqueues exactly one notification
// describing the outcome. Errors never escape: they are reported through the
// notification and the returned result.
func (f *Flow) Submit(ctx context.Context, kind Kind, fm *form.Form, opts ...SubmitOption) types.SubmissionResult {
	var o submitOptions
	for _, opt := range opts {
		opt(&o)
	}

	if !f.wallet.Connected() {
		return f.fail("", "Wallet not connected", "Please connect your wallet to make a payment.")
	}

	if errs := fm.Validate(); errs != nil {
		f.log.Debug("form rejected", zap.Strings("fields", errs.Fields()))
		return f.fail("", kind.FailureTitle(), errs.Error())
	}

	source := f.wallet.PublicKey()
	req, err := fm.Request(source, f.registry)
	if err != nil {
		return f.fail("", kind.FailureTitle(), err.Error())
	}

	if f.serialize {
		if !f.acquire(source) {
			return f.fail("", kind.FailureTitle(), types.ErrSubmissionInFlight.Error())
		}
		defer f.release(source)
	}

	instr, err := f.builder.Build(ctx, req)
	if err != nil {
		f.log.Info("build failed", zap.String("kind", string(kind)), zap.Error(err))
		return f.fail("", kind.FailureTitle(), err.Error())
	}

	sub, err := f.submitter.Submit(ctx, f.wallet, instr)
	if sub != nil && f.onSubmit != nil {
		f.onSubmit(sub)
	}
	if err != nil {
		var subErr *types.SubmissionError
		state := types.StateRejected
		if errors.As(err, &subErr) {
			state = subErr.State
		}
		result := types.Failure(state, err.Error())
		if sub != nil {
			result = sub.Result()
		}
		f.enqueue(kind.FailureTitle(), result.Reason, types.SeverityError)
		return result
	}

	result := sub.Result()
	f.enqueue(kind.SuccessTitle(), f.successBody(kind, fm, req, o.target), types.SeveritySuccess)
	fm.Reset()
	return result
}

func (f *Flow) successBody(kind Kind, fm *form.Form, req types.TransferRequest, target string) string {
	amount := fmt.Sprintf("%s %s", req.Amount.String(), req.Symbol)

	fiat := ""
	if f.prices != nil {
		if v := fm.FiatEquivalent(f.prices.Prices()); v.IsPositive() {
			fiat = fmt.Sprintf(" (≈$%s %s)", v.StringFixed(2), f.currency)
		}
	}

	switch kind {
	case KindDonation:
		if target != "" {
			return fmt.Sprintf("You have donated %s%s to %s.", amount, fiat, target)
		}
		return fmt.Sprintf("You have donated %s%s.", amount, fiat)
	case KindStake:
		return fmt.Sprintf("You have successfully staked %s%s.", amount, fiat)
	case KindSwap:
		return fmt.Sprintf("%s%s deposited to %s", amount, fiat, shortAddress(req.Destination))
	default:
		return fmt.Sprintf("%s%s sent to %s", amount, fiat, shortAddress(req.Destination))
	}
}

func (f *Flow) fail(state types.SubmissionState, title, reason string) types.SubmissionResult {
	f.enqueue(title, reason, types.SeverityError)
	return types.Failure(state, reason)
}

func (f *Flow) enqueue(title, body string, severity types.Severity) {
	f.notifier.Enqueue(types.NotificationItem{Title: title, Body: body, Severity: severity})
}

func (f *Flow) acquire(source solana.PublicKey) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight[source] {
		return false
	}
	f.inFlight[source] = true
	return true
}

func (f *Flow) release(source solana.PublicKey) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.inFlight, source)
}

func shortAddress(addr string) string {
	if len(addr) <= 8 {
		return addr
	}
	return addr[:4] + "..." + addr[len(addr)-4:]
}
