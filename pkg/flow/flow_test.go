package flow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blinkpay/config"
	"blinkpay/pkg/asset"
	"blinkpay/pkg/builder"
	"blinkpay/pkg/executor"
	"blinkpay/pkg/form"
	"blinkpay/pkg/types"
)

const campaignAddress = "BARKkeAwhTuFzcLHX4DjotRsmjXQ1MshGrZbn1CUQqMo"

type fakeWallet struct {
	key       solana.PublicKey
	connected bool
	signature string
	signErr   error
	signs     atomic.Int32
}

func newFakeWallet() *fakeWallet {
	return &fakeWallet{key: solana.NewWallet().PublicKey(), connected: true, signature: "5igSig"}
}

func (w *fakeWallet) Connect(ctx context.Context) error { w.connected = true; return nil }
func (w *fakeWallet) Disconnect()                       { w.connected = false }
func (w *fakeWallet) Connected() bool                   { return w.connected }

func (w *fakeWallet) PublicKey() solana.PublicKey {
	if !w.connected {
		return solana.PublicKey{}
	}
	return w.key
}

func (w *fakeWallet) SignAndSend(ctx context.Context, instr *types.Instruction) (string, error) {
	w.signs.Add(1)
	return w.signature, w.signErr
}

type fixedConfirmer types.ConfirmationStatus

func (c fixedConfirmer) GetConfirmation(ctx context.Context, signature string) (types.ConfirmationStatus, error) {
	return types.ConfirmationStatus(c), nil
}

type countingBuilder struct {
	next  TransferBuilder
	calls atomic.Int32
}

func (b *countingBuilder) Build(ctx context.Context, req types.TransferRequest) (*types.Instruction, error) {
	b.calls.Add(1)
	return b.next.Build(ctx, req)
}

type recordingNotifier struct {
	mu    sync.Mutex
	items []types.NotificationItem
}

func (n *recordingNotifier) Enqueue(item types.NotificationItem) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, item)
	return item.Title
}

func (n *recordingNotifier) all() []types.NotificationItem {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]types.NotificationItem(nil), n.items...)
}

type staticPrices map[string]decimal.Decimal

func (p staticPrices) Prices() map[string]decimal.Decimal { return p }

type harness struct {
	flow     *Flow
	wallet   *fakeWallet
	builder  *countingBuilder
	notifier *recordingNotifier
	registry *asset.Registry
}

func newHarness(t *testing.T, status types.ConfirmationStatus, opts ...Option) *harness {
	t.Helper()

	registry, err := asset.NewRegistry(config.DefaultAssets())
	require.NoError(t, err)

	h := &harness{
		wallet:   newFakeWallet(),
		builder:  &countingBuilder{next: builder.New(nil)},
		notifier: &recordingNotifier{},
		registry: registry,
	}
	exec := executor.New(fixedConfirmer(status),
		executor.WithPollInterval(5*time.Millisecond),
		executor.WithMaxWait(50*time.Millisecond),
	)
	h.flow = New(h.wallet, registry, h.builder, exec, h.notifier, opts...)
	return h
}

func donationForm(amount string) *form.Form {
	fm := form.New(form.WithDestination(campaignAddress))
	fm.Set(form.FieldAsset, "SOL")
	fm.Set(form.FieldAmount, amount)
	return fm
}

func TestSubmit_DonationSuccess(t *testing.T) {
	h := newHarness(t, types.ConfirmationConfirmed,
		WithPrices(staticPrices{"SOL": decimal.NewFromInt(150)}, "USD"))
	fm := donationForm("2")

	result := h.flow.Submit(context.Background(), KindDonation, fm, WithTarget("Animal Shelter Support"))

	require.True(t, result.Succeeded())
	assert.Equal(t, "5igSig", result.Signature)

	items := h.notifier.all()
	require.Len(t, items, 1)
	assert.Equal(t, "Thank you for your donation!", items[0].Title)
	assert.Equal(t, "You have donated 2 SOL (≈$300.00 USD) to Animal Shelter Support.", items[0].Body)
	assert.Equal(t, types.SeveritySuccess, items[0].Severity)

	assert.Empty(t, fm.Get(form.FieldAmount))
	assert.Equal(t, campaignAddress, fm.Get(form.FieldDestination))
}

func TestSubmit_PaymentBody(t *testing.T) {
	h := newHarness(t, types.ConfirmationConfirmed)
	fm := donationForm("0.5")

	result := h.flow.Submit(context.Background(), KindPayment, fm)
	require.True(t, result.Succeeded())

	items := h.notifier.all()
	require.Len(t, items, 1)
	assert.Equal(t, "Payment Sent", items[0].Title)
	assert.Equal(t, "0.5 SOL sent to BARK...QqMo", items[0].Body)
}

func TestSubmit_ValidationFailureNeverBuilds(t *testing.T) {
	h := newHarness(t, types.ConfirmationConfirmed)
	fm := donationForm("-1")

	result := h.flow.Submit(context.Background(), KindDonation, fm)

	assert.False(t, result.Succeeded())
	assert.Zero(t, h.builder.calls.Load())
	assert.Zero(t, h.wallet.signs.Load())

	items := h.notifier.all()
	require.Len(t, items, 1)
	assert.Equal(t, "Donation Failed", items[0].Title)
	assert.Equal(t, "amount must be positive", items[0].Body)
	assert.Equal(t, "-1", fm.Get(form.FieldAmount))
}

func TestSubmit_WalletNotConnected(t *testing.T) {
	h := newHarness(t, types.ConfirmationConfirmed)
	h.wallet.Disconnect()

	result := h.flow.Submit(context.Background(), KindPayment, donationForm("1"))

	assert.False(t, result.Succeeded())
	assert.Zero(t, h.builder.calls.Load())

	items := h.notifier.all()
	require.Len(t, items, 1)
	assert.Equal(t, "Wallet not connected", items[0].Title)
}

func TestSubmit_SignerRejected(t *testing.T) {
	h := newHarness(t, types.ConfirmationConfirmed)
	h.wallet.signErr = errors.New("user rejected the request")
	fm := donationForm("1")

	result := h.flow.Submit(context.Background(), KindStake, fm)

	assert.False(t, result.Succeeded())
	assert.Equal(t, types.StateRejected, result.State)

	items := h.notifier.all()
	require.Len(t, items, 1)
	assert.Equal(t, "Staking Failed", items[0].Title)
	assert.Equal(t, "user rejected the request", items[0].Body)
	assert.Equal(t, types.SeverityError, items[0].Severity)
	assert.Equal(t, "1", fm.Get(form.FieldAmount))
}

func TestSubmit_FailedOnChain(t *testing.T) {
	h := newHarness(t, types.ConfirmationFailed)

	result := h.flow.Submit(context.Background(), KindPayment, donationForm("1"))

	assert.False(t, result.Succeeded())
	assert.Equal(t, "5igSig", result.Signature)
	require.Len(t, h.notifier.all(), 1)
	assert.Equal(t, "Payment Failed", h.notifier.all()[0].Title)
}

func TestSubmit_TimedOut(t *testing.T) {
	h := newHarness(t, types.ConfirmationPending)

	result := h.flow.Submit(context.Background(), KindPayment, donationForm("1"))

	assert.False(t, result.Succeeded())
	assert.Equal(t, types.StateTimedOut, result.State)
	require.Len(t, h.notifier.all(), 1)
}

func TestSubmit_BuildFailure(t *testing.T) {
	h := newHarness(t, types.ConfirmationConfirmed)
	fm := donationForm("0.0000000001")

	result := h.flow.Submit(context.Background(), KindDonation, fm)

	assert.False(t, result.Succeeded())
	assert.Equal(t, int32(1), h.builder.calls.Load())
	assert.Zero(t, h.wallet.signs.Load())
	require.Len(t, h.notifier.all(), 1)
	assert.Contains(t, h.notifier.all()[0].Body, "decimal places")
}

// gatedBuilder blocks in Build until release is closed
type gatedBuilder struct {
	entered chan struct{}
	release chan struct{}
	next    TransferBuilder
	once    sync.Once
}

func (b *gatedBuilder) Build(ctx context.Context, req types.TransferRequest) (*types.Instruction, error) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return b.next.Build(ctx, req)
}

func TestSubmit_InFlightGuard(t *testing.T) {
	h := newHarness(t, types.ConfirmationConfirmed)
	gate := &gatedBuilder{entered: make(chan struct{}), release: make(chan struct{}), next: builder.New(nil)}
	h.flow.builder = gate

	first := make(chan types.SubmissionResult, 1)
	go func() {
		first <- h.flow.Submit(context.Background(), KindPayment, donationForm("1"))
	}()
	<-gate.entered

	second := h.flow.Submit(context.Background(), KindPayment, donationForm("2"))
	assert.False(t, second.Succeeded())
	assert.Equal(t, types.ErrSubmissionInFlight.Error(), second.Reason)

	close(gate.release)
	assert.True(t, (<-first).Succeeded())

	third := h.flow.Submit(context.Background(), KindPayment, donationForm("3"))
	assert.True(t, third.Succeeded())
	assert.Len(t, h.notifier.all(), 3)
}

func TestSubmit_SubmissionHook(t *testing.T) {
	var history []types.StateChange
	h := newHarness(t, types.ConfirmationConfirmed, WithSubmissionHook(func(sub *executor.Submission) {
		history = sub.History()
	}))

	require.True(t, h.flow.Submit(context.Background(), KindPayment, donationForm("1")).Succeeded())
	require.Len(t, history, 2)
	assert.Equal(t, types.StateConfirmed, history[1].To)
}

func TestKindTitles(t *testing.T) {
	assert.Equal(t, "Swap Deposit Sent", KindSwap.SuccessTitle())
	assert.Equal(t, "Swap Failed", KindSwap.FailureTitle())
	assert.Equal(t, "Transaction Confirmed", Kind("other").SuccessTitle())
	assert.Equal(t, "Transaction Failed", Kind("other").FailureTitle())
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "BARK...QqMo", shortAddress(campaignAddress))
	assert.Equal(t, "abc", shortAddress("abc"))
}
