package pricing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"blinkpay/pkg/types"
)

const DefaultInterval = 60 * time.Second

// Notifier receives fetch failures
type Notifier interface {
	Notify(title, body string, severity types.Severity) string
}

// Fetcher keeps the latest prices (and optionally one account balance) in
// memory, refreshing them on a fixed interval between Start and Stop.
type Fetcher struct {
	prices   PriceService
	symbols  []string
	interval time.Duration
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
	onUpdate func()

	balances BalanceService
	owner    solana.PublicKey

	mu        sync.RWMutex
	quotes    map[string]types.PriceQuote
	balance   decimal.Decimal
	balanceAt time.Time
	hasBal    bool

	// generation is bumped by Start and Stop. Results fetched under an
	// older generation are dropped.
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
}

// FetcherOption configures a Fetcher
type FetcherOption func(*Fetcher)

// WithInterval sets the refresh interval
func WithInterval(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.interval = d
		}
	}
}

// WithNotifier reports fetch failures to the user
func WithNotifier(n Notifier) FetcherOption {
	return func(f *Fetcher) {
		f.notifier = n
	}
}

// WithBalance tracks the native balance of owner
func WithBalance(svc BalanceService, owner solana.PublicKey) FetcherOption {
	return func(f *Fetcher) {
		f.balances = svc
		f.owner = owner
	}
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) FetcherOption {
	return func(f *Fetcher) {
		if log != nil {
			f.log = log
		}
	}
}

// WithOnUpdate is called after each successful refresh
func WithOnUpdate(fn func()) FetcherOption {
	return func(f *Fetcher) {
		f.onUpdate = fn
	}
}

// NewFetcher creates a stopped fetcher for symbols
func NewFetcher(prices PriceService, symbols []string, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		prices:   prices,
		symbols:  append([]string(nil), symbols...),
		interval: DefaultInterval,
		log:      zap.NewNop(),
		now:      time.Now,
		quotes:   make(map[string]types.PriceQuote),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Start fetches immediately and then on every interval until Stop or ctx is
// cancelled. Calling Start on a running fetcher does nothing.
func (f *Fetcher) Start(ctx context.Context) {
	f.mu.Lock()
	if f.cancel != nil {
		f.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	f.generation++
	gen := f.generation
	f.cancel = cancel
	f.done = make(chan struct{})
	done := f.done
	f.mu.Unlock()

	go func() {
		defer close(done)
		defer f.exited(done)

		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()

		for {
			f.refresh(ctx, gen)

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop cancels the refresh loop and waits for it to exit. Responses still in
// flight are discarded.
func (f *Fetcher) Stop() {
	f.mu.Lock()
	cancel, done := f.cancel, f.done
	f.cancel, f.done = nil, nil
	f.generation++
	f.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// exited clears the loop state when the loop ends on its own, so Running
// reports false and Start can begin a new loop.
func (f *Fetcher) exited(done chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done != done {
		return
	}
	f.cancel()
	f.cancel, f.done = nil, nil
}

// Running returns true while the refresh loop is active
func (f *Fetcher) Running() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.cancel != nil
}

// Refresh fetches now. The previous values are kept for whatever fails.
func (f *Fetcher) Refresh(ctx context.Context) error {
	f.mu.RLock()
	gen := f.generation
	f.mu.RUnlock()
	return f.refresh(ctx, gen)
}

func (f *Fetcher) refresh(ctx context.Context, gen uint64) error {
	var errs []error
	if err := f.refreshPrices(ctx, gen); err != nil {
		errs = append(errs, err)
	}
	if f.balances != nil {
		if err := f.refreshBalance(ctx, gen); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 && f.onUpdate != nil && f.current(gen) {
		f.onUpdate()
	}
	return errors.Join(errs...)
}

func (f *Fetcher) current(gen uint64) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return gen == f.generation
}

func (f *Fetcher) refreshPrices(ctx context.Context, gen uint64) error {
	prices, err := f.prices.GetPrices(ctx, f.symbols)

	f.mu.Lock()
	if gen != f.generation {
		f.mu.Unlock()
		return nil
	}

	if err != nil {
		f.mu.Unlock()
		f.log.Warn("price fetch failed", zap.Error(err))
		f.notify("Failed to fetch prices", err)
		return fmt.Errorf("failed to fetch prices: %w", err)
	}

	asOf := f.now()
	quotes := make(map[string]types.PriceQuote, len(prices))
	for symbol, price := range prices {
		quotes[symbol] = types.PriceQuote{Symbol: symbol, UnitPrice: price, AsOf: asOf}
	}
	f.quotes = quotes
	f.mu.Unlock()

	f.log.Debug("prices updated", zap.Int("count", len(quotes)))
	return nil
}

func (f *Fetcher) refreshBalance(ctx context.Context, gen uint64) error {
	balance, err := f.balances.GetBalance(ctx, f.owner)

	f.mu.Lock()
	if gen != f.generation {
		f.mu.Unlock()
		return nil
	}

	if err != nil {
		f.mu.Unlock()
		f.log.Warn("balance fetch failed", zap.String("owner", f.owner.String()), zap.Error(err))
		f.notify("Failed to fetch balance", err)
		return fmt.Errorf("failed to fetch balance: %w", err)
	}

	f.balance = balance
	f.balanceAt = f.now()
	f.hasBal = true
	f.mu.Unlock()
	return nil
}

func (f *Fetcher) notify(title string, err error) {
	if f.notifier != nil {
		f.notifier.Notify(title, err.Error(), types.SeverityError)
	}
}

// Prices returns a copy of the unit price map
func (f *Fetcher) Prices() map[string]decimal.Decimal {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make(map[string]decimal.Decimal, len(f.quotes))
	for symbol, q := range f.quotes {
		out[symbol] = q.UnitPrice
	}
	return out
}

// Quotes returns all quotes ordered by symbol
func (f *Fetcher) Quotes() []types.PriceQuote {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]types.PriceQuote, 0, len(f.quotes))
	for _, q := range f.quotes {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Quote returns the last known quote for symbol
func (f *Fetcher) Quote(symbol string) (types.PriceQuote, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	q, ok := f.quotes[symbol]
	return q, ok
}

// Balance returns the last fetched balance and when it was fetched
func (f *Fetcher) Balance() (decimal.Decimal, time.Time, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.balance, f.balanceAt, f.hasBal
}
