package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"blinkpay/config"
	"blinkpay/logger"
	"blinkpay/pkg/asset"
	"blinkpay/pkg/builder"
	"blinkpay/pkg/client"
	"blinkpay/pkg/executor"
	"blinkpay/pkg/flow"
	"blinkpay/pkg/ledger"
	"blinkpay/pkg/notify"
	"blinkpay/pkg/pricing"
	"blinkpay/pkg/types"
	"blinkpay/pkg/wallet"
)

// app holds the components shared by the commands
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	registry *asset.Registry
	ledger   *ledger.Solana
	wallet   *wallet.Keypair
	notifier *notify.Queue
	prices   pricing.PriceService
	fetcher  *pricing.Fetcher
	oneClick *client.OneClickClient
	flow     *flow.Flow

	jsonOutput bool
	verbose    bool

	// running spinner, stopped before a toast is printed
	spinner *spinner.Spinner
}

func newApp(cmd *cobra.Command) (*app, error) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Log
	if verbose && logCfg.Level == "warn" {
		logCfg.Level = "debug"
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, err
	}

	registry, err := asset.NewRegistry(cfg.Assets)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:        cfg,
		log:        log,
		registry:   registry,
		jsonOutput: jsonOutput,
		verbose:    verbose,
	}

	a.notifier = notify.NewQueue(cfg.Notify.Duration, notify.WithOnEnqueue(a.renderNotification))

	rpcClient := rpc.New(cfg.RPCURL)
	a.ledger = ledger.New(rpcClient, cfg.Commitment, log.Named("ledger"))

	a.oneClick = client.NewOneClickClient(
		cfg.Swap.BaseURL,
		cfg.Swap.JWTToken,
		client.WithSlippage(cfg.Swap.SlippageBps),
		client.WithDeadline(cfg.Swap.Deadline),
	)

	var source pricing.PriceService
	switch cfg.Prices.Source {
	case "oneclick":
		source = a.oneClick
	default:
		source = pricing.NewCoinGecko(cfg.Prices.BaseURL, cfg.Prices.APIKey, cfg.Prices.Currency, cfg.Prices.Timeout, registry)
	}
	a.prices = pricing.WithFixedPrices(source, registry)

	loader, err := wallet.LoaderFromConfig(cfg.Wallet)
	if err != nil {
		return nil, err
	}
	a.wallet = wallet.NewKeypair(rpcClient, loader,
		wallet.WithCommitment(ledger.ParseCommitment(cfg.Commitment)),
		wallet.WithSkipPreflight(cfg.SkipPreflight),
		wallet.WithLogger(log.Named("wallet")),
	)

	return a, nil
}

// connect loads the wallet key and wires the flow and fetcher around it
func (a *app) connect(ctx context.Context) error {
	if err := a.wallet.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect wallet: %w", err)
	}

	a.fetcher = pricing.NewFetcher(a.prices, a.registry.Symbols(),
		pricing.WithInterval(a.cfg.Prices.Interval),
		pricing.WithNotifier(a.notifier),
		pricing.WithBalance(a.ledger, a.wallet.PublicKey()),
		pricing.WithLogger(a.log.Named("pricing")),
	)

	exec := executor.New(a.ledger,
		executor.WithPollInterval(a.cfg.Executor.PollInterval),
		executor.WithMaxWait(a.cfg.Executor.MaxWait),
		executor.WithLogger(a.log.Named("executor")),
	)

	opts := []flow.Option{
		flow.WithPrices(a.fetcher, strings.ToUpper(a.cfg.Prices.Currency)),
		flow.WithSerializedSubmissions(a.cfg.Flow.SerializeSubmissions),
		flow.WithLogger(a.log.Named("flow")),
	}
	if a.verbose && !a.jsonOutput {
		opts = append(opts, flow.WithSubmissionHook(printHistory))
	}

	a.flow = flow.New(a.wallet, a.registry, builder.New(a.ledger), exec, a.notifier, opts...)
	return nil
}

func (a *app) close() {
	if a.fetcher != nil {
		a.fetcher.Stop()
	}
	a.wallet.Disconnect()
	a.notifier.Close()
	_ = a.log.Sync()
}

// renderNotification prints a toast as it is enqueued
func (a *app) renderNotification(item types.NotificationItem) {
	if a.jsonOutput {
		return
	}
	a.stopSpinner()

	var title string
	switch item.Severity {
	case types.SeveritySuccess:
		title = color.GreenString("✓ %s", item.Title)
	case types.SeverityError:
		title = color.RedString("✗ %s", item.Title)
	case types.SeverityWarning:
		title = color.YellowString("! %s", item.Title)
	default:
		title = color.CyanString("• %s", item.Title)
	}

	fmt.Printf("\n%s\n", title)
	if item.Body != "" {
		fmt.Printf("  %s\n", item.Body)
	}
}

// startSpinner shows a spinner with suffix unless output is JSON
func (a *app) startSpinner(suffix string) {
	if a.jsonOutput {
		return
	}
	a.stopSpinner()
	a.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	a.spinner.Suffix = suffix
	a.spinner.Start()
}

func (a *app) stopSpinner() {
	if a.spinner != nil {
		a.spinner.Stop()
		a.spinner = nil
	}
}

func printHistory(sub *executor.Submission) {
	fmt.Println("\nSubmission history:")
	for _, change := range sub.History() {
		fmt.Printf("  %s  %s\n", change.At.Format("15:04:05.000"), change)
	}
}
