package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"blinkpay/pkg/flow"
	"blinkpay/pkg/form"
	"blinkpay/pkg/types"
)

var skipConfirm bool

// transfer describes one transfer command invocation
type transfer struct {
	kind   flow.Kind
	form   *form.Form
	target string
	title  string
}

// runTransfer confirms, submits and reports a transfer. It exits non-zero
// when the transfer did not succeed.
func runTransfer(a *app, t transfer) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.connect(ctx); err != nil {
		a.close()
		printError(err)
		os.Exit(1)
	}

	// prices only feed the fiat equivalent; a failure is reported and ignored
	_ = a.fetcher.Refresh(ctx)

	if !a.jsonOutput {
		displayTransfer(a, t)
	}

	if !skipConfirm && !a.jsonOutput {
		if !confirm(fmt.Sprintf("Proceed with %s?", t.kind)) {
			a.close()
			fmt.Println("\nCancelled.")
			os.Exit(0)
		}
	}

	a.startSpinner(" Sending transaction and waiting for confirmation...")

	var opts []flow.SubmitOption
	if t.target != "" {
		opts = append(opts, flow.WithTarget(t.target))
	}
	result := a.flow.Submit(ctx, t.kind, t.form, opts...)

	a.stopSpinner()
	a.close()

	reportResult(a, result)
}

func displayTransfer(a *app, t transfer) {
	fields := t.form.Fields()

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("%s", centered(t.title, 60))
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  From:              %s\n", color.CyanString(a.wallet.PublicKey().String()))
	fmt.Printf("  To:                %s\n", color.CyanString(fields[form.FieldDestination]))
	if t.target != "" {
		fmt.Printf("  Campaign:          %s\n", t.target)
	}
	fmt.Printf("  Amount:            %s %s\n", fields[form.FieldAmount], color.YellowString(strings.ToUpper(fields[form.FieldAsset])))

	if fiat := t.form.FiatEquivalent(a.fetcher.Prices()); fiat.IsPositive() {
		fmt.Printf("  Value:             ≈$%s %s\n", fiat.StringFixed(2), strings.ToUpper(a.cfg.Prices.Currency))
	}
	if balance, _, ok := a.fetcher.Balance(); ok {
		fmt.Printf("  SOL Balance:       %s\n", balance.String())
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
}

func reportResult(a *app, result types.SubmissionResult) {
	if a.jsonOutput {
		output := map[string]interface{}{
			"outcome":   result.Outcome,
			"signature": result.Signature,
			"state":     result.State,
			"reason":    result.Reason,
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
	} else if result.Signature != "" {
		fmt.Printf("  Signature: %s\n", color.CyanString(result.Signature))
	}

	if !result.Succeeded() {
		os.Exit(1)
	}
	if !a.jsonOutput {
		fmt.Println()
	}
}

func confirm(prompt string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("\n%s (y/N): ", prompt)

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func centered(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", (width-len(s))/2) + s
}
