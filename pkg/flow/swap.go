package flow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"blinkpay/pkg/client"
	"blinkpay/pkg/form"
	"blinkpay/pkg/types"
)

// RouteService quotes swaps and tracks their execution
type RouteService interface {
	GetRoute(ctx context.Context, req types.RouteRequest) (*types.Route, error)
	SubmitDepositTx(ctx context.Context, depositAddress, txHash string) error
	GetSwapStatus(ctx context.Context, depositAddress string) (*types.SwapStatus, error)
}

// SwapFlow exchanges a Solana asset through a route service. The swap is
// funded by an ordinary transfer to the route's deposit address.
type SwapFlow struct {
	flow   *Flow
	routes RouteService
	now    func() time.Time
	log    *zap.Logger
}

// NewSwapFlow creates a swap flow on top of a transfer flow
func NewSwapFlow(f *Flow, routes RouteService) *SwapFlow {
	return &SwapFlow{
		flow:   f,
		routes: routes,
		now:    time.Now,
		log:    f.log,
	}
}

// Quote asks for a route from req. The source chain is always Solana and the
// refund address defaults to the connected wallet.
func (s *SwapFlow) Quote(ctx context.Context, req types.RouteRequest) (*types.Route, error) {
	req.SourceChain = client.SolanaChain
	if req.RefundAddr == "" {
		if !s.flow.wallet.Connected() {
			return nil, types.ErrWalletNotConnected
		}
		req.RefundAddr = s.flow.wallet.PublicKey().String()
	}

	route, err := s.routes.GetRoute(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to get route: %w", err)
	}
	return route, nil
}

// Execute sends the deposit for route and reports it to the route service.
// The result describes the deposit transfer; the swap itself completes
// asynchronously and is followed with Status or Wait.
func (s *SwapFlow) Execute(ctx context.Context, route *types.Route) types.SubmissionResult {
	if !route.Deadline.IsZero() && s.now().After(route.Deadline) {
		return s.flow.fail("", KindSwap.FailureTitle(), "quote expired, request a new one")
	}
	if route.DepositMemo != "" {
		return s.flow.fail("", KindSwap.FailureTitle(), "route requires a deposit memo, which is not supported for Solana deposits")
	}

	fm := form.New(form.WithDestination(route.DepositAddress))
	fm.Set(form.FieldAsset, route.FromSymbol)
	fm.Set(form.FieldAmount, route.AmountIn.String())

	result := s.flow.Submit(ctx, KindSwap, fm)
	if !result.Succeeded() {
		return result
	}

	if err := s.routes.SubmitDepositTx(ctx, route.DepositAddress, result.Signature); err != nil {
		// the deposit is on chain, the swap will still be detected
		s.log.Warn("failed to report deposit",
			zap.String("deposit_address", route.DepositAddress),
			zap.String("signature", result.Signature),
			zap.Error(err),
		)
	}

	return result
}

// Status returns the current status of the swap funded at depositAddress
func (s *SwapFlow) Status(ctx context.Context, depositAddress string) (*types.SwapStatus, error) {
	return s.routes.GetSwapStatus(ctx, depositAddress)
}

// Wait polls the swap status until it is terminal or ctx is done. onUpdate
// is called with every status read.
func (s *SwapFlow) Wait(ctx context.Context, depositAddress string, interval time.Duration, onUpdate func(*types.SwapStatus)) (*types.SwapStatus, error) {
	return WaitForSwap(ctx, s.routes, depositAddress, interval, onUpdate, s.log)
}

// WaitForSwap polls routes until the swap at depositAddress is terminal or
// ctx is done. Failed status reads are retried on the next tick.
func WaitForSwap(ctx context.Context, routes RouteService, depositAddress string, interval time.Duration, onUpdate func(*types.SwapStatus), log *zap.Logger) (*types.SwapStatus, error) {
	if log == nil {
		log = zap.NewNop()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last *types.SwapStatus
	for {
		status, err := routes.GetSwapStatus(ctx, depositAddress)
		if err != nil {
			log.Debug("swap status check failed", zap.String("deposit_address", depositAddress), zap.Error(err))
		} else {
			last = status
			if onUpdate != nil {
				onUpdate(status)
			}
			if status.IsTerminal() {
				return status, nil
			}
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}
