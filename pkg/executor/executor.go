package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"blinkpay/pkg/types"
)

const (
	DefaultPollInterval = 2 * time.Second
	DefaultMaxWait      = 60 * time.Second
)

var (
	ErrConfirmationTimeout = errors.New("confirmation not observed before deadline")
	ErrTransactionFailed   = errors.New("transaction failed on chain")
)

// Signer signs and broadcasts a built instruction, returning its signature
type Signer interface {
	SignAndSend(ctx context.Context, instr *types.Instruction) (string, error)
}

// Confirmer reports the on-chain status of a signature
type Confirmer interface {
	GetConfirmation(ctx context.Context, signature string) (types.ConfirmationStatus, error)
}

// Executor submits instructions and waits for confirmation
type Executor struct {
	confirmer    Confirmer
	pollInterval time.Duration
	maxWait      time.Duration
	log          *zap.Logger
}

// Option configures an Executor
type Option func(*Executor)

// WithPollInterval sets how often confirmation is queried
func WithPollInterval(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.pollInterval = d
		}
	}
}

// WithMaxWait bounds how long Submit waits for confirmation
func WithMaxWait(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.maxWait = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(e *Executor) {
		if log != nil {
			e.log = log
		}
	}
}

// New creates a new submission executor
func New(confirmer Confirmer, opts ...Option) *Executor {
	e := &Executor{
		confirmer:    confirmer,
		pollInterval: DefaultPollInterval,
		maxWait:      DefaultMaxWait,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submission tracks one attempt through Built -> Submitted -> terminal state
type Submission struct {
	mu        sync.RWMutex
	state     types.SubmissionState
	history   []types.StateChange
	signature string
	result    types.SubmissionResult
}

func newSubmission() *Submission {
	return &Submission{state: types.StateBuilt}
}

// State returns the current state
func (s *Submission) State() types.SubmissionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// History returns all transitions in order
func (s *Submission) History() []types.StateChange {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.StateChange, len(s.history))
	copy(out, s.history)
	return out
}

// Signature returns the receipt assigned by the network, if any
func (s *Submission) Signature() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signature
}

// Result returns the terminal result
func (s *Submission) Result() types.SubmissionResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// transition moves to the next state. Terminal states cannot be left.
func (s *Submission) transition(to types.SubmissionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.state
	if !validTransition(from, to) {
		return fmt.Errorf("invalid transition %s -> %s", from, to)
	}

	s.state = to
	s.history = append(s.history, types.StateChange{From: from, To: to, At: time.Now()})
	return nil
}

func validTransition(from, to types.SubmissionState) bool {
	switch from {
	case types.StateBuilt:
		return to == types.StateSubmitted || to == types.StateRejected
	case types.StateSubmitted:
		return to == types.StateConfirmed || to == types.StateRejected || to == types.StateTimedOut
	default:
		return false
	}
}

func (s *Submission) finish(to types.SubmissionState, result types.SubmissionResult) {
	if err := s.transition(to); err != nil {
		// state machine bug, keep the result consistent with the state anyway
		result.State = s.State()
	}
	s.mu.Lock()
	s.result = result
	s.mu.Unlock()
}

// Submit hands instr to signer and waits for confirmation. The returned error
// is a *types.SubmissionError for Rejected and TimedOut. Nothing is retried:
// resubmitting a value transfer must be an explicit new action.
func (e *Executor) Submit(ctx context.Context, signer Signer, instr *types.Instruction) (*Submission, error) {
	sub := newSubmission()

	signature, err := signer.SignAndSend(ctx, instr)
	if err != nil {
		e.log.Warn("signing rejected", zap.String("symbol", instr.Request.Symbol), zap.Error(err))
		sub.finish(types.StateRejected, types.Failure(types.StateRejected, err.Error()))
		return sub, &types.SubmissionError{State: types.StateRejected, Err: err}
	}

	sub.mu.Lock()
	sub.signature = signature
	sub.mu.Unlock()
	if err := sub.transition(types.StateSubmitted); err != nil {
		return sub, err
	}

	e.log.Info("transaction submitted",
		zap.String("signature", signature),
		zap.String("symbol", instr.Request.Symbol),
		zap.Uint64("base_units", instr.BaseUnits),
	)

	state, err := e.awaitConfirmation(ctx, signature)
	switch state {
	case types.StateConfirmed:
		e.log.Info("transaction confirmed", zap.String("signature", signature))
		sub.finish(types.StateConfirmed, types.Success(signature))
		return sub, nil
	default:
		e.log.Warn("transaction not confirmed",
			zap.String("signature", signature),
			zap.String("state", string(state)),
			zap.Error(err),
		)
		result := types.Failure(state, err.Error())
		result.Signature = signature
		sub.finish(state, result)
		return sub, &types.SubmissionError{State: state, Signature: signature, Err: err}
	}
}

// awaitConfirmation polls until the signature is confirmed, fails, or maxWait
// elapses. Query errors are transient and polling continues.
func (e *Executor) awaitConfirmation(ctx context.Context, signature string) (types.SubmissionState, error) {
	deadline := time.NewTimer(e.maxWait)
	defer deadline.Stop()

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		status, err := e.confirmer.GetConfirmation(ctx, signature)
		if err != nil {
			e.log.Debug("confirmation query failed", zap.String("signature", signature), zap.Error(err))
		} else {
			switch status {
			case types.ConfirmationConfirmed:
				return types.StateConfirmed, nil
			case types.ConfirmationFailed:
				return types.StateRejected, ErrTransactionFailed
			}
		}

		select {
		case <-ctx.Done():
			return types.StateTimedOut, fmt.Errorf("%w: %v", ErrConfirmationTimeout, ctx.Err())
		case <-deadline.C:
			return types.StateTimedOut, fmt.Errorf("%w after %s", ErrConfirmationTimeout, e.maxWait)
		case <-ticker.C:
		}
	}
}
