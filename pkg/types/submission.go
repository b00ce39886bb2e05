package types

import (
	"fmt"
	"time"
)

// SubmissionState is a step of the submission state machine
type SubmissionState string

const (
	StateBuilt     SubmissionState = "built"
	StateSubmitted SubmissionState = "submitted"
	StateConfirmed SubmissionState = "confirmed"
	StateRejected  SubmissionState = "rejected"
	StateTimedOut  SubmissionState = "timed_out"
)

// IsTerminal returns true for Confirmed, Rejected and TimedOut
func (s SubmissionState) IsTerminal() bool {
	return s == StateConfirmed || s == StateRejected || s == StateTimedOut
}

// ConfirmationStatus is what the ledger reports for a receipt
type ConfirmationStatus string

const (
	ConfirmationPending   ConfirmationStatus = "pending"
	ConfirmationConfirmed ConfirmationStatus = "confirmed"
	ConfirmationFailed    ConfirmationStatus = "failed"
)

// Outcome of a submission attempt
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// SubmissionResult is created once per attempt and never modified afterwards.
type SubmissionResult struct {
	Outcome   Outcome
	Signature string
	Reason    string
	State     SubmissionState
}

// Succeeded returns true when the transfer was confirmed
func (r SubmissionResult) Succeeded() bool {
	return r.Outcome == OutcomeSuccess
}

// Success builds a successful result for a confirmed signature
func Success(signature string) SubmissionResult {
	return SubmissionResult{Outcome: OutcomeSuccess, Signature: signature, State: StateConfirmed}
}

// Failure builds a failed result
func Failure(state SubmissionState, reason string) SubmissionResult {
	return SubmissionResult{Outcome: OutcomeFailure, Reason: reason, State: state}
}

// StateChange records one transition of a submission
type StateChange struct {
	From SubmissionState
	To   SubmissionState
	At   time.Time
}

func (c StateChange) String() string {
	return fmt.Sprintf("%s -> %s", c.From, c.To)
}
