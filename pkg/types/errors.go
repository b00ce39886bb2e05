package types

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Build errors are detected before anything is sent to the network.
var (
	ErrInvalidDestination = errors.New("invalid destination address")
	ErrNoHoldingAccount   = errors.New("no holding account for asset")
	ErrUnsupportedAsset   = errors.New("unsupported asset")
	ErrInvalidAmount      = errors.New("invalid amount")
)

var (
	ErrWalletNotConnected = errors.New("wallet not connected")
	ErrSubmissionInFlight = errors.New("another transaction from this account is still in progress")
)

// ValidationErrors maps a form field name to the reason it failed validation
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := v.Fields()
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, v[f])
	}
	return strings.Join(msgs, "; ")
}

// Fields returns the failing field names in sorted order
func (v ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Has returns true if the field failed validation
func (v ValidationErrors) Has(field string) bool {
	_, ok := v[field]
	return ok
}

// SubmissionError is returned for submissions that ended Rejected or TimedOut
type SubmissionError struct {
	State     SubmissionState
	Signature string
	Err       error
}

func (e *SubmissionError) Error() string {
	if e.Signature != "" {
		return fmt.Sprintf("transaction %s %s: %v", e.Signature, e.State, e.Err)
	}
	return fmt.Sprintf("transaction %s: %v", e.State, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
