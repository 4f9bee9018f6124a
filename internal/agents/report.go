package agents

import (
	"github.com/ethereum/go-ethereum/common"
)

// Outcome is the terminal state of one identity after provisioning.
type Outcome string

const (
	OutcomeRegistered        Outcome = "registered"
	OutcomeAlreadyRegistered Outcome = "already_registered"
	OutcomeInsufficientGas   Outcome = "insufficient_gas"
	OutcomeMissingKey        Outcome = "missing_key"
	OutcomeQueryFailed       Outcome = "query_failed"
	OutcomeFundingFailed     Outcome = "funding_failed"
	OutcomeApproveFailed     Outcome = "approve_failed"
	OutcomeRegisterFailed    Outcome = "register_failed"
	OutcomeVerifyFailed      Outcome = "verify_failed"
)

// Succeeded reports whether the identity ended up registered.
func (o Outcome) Succeeded() bool {
	return o == OutcomeRegistered || o == OutcomeAlreadyRegistered
}

type (
	Result struct {
		Slot    int
		Alias   string
		Address common.Address
		Outcome Outcome
		Funded  bool
		Err     error
	}

	Report struct {
		Results []Result
	}
)

// Count returns the number of results with the given outcome.
func (r Report) Count(outcome Outcome) int {
	n := 0
	for _, result := range r.Results {
		if result.Outcome == outcome {
			n++
		}
	}
	return n
}

// Registered returns the number of identities registered by this run.
func (r Report) Registered() int {
	return r.Count(OutcomeRegistered)
}

// Skipped returns the number of identities that were already registered.
func (r Report) Skipped() int {
	return r.Count(OutcomeAlreadyRegistered)
}

// Failed returns the number of identities that did not reach the registered state.
func (r Report) Failed() int {
	n := 0
	for _, result := range r.Results {
		if !result.Outcome.Succeeded() {
			n++
		}
	}
	return n
}

// AccountOutcome is the result of game account creation for one identity.
type AccountOutcome string

const (
	AccountCreated      AccountOutcome = "created"
	AccountExists       AccountOutcome = "exists"
	AccountMissingKey   AccountOutcome = "missing_key"
	AccountQueryFailed  AccountOutcome = "query_failed"
	AccountCreateFailed AccountOutcome = "create_failed"
)

type AccountResult struct {
	Slot    int
	Alias   string
	Address common.Address
	Outcome AccountOutcome
	Err     error
}
