package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// Caller-visible failure taxonomy. Every failure aborts the whole operation;
// none of these is retryable without changing inputs first.
var (
	ErrUnauthorized       = errors.New("caller is not the required principal")
	ErrNotAuthorizedParty = errors.New("caller is not a designated party of this record")
	ErrNotDisputeResolver = errors.New("caller is not the dispute resolver")

	ErrNotRegistered     = errors.New("employee not registered")
	ErrAlreadyCheckedIn  = errors.New("already checked in today")
	ErrAlreadyCheckedOut = errors.New("already checked out today")
	ErrNoCheckIn         = errors.New("cannot check out without a check-in")

	ErrEscrowNotFound  = errors.New("escrow not found")
	ErrEscrowNotActive = errors.New("escrow not active")
	ErrCannotDispute   = errors.New("escrow cannot be disputed")
	ErrNoActiveDispute = errors.New("no active dispute")

	ErrInsufficientFunds = errors.New("escrow not funded")
	ErrInsufficientHours = errors.New("not enough hours")
	ErrHoursOverflow     = errors.New("manual hours overflow")
	ErrInvalidHours      = errors.New("hours must be non-negative")

	ErrInvalidCommitment = errors.New("commitment must be 32 bytes")
	ErrInvalidAmount     = errors.New("amount must be a positive integer")
)
