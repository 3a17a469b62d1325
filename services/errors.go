package services

import "errors"

// The money path rejects synchronously and never partially applies: every
// failure below leaves existing rows untouched.
var (
	// ErrValidation covers bad amounts, unknown schedules and missing fields.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced structure, due or student
	// does not exist (or has been voided).
	ErrNotFound = errors.New("record not found")

	// ErrStructureExists is returned when a fee structure for the same
	// class and academic year already exists.
	ErrStructureExists = errors.New("fee structure already exists for this class and year")

	// ErrDuplicateDues is returned when due generation is re-run for a
	// student+structure pair. Generation is not re-entrant.
	ErrDuplicateDues = errors.New("dues already generated for this student and structure")

	// ErrInvalidAmount is returned when a credit would push paid_amount
	// past the due's amount. Callers must cap or split.
	ErrInvalidAmount = errors.New("credit exceeds outstanding balance")

	// ErrSignatureMismatch means the gateway callback failed signature
	// verification. Fatal, never retried, logged as a security event.
	ErrSignatureMismatch = errors.New("gateway signature verification failed")

	// ErrUnknownIntent means the callback referenced an order that is
	// absent, already consumed, or expired.
	ErrUnknownIntent = errors.New("payment intent unknown, already processed or expired")

	// ErrGatewayUnavailable means the gateway call failed on the network
	// or returned a server error. Callers may retry with a fresh intent.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)
