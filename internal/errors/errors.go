package errors

import "errors"

var ErrEventNotFound = errors.New("event not found")
var ErrOrderNotFound = errors.New("order not found")

// Sale validation failures. These are rejected before a ledger row exists
// and are never retried.
var ErrInvalidQuantity = errors.New("quantity must be a positive integer")
var ErrInsufficientTickets = errors.New("not enough tickets remaining")
var ErrSoldOut = errors.New("event sold out")

// ErrDuplicateSale marks a ledger insert skipped by the idempotency key.
var ErrDuplicateSale = errors.New("sale already recorded for this session")
