// Package payments is a thin client for the payments resource: creating
// a payment, reading it back, linking to the hosted payment page and
// waiting for it to reach a terminal state.
//
// Requests go through the client's API chain, so creation is
// authenticated, signed and, thanks to its Idempotency-Key, retried on
// transient failures.
package payments
