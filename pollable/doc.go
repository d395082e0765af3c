// Package pollable waits for remote resources to reach a desired state.
//
// The loop fetches a snapshot, checks a predicate and, while the
// predicate does not hold, asks a resilience.Policy how long to wait.
// Every wait is at least one second. When the policy gives up the loop
// returns an *errors.TimeoutError.
//
//	payment, err := pollable.UntilTerminalState(ctx, handle, pollable.DefaultOptions())
package pollable
