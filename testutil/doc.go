// Package testutil provides lifecycle helpers for test dependencies.
//
// A TestComponent is started once per test and stopped through
// t.Cleanup:
//
//	srv := mockserver.New(mockserver.Config{})
//	testutil.T(t).Setup(srv)
//
// Package testutil/mockserver is the in-process payments API the client
// packages are tested against.
package testutil
