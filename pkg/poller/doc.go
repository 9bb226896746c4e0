// Package poller drives live views: a Scheduler repeatedly fetches a
// snapshot and reconciles it into a long-lived state value that readers
// observe through the scheduler's accessors.
//
// # Lifecycle
//
// A Scheduler is Idle until Start is called. Start launches one loop
// goroutine whose first cycle runs immediately; Stop cancels it. Both are
// idempotent and never block:
//
//	s, err := poller.New(poller.Config[*snapshot.Metrics]{
//	    Name:       "metrics",
//	    Fetcher:    apiClient.Metrics(),
//	    Reconciler: snapshot.NewRecordReconciler[*snapshot.Metrics](),
//	    Interval:   intervals,
//	})
//	s.Start()
//	defer s.Stop()
//
// # Timing
//
// After every cycle the loop reads the current period from its
// IntervalProvider and sleeps for max(0, period - elapsed), so a slow fetch
// shortens the following wait instead of stretching the cadence. A period
// changed at runtime takes effect on the next wait.
//
// # Cancellation
//
// Stop cancels the loop context. A wait in progress returns at once. A fetch
// in progress is allowed to finish: loop fetches get a context that Stop does
// not cancel, their result is still applied, and no further cycle starts.
// RefreshOnce fetches with the caller's context. Cancellation errors are
// never recorded.
//
// # Errors
//
// A failed cycle records its error and leaves the state untouched, so
// readers keep seeing the last good snapshot next to the error. The next
// successful cycle clears it. A panicking fetcher is recovered and recorded
// like any other failure. Auth errors are additionally handed to the
// configured auth policy.
//
// # Thread Safety
//
// At most one cycle is in flight per Scheduler, whether started by the loop
// or by RefreshOnce. The state is reconciled under a write lock held for the
// whole patch; View runs its callback under the read lock so it never sees a
// half-applied snapshot.
package poller
