// Package fetch defines the narrow interface through which live views obtain
// snapshots, together with the error taxonomy the poll scheduler reacts to.
//
// A Fetcher performs one request per call and honours context cancellation.
// It returns exactly one of:
//
//   - a snapshot, on success;
//   - *AuthError when the dashboard API rejects the session (HTTP 401);
//   - *TransportError for network failures and non-2xx responses;
//   - *ParseError when the body is not a valid snapshot;
//   - *CancelledError when the request was aborted through its context.
package fetch

import "context"

// Fetcher obtains one snapshot of type T.
type Fetcher[T any] interface {
	Fetch(ctx context.Context) (T, error)
}

// Func adapts an ordinary function to the Fetcher interface.
type Func[T any] func(ctx context.Context) (T, error)

// Fetch calls f(ctx).
func (f Func[T]) Fetch(ctx context.Context) (T, error) {
	return f(ctx)
}
