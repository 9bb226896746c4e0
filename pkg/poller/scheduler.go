package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"

	"reservoir-hq/livesync/pkg/fetch"
)

// Reconciler merges snapshots into live state. Adopt turns the first
// snapshot into the state value; Reconcile patches later snapshots into it
// in place and reports whether anything changed.
type Reconciler[T any] interface {
	Adopt(src T) T
	Reconcile(dst, src T) bool
}

// Config configures a Scheduler.
type Config[T any] struct {
	// Name identifies the live view in logs and metrics (e.g. "metrics")
	Name string

	// Fetcher obtains snapshots (required)
	Fetcher fetch.Fetcher[T]

	// Reconciler merges snapshots into the state (required)
	Reconciler Reconciler[T]

	// Interval supplies the polling period
	// Default: FixedInterval(DefaultInterval)
	Interval IntervalProvider

	// Logger for loop events
	// Default: slog.Default()
	Logger *slog.Logger

	// Clock drives the inter-cycle wait
	// Default: SystemClock
	Clock Clock

	// OnAuthError is the caller's policy for rejected sessions, e.g. a
	// re-login. It runs on the loop goroutine after the error is recorded.
	OnAuthError func(err *fetch.AuthError)

	// Hooks observe every completed cycle.
	Hooks []CycleHook
}

// Trigger says what started a cycle.
type Trigger string

const (
	TriggerLoop   Trigger = "loop"
	TriggerManual Trigger = "manual"
)

// CycleResult describes one completed fetch-reconcile cycle.
type CycleResult struct {
	HandleID  string
	Name      string
	Trigger   Trigger
	Started   time.Time
	Duration  time.Duration
	Changed   bool
	First     bool
	Err       error
	Cancelled bool
}

// CycleHook is called after every cycle, outside all scheduler locks.
type CycleHook func(CycleResult)

// Status is a point-in-time view of a Scheduler.
type Status struct {
	ID          string
	Name        string
	Running     bool
	Loading     bool
	HasData     bool
	LastUpdated time.Time
	Err         error
	Interval    time.Duration
}

// Scheduler polls one live view. Create it with New.
type Scheduler[T any] struct {
	id          string
	name        string
	fetcher     fetch.Fetcher[T]
	reconciler  Reconciler[T]
	interval    IntervalProvider
	clock       Clock
	logger      *slog.Logger
	onAuthError func(err *fetch.AuthError)
	hooks       []CycleHook

	// mu guards the lifecycle fields.
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	// cycleMu keeps one cycle in flight.
	cycleMu sync.Mutex

	// stateMu guards the state tree and the fields observers read.
	stateMu     sync.RWMutex
	data        T
	hasData     bool
	err         error
	loading     bool
	lastUpdated time.Time
}

// New creates an idle Scheduler.
func New[T any](cfg Config[T]) (*Scheduler[T], error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.Reconciler == nil {
		return nil, fmt.Errorf("reconciler is required")
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if cfg.Interval == nil {
		cfg.Interval = FixedInterval(DefaultInterval)
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	id := uuid.NewString()
	return &Scheduler[T]{
		id:          id,
		name:        cfg.Name,
		fetcher:     cfg.Fetcher,
		reconciler:  cfg.Reconciler,
		interval:    cfg.Interval,
		clock:       cfg.Clock,
		onAuthError: cfg.OnAuthError,
		hooks:       append([]CycleHook(nil), cfg.Hooks...),
		logger: cfg.Logger.With(
			"component", "poller",
			"scheduler", cfg.Name,
			"handle_id", id,
		),
	}, nil
}

// ID returns the handle ID used in logs and metrics.
func (s *Scheduler[T]) ID() string {
	return s.id
}

// Name returns the configured view name.
func (s *Scheduler[T]) Name() string {
	return s.name
}

// Start launches the polling loop. It is a no-op while running.
func (s *Scheduler[T]) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.running = true
	s.cancel = cancel
	s.done = done

	go s.loop(ctx, done)
}

// Stop cancels the polling loop without waiting for it. It is a no-op while
// idle. Use Done to wait for the loop goroutine to exit.
func (s *Scheduler[T]) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.logger.Info("stopping poll loop")
	s.running = false
	s.cancel()
	s.cancel = nil
}

// Done returns a channel closed when the most recently started loop
// goroutine has exited. It is closed already if Start was never called.
func (s *Scheduler[T]) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return s.done
}

// Running reports whether the loop is active.
func (s *Scheduler[T]) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RefreshOnce runs a single cycle outside the timer and returns its error.
// It waits for any cycle already in flight. It works whether or not the
// loop is running.
func (s *Scheduler[T]) RefreshOnce(ctx context.Context) error {
	return s.runCycle(ctx, TriggerManual).Err
}

// Data returns the current state and whether a snapshot was ever applied.
// The returned value is the live state: callers that read it while the loop
// is running should use View instead.
func (s *Scheduler[T]) Data() (T, bool) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.data, s.hasData
}

// View calls fn with the current state under the read lock and reports
// whether it did. fn is not called before the first successful cycle.
func (s *Scheduler[T]) View(fn func(data T)) bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	if !s.hasData {
		return false
	}
	fn(s.data)
	return true
}

// Err returns the error recorded by the last failed cycle, or nil.
func (s *Scheduler[T]) Err() error {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.err
}

// ErrorMessage returns Err as a string, or "" when there is none.
func (s *Scheduler[T]) ErrorMessage() string {
	if err := s.Err(); err != nil {
		return err.Error()
	}
	return ""
}

// Loading reports whether a fetch is in progress.
func (s *Scheduler[T]) Loading() bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.loading
}

// LastUpdated returns the completion time of the last successful cycle.
func (s *Scheduler[T]) LastUpdated() time.Time {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.lastUpdated
}

// Status returns a snapshot of the scheduler's observable fields.
func (s *Scheduler[T]) Status() Status {
	running := s.Running()

	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	return Status{
		ID:          s.id,
		Name:        s.name,
		Running:     running,
		Loading:     s.loading,
		HasData:     s.hasData,
		LastUpdated: s.lastUpdated,
		Err:         s.err,
		Interval:    s.currentInterval(),
	}
}

func (s *Scheduler[T]) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer s.loopExited(done)

	s.logger.Info("poll loop started", "interval", s.currentInterval())

	for {
		started := s.clock.Now()
		result := s.runCycle(ctx, TriggerLoop)

		if ctx.Err() != nil {
			s.logger.Info("poll loop stopped")
			return
		}
		if result.Cancelled {
			s.logger.Info("poll loop ended by cancelled fetch")
			return
		}

		wait := s.currentInterval() - s.clock.Now().Sub(started)
		if wait < 0 {
			wait = 0
		}
		if !s.sleep(ctx, wait) {
			s.logger.Info("poll loop stopped")
			return
		}
	}
}

// loopExited returns the handle to Idle when the loop ends on its own. A
// loop replaced by a later Start leaves the new loop's state alone.
func (s *Scheduler[T]) loopExited(done chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != done || !s.running {
		return
	}
	s.running = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// sleep waits for d and reports false if ctx was cancelled first.
func (s *Scheduler[T]) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	t := s.clock.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C():
		return true
	}
}

func (s *Scheduler[T]) currentInterval() time.Duration {
	d := s.interval.CurrentInterval()
	if d <= 0 {
		s.logger.Warn("non-positive poll interval, using default",
			"interval", d,
			"default", DefaultInterval,
		)
		return DefaultInterval
	}
	return d
}

// runCycle performs one fetch-reconcile cycle and notifies the hooks.
func (s *Scheduler[T]) runCycle(ctx context.Context, trigger Trigger) CycleResult {
	s.cycleMu.Lock()
	result := s.cycle(ctx, trigger)
	s.cycleMu.Unlock()

	for _, hook := range s.hooks {
		hook(result)
	}
	return result
}

func (s *Scheduler[T]) cycle(ctx context.Context, trigger Trigger) CycleResult {
	result := CycleResult{
		HandleID: s.id,
		Name:     s.name,
		Trigger:  trigger,
		Started:  s.clock.Now(),
	}

	// A loop cancelled while waiting for cycleMu must not fetch again.
	if err := ctx.Err(); err != nil {
		result.Err = &fetch.CancelledError{Cause: err}
		result.Cancelled = fetch.IsCancelled(result.Err)
		return result
	}

	// A loop fetch already sent outlives Stop and its result is still
	// applied. The fetcher's own timeout bounds it. Manual cycles follow the
	// caller's ctx.
	fetchCtx := ctx
	if trigger == TriggerLoop {
		fetchCtx = context.WithoutCancel(ctx)
	}

	s.setLoading(true)
	snap, err := s.safeFetch(fetchCtx)
	result.Duration = s.clock.Now().Sub(result.Started)
	if err == nil && isNil(snap) {
		err = &fetch.ParseError{
			Endpoint: s.name,
			Cause:    errors.New("fetcher returned an empty snapshot"),
		}
	}

	if err != nil {
		result.Err = err
		s.fail(err, &result)
		return result
	}

	s.stateMu.Lock()
	if !s.hasData {
		s.data = s.reconciler.Adopt(snap)
		s.hasData = true
		result.First = true
		result.Changed = true
	} else {
		result.Changed = s.reconciler.Reconcile(s.data, snap)
	}
	s.err = nil
	s.loading = false
	s.lastUpdated = s.clock.Now()
	s.stateMu.Unlock()

	s.logger.Debug("cycle completed",
		"trigger", trigger,
		"changed", result.Changed,
		"duration", result.Duration,
	)
	return result
}

// fail records a failed cycle. Cancellations are swallowed.
func (s *Scheduler[T]) fail(err error, result *CycleResult) {
	if fetch.IsCancelled(err) {
		result.Cancelled = true
		s.setLoading(false)
		s.logger.Debug("fetch cancelled", "error", err)
		return
	}

	s.stateMu.Lock()
	s.err = err
	s.loading = false
	s.stateMu.Unlock()

	var authErr *fetch.AuthError
	if errors.As(err, &authErr) {
		s.logger.Warn("dashboard session rejected", "error", err)
		if s.onAuthError != nil {
			s.onAuthError(authErr)
		}
		return
	}

	s.logger.Error("cycle failed",
		"kind", fetch.Classify(err),
		"error", err,
	)
}

// safeFetch calls the fetcher, converting a panic into a recorded error so
// the loop never dies while running.
func (s *Scheduler[T]) safeFetch(ctx context.Context) (snap T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &fetch.PanicError{Value: r}
		}
	}()
	return s.fetcher.Fetch(ctx)
}

// isNil reports whether v is a nil pointer, map, slice or interface.
func isNil[T any](v T) bool {
	rv := reflect.ValueOf(any(v))
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func (s *Scheduler[T]) setLoading(loading bool) {
	s.stateMu.Lock()
	s.loading = loading
	s.stateMu.Unlock()
}
