package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"reservoir-hq/livesync/pkg/changes"
	"reservoir-hq/livesync/pkg/cli"
	"reservoir-hq/livesync/pkg/client"
	"reservoir-hq/livesync/pkg/config"
	"reservoir-hq/livesync/pkg/fetch"
	"reservoir-hq/livesync/pkg/patch"
	"reservoir-hq/livesync/pkg/poller"
	"reservoir-hq/livesync/pkg/snapshot"
	"reservoir-hq/livesync/pkg/telemetry/tracing"
)

var errNoData = errors.New("no data yet")

// liveView is a scheduler with its snapshot type erased, so the commands
// can handle every configured view alike.
type liveView interface {
	Name() string
	Start()
	Stop()
	Done() <-chan struct{}
	RefreshOnce(ctx context.Context) error
	Status() poller.Status

	// Render prints the current state.
	Render(r *cli.Renderer) error

	// Snapshot returns the current state rendered as JSON.
	Snapshot() (json.RawMessage, error)
}

type view[T any] struct {
	*poller.Scheduler[T]
	render func(r *cli.Renderer, data T) error
}

func (v *view[T]) Render(r *cli.Renderer) error {
	var err error
	if !v.View(func(data T) { err = v.render(r, data) }) {
		return errNoData
	}
	return err
}

func (v *view[T]) Snapshot() (json.RawMessage, error) {
	var (
		raw []byte
		err error
	)
	if !v.View(func(data T) { raw, err = json.Marshal(data) }) {
		return nil, errNoData
	}
	return raw, err
}

// newView builds the scheduler for one configured view name.
func (a *app) newView(name string, hooks []poller.CycleHook, sink changes.Sink) (liveView, error) {
	c := a.client
	arrays := patch.WithReplaceArrays(a.cfg.Dashboard.ReplaceArrays)

	switch name {
	case config.ViewMetrics:
		v, err := buildView(a, name, client.EndpointMetrics, c.Metrics(),
			snapshot.NewRecordReconciler[*snapshot.Metrics](arrays), hooks, sink,
			func(r *cli.Renderer, m *snapshot.Metrics) error { return r.Metrics(m) })
		if err != nil {
			return nil, err
		}
		if a.collector != nil {
			if err := a.collector.WatchUpstream(v.View); err != nil {
				return nil, cli.NewCommandError("view "+name, err)
			}
		}
		return v, nil
	case config.ViewCache:
		return buildView(a, name, client.EndpointCacheMetrics, c.CacheMetrics(),
			snapshot.NewRecordReconciler[*snapshot.CacheMetrics](arrays), hooks, sink,
			func(r *cli.Renderer, m *snapshot.CacheMetrics) error { return r.Metrics(&snapshot.Metrics{Cache: m}) })
	case config.ViewRequests:
		return buildView(a, name, client.EndpointRequestMetrics, c.RequestMetrics(),
			snapshot.NewRecordReconciler[*snapshot.RequestMetrics](arrays), hooks, sink,
			func(r *cli.Renderer, m *snapshot.RequestMetrics) error { return r.Metrics(&snapshot.Metrics{Requests: m}) })
	case config.ViewSystem:
		return buildView(a, name, client.EndpointSystemMetrics, c.SystemMetrics(),
			snapshot.NewRecordReconciler[*snapshot.SystemMetrics](arrays), hooks, sink,
			func(r *cli.Renderer, m *snapshot.SystemMetrics) error { return r.Metrics(&snapshot.Metrics{System: m}) })
	case config.ViewConfig:
		return buildView(a, name, client.EndpointConfig, c.Config(),
			snapshot.NewDocumentReconciler(patch.WithKeyTransform(patch.SnakeToCamel), arrays), hooks, sink,
			func(r *cli.Renderer, d patch.Document) error { return r.Document(d) })
	default:
		return nil, cli.NewConfigError("dashboard.views", fmt.Sprintf("unknown view %q", name))
	}
}

func buildView[T any](
	a *app,
	name, endpoint string,
	fetcher fetch.Fetcher[T],
	reconciler poller.Reconciler[T],
	hooks []poller.CycleHook,
	sink changes.Sink,
	render func(*cli.Renderer, T) error,
) (*view[T], error) {
	v := &view[T]{render: render}

	// The change hook reads the scheduler it is attached to.
	viewer := changes.Viewer[T](func(fn func(T)) bool { return v.View(fn) })
	all := append(append([]poller.CycleHook(nil), hooks...),
		changes.Hook(a.tracker, viewer, sink, a.logger.Logger))

	sched, err := poller.New(poller.Config[T]{
		Name:        name,
		Fetcher:     tracing.WrapFetcher(a.tracer, name, endpoint, fetcher),
		Reconciler:  reconciler,
		Interval:    a.interval,
		Logger:      a.logger.Logger,
		OnAuthError: a.onAuthError,
		Hooks:       all,
	})
	if err != nil {
		return nil, cli.NewCommandError("view "+name, err)
	}
	v.Scheduler = sched
	return v, nil
}
