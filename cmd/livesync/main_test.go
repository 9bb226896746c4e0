package main

import (
	"bytes"
	"context"
	"testing"

	"reservoir-hq/livesync/internal/mockapi"
	"reservoir-hq/livesync/pkg/config"
)

// execute runs the root command with args and returns what it printed.
// Flags are reset to their defaults first since cobra keeps parsed values
// in the package-level flag variables.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfgFile, verbose, output = "", false, "text"
	versionFlags.proxy = false
	onceFlags.views = nil
	historyFlags.scheduler = ""
	historyFlags.since = 0
	historyFlags.limit = 100
	historyFlags.changed, historyFlags.failed = false, false
	historyFlags.prune, historyFlags.replay = false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// useConfig installs cfg as the global configuration for one test.
func useConfig(t *testing.T, cfg *config.Config) {
	t.Helper()
	config.SetConfig(cfg)
	t.Cleanup(func() { config.SetConfig(nil) })
}

// testConfig returns a default configuration pointed at api with the
// given views and quiet logging.
func testConfig(api *mockapi.Server, views ...string) *config.Config {
	cfg := config.Default()
	cfg.API.BaseURL = api.URL()
	cfg.Dashboard.Views = views
	cfg.Telemetry.Logging.Level = "error"
	return cfg
}

func newMockAPI(t *testing.T) *mockapi.Server {
	t.Helper()
	api := mockapi.New()
	t.Cleanup(api.Close)

	api.SetResponse("/api/metrics", mockapi.OK(mockapi.MetricsBody(10)))
	api.SetResponse("/api/metrics/cache", mockapi.OK(mockapi.CacheBody(10)))
	api.SetResponse("/api/config", mockapi.OK(mockapi.ConfigBody("info")))
	api.SetResponse("/api/version", mockapi.OK(map[string]string{"version": "2.4.0"}))
	return api
}
