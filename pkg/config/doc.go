// Package config provides configuration management for livesync.
//
// Configuration is loaded from a YAML file, completed with defaults,
// overridden from the environment and validated before use.
//
// # Configuration Loading
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("livesync.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("livesync.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention LIVESYNC_SECTION_FIELD:
//
//   - LIVESYNC_API_BASE_URL overrides api.base_url
//   - LIVESYNC_API_PASSWORD overrides api.password
//   - LIVESYNC_DASHBOARD_UPDATE_INTERVAL overrides dashboard.update_interval
//   - LIVESYNC_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Values from the environment always win over the file.
//
// # Live Reload
//
// The poll interval can be changed while the dashboard is running. An
// IntervalSource hands the configured dashboard.update_interval to the poll
// schedulers, and a Watcher reloads the file when it changes on disk:
//
//	intervals := config.NewIntervalSource(cfg)
//	w, _ := config.NewWatcher(path, intervals, logger)
//	go w.Watch(ctx)
//
// Reloads that fail to parse or validate keep the previous configuration.
//
// # Singleton Pattern
//
//	if err := config.Initialize("livesync.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//	cfg := config.GetConfig()
//
// For testing, prefer explicit Config instances over the global singleton.
package config
