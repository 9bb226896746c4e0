// livesync keeps a live, identity-preserving copy of a Reservoir caching
// proxy's dashboard data and reports how it changes.
//
// It polls the proxy's dashboard API, reconciles every snapshot into
// long-lived state in place, and prints what moved. Optionally it records
// every poll cycle to SQLite and exposes Prometheus metrics and health
// probes about both itself and the proxy.
//
// Usage:
//
//	# Poll with the defaults (http://127.0.0.1:8080, every 10s)
//	livesync watch
//
//	# Poll using a configuration file, hot-reloaded on change
//	livesync watch --config livesync.yaml
//
//	# Fetch every view once and print it
//	livesync once --output json
//
//	# Show the last hour of recorded cycles
//	livesync history --since 1h
//
//	# Validate a configuration file
//	livesync validate --config livesync.yaml
package main

func main() {
	Execute()
}
