package health

import (
	"encoding/json"
	"net/http"
	"runtime"

	"reservoir-hq/livesync/pkg/config"
)

// VersionInfo contains build and version information.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// LivenessHandler returns an HTTP handler for the liveness probe endpoint.
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowed(w, r) {
			return
		}
		writeJSON(w, r, http.StatusOK, c.CheckLiveness(r.Context()))
	}
}

// ReadinessHandler returns an HTTP handler for the readiness probe endpoint.
//
// Returns:
//   - 200 OK: every live view is current
//   - 503 Service Unavailable: at least one check is unhealthy
//
// Example response (degraded):
//
//	{
//	    "status": "degraded",
//	    "checks": {
//	        "metrics": {"status": "unhealthy", "message": "last cycle failed, showing stale data: ..."},
//	        "upstream": {"status": "ok", "duration_ms": 4100000}
//	    },
//	    "timestamp": "2025-11-20T10:30:00Z"
//	}
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowed(w, r) {
			return
		}

		status := c.CheckReadiness(r.Context())
		code := http.StatusOK
		if status.Status != StatusReady {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, r, code, status)
	}
}

// VersionHandler returns an HTTP handler for the version information endpoint.
func VersionHandler(info VersionInfo) http.HandlerFunc {
	if info.GoVersion == "" {
		info.GoVersion = runtime.Version()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if !allowed(w, r) {
			return
		}
		writeJSON(w, r, http.StatusOK, info)
	}
}

// Register mounts the liveness, readiness, and version handlers on mux at
// the configured paths.
func Register(mux *http.ServeMux, checker *Checker, cfg config.HealthConfig, info VersionInfo) {
	mux.HandleFunc(cfg.LivenessPath, checker.LivenessHandler())
	mux.HandleFunc(cfg.ReadinessPath, checker.ReadinessHandler())
	mux.HandleFunc(cfg.VersionPath, VersionHandler(info))
}

func allowed(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if r.Method != http.MethodHead {
		_ = json.NewEncoder(w).Encode(v)
	}
}
