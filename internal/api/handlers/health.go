package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/alumni-informatik/events-server/internal/storage/jsonfile"
)

// HealthCheck represents the health status of the server
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// CheckResult represents the result of a single health check
type CheckResult struct {
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// HealthChecker probes the event store and the upload directory.
type HealthChecker struct {
	store     *jsonfile.Store
	uploadDir string
	version   string
	gitCommit string
}

func NewHealthChecker(store *jsonfile.Store, uploadDir, version, gitCommit string) *HealthChecker {
	return &HealthChecker{
		store:     store,
		uploadDir: uploadDir,
		version:   version,
		gitCommit: gitCommit,
	}
}

// Health returns the liveness handler. It always answers 200 while the
// process can serve requests; dependency state is reported but does not
// flip the status, as the store is repaired lazily on access.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]CheckResult{
			"storage": h.checkStorage(ctx),
			"uploads": h.checkUploads(),
		}

		response := HealthCheck{
			Status:    "healthy",
			Version:   h.version,
			GitCommit: h.gitCommit,
			Checks:    checks,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ready returns the readiness handler: 200 only when the event store is
// readable and the upload directory exists.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]CheckResult{
			"storage": h.checkStorage(ctx),
			"uploads": h.checkUploads(),
		}

		status := "ready"
		statusCode := http.StatusOK
		for _, check := range checks {
			if check.Status == "fail" {
				status = "not_ready"
				statusCode = http.StatusServiceUnavailable
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": status,
			"checks": checks,
		})
	}
}

// checkStorage verifies the events document can be read under its lock.
func (h *HealthChecker) checkStorage(ctx context.Context) CheckResult {
	start := time.Now()

	collection, err := h.store.Load(ctx)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return CheckResult{
			Status:    "fail",
			Message:   "Events file not readable",
			LatencyMs: latency,
			Details: map[string]any{
				"error": err.Error(),
				"path":  h.store.Path(),
			},
		}
	}

	return CheckResult{
		Status:    "pass",
		Message:   "Events file readable",
		LatencyMs: latency,
		Details: map[string]any{
			"events": len(collection),
		},
	}
}

// checkUploads verifies the upload directory exists.
func (h *HealthChecker) checkUploads() CheckResult {
	info, err := os.Stat(h.uploadDir)
	if err != nil {
		return CheckResult{
			Status:  "fail",
			Message: "Upload directory missing",
			Details: map[string]any{"error": err.Error(), "path": h.uploadDir},
		}
	}
	if !info.IsDir() {
		return CheckResult{
			Status:  "fail",
			Message: "Upload path is not a directory",
			Details: map[string]any{"path": h.uploadDir},
		}
	}
	return CheckResult{Status: "pass", Message: "Upload directory present"}
}
