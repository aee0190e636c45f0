package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/windlogs/notifykit/pkg/logger"
)

// Check is a named readiness probe.
type Check struct {
	Name  string
	Probe func(context.Context) error
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthCheckHandler reports liveness when no checks are given and readiness
// otherwise. Every check runs on each request; a single failure turns the
// response into 503 NOT_READY.
func HealthCheckHandler(log *slog.Logger, checks ...Check) http.HandlerFunc {
	if log == nil {
		log = logger.Discard()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ALIVE"}
		code := http.StatusOK

		if len(checks) > 0 {
			resp.Status = "READY"
			resp.Checks = make(map[string]string, len(checks))
			for _, c := range checks {
				if err := c.Probe(r.Context()); err != nil {
					log.WarnContext(r.Context(), "readiness check failed",
						slog.String("check", c.Name),
						logger.Error(err),
					)
					resp.Checks[c.Name] = err.Error()
					resp.Status = "NOT_READY"
					code = http.StatusServiceUnavailable
					continue
				}
				resp.Checks[c.Name] = "ok"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
