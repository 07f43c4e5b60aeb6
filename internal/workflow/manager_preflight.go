package workflow

import (
	"fmt"
	"log/slog"
	"strings"

	"seen/internal/deps"
	"seen/internal/logging"
)

// runPreflightChecks reports external tool readiness when processing starts.
// Missing tools do not stop the manager; the affected stage fails with an
// external tool error and the job can be retried once the tool is installed.
func (m *Manager) runPreflightChecks(logger *slog.Logger) []deps.Status {
	results := deps.Check(m.cfg)
	for _, r := range results {
		if r.Available {
			logger.Debug("preflight check passed",
				logging.String("check", r.Name),
				logging.String("command", r.Command),
				logging.String(logging.FieldEventType, "preflight_passed"),
			)
			continue
		}
		if r.Optional {
			logger.Info("optional dependency unavailable",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldEventType, "preflight_optional_missing"),
			)
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldErrorHint, fmt.Sprintf("install %s or set its path under [ffmpeg]", strings.ToLower(r.Name))),
			logging.String(logging.FieldImpact, "stages that need it will fail"),
		)
	}
	return deps.Missing(results)
}
