package domain

import "time"

// Readiness statuses, from best to worst.
const (
	HealthStatusOK       = "ok"
	HealthStatusDegraded = "degraded"
	HealthStatusError    = "error"
)

// WorseHealth returns the more severe of two statuses. Unrecognised values rank as degraded.
func WorseHealth(a, b string) string {
	if healthRank(b) > healthRank(a) {
		return b
	}
	return a
}

func healthRank(status string) int {
	switch status {
	case HealthStatusOK, "":
		return 0
	case HealthStatusError:
		return 2
	default:
		return 1
	}
}

// SystemHealthCheck is the outcome of one readiness probe. A failing critical probe reports error.
type SystemHealthCheck struct {
	Status    string
	Detail    string
	Error     string
	Critical  bool
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport is the aggregate rendered by /readyz.
type SystemHealthReport struct {
	Status      string
	Checks      map[string]SystemHealthCheck
	Version     string
	CommitSHA   string
	Environment string
	Uptime      time.Duration
	GeneratedAt time.Time
}
