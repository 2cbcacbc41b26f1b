// Package monitoring evaluates dependency probes for the health endpoint.
package monitoring

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ProbeStatus encodes the outcome of a health probe.
type ProbeStatus string

const (
	StatusUp       ProbeStatus = "up"
	StatusDown     ProbeStatus = "down"
	StatusDegraded ProbeStatus = "degraded"
)

// ProbeResult captures a single dependency check outcome.
type ProbeResult struct {
	Component string        `json:"component"`
	Status    ProbeStatus   `json:"status"`
	Details   string        `json:"details,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Report aggregates probe results. Any down probe makes the report down;
// otherwise any degraded probe makes it degraded.
type Report struct {
	Success   bool          `json:"success"`
	Status    ProbeStatus   `json:"status"`
	Checks    []ProbeResult `json:"checks"`
	CheckedAt time.Time     `json:"checked_at"`
}

// Check encapsulates a single dependency probe.
type Check struct {
	Name string
	Run  func(ctx context.Context) ProbeResult
}

// NewCheck constructs a health check with the provided name and function.
func NewCheck(name string, fn func(ctx context.Context) ProbeResult) Check {
	if fn == nil {
		fn = func(context.Context) ProbeResult {
			return ProbeResult{Status: StatusDown, Details: "probe not implemented"}
		}
	}
	return Check{Name: name, Run: fn}
}

// Health runs the registered probes on demand.
type Health struct {
	checks []Check
	now    func() time.Time
}

// NewHealth constructs a Health with checks registered.
func NewHealth(checks ...Check) *Health {
	h := &Health{now: time.Now}
	for _, check := range checks {
		h.Register(check)
	}
	return h
}

// Register appends a probe. Unnamed probes are ignored.
func (h *Health) Register(check Check) {
	if check.Name == "" {
		return
	}
	h.checks = append(h.checks, check)
}

// Evaluate executes every probe in registration order.
func (h *Health) Evaluate(ctx context.Context) Report {
	report := Report{
		Success:   true,
		Status:    StatusUp,
		Checks:    make([]ProbeResult, 0, len(h.checks)),
		CheckedAt: h.now().UTC(),
	}

	for _, check := range h.checks {
		result := runCheck(ctx, check)
		report.Checks = append(report.Checks, result)

		switch result.Status {
		case StatusDown:
			report.Success = false
			report.Status = StatusDown
		case StatusDegraded:
			report.Success = false
			if report.Status != StatusDown {
				report.Status = StatusDegraded
			}
		}
	}
	return report
}

func runCheck(ctx context.Context, check Check) (result ProbeResult) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			result = ProbeResult{
				Status:   StatusDown,
				Details:  fmt.Sprint(rec),
				Duration: time.Since(start),
			}
		}
		result.Component = check.Name
	}()

	result = check.Run(ctx)
	if result.Status == "" {
		result.Status = StatusDown
	}
	if result.Duration == 0 {
		result.Duration = time.Since(start)
	}
	return result
}

// ResultFromError converts an error into a ProbeResult. Timeouts count as
// degraded rather than down.
func ResultFromError(component string, err error, duration time.Duration) ProbeResult {
	if duration < 0 {
		duration = 0
	}
	if err == nil {
		return ProbeResult{Component: component, Status: StatusUp, Duration: duration}
	}

	status := StatusDown
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		status = StatusDegraded
	}
	return ProbeResult{
		Component: component,
		Status:    status,
		Details:   err.Error(),
		Duration:  duration,
	}
}
