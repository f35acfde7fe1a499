package metrics

import "time"

// SubmissionStarted should be called when a controller enters Pending.
func SubmissionStarted() {
	AuthPendingControllers.Inc()
}

// SubmissionSucceeded records a provider call that returned successfully.
func SubmissionSucceeded(kind, op string, duration time.Duration) {
	AuthPendingControllers.Dec()
	AuthSubmissionsTotal.WithLabelValues(kind, "succeeded").Inc()
	AuthGatewayDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// SubmissionFailed records a provider call that returned an error.
func SubmissionFailed(kind, op string, duration time.Duration) {
	AuthPendingControllers.Dec()
	AuthSubmissionsTotal.WithLabelValues(kind, "failed").Inc()
	AuthGatewayDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// SubmissionRejected records a submission that never reached the provider.
func SubmissionRejected(mode, reason string) {
	AuthRejectedTotal.WithLabelValues(mode, reason).Inc()
}
