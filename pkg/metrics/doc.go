// Package metrics defines Prometheus metrics for mailbot, covering recipient
// loading, mail delivery outcomes, SMTP session health, and audit sinks.
package metrics
