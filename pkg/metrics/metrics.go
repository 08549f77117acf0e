package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Recipient loading metrics
	RecipientsLoaded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailbot_recipients_loaded_total",
		Help: "Total number of recipient records loaded from CSV input",
	}, []string{"source"})
	RecipientsSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailbot_recipients_skipped_total",
		Help: "Total number of CSV rows skipped due to a missing or malformed email",
	}, []string{"source"})

	// Mail delivery metrics
	MailSendSuccess = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailbot_mail_send_success_total",
		Help: "Total number of successful mail sends",
	}, []string{"host"})
	MailSendFailure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailbot_mail_send_failure_total",
		Help: "Total number of mail sends that permanently failed",
	}, []string{"host"})
	MailSendRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailbot_mail_send_retries_total",
		Help: "Total number of retried send attempts after a transient failure",
	}, []string{"host"})
	MailSessionRedials = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailbot_mail_session_redials_total",
		Help: "Total number of times the SMTP session was re-established mid-run",
	}, []string{"host"})

	// Audit sink metrics
	AuditEventsWritten = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailbot_audit_events_written_total",
		Help: "Total number of audit events written per sink",
	}, []string{"sink"})
	AuditEventsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailbot_audit_events_failed_total",
		Help: "Total number of audit events that could not be written per sink",
	}, []string{"sink"})
)

func init() {
	prometheus.MustRegister(RecipientsLoaded)
	prometheus.MustRegister(RecipientsSkipped)
	prometheus.MustRegister(MailSendSuccess)
	prometheus.MustRegister(MailSendFailure)
	prometheus.MustRegister(MailSendRetries)
	prometheus.MustRegister(MailSessionRedials)
	prometheus.MustRegister(AuditEventsWritten)
	prometheus.MustRegister(AuditEventsFailed)
}

// MetricsHandler returns an http.Handler exposing Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
