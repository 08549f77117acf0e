package mail

import (
	"context"
	"errors"
	"net/textproto"
	"time"

	"go.uber.org/zap"

	"github.com/syntecxhub/mailbot/pkg/metrics"
)

// State is the delivery state of a single recipient.
type State string

const (
	StatePending  State = "PENDING"
	StateSending  State = "SENDING"
	StateRetrying State = "RETRYING"
	StateSent     State = "SENT"
	StateFailed   State = "FAILED"
)

// Result records the terminal outcome of dispatching one message.
type Result struct {
	Recipient string
	Attempts  int
	State     State
	Err       error
}

// Sent reports whether the message reached the server.
func (r Result) Sent() bool { return r.State == StateSent }

// RetryPolicy bounds the retry loop for transient send failures.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts per recipient, first try
	// included.
	MaxAttempts int
	// InitialBackoff is the delay before the first retry; it doubles after
	// every transient failure.
	InitialBackoff time.Duration
	// MaxBackoff caps the doubling.
	MaxBackoff time.Duration
}

// DefaultRetryPolicy mirrors the defaults of the mail submission endpoints
// this tool is pointed at: three attempts, 1s/2s waits.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		MaxBackoff:     32 * time.Second,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = def.InitialBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = def.MaxBackoff
	}
	return p
}

// Dispatcher sends one message at a time over a shared Sender, retrying
// transient failures with exponential backoff. One recipient's failure never
// aborts the batch; callers inspect the returned Result and move on.
type Dispatcher struct {
	sender Sender
	policy RetryPolicy
	log    *zap.SugaredLogger

	// wait is replaceable in tests to observe the backoff schedule.
	wait func(ctx context.Context, d time.Duration) error
}

// NewDispatcher creates a Dispatcher. Zero policy fields fall back to
// DefaultRetryPolicy values.
func NewDispatcher(sender Sender, policy RetryPolicy, log *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		policy: policy.withDefaults(),
		log:    log.Named("dispatcher"),
		wait:   sleepCtx,
	}
}

// Dispatch delivers msg with the configured retry policy and returns the
// terminal Result. Transient failures are retried up to MaxAttempts with
// doubling delays; permanent failures (SMTP 5xx replies such as rejected
// credentials or refused recipients) fail immediately. Context cancellation
// stops the loop between attempts.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *Message) Result {
	res := Result{Recipient: msg.To, State: StateSending}
	backoff := d.policy.InitialBackoff

	for attempt := 1; attempt <= d.policy.MaxAttempts; attempt++ {
		res.Attempts = attempt

		err := d.sender.Send(msg)
		if err == nil {
			d.log.Infow("Mail sent", "to", msg.To, "attempt", attempt)
			metrics.MailSendSuccess.WithLabelValues(d.sender.GetHost()).Inc()
			res.State = StateSent
			res.Err = nil
			return res
		}
		res.Err = err

		if IsPermanent(err) {
			d.log.Errorw("Permanent send failure, not retrying",
				"to", msg.To, "attempt", attempt, "error", err)
			break
		}
		if attempt == d.policy.MaxAttempts {
			d.log.Errorw("Failed to send mail, retries exhausted",
				"to", msg.To, "attempts", attempt, "error", err)
			break
		}

		d.log.Warnw("Send attempt failed, retrying",
			"to", msg.To, "attempt", attempt, "maxAttempts", d.policy.MaxAttempts,
			"backoff", backoff.String(), "error", err)
		metrics.MailSendRetries.WithLabelValues(d.sender.GetHost()).Inc()
		res.State = StateRetrying

		if err := d.wait(ctx, backoff); err != nil {
			res.Err = err
			break
		}
		backoff = min(backoff*2, d.policy.MaxBackoff)
		res.State = StateSending
	}

	metrics.MailSendFailure.WithLabelValues(d.sender.GetHost()).Inc()
	res.State = StateFailed
	return res
}

// IsPermanent classifies a send error. SMTP 5xx replies are permanent
// (authentication rejected, recipient refused, policy rejection); everything
// else, dial errors and 4xx replies included, is treated as transient.
func IsPermanent(err error) bool {
	var smtpErr *textproto.Error
	if errors.As(err, &smtpErr) {
		return smtpErr.Code >= 500 && smtpErr.Code < 600
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
