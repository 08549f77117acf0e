// Package campaign drives the read-render-send loop: recipients are loaded
// once, then processed strictly in file order, one at a time, with pacing
// between sends. A failed recipient never stops the batch.
package campaign

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/syntecxhub/mailbot/pkg/audit"
	"github.com/syntecxhub/mailbot/pkg/mail"
	"github.com/syntecxhub/mailbot/pkg/recipient"
	"github.com/syntecxhub/mailbot/pkg/render"
	"github.com/syntecxhub/mailbot/pkg/report"
)

// Options configures one campaign run.
type Options struct {
	// CSVPath is the recipients file.
	CSVPath string

	// Template is the shared subject/body template.
	Template render.Template

	// AttachmentPaths are files attached to every message. They are read
	// into memory once before the first send.
	AttachmentPaths []string

	// SendInterval paces the batch: at most one send per interval, so the
	// submission server is never hammered. Zero disables pacing.
	SendInterval time.Duration
}

// Runner executes campaigns over a shared dispatcher.
type Runner struct {
	loader     *recipient.Loader
	dispatcher *mail.Dispatcher
	trail      *audit.Trail
	logger     *zap.SugaredLogger
}

// NewRunner creates a Runner. The trail may be nil when no audit sinks are
// configured.
func NewRunner(loader *recipient.Loader, dispatcher *mail.Dispatcher, trail *audit.Trail, logger *zap.SugaredLogger) *Runner {
	return &Runner{
		loader:     loader,
		dispatcher: dispatcher,
		trail:      trail,
		logger:     logger.Named("campaign"),
	}
}

// Run loads recipients and delivers one message per record, in file order.
// It returns a LoadError before any send when the CSV is unusable; after
// that point every per-recipient outcome lands in the summary and the run
// always continues to the last record unless the context is cancelled.
func (r *Runner) Run(ctx context.Context, opts Options) (*report.Summary, error) {
	records, skipped, err := r.loader.LoadWithStats(opts.CSVPath)
	if err != nil {
		return nil, err
	}

	attachments, err := mail.LoadAttachments(opts.AttachmentPaths, r.logger)
	if err != nil {
		return nil, err
	}

	summary := report.NewSummary(r.runID())
	summary.Skipped = skipped

	r.logger.Infow("Starting campaign",
		"recipients", len(records), "skippedRows", skipped,
		"attachments", len(attachments), "sendInterval", opts.SendInterval.String())
	r.record(ctx, audit.EventRunStarted, func(e *audit.Event) {
		e.Details = map[string]string{"csv": opts.CSVPath}
	})

	var limiter *rate.Limiter
	if opts.SendInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.SendInterval), 1)
	}

	for i, rec := range records {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				r.logger.Warnw("Campaign cancelled while pacing", "error", err, "remaining", len(records)-i)
				break
			}
		}

		subject, body := render.Render(opts.Template, rec)
		msg := &mail.Message{
			To:          rec.Email,
			Subject:     subject,
			Body:        body,
			Attachments: attachments,
		}

		r.logger.Infow("Processing recipient", "index", i+1, "total", len(records), "to", rec.Email)
		res := r.dispatcher.Dispatch(ctx, msg)
		summary.Add(res)
		r.auditResult(ctx, res)

		if ctx.Err() != nil {
			r.logger.Warnw("Campaign cancelled", "remaining", len(records)-i-1)
			break
		}
	}

	summary.Finish()
	r.record(ctx, audit.EventRunCompleted, func(e *audit.Event) {
		e.Details = map[string]string{
			"total":  strconv.Itoa(summary.Total),
			"sent":   strconv.Itoa(summary.Sent),
			"failed": strconv.Itoa(summary.Failed),
		}
	})
	r.logger.Infow("Campaign finished",
		"total", summary.Total, "sent", summary.Sent, "failed", summary.Failed)

	return summary, nil
}

func (r *Runner) runID() string {
	if r.trail != nil {
		return r.trail.RunID()
	}
	return time.Now().UTC().Format("20060102T150405Z")
}

func (r *Runner) record(ctx context.Context, typ audit.EventType, fill func(*audit.Event)) {
	if r.trail == nil {
		return
	}
	e := r.trail.Event(typ)
	if fill != nil {
		fill(e)
	}
	r.trail.Record(ctx, e)
}

func (r *Runner) auditResult(ctx context.Context, res mail.Result) {
	typ := audit.EventMailSent
	if !res.Sent() {
		typ = audit.EventMailFailed
	} else if res.Attempts > 1 {
		typ = audit.EventMailRetried
	}
	r.record(ctx, typ, func(e *audit.Event) {
		e.Recipient = res.Recipient
		e.Attempts = res.Attempts
		if res.Err != nil {
			e.Error = res.Err.Error()
		}
	})
}
