// Package report aggregates per-recipient delivery results into end-of-run
// statistics, rendered as a table for the console and saved as a timestamped
// report file.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/syntecxhub/mailbot/pkg/mail"
)

// Summary collects the outcome of one run.
type Summary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	Total   int
	Sent    int
	Failed  int
	Skipped int // CSV rows dropped at load time

	Results []mail.Result
}

// NewSummary starts a summary for the given run.
func NewSummary(runID string) *Summary {
	return &Summary{RunID: runID, StartedAt: time.Now()}
}

// Add records one terminal dispatch result.
func (s *Summary) Add(res mail.Result) {
	s.Total++
	if res.Sent() {
		s.Sent++
	} else {
		s.Failed++
	}
	s.Results = append(s.Results, res)
}

// Finish stamps the completion time.
func (s *Summary) Finish() {
	s.FinishedAt = time.Now()
}

// SuccessRate returns the percentage of recipients that were sent.
func (s *Summary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Sent) / float64(s.Total) * 100
}

// FailedRecipients returns the addresses that permanently failed, in order.
func (s *Summary) FailedRecipients() []mail.Result {
	var failed []mail.Result
	for _, r := range s.Results {
		if !r.Sent() {
			failed = append(failed, r)
		}
	}
	return failed
}

// Write renders the summary as a human-readable report.
func Write(w io.Writer, s *Summary) {
	fmt.Fprintf(w, "Run %s\n", s.RunID)
	if !s.FinishedAt.IsZero() {
		fmt.Fprintf(w, "Duration: %s\n", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
	}
	fmt.Fprintf(w, "Total: %d  Sent: %d  Failed: %d  Skipped rows: %d  Success rate: %.1f%%\n",
		s.Total, s.Sent, s.Failed, s.Skipped, s.SuccessRate())

	failed := s.FailedRecipients()
	if len(failed) == 0 {
		return
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RECIPIENT\tATTEMPTS\tERROR")
	for _, r := range failed {
		detail := "-"
		if r.Err != nil {
			detail = r.Err.Error()
		}
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\n", r.Recipient, r.Attempts, detail)
	}
	_ = tw.Flush()
}

// Save writes the report to a timestamped file under dir and returns its path.
func Save(dir string, s *Summary) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("mailbot_report_%s.txt", s.StartedAt.Format("20060102_150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	Write(f, s)
	return path, nil
}
