package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/syntecxhub/mailbot/pkg/audit"
	"github.com/syntecxhub/mailbot/pkg/campaign"
	"github.com/syntecxhub/mailbot/pkg/mail"
	"github.com/syntecxhub/mailbot/pkg/mailbot/config"
	"github.com/syntecxhub/mailbot/pkg/recipient"
	"github.com/syntecxhub/mailbot/pkg/render"
	"github.com/syntecxhub/mailbot/pkg/report"
)

func NewSendCommand() *cobra.Command {
	var (
		csvPath     string
		subject     string
		body        string
		bodyFile    string
		attachments []string
		interval    time.Duration
		reportDir   string
		noReport    bool
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a personalized mail to every recipient in a CSV file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}

			tpl, err := buildTemplate(subject, body, bodyFile)
			if err != nil {
				return err
			}
			if rt.SMTPHost() == "" {
				return errors.New("no SMTP host configured: set smtp.host in the config or pass --smtp-host")
			}
			if rt.Username() == "" {
				return errors.New("no SMTP username configured: set smtp.username in the config or pass --username")
			}
			password, err := rt.resolvePassword()
			if err != nil {
				return err
			}

			if interval < 0 {
				return fmt.Errorf("send interval cannot be negative: %s", interval)
			}
			if interval == 0 {
				interval = time.Duration(rt.cfg.Send.IntervalMs) * time.Millisecond
			}
			if reportDir == "" {
				reportDir = rt.cfg.Send.ReportDir
			}

			logger, logPath, closeLogger, err := newRunLogger(rt.verbose, rt.cfg.Send.LogDir)
			if err != nil {
				return err
			}
			defer closeLogger()
			log := logger.Sugar()
			if logPath != "" {
				fmt.Fprintf(rt.Writer(), "Logging to %s\n", logPath)
			}

			trail, err := buildTrail(rt.cfg, log)
			if err != nil {
				return err
			}
			defer func() {
				if err := trail.Close(); err != nil {
					log.Warnw("Failed to close audit trail", "error", err)
				}
			}()

			sender := mail.NewSender(mail.SenderConfig{
				Host:               rt.SMTPHost(),
				Port:               rt.SMTPPort(),
				Username:           rt.Username(),
				Password:           password,
				SenderAddress:      rt.SenderAddress(),
				SenderName:         rt.SenderName(),
				InsecureSkipVerify: rt.Insecure(),
			}, log)
			defer func() {
				if err := sender.Close(); err != nil {
					log.Debugw("Failed to close SMTP session", "error", err)
				}
			}()

			dispatcher := mail.NewDispatcher(sender, mail.RetryPolicy{
				MaxAttempts:    rt.cfg.Retry.MaxAttempts,
				InitialBackoff: time.Duration(rt.cfg.Retry.InitialBackoffMs) * time.Millisecond,
				MaxBackoff:     time.Duration(rt.cfg.Retry.MaxBackoffMs) * time.Millisecond,
			}, log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner := campaign.NewRunner(recipient.NewLoader().WithLogger(log), dispatcher, trail, log)
			summary, err := runner.Run(ctx, campaign.Options{
				CSVPath:         csvPath,
				Template:        tpl,
				AttachmentPaths: attachments,
				SendInterval:    interval,
			})
			if err != nil {
				return err
			}

			report.Write(rt.Writer(), summary)
			if !noReport {
				path, err := report.Save(reportDir, summary)
				if err != nil {
					log.Warnw("Failed to save report", "error", err)
				} else {
					fmt.Fprintf(rt.Writer(), "Report saved to %s\n", path)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Path to the recipients CSV file")
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Subject template, may contain {field} placeholders")
	cmd.Flags().StringVarP(&body, "body", "b", "", "Body template, may contain {field} placeholders")
	cmd.Flags().StringVar(&bodyFile, "body-file", "", "Read the body template from this file instead of --body")
	cmd.Flags().StringArrayVarP(&attachments, "attach", "a", nil, "File to attach to every mail (repeatable)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Pause between sends (default from config)")
	cmd.Flags().StringVar(&reportDir, "report-dir", "", "Directory for the run report (default from config)")
	cmd.Flags().BoolVar(&noReport, "no-report", false, "Do not write a report file")
	_ = cmd.MarkFlagRequired("csv")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

func buildTemplate(subject, body, bodyFile string) (render.Template, error) {
	if body != "" && bodyFile != "" {
		return render.Template{}, errors.New("--body and --body-file are mutually exclusive")
	}
	if bodyFile != "" {
		content, err := os.ReadFile(bodyFile)
		if err != nil {
			return render.Template{}, fmt.Errorf("failed to read body template: %w", err)
		}
		body = string(content)
	}
	if body == "" {
		return render.Template{}, errors.New("a body template is required: pass --body or --body-file")
	}
	return render.Template{Subject: subject, Body: body}, nil
}

// buildTrail assembles the audit trail from config. The log sink is always
// present; file and Kafka sinks are added when configured.
func buildTrail(cfg *config.Config, log *zap.SugaredLogger) (*audit.Trail, error) {
	runID := time.Now().UTC().Format("20060102T150405Z")
	sinks := []audit.Sink{audit.NewLogSink(log.Desugar())}

	if cfg.Audit.File != "" {
		fs, err := audit.NewFileSink(cfg.Audit.File)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, fs)
	}
	if cfg.Audit.Kafka.Topic != "" {
		var password string
		if cfg.Audit.Kafka.PasswordEnv != "" {
			password = os.Getenv(cfg.Audit.Kafka.PasswordEnv)
		}
		ks, err := audit.NewKafkaSink(audit.KafkaSinkConfig{
			Brokers:  cfg.Audit.Kafka.Brokers,
			Topic:    cfg.Audit.Kafka.Topic,
			Username: cfg.Audit.Kafka.Username,
			Password: password,
		}, log.Desugar())
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, ks)
	}

	return audit.NewTrail(runID, log, sinks...), nil
}
