package cmd

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/syntecxhub/mailbot/pkg/mailbot/config"
	"github.com/syntecxhub/mailbot/pkg/metrics"
)

type Config struct {
	ConfigPath   string
	OutputWriter io.Writer
}

type runtimeState struct {
	configPath            string
	cfg                   *config.Config
	hostOverride          string
	portOverride          int
	usernameOverride      string
	senderAddressOverride string
	senderNameOverride    string
	insecureSkipVerify    bool
	nonInteractive        bool
	verbose               bool
	metricsBindAddress    string
	writer                io.Writer
	logger                *zap.SugaredLogger
}

type runtimeKey struct{}

func DefaultConfig() Config {
	return Config{
		ConfigPath:   config.DefaultConfigPath(),
		OutputWriter: os.Stdout,
	}
}

func NewRootCommand(cfg Config) *cobra.Command {
	rt := &runtimeState{configPath: cfg.ConfigPath, writer: cfg.OutputWriter}

	root := &cobra.Command{
		Use:   "mailbot",
		Short: "CSV-driven personalized bulk mail sender",
		Long: "mailbot reads recipients from a CSV file, personalizes a subject and body\n" +
			"template per recipient, and delivers the batch over a single SMTP session\n" +
			"with retries, pacing and a per-run report.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.writer == nil {
				rt.writer = os.Stdout
			}
			// A local .env is a convenience for MAILBOT_* variables; a
			// missing file is not an error.
			_ = godotenv.Load()

			if rt.configPath == "" {
				rt.configPath = config.DefaultConfigPath()
			}
			if rt.hostOverride == "" {
				rt.hostOverride = os.Getenv("MAILBOT_SMTP_HOST")
			}
			if rt.portOverride == 0 {
				if p, err := strconv.Atoi(os.Getenv("MAILBOT_SMTP_PORT")); err == nil {
					rt.portOverride = p
				}
			}
			if rt.usernameOverride == "" {
				rt.usernameOverride = os.Getenv("MAILBOT_SMTP_USERNAME")
			}
			if !rt.nonInteractive {
				rt.nonInteractive = strings.EqualFold(os.Getenv("MAILBOT_NON_INTERACTIVE"), "true")
			}
			if !rt.verbose {
				rt.verbose = strings.EqualFold(os.Getenv("MAILBOT_VERBOSE"), "true")
			}

			if cmd.Name() == "version" || cmd.Name() == "completion" {
				return nil
			}
			if cmd.Name() == "init" && cmd.Parent() != nil && cmd.Parent().Name() == "config" {
				return nil
			}

			loaded, err := config.LoadOrDefault(rt.configPath)
			if err != nil {
				return err
			}
			if err := loaded.Validate(); err != nil {
				return err
			}
			rt.cfg = loaded

			logger, err := newConsoleLogger(rt.verbose)
			if err != nil {
				return err
			}
			rt.logger = logger.Sugar()

			if rt.metricsBindAddress != "" {
				go serveMetrics(rt.metricsBindAddress, rt.logger)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&rt.configPath, "config", rt.configPath, "Path to config file")
	root.PersistentFlags().StringVar(&rt.hostOverride, "smtp-host", "", "SMTP host override")
	root.PersistentFlags().IntVar(&rt.portOverride, "smtp-port", 0, "SMTP port override")
	root.PersistentFlags().StringVarP(&rt.usernameOverride, "username", "u", "", "SMTP username (usually the sender address)")
	root.PersistentFlags().StringVar(&rt.senderAddressOverride, "sender-address", "", "Envelope sender address override")
	root.PersistentFlags().StringVar(&rt.senderNameOverride, "sender-name", "", "Display name for the From header")
	root.PersistentFlags().BoolVar(&rt.insecureSkipVerify, "insecure-skip-tls-verify", false, "Skip TLS certificate verification (testing only)")
	root.PersistentFlags().BoolVar(&rt.nonInteractive, "non-interactive", false, "Fail instead of prompting")
	root.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&rt.metricsBindAddress, "metrics-bind-address", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	root.SetContext(context.WithValue(context.Background(), runtimeKey{}, rt))

	root.AddCommand(
		NewSendCommand(),
		NewValidateCommand(),
		NewAuthCommand(),
		NewSampleCommand(),
		NewConfigCommand(),
		NewVersionCommand(),
	)

	return root
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

func (rt *runtimeState) Writer() io.Writer {
	if rt.writer != nil {
		return rt.writer
	}
	return os.Stdout
}

func (rt *runtimeState) Logger() *zap.SugaredLogger {
	if rt.logger != nil {
		return rt.logger
	}
	return zap.NewNop().Sugar()
}

func (rt *runtimeState) SMTPHost() string {
	if rt.hostOverride != "" {
		return rt.hostOverride
	}
	return rt.cfg.SMTP.Host
}

func (rt *runtimeState) SMTPPort() int {
	if rt.portOverride != 0 {
		return rt.portOverride
	}
	return rt.cfg.SMTP.Port
}

func (rt *runtimeState) Username() string {
	if rt.usernameOverride != "" {
		return rt.usernameOverride
	}
	return rt.cfg.SMTP.Username
}

func (rt *runtimeState) SenderAddress() string {
	if rt.senderAddressOverride != "" {
		return rt.senderAddressOverride
	}
	return rt.cfg.SMTP.SenderAddress
}

func (rt *runtimeState) SenderName() string {
	if rt.senderNameOverride != "" {
		return rt.senderNameOverride
	}
	return rt.cfg.SMTP.SenderName
}

func (rt *runtimeState) Insecure() bool {
	return rt.insecureSkipVerify || rt.cfg.SMTP.InsecureSkipVerify
}

func serveMetrics(addr string, logger *zap.SugaredLogger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.MetricsHandler())
	logger.Infow("Serving metrics", "address", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Errorw("Metrics server stopped", "error", err)
	}
}
