package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syntecxhub/mailbot/pkg/mail"
)

func NewAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage SMTP credentials in the OS keyring",
	}
	cmd.AddCommand(
		newAuthLoginCommand(),
		newAuthLogoutCommand(),
		newAuthTestCommand(),
	)
	return cmd
}

func newAuthLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Store the SMTP password in the OS keyring",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			username := rt.Username()
			if username == "" {
				return errors.New("no SMTP username configured: set smtp.username in the config or pass --username")
			}
			password, err := promptPassword(fmt.Sprintf("SMTP password for %s: ", username))
			if err != nil {
				return err
			}
			if err := storePassword(username, password); err != nil {
				return fmt.Errorf("failed to store password in keyring: %w", err)
			}
			fmt.Fprintf(rt.Writer(), "Password for %s stored in the OS keyring\n", username)
			return nil
		},
	}
}

func newAuthLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the SMTP password from the OS keyring",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			username := rt.Username()
			if username == "" {
				return errors.New("no SMTP username configured")
			}
			if err := deletePassword(username); err != nil {
				return fmt.Errorf("failed to remove password from keyring: %w", err)
			}
			fmt.Fprintf(rt.Writer(), "Password for %s removed\n", username)
			return nil
		},
	}
}

func newAuthTestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Connect and authenticate against the SMTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if rt.SMTPHost() == "" {
				return errors.New("no SMTP host configured")
			}
			password, err := rt.resolvePassword()
			if err != nil {
				return err
			}
			sender := mail.NewSender(mail.SenderConfig{
				Host:               rt.SMTPHost(),
				Port:               rt.SMTPPort(),
				Username:           rt.Username(),
				Password:           password,
				InsecureSkipVerify: rt.Insecure(),
			}, rt.Logger())
			defer func() { _ = sender.Close() }()

			if err := sender.Verify(); err != nil {
				return fmt.Errorf("SMTP connection failed: %w", err)
			}
			fmt.Fprintf(rt.Writer(), "Connected to %s:%d and authenticated as %s\n",
				sender.GetHost(), sender.GetPort(), rt.Username())
			return nil
		},
	}
}
