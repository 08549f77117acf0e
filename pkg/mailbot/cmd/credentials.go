package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
	"golang.org/x/term"
)

const keyringService = "mailbot"

var errNoPassword = errors.New("no SMTP password available: set MAILBOT_SMTP_PASSWORD, run \"mailbot auth login\", or run interactively")

// resolvePassword finds the SMTP password without ever reading it from the
// config file. Order: environment, OS keyring, interactive prompt.
func (rt *runtimeState) resolvePassword() (string, error) {
	if pw := os.Getenv("MAILBOT_SMTP_PASSWORD"); pw != "" {
		return pw, nil
	}

	username := rt.Username()
	if username != "" {
		pw, err := keyring.Get(keyringService, username)
		if err == nil && pw != "" {
			return pw, nil
		}
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			rt.Logger().Debugw("Keyring lookup failed", "error", err)
		}
	}

	if rt.nonInteractive {
		return "", errNoPassword
	}
	return promptPassword(fmt.Sprintf("SMTP password for %s: ", username))
}

func promptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errNoPassword
	}
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	pw := strings.TrimSpace(string(raw))
	if pw == "" {
		return "", errNoPassword
	}
	return pw, nil
}

func storePassword(username, password string) error {
	return keyring.Set(keyringService, username, password)
}

func deletePassword(username string) error {
	err := keyring.Delete(keyringService, username)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
