package main

import (
	"os"

	mailbotcmd "github.com/syntecxhub/mailbot/pkg/mailbot/cmd"
)

func main() {
	root := mailbotcmd.NewRootCommand(mailbotcmd.DefaultConfig())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
