package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/syntecxhub/mailbot/pkg/mailbot/config"
)

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the mailbot config file",
	}
	cmd.AddCommand(
		newConfigInitCommand(),
		newConfigViewCommand(),
		newConfigPathCommand(),
	)
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if !force {
				if _, err := config.Load(rt.configPath); err == nil {
					return fmt.Errorf("%s already exists, pass --force to overwrite", rt.configPath)
				}
			}
			cfg := config.DefaultConfig()
			if err := config.Save(rt.configPath, &cfg); err != nil {
				return err
			}
			fmt.Fprintf(rt.Writer(), "Config written to %s\n", rt.configPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func newConfigViewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Print the effective config",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			content, err := yaml.Marshal(rt.cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(rt.Writer(), string(content))
			return nil
		},
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path in use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(rt.Writer(), rt.configPath)
			return nil
		},
	}
}
