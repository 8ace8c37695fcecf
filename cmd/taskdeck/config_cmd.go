package main

import (
	"fmt"
	"io"
	"os"

	"github.com/evanschultz/taskdeck/internal/config"
	"github.com/spf13/cobra"
)

func pathsCmd(opts *globalOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			resolved, err := resolveConfig(opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", resolved.configPath)
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", resolved.paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "session: %s\n", resolved.cfg.Session.Path)
			_, _ = fmt.Fprintf(stdout, "logs: %s\n", resolved.paths.LogDir)
			_, _ = fmt.Fprintf(stdout, "api: %s\n", resolved.cfg.API.BaseURL)
			return nil
		},
	}
}

func configCmd(opts *globalOptions, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective config to the config path",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			resolved, err := resolveConfig(opts)
			if err != nil {
				return err
			}
			if _, statErr := os.Stat(resolved.configPath); statErr == nil && !force {
				return fmt.Errorf("config %q already exists (use --force to overwrite)", resolved.configPath)
			}
			if err := config.Save(resolved.configPath, resolved.cfg); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "wrote %s\n", resolved.configPath)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}
