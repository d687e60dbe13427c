package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ecairns22/ServerCaptain/internal/config"
)

func initCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "First-time setup: write config template, create directories and the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts)
		},
	}
}

func runInit(cmd *cobra.Command, opts *globalOptions) error {
	out := cmd.OutOrStdout()

	// 1. Write template config if missing
	configPath := opts.configPath
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", filepath.Dir(configPath), err)
		}
		if err := os.WriteFile(configPath, []byte(config.TemplateConfig()), 0600); err != nil {
			return fmt.Errorf("writing config template: %w", err)
		}
		fmt.Fprintf(out, "  wrote config template to %s\n", configPath)
		fmt.Fprintf(out, "\nEdit %s with your settings, then run 'servercaptain init' again.\n", configPath)
		return nil
	}

	// 2. Load config
	a, err := buildApp(&globalOptions{configPath: configPath, verbose: opts.verbose}, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()
	fmt.Fprintf(out, "  config loaded from %s\n", configPath)

	// 3. Create directories
	dirs := []string{a.cfg.Scripts.Dir}
	if a.cfg.Log.File != "" {
		dirs = append(dirs, filepath.Dir(a.cfg.Log.File))
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
		fmt.Fprintf(out, "  directory %s\n", d)
	}

	// 4. Check the server info script
	script := filepath.Join(a.cfg.Scripts.Dir, a.cfg.Scripts.ServerInfo)
	if _, err := os.Stat(script); err != nil {
		fmt.Fprintf(out, "  server info script %s: MISSING\n", script)
	} else {
		fmt.Fprintf(out, "  server info script %s: OK\n", script)
	}

	// 5. Initialize history database
	store, err := a.openHistory()
	if err != nil {
		fmt.Fprintf(out, "  history database (%s): FAILED (%v)\n", a.cfg.History.Driver, err)
		return err
	}
	store.Close()
	fmt.Fprintf(out, "  history database (%s): OK\n", a.cfg.History.Driver)

	// 6. Check the service backend
	if _, err := a.controller(); err != nil {
		fmt.Fprintf(out, "  service backend %s: FAILED (%v)\n", a.cfg.Service.Backend, err)
		return err
	}
	fmt.Fprintf(out, "  service backend %s: OK\n", a.cfg.Service.Backend)

	fmt.Fprintf(out, "\nServerCaptain initialized successfully.\n")
	return nil
}
