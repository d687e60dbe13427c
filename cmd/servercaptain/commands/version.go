package commands

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/ecairns22/ServerCaptain/internal/release"
)

// Version is set at build time via ldflags.
var Version = "dev"

const releaseCheckTimeout = 15 * time.Second

func versionCmd(opts *globalOptions) *cobra.Command {
	var latest bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "servercaptain %s\n", Version)
			if !latest {
				return nil
			}

			cfg, err := loadConfig(opts)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), releaseCheckTimeout)
			defer cancel()

			rel, err := release.New(cfg.Release.Token, cfg.Release.Owner, cfg.Release.Repo).Latest(ctx)
			if err != nil {
				return err
			}
			if release.IsCurrent(Version, rel.Tag) {
				fmt.Fprintf(w, "up to date (latest release %s)\n", rel.Tag)
				return nil
			}
			fmt.Fprintf(w, "latest release: %s (published %s)\n", rel.Tag, rel.Published.Format("2006-01-02"))
			if a, err := rel.FindAsset(runtime.GOOS, runtime.GOARCH); err == nil {
				fmt.Fprintf(w, "download:       %s\n", a.URL)
			} else {
				fmt.Fprintf(w, "release page:   %s\n", rel.URL)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&latest, "latest", false, "also check GitHub for the latest release")
	return cmd
}
