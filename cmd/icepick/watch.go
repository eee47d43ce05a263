package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/icepick/pkg/icepick/logging"
	"github.com/jamesainslie/icepick/pkg/icepick/repository"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow changes to the mods folder",
	Long: `Watch the mods folder and reload the catalog whenever a mod folder, a
mod.json or a disabled marker changes. Bursts of changes are coalesced
and reloaded once the folder has been quiet for watch.quiet_period.

Press Ctrl+C to stop.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	p, err := resolvePaths()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p.mods, 0o755); err != nil {
		return fmt.Errorf("creating mods directory: %w", err)
	}

	repo, err := loadRepository(nil)
	if err != nil {
		return err
	}
	if err := render(cmd.OutOrStdout(), repo.ModsDir(), repo.Mods(), false); err != nil {
		return err
	}

	log := logging.Get("cli")
	changes := make(chan struct{}, 1)
	repo.Subscribe(func(ev repository.Event) {
		if ev.Kind != repository.CatalogChanged {
			return
		}
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	done := make(chan error, 1)
	go func() { done <- repo.Watch(cmd.Context()) }()
	printInfo("Watching %s (Ctrl+C to stop)", repo.ModsDir())

	for {
		select {
		case err := <-done:
			return err
		case <-changes:
			if err := repo.Reload(); err != nil {
				log.Error("reload failed", "error", err)
				printError("reloading mods: %v", err)
				continue
			}
			mods := repo.Mods()
			enabled := 0
			for _, m := range mods {
				if m.Enabled() {
					enabled++
				}
			}
			printInfo("Mods changed: %d installed, %d enabled.", len(mods), enabled)
			printVerbose("catalog reloaded")
		}
	}
}
