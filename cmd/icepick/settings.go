package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/icepick/pkg/icepick/config"
	"github.com/jamesainslie/icepick/pkg/icepick/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show stored runtime settings",
	Long: `Show settings kept in the settings store rather than the config file.

The store lives in $XDG_DATA_HOME/icepick/settings.`,
	Args: cobra.NoArgs,
	RunE: runSettings,
}

var devModeCmd = &cobra.Command{
	Use:   "dev-mode [on|off]",
	Short: "Show or set developer mode",
	Long: `Show or set developer mode. The flag is passed to the SDK when the game
is launched.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runDevMode,
}

func init() {
	settingsCmd.AddCommand(devModeCmd)
	rootCmd.AddCommand(settingsCmd)
}

func openSettings() (*settings.Store, error) {
	return settings.Open(config.SettingsDir())
}

func runSettings(cmd *cobra.Command, _ []string) error {
	store, err := openSettings()
	if err != nil {
		return err
	}
	defer store.Close()

	all, err := store.All()
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}
	if len(all) == 0 {
		printInfo("No settings stored.")
		return nil
	}

	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", k, all[k])
	}
	return nil
}

func runDevMode(cmd *cobra.Command, args []string) error {
	store, err := openSettings()
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 0 {
		on, err := store.DeveloperMode()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), onOff(on))
		return nil
	}

	on, err := parseOnOff(args[0])
	if err != nil {
		return err
	}
	if err := store.SetDeveloperMode(on); err != nil {
		return fmt.Errorf("saving developer mode: %w", err)
	}
	printInfo("Developer mode %s.", onOff(on))
	return nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
