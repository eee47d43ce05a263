package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/icepick/pkg/icepick/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage icepick configuration.

Configuration is loaded from:
  1. --config, when given
  2. $XDG_CONFIG_HOME/icepick/config.yaml (if set)
  3. ~/.config/icepick/config.yaml

Environment variables override the file using the ICEPICK_ prefix:
  ICEPICK_BASE_DIR="C:\Games\Titanfall2"
  ICEPICK_LAUNCH_VIA=steam
  ICEPICK_INJECT_TIMEOUT=45s`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in $VISUAL, $EDITOR or vi, creating a default
file first if needed.`,
	Args: cobra.NoArgs,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd, configEditCmd, configInitCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	base, err := cfg.ResolveBaseDir()
	if err != nil {
		return err
	}

	if path, err := config.ConfigPath(); err == nil {
		if cfgFile != "" {
			path = cfgFile
		}
		if _, statErr := os.Stat(path); statErr == nil {
			fmt.Fprintf(w, "Config file: %s\n\n", path)
		} else {
			fmt.Fprintf(w, "Config file: (using defaults, no file found)\n\n")
		}
	}

	fmt.Fprintln(w, "Current Configuration:")
	fmt.Fprintln(w, "----------------------")
	fmt.Fprintf(w, "base_dir:                %s\n", base)
	fmt.Fprintf(w, "mods_dir:                %s\n", cfg.ModsPath(base))
	fmt.Fprintf(w, "saves_dir:               %s\n", cfg.SavesPath(base))
	fmt.Fprintf(w, "watch.quiet_period:      %s\n", cfg.Watch.QuietPeriod)
	fmt.Fprintf(w, "inject.target_process:   %s\n", cfg.Inject.TargetProcess)
	fmt.Fprintf(w, "inject.readiness_module: %s\n", cfg.Inject.ReadinessModule)
	fmt.Fprintf(w, "inject.sdk_module:       %s\n", cfg.Inject.SDKModule)
	fmt.Fprintf(w, "inject.init_export:      %s\n", cfg.Inject.InitExport)
	fmt.Fprintf(w, "inject.poll_interval:    %s\n", cfg.Inject.PollInterval)
	fmt.Fprintf(w, "inject.timeout:          %s\n", cfg.Inject.Timeout)
	fmt.Fprintf(w, "inject.launcher_timeout: %s\n", cfg.Inject.LauncherTimeout)
	fmt.Fprintf(w, "launch.via:              %s\n", cfg.Launch.Via)
	fmt.Fprintf(w, "launch.game_path:        %s\n", cfg.Launch.GamePath)
	fmt.Fprintf(w, "launch.steam_url:        %s\n", cfg.Launch.SteamURL)
	fmt.Fprintf(w, "history.enabled:         %t\n", cfg.History.Enabled)
	fmt.Fprintf(w, "history.path:            %s\n", cfg.History.Path)
	fmt.Fprintf(w, "history.retention_days:  %d\n", cfg.History.RetentionDays)
	fmt.Fprintf(w, "logging.level:           %s\n", cfg.Logging.Level)
	fmt.Fprintf(w, "sdk data path:           %s\n", config.SDKDataPath(base))

	fmt.Fprintln(w, "\nEnvironment Overrides:")
	fmt.Fprintln(w, "----------------------")
	envVars := []string{
		"ICEPICK_BASE_DIR", "ICEPICK_MODS_DIR", "ICEPICK_SAVES_DIR",
		"ICEPICK_LAUNCH_VIA", "ICEPICK_LAUNCH_GAME_PATH",
		"ICEPICK_INJECT_TIMEOUT", "ICEPICK_INJECT_LAUNCHER_TIMEOUT",
		"ICEPICK_HISTORY_ENABLED", "ICEPICK_HISTORY_PATH", "ICEPICK_LOGGING_LEVEL",
	}
	anyOverrides := false
	for _, name := range envVars {
		if val := os.Getenv(name); val != "" {
			fmt.Fprintf(w, "%s=%s\n", name, val)
			anyOverrides = true
		}
	}
	if !anyOverrides {
		fmt.Fprintln(w, "(none)")
	}
	return nil
}

func runConfigEdit(_ *cobra.Command, _ []string) error {
	path, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}
	printVerbose("Opening %s with %s", path, editor)

	editorCmd := exec.Command(editor, path) //nolint:gosec // user's own editor
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}
	return nil
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		printInfo("Config file already exists: %s", path)
		printInfo("Use 'icepick config edit' to modify it.")
		return nil
	}
	if _, err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	printInfo("Created default config file: %s", path)
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}
	return nil
}
