package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/icepick/pkg/icepick/config"
	"github.com/jamesainslie/icepick/pkg/icepick/logging"
	"github.com/jamesainslie/icepick/pkg/icepick/output"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "icepick",
		Short: "Manage Titanfall 2 mods and launch the game with the SDK",
		Long: `icepick installs, packages and toggles Titanfall 2 mods, and launches the
game with the SDK injected.

Mods live in data/mods under the game directory. A mod folder holds a
mod.json manifest; dropping a file named "disabled" in it turns it off.

Examples:
  icepick list                       # List installed mods
  icepick import ~/Downloads/hud.zip # Install a mod or save archive
  icepick disable better-hud         # Turn a mod off
  icepick launch --via steam         # Start the game and inject the SDK
  icepick watch                      # Follow changes to the mods folder`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(*cobra.Command, []string) { _ = logging.Close() },
	}
)

// cfg is the configuration loaded by setup.
var cfg *config.Config

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/icepick/config.yaml)")
	rootCmd.PersistentFlags().String("base-dir", "", "game install directory (default: the icepick binary's directory)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().StringP("format", "o", "pretty", "output format: "+strings.Join(output.Available(), ", "))

	_ = viper.BindPFlag("base_dir", rootCmd.PersistentFlags().Lookup("base-dir"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
}

// setup loads configuration and starts logging before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.LoadFile(cfgFile)
	if err != nil {
		return err
	}
	if dir := viper.GetString("base_dir"); dir != "" {
		loaded.BaseDir = dir
	}
	if getVerbose() {
		loaded.Logging.ConsoleLevel = "debug"
	}
	cfg = loaded

	format := viper.GetString("format")
	if !slices.Contains(output.Available(), format) {
		return fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(output.Available(), ", "))
	}

	return initLogging(false)
}

func initLogging(tui bool) error {
	logCfg, err := cfg.LoggingSetup()
	if err != nil {
		return err
	}
	logCfg.TUIMode = tui
	if err := logging.Init(logCfg); err != nil {
		return fmt.Errorf("starting logging: %w", err)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		printError("%v", err)
	}
	return err
}

func getVerbose() bool {
	return viper.GetBool("verbose")
}

func getQuiet() bool {
	return viper.GetBool("quiet")
}

func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
