package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/icepick/pkg/icepick/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	Long: `View the record of imports, packages, toggles, deletes and launches.

Each operation is stored as one JSON file under history.path.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one operation",
	Long:  `Display one operation by ID. A unique ID prefix is enough.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove entries older than the retention period",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClean,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show")

	historyCmd.AddCommand(historyShowCmd, historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

func historyStore() (*history.Store, error) {
	store, err := history.New(cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, nil
}

func runHistory(_ *cobra.Command, _ []string) error {
	store, err := historyStore()
	if err != nil {
		return err
	}
	entries, err := store.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		printInfo("No history entries found.")
		return nil
	}

	fmt.Printf("\n%-42s  %-8s  %-7s  %s\n", "ID", "OP", "RESULT", "MODS")
	fmt.Println(strings.Repeat("-", 80))
	for _, e := range entries {
		fmt.Printf("%-42s  %-8s  %-7s  %s\n",
			truncateString(e.ID, 42), e.Operation, resultWord(e.Success), modNames(e.Mods))
	}
	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("\nShowing %d entries. Use --limit to see more.\n", len(entries))
	fmt.Println("Use 'icepick history show <id>' for details.")
	return nil
}

func runHistoryShow(_ *cobra.Command, args []string) error {
	store, err := historyStore()
	if err != nil {
		return err
	}
	e, err := store.Get(args[0])
	if err != nil {
		return err
	}

	fmt.Println("\nOperation Details")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("ID:         %s\n", e.ID)
	fmt.Printf("Timestamp:  %s (%s)\n", e.Timestamp.Format("2006-01-02 15:04:05 MST"), humanize.Time(e.Timestamp))
	fmt.Printf("Operation:  %s\n", e.Operation)
	fmt.Printf("Result:     %s\n", resultWord(e.Success))
	if e.Message != "" {
		fmt.Printf("Message:    %s\n", e.Message)
	}

	for _, m := range e.Mods {
		fmt.Println(strings.Repeat("-", 60))
		fmt.Printf("Mod:        %s\n", m.Name)
		if m.Dir != "" {
			fmt.Printf("Folder:     %s\n", m.Dir)
		}
		if m.Archive != "" {
			fmt.Printf("Archive:    %s\n", m.Archive)
		}
		if m.Enabled != nil {
			fmt.Printf("Enabled:    %t\n", *m.Enabled)
		}
		if m.Size > 0 {
			fmt.Printf("Size:       %s\n", humanize.IBytes(uint64(m.Size)))
		}
	}
	return nil
}

func runHistoryClean(_ *cobra.Command, _ []string) error {
	store, err := historyStore()
	if err != nil {
		return err
	}
	days := cfg.History.RetentionDays
	printInfo("Cleaning history entries older than %d days...", days)
	removed, err := store.Clean(days)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}
	printInfo("Removed %d entries.", removed)
	return nil
}

func resultWord(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}

func modNames(mods []history.ModRecord) string {
	names := make([]string, 0, len(mods))
	for _, m := range mods {
		names = append(names, m.Name)
	}
	return strings.Join(names, ", ")
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
