package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/icepick/pkg/icepick/opener"
)

var openCmd = &cobra.Command{
	Use:   "open [mods|saves|<mod>]",
	Short: "Open the mods folder, the saves folder or a mod in the file manager",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runOpen,
}

func init() {
	rootCmd.AddCommand(openCmd)
}

func runOpen(cmd *cobra.Command, args []string) error {
	dir, err := openTarget(args)
	if err != nil {
		return err
	}
	printVerbose("opening %s", dir)
	return opener.ShowFolder(cmd.Context(), dir)
}

func openTarget(args []string) (string, error) {
	p, err := resolvePaths()
	if err != nil {
		return "", err
	}
	if len(args) == 0 {
		return p.mods, nil
	}
	switch args[0] {
	case "mods":
		return p.mods, nil
	case "saves":
		return p.saves, nil
	}

	repo, err := loadRepository(nil)
	if err != nil {
		return "", err
	}
	m, err := findMod(repo, args[0])
	if err != nil {
		return "", err
	}
	return filepath.Clean(m.Dir), nil
}
