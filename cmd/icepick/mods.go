package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/icepick/pkg/icepick/archive"
	"github.com/jamesainslie/icepick/pkg/icepick/filter"
	"github.com/jamesainslie/icepick/pkg/icepick/mod"
	"github.com/jamesainslie/icepick/pkg/icepick/output"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List installed mods",
	Long: `List every mod folder under the mods directory with its state, status
and size. Folders whose names start with a dot are ignored.

Patterns are globs matched against the folder and display name, ignoring
case. Without --sort mods are listed in load order.`,
	Example: `  icepick list --state enabled
  icepick list --match 'better*' --exclude '*beta*'
  icepick list --sort size --desc --limit 5
  icepick list --status warning,error --min-size 1MB`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var showCmd = &cobra.Command{
	Use:   "show <mod>",
	Short: "Show a mod's details and warnings",
	Long:  `Show a mod's description, path, image and any warnings. <mod> is a folder name or display name.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var importCmd = &cobra.Command{
	Use:   "import <archive.zip>...",
	Short: "Install mod or save archives",
	Long: `Install one or more .zip archives.

An archive holding a mod.json anywhere inside is extracted to
data/mods/<archive name>. An archive holding save files (names with several
dots ending in .txt, such as profile.save.txt) is extracted to data/saves.
Anything else is rejected. Files without the .zip extension are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

var packageCmd = &cobra.Command{
	Use:   "package <mod>",
	Short: "Package a mod folder into data/mods/<mod>.zip",
	Long: `Write the mod folder to a .zip next to it. The disabled marker is left out
of the archive and is back in place afterwards. An existing archive is
never overwritten.`,
	Args: cobra.ExactArgs(1),
	RunE: runPackage,
}

var enableCmd = &cobra.Command{
	Use:   "enable <mod>",
	Short: "Enable a mod",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return runSetEnabled(args[0], true) },
}

var disableCmd = &cobra.Command{
	Use:   "disable <mod>",
	Short: "Disable a mod",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return runSetEnabled(args[0], false) },
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <mod>",
	Short: "Flip a mod between enabled and disabled",
	Args:  cobra.ExactArgs(1),
	RunE:  runToggle,
}

var deleteCmd = &cobra.Command{
	Use:     "delete <mod>",
	Aliases: []string{"rm"},
	Short:   "Permanently delete a mod folder",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

var (
	importYes bool
	deleteYes bool

	listState   string
	listStatus  []string
	listMatch   []string
	listExclude []string
	listMinSize string
	listSort    string
	listDesc    bool
	listLimit   int
)

func init() {
	listCmd.Flags().StringVar(&listState, "state", "all", "show all, enabled or disabled mods")
	listCmd.Flags().StringSliceVar(&listStatus, "status", nil, "only mods with these statuses (ok, warning, error, update)")
	listCmd.Flags().StringSliceVarP(&listMatch, "match", "m", nil, "only mods matching these globs")
	listCmd.Flags().StringSliceVarP(&listExclude, "exclude", "x", nil, "skip mods matching these globs")
	listCmd.Flags().StringVar(&listMinSize, "min-size", "", "only mods at least this large (e.g. 500K, 10MB)")
	listCmd.Flags().StringVar(&listSort, "sort", "", "sort by name, size or status")
	listCmd.Flags().BoolVar(&listDesc, "desc", false, "reverse the order")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "show at most this many mods (0 for all)")

	importCmd.Flags().BoolVarP(&importYes, "yes", "y", false, "replace existing mods without asking")
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "delete without asking")

	rootCmd.AddCommand(listCmd, showCmd, importCmd, packageCmd, enableCmd, disableCmd, toggleCmd, deleteCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	f, err := listFilter()
	if err != nil {
		return err
	}
	repo, err := loadRepository(nil)
	if err != nil {
		return err
	}

	result := output.FromMods(repo.ModsDir(), repo.Mods())
	result.Mods = f.Apply(result.Mods)
	return renderResult(cmd.OutOrStdout(), result)
}

// listFilter builds the list filter from flags.
func listFilter() (*filter.Filter, error) {
	state, err := filter.ParseState(listState)
	if err != nil {
		return nil, err
	}
	sortBy, err := filter.ParseSortField(listSort)
	if err != nil {
		return nil, err
	}
	minSize, err := filter.ParseSize(listMinSize)
	if err != nil {
		return nil, err
	}
	return filter.New(
		filter.WithState(state),
		filter.WithStatuses(listStatus...),
		filter.WithInclude(listMatch...),
		filter.WithExclude(listExclude...),
		filter.WithMinSize(minSize),
		filter.WithSortBy(sortBy),
		filter.WithSortDescending(listDesc),
		filter.WithLimit(listLimit),
	), nil
}

func runShow(cmd *cobra.Command, args []string) error {
	repo, err := loadRepository(nil)
	if err != nil {
		return err
	}
	m, err := findMod(repo, args[0])
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), repo.ModsDir(), []*mod.Mod{m}, true)
}

func runImport(cmd *cobra.Command, args []string) error {
	repo, err := loadRepository(overwritePrompt(cmd, importYes))
	if err != nil {
		return err
	}

	failed := 0
	for _, src := range args {
		out := repo.Import(src)
		if out == nil {
			printInfo("Skipping %s: not a %s archive.", src, archive.Extension)
			continue
		}
		if out.Success {
			printInfo("%s", out.Message)
			continue
		}
		failed++
		printError("%s", out.Message)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d imports failed", failed, len(args))
	}
	return nil
}

func runPackage(_ *cobra.Command, args []string) error {
	repo, err := loadRepository(nil)
	if err != nil {
		return err
	}
	m, err := findMod(repo, args[0])
	if err != nil {
		return err
	}
	if err := repo.Package(m.Dir); err != nil {
		return err
	}
	printInfo("Packaged %s to %s", m.DisplayName(), archive.ExportPath(repo.ModsDir(), m.Dir))
	return nil
}

func runSetEnabled(name string, enabled bool) error {
	repo, err := loadRepository(nil)
	if err != nil {
		return err
	}
	m, err := findMod(repo, name)
	if err != nil {
		return err
	}
	changed, err := repo.SetEnabled(m.Dir, enabled)
	if err != nil {
		return err
	}

	state := stateWord(enabled)
	if !changed {
		printInfo("%s is already %s.", m.DisplayName(), state)
		return nil
	}
	printInfo("%s %s.", m.DisplayName(), state)
	return nil
}

func runToggle(_ *cobra.Command, args []string) error {
	repo, err := loadRepository(nil)
	if err != nil {
		return err
	}
	m, err := findMod(repo, args[0])
	if err != nil {
		return err
	}
	enabled, err := repo.Toggle(m.Dir)
	if err != nil {
		return err
	}
	printInfo("%s %s.", m.DisplayName(), stateWord(enabled))
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	repo, err := loadRepository(nil)
	if err != nil {
		return err
	}
	m, err := findMod(repo, args[0])
	if err != nil {
		return err
	}
	if !deleteYes && !confirm(cmd, fmt.Sprintf("Permanently delete '%s' (%s)?", m.DisplayName(), relTo(repo.ModsDir(), m.Dir))) {
		return errors.New("delete cancelled")
	}
	if err := repo.Delete(m.Dir); err != nil {
		return err
	}
	printInfo("Deleted %s.", m.DisplayName())
	return nil
}

func stateWord(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
