package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/icepick/pkg/icepick/archive"
	"github.com/jamesainslie/icepick/pkg/icepick/history"
	"github.com/jamesainslie/icepick/pkg/icepick/logging"
	"github.com/jamesainslie/icepick/pkg/icepick/mod"
	"github.com/jamesainslie/icepick/pkg/icepick/output"
	"github.com/jamesainslie/icepick/pkg/icepick/repository"
)

// paths are the directories a command works on, resolved from cfg.
type paths struct {
	base  string
	mods  string
	saves string
}

func resolvePaths() (paths, error) {
	base, err := cfg.ResolveBaseDir()
	if err != nil {
		return paths{}, err
	}
	return paths{
		base:  base,
		mods:  cfg.ModsPath(base),
		saves: cfg.SavesPath(base),
	}, nil
}

// openHistory returns the configured history store, or a no-op recorder
// when history is disabled or cannot be opened.
func openHistory() history.Recorder {
	if !cfg.History.Enabled {
		return history.Nop{}
	}
	store, err := history.New(cfg.History.Path)
	if err != nil {
		logging.Get("cli").Warn("history unavailable", "path", cfg.History.Path, "error", err)
		return history.Nop{}
	}
	return store
}

// loadRepository builds a repository over the configured directories and
// loads the catalog.
func loadRepository(confirm archive.ConfirmOverwrite) (*repository.Repository, error) {
	p, err := resolvePaths()
	if err != nil {
		return nil, err
	}
	printVerbose("mods directory: %s", p.mods)

	repo := repository.New(repository.Options{
		ModsDir:     p.mods,
		SavesDir:    p.saves,
		QuietPeriod: cfg.Watch.QuietPeriod,
		Confirm:     confirm,
		History:     openHistory(),
	})
	if err := repo.LoadAll(); err != nil {
		return nil, err
	}
	return repo, nil
}

// findMod resolves a command argument to a loaded mod.
func findMod(repo *repository.Repository, name string) (*mod.Mod, error) {
	m, err := repo.Find(name)
	if err != nil {
		return nil, fmt.Errorf("%w (run 'icepick list' to see installed mods)", err)
	}
	return m, nil
}

// render writes mods with the --format formatter.
func render(w io.Writer, root string, mods []*mod.Mod, detail bool) error {
	result := output.FromMods(root, mods)
	result.Detail = detail
	return renderResult(w, result)
}

func renderResult(w io.Writer, result *output.Result) error {
	f, err := output.Get(viper.GetString("format"))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := f.Format(&buf, result); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// answers buffers the command's input once so that several prompts in one
// run read consecutive lines.
var answers struct {
	src io.Reader
	r   *bufio.Reader
}

func answerReader(cmd *cobra.Command) *bufio.Reader {
	in := cmd.InOrStdin()
	if answers.r == nil || answers.src != in {
		answers.src = in
		answers.r = bufio.NewReader(in)
	}
	return answers.r
}

// confirm asks a yes/no question on cmd's streams. Anything but y or yes
// is a no.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)
	line, err := answerReader(cmd).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(cmd.OutOrStdout())
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// overwritePrompt returns the import confirmation used by the import and
// watch commands.
func overwritePrompt(cmd *cobra.Command, assumeYes bool) archive.ConfirmOverwrite {
	return func(name string) bool {
		if assumeYes {
			return true
		}
		return confirm(cmd, fmt.Sprintf("A mod already exists in folder '%s'. Replace it?", name))
	}
}

func relTo(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
