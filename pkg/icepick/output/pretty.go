package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// PrettyFormatter renders a styled table with a summary header.
type PrettyFormatter struct{}

// Format implements Formatter.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.header(r))
	w.WriteString("\n")
	w.WriteString(f.table(r))
	if len(r.Mods) > 0 {
		w.WriteString(f.footer(r))
		w.WriteString("\n")
	}
	return nil
}

func (f *PrettyFormatter) header(r *Result) string {
	line := fmt.Sprintf("%s %s", LabelStyle.Render("Mods:"), ValueStyle.Render(r.Root))
	return HeaderBox.Render(line)
}

func (f *PrettyFormatter) table(r *Result) string {
	if len(r.Mods) == 0 {
		return MutedStyle.Render("  No mods installed") + "\n"
	}

	nameWidth, sizeWidth := 4, 8
	for _, m := range r.Mods {
		nameWidth = max(nameWidth, len(m.Name))
		sizeWidth = max(sizeWidth, len(m.SizeHuman))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "  %s  %s  %s  %s\n",
		TableHeaderStyle.Render(padRight("STATE", 8)),
		TableHeaderStyle.Render(padRight("NAME", nameWidth)),
		TableHeaderStyle.Render(padLeft("SIZE", sizeWidth)),
		TableHeaderStyle.Render("FOLDER"))

	for _, m := range r.Mods {
		state := MutedStyle.Render(padRight("disabled", 8))
		if m.Enabled {
			state = SuccessStyle.Render(padRight("enabled", 8))
		}
		fmt.Fprintf(&sb, "  %s  %s  %s  %s\n",
			state,
			StatusStyle(m.Status).Render(padRight(m.Name, nameWidth)),
			SizeStyle.Render(padLeft(m.SizeHuman, sizeWidth)),
			MutedStyle.Render(m.Dir))

		if r.Detail {
			sb.WriteString(f.detail(m))
		}
	}
	return sb.String()
}

func (f *PrettyFormatter) detail(m ModInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "      %s\n", ValueStyle.Render(m.Description))
	fmt.Fprintf(&sb, "      %s %s\n", LabelStyle.Render("Path:"), m.Path)
	if m.Image != "" {
		fmt.Fprintf(&sb, "      %s %s\n", LabelStyle.Render("Image:"), m.Image)
	}
	for _, e := range m.Errors {
		sb.WriteString("      " + ErrorStyle.Render(e) + "\n")
	}
	for _, w := range m.Warnings {
		sb.WriteString("      " + WarningStyle.Render(w) + "\n")
	}
	return sb.String()
}

func (f *PrettyFormatter) footer(r *Result) string {
	parts := []string{
		fmt.Sprintf("%s %s", LabelStyle.Render("Enabled:"),
			ValueStyle.Render(fmt.Sprintf("%d/%d", r.EnabledCount(), len(r.Mods)))),
		fmt.Sprintf("%s %s", LabelStyle.Render("Total:"),
			SizeStyle.Render(humanize.IBytes(uint64(r.TotalSize())))),
		MutedStyle.Render("Use --format plain for unformatted output"),
	}
	return FooterBox.Render(strings.Join(parts, "  "))
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func init() {
	Register("pretty", func() Formatter { return &PrettyFormatter{} })
}

var _ Formatter = (*PrettyFormatter)(nil)
