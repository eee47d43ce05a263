package output

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
)

// PlainFormatter writes an unstyled aligned table for scripts.
type PlainFormatter struct{}

// Format implements Formatter.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintln(tw, "STATE\tSTATUS\tSIZE\tFOLDER\tNAME"); err != nil {
		return err
	}
	for _, m := range r.Mods {
		state := "disabled"
		if m.Enabled {
			state = "enabled"
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", state, m.Status, m.SizeHuman, m.Dir, m.Name); err != nil {
			return err
		}
		if r.Detail {
			notes := append(append([]string{}, m.Errors...), m.Warnings...)
			if len(notes) > 0 {
				if _, err := fmt.Fprintf(tw, "\t\t\t\t%s\n", strings.Join(notes, "; ")); err != nil {
					return err
				}
			}
		}
	}
	return tw.Flush()
}

func init() {
	Register("plain", func() Formatter { return &PlainFormatter{} })
}

var _ Formatter = (*PlainFormatter)(nil)
