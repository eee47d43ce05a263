package output

import (
	"bytes"
	"encoding/json"
)

type document struct {
	Root      string    `json:"root" yaml:"root"`
	Mods      []ModInfo `json:"mods" yaml:"mods"`
	Enabled   int       `json:"enabled" yaml:"enabled"`
	Total     int       `json:"total" yaml:"total"`
	TotalSize int64     `json:"total_size" yaml:"total_size"`
}

func newDocument(r *Result) document {
	mods := r.Mods
	if mods == nil {
		mods = []ModInfo{}
	}
	return document{
		Root:      r.Root,
		Mods:      mods,
		Enabled:   r.EnabledCount(),
		Total:     len(r.Mods),
		TotalSize: r.TotalSize(),
	}
}

// JSONFormatter writes one indented JSON document.
type JSONFormatter struct{}

// Format implements Formatter.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newDocument(r))
}

func init() {
	Register("json", func() Formatter { return &JSONFormatter{} })
}

var _ Formatter = (*JSONFormatter)(nil)
