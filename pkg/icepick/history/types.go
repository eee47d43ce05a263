// Package history keeps a record of operations that changed the mods
// directory or touched the game process, one JSON file per operation.
package history

import "time"

// Operation names a recorded action.
type Operation string

const (
	OpImport  Operation = "import"
	OpPackage Operation = "package"
	OpToggle  Operation = "toggle"
	OpDelete  Operation = "delete"
	OpInject  Operation = "inject"
)

// Entry is one recorded operation.
type Entry struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Operation Operation   `json:"operation"`
	Mods      []ModRecord `json:"mods,omitempty"`
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
}

// ModRecord identifies a mod an operation acted on.
type ModRecord struct {
	Dir     string `json:"dir"`
	Name    string `json:"name,omitempty"`
	Enabled *bool  `json:"enabled,omitempty"`
	Size    int64  `json:"size,omitempty"`
	Archive string `json:"archive,omitempty"`
}
