// Package filter narrows, sorts and limits mod listings for the list
// command.
package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// SortField is the key a listing is ordered by.
type SortField int

const (
	// SortNone keeps directory order.
	SortNone SortField = iota
	SortName
	SortSize
	SortStatus
)

var sortNames = map[SortField]string{
	SortNone:   "none",
	SortName:   "name",
	SortSize:   "size",
	SortStatus: "status",
}

func (s SortField) String() string {
	if name, ok := sortNames[s]; ok {
		return name
	}
	return "none"
}

// ErrInvalidSortField is returned by ParseSortField.
var ErrInvalidSortField = errors.New("invalid sort field")

// ParseSortField accepts none, name, size or status, in any case. The empty
// string is none.
func ParseSortField(s string) (SortField, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return SortNone, nil
	}
	for f, n := range sortNames {
		if n == name {
			return f, nil
		}
	}
	return SortNone, fmt.Errorf("%w: %q (valid: none, name, size, status)", ErrInvalidSortField, s)
}

// State selects mods by their enabled flag.
type State int

const (
	StateAll State = iota
	StateEnabled
	StateDisabled
)

// ErrInvalidState is returned by ParseState.
var ErrInvalidState = errors.New("invalid state")

// ParseState accepts all, enabled or disabled. The empty string is all.
func ParseState(s string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return StateAll, nil
	case "enabled", "on":
		return StateEnabled, nil
	case "disabled", "off":
		return StateDisabled, nil
	default:
		return StateAll, fmt.Errorf("%w: %q (valid: all, enabled, disabled)", ErrInvalidState, s)
	}
}

// ParseSize reads sizes such as "500K", "10MB" or "1.5GiB". The empty
// string is zero.
func ParseSize(s string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return int64(n), nil
}

// statusRank orders statuses from healthiest to worst.
func statusRank(status string) int {
	switch status {
	case "ok":
		return 0
	case "update":
		return 1
	case "warning":
		return 2
	case "error":
		return 3
	default:
		return 4
	}
}
