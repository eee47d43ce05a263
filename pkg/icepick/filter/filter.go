package filter

import (
	"cmp"
	"slices"
	"strings"

	"github.com/gobwas/glob"

	"github.com/jamesainslie/icepick/pkg/icepick/output"
)

// Filter selects, orders and limits mods.
type Filter struct {
	State State

	// Statuses, when non-empty, keeps only mods with one of these statuses.
	Statuses []string

	// Include holds glob patterns; a mod must match one when any are set.
	// Patterns are matched against the folder name and the display name,
	// ignoring case.
	Include []string

	// Exclude holds glob patterns that drop a mod.
	Exclude []string

	MinSize int64

	SortBy         SortField
	SortDescending bool

	// Limit caps the result. 0 means unlimited.
	Limit int
}

// Option configures a Filter.
type Option func(*Filter)

// New returns a filter that keeps everything in directory order.
func New(opts ...Option) *Filter {
	f := &Filter{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func WithState(s State) Option { return func(f *Filter) { f.State = s } }

func WithStatuses(statuses ...string) Option {
	return func(f *Filter) {
		for _, s := range statuses {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				f.Statuses = append(f.Statuses, s)
			}
		}
	}
}

func WithInclude(patterns ...string) Option {
	return func(f *Filter) { f.Include = append(f.Include, patterns...) }
}

func WithExclude(patterns ...string) Option {
	return func(f *Filter) { f.Exclude = append(f.Exclude, patterns...) }
}

func WithMinSize(n int64) Option {
	return func(f *Filter) { f.MinSize = max(n, 0) }
}

func WithSortBy(field SortField) Option { return func(f *Filter) { f.SortBy = field } }

func WithSortDescending(desc bool) Option { return func(f *Filter) { f.SortDescending = desc } }

// WithLimit caps the result; non-positive means unlimited.
func WithLimit(n int) Option {
	return func(f *Filter) { f.Limit = max(n, 0) }
}

// Match reports whether m passes every criterion.
func (f *Filter) Match(m output.ModInfo) bool {
	switch f.State {
	case StateEnabled:
		if !m.Enabled {
			return false
		}
	case StateDisabled:
		if m.Enabled {
			return false
		}
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, m.Status) {
		return false
	}
	if m.Size < f.MinSize {
		return false
	}
	if matchesAny(m, f.Exclude) {
		return false
	}
	if len(f.Include) > 0 && !matchesAny(m, f.Include) {
		return false
	}
	return true
}

// matchesAny reports whether m's folder or display name matches a pattern.
// Invalid patterns never match.
func matchesAny(m output.ModInfo, patterns []string) bool {
	dir := strings.ToLower(m.Dir)
	name := strings.ToLower(m.Name)
	for _, pattern := range patterns {
		g, err := glob.Compile(strings.ToLower(pattern))
		if err != nil {
			continue
		}
		if g.Match(dir) || g.Match(name) {
			return true
		}
	}
	return false
}

// Sort returns a sorted copy. Ties keep directory order.
func (f *Filter) Sort(mods []output.ModInfo) []output.ModInfo {
	sorted := slices.Clone(mods)
	if f.SortBy == SortNone {
		if f.SortDescending {
			slices.Reverse(sorted)
		}
		return sorted
	}

	slices.SortStableFunc(sorted, func(a, b output.ModInfo) int {
		var result int
		switch f.SortBy {
		case SortName:
			result = cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		case SortSize:
			result = cmp.Compare(a.Size, b.Size)
		case SortStatus:
			result = cmp.Compare(statusRank(a.Status), statusRank(b.Status))
		}
		if f.SortDescending {
			return -result
		}
		return result
	})
	return sorted
}

// Apply matches, sorts and limits.
func (f *Filter) Apply(mods []output.ModInfo) []output.ModInfo {
	matched := make([]output.ModInfo, 0, len(mods))
	for _, m := range mods {
		if f.Match(m) {
			matched = append(matched, m)
		}
	}
	sorted := f.Sort(matched)
	if f.Limit > 0 && len(sorted) > f.Limit {
		return sorted[:f.Limit]
	}
	return sorted
}
