package repository

import (
	"github.com/jamesainslie/icepick/pkg/icepick/archive"
	"github.com/jamesainslie/icepick/pkg/icepick/mod"
)

// EventKind identifies a repository notification.
type EventKind int

const (
	StartedLoading EventKind = iota
	ModLoaded
	FinishedLoading
	ImportFinished
	CatalogChanged
)

func (k EventKind) String() string {
	switch k {
	case StartedLoading:
		return "started-loading"
	case ModLoaded:
		return "mod-loaded"
	case FinishedLoading:
		return "finished-loading"
	case ImportFinished:
		return "import-finished"
	case CatalogChanged:
		return "catalog-changed"
	default:
		return "unknown"
	}
}

// Event is published on the repository bus. Mod is set for ModLoaded and
// Outcome for ImportFinished.
type Event struct {
	Kind    EventKind
	Mod     *mod.Mod
	Outcome *archive.Outcome
}
