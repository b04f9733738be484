// Package session provides the session model and the registry that derives
// the ordered, addressable session list from scratch terminals and the
// project/worktree backend.
package session

import (
	"github.com/google/uuid"

	"github.com/deskmux/deskmux/internal/workspace"
)

// Kind identifies what a session is backed by.
type Kind int

const (
	KindScratch Kind = iota
	KindProject
	KindWorktree
)

func (k Kind) String() string {
	switch k {
	case KindScratch:
		return "scratch"
	case KindProject:
		return "project"
	case KindWorktree:
		return "worktree"
	default:
		return "unknown"
	}
}

// Session is one addressable unit of terminal-backed work.
type Session struct {
	ID   string
	Kind Kind
	Name string
	// Path is the working directory for shells spawned in this session.
	Path string
	// ProjectID links a worktree session to its owning project session.
	ProjectID string
	// PrimaryCommand runs in the session's first main tab instead of a
	// plain shell, when set.
	PrimaryCommand string
	Order          int
}

// Scratch is a general-purpose terminal not tied to any repository.
type Scratch struct {
	ID    string
	Name  string
	Path  string
	Order int
}

// NewScratch creates a scratch terminal with a fresh id.
func NewScratch(name, path string, order int) Scratch {
	return Scratch{
		ID:    uuid.NewString(),
		Name:  name,
		Path:  path,
		Order: order,
	}
}

// Derive builds the canonical ordered session list: scratch terminals first
// in their stored order, then each active project followed immediately by
// its worktrees in backend order. This ordering drives sidebar navigation
// and the 1-9 index shortcuts; consumers must not cache it across an update.
func Derive(scratch []Scratch, projects []workspace.Project) []Session {
	sessions := make([]Session, 0, len(scratch)+len(projects))

	for _, s := range scratch {
		sessions = append(sessions, Session{
			ID:    s.ID,
			Kind:  KindScratch,
			Name:  s.Name,
			Path:  s.Path,
			Order: len(sessions),
		})
	}

	for _, p := range projects {
		if !p.Active {
			continue
		}
		sessions = append(sessions, Session{
			ID:             p.ID,
			Kind:           KindProject,
			Name:           p.Name,
			Path:           p.Path,
			PrimaryCommand: p.PrimaryCommand,
			Order:          len(sessions),
		})
		for _, wt := range p.Worktrees {
			sessions = append(sessions, Session{
				ID:        wt.ID,
				Kind:      KindWorktree,
				Name:      wt.Name,
				Path:      wt.Path,
				ProjectID: p.ID,
				Order:     len(sessions),
			})
		}
	}

	return sessions
}
