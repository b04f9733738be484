// Package workspace defines the project/worktree backend contract.
//
// Git mechanics and persistence live behind the Backend interface; the core
// only consumes the derived project list and reconciles against removal
// events.
package workspace

import "context"

// Worktree is one git worktree belonging to a project.
type Worktree struct {
	ID     string
	Name   string
	Path   string
	Branch string
}

// Project is an imported repository with zero or more worktrees.
type Project struct {
	ID    string
	Name  string
	Path  string
	Order int
	// Active projects contribute sessions; inactive ones are hidden
	// from the sidebar but keep their identity.
	Active bool
	// PrimaryCommand, when set, runs in the session's first tab instead
	// of a plain shell.
	PrimaryCommand string
	Worktrees      []Worktree
}

// EventType classifies backend change notifications.
type EventType int

const (
	// EventProjectsChanged signals any project list change; consumers
	// re-read Projects.
	EventProjectsChanged EventType = iota
	// EventWorktreeRemoved signals a worktree deleted outside the app
	// (e.g. git worktree remove on the command line).
	EventWorktreeRemoved
)

// Event is a backend change notification.
type Event struct {
	Type       EventType
	ProjectID  string
	WorktreeID string
}

// Backend is the project/worktree collaborator.
type Backend interface {
	// Projects returns all projects in sidebar order.
	Projects(ctx context.Context) ([]Project, error)

	AddProject(ctx context.Context, path string) (Project, error)
	RemoveProject(ctx context.Context, projectID string) error
	SetProjectActive(ctx context.Context, projectID string, active bool) error
	ReorderProjects(ctx context.Context, projectIDs []string) error

	CreateWorktree(ctx context.Context, projectID, branch string) (Worktree, error)
	RemoveWorktree(ctx context.Context, projectID, worktreeID string) error

	// Events delivers change notifications until the backend is closed.
	Events() <-chan Event
}
