package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// FileBackend keeps the project list in a yaml manifest. Worktree creation
// records the entry and makes the directory; actual git plumbing is left to
// whatever the user runs inside the session.
type FileBackend struct {
	path string
	log  *slog.Logger

	mu       sync.Mutex
	projects []Project

	events chan Event
	stop   func()
}

type manifest struct {
	Projects []manifestProject `yaml:"projects"`
}

type manifestProject struct {
	ID             string             `yaml:"id"`
	Name           string             `yaml:"name"`
	Path           string             `yaml:"path"`
	Active         *bool              `yaml:"active,omitempty"`
	PrimaryCommand string             `yaml:"primary_command,omitempty"`
	Worktrees      []manifestWorktree `yaml:"worktrees,omitempty"`
}

type manifestWorktree struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Path   string `yaml:"path"`
	Branch string `yaml:"branch"`
}

// NewFileBackend loads (or initializes) the manifest at path and starts
// watching it for external edits.
func NewFileBackend(path string, log *slog.Logger) (*FileBackend, error) {
	b := &FileBackend{
		path:   path,
		log:    log,
		events: make(chan Event, 16),
	}

	if err := b.load(); err != nil {
		return nil, err
	}
	if err := b.watch(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *FileBackend) load() error {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parsing %s: %w", b.path, err)
	}

	projects := make([]Project, 0, len(m.Projects))
	for i, mp := range m.Projects {
		p := Project{
			ID:             mp.ID,
			Name:           mp.Name,
			Path:           mp.Path,
			Order:          i,
			Active:         mp.Active == nil || *mp.Active,
			PrimaryCommand: mp.PrimaryCommand,
		}
		for _, mw := range mp.Worktrees {
			p.Worktrees = append(p.Worktrees, Worktree(mw))
		}
		projects = append(projects, p)
	}

	b.mu.Lock()
	b.projects = projects
	b.mu.Unlock()
	return nil
}

// saveLocked writes the manifest. Caller holds b.mu.
func (b *FileBackend) saveLocked() error {
	m := manifest{Projects: make([]manifestProject, 0, len(b.projects))}
	for _, p := range b.projects {
		active := p.Active
		mp := manifestProject{
			ID:             p.ID,
			Name:           p.Name,
			Path:           p.Path,
			Active:         &active,
			PrimaryCommand: p.PrimaryCommand,
		}
		for _, wt := range p.Worktrees {
			mp.Worktrees = append(mp.Worktrees, manifestWorktree(wt))
		}
		m.Projects = append(m.Projects, mp)
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(b.path, data, 0o644)
}

// watch re-reads the manifest when something else writes it.
func (b *FileBackend) watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		watcher.Close()
		return err
	}
	if err := watcher.Add(filepath.Dir(b.path)); err != nil {
		watcher.Close()
		return err
	}

	done := make(chan struct{})
	b.stop = func() {
		close(done)
		watcher.Close()
	}

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != b.path {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				if err := b.load(); err != nil {
					b.log.Warn("reloading project manifest", "err", err)
					continue
				}
				b.emit(Event{Type: EventProjectsChanged})
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			case <-done:
				return
			}
		}
	}()
	return nil
}

func (b *FileBackend) emit(ev Event) {
	select {
	case b.events <- ev:
	default:
		b.log.Warn("dropping backend event", "type", ev.Type)
	}
}

// Projects returns all projects in sidebar order.
func (b *FileBackend) Projects(ctx context.Context) ([]Project, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Project, len(b.projects))
	copy(out, b.projects)
	return out, nil
}

// AddProject imports a directory as a project.
func (b *FileBackend) AddProject(ctx context.Context, path string) (Project, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Project{}, err
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return Project{}, fmt.Errorf("not a directory: %s", abs)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, p := range b.projects {
		if p.Path == abs {
			return Project{}, fmt.Errorf("already imported: %s", abs)
		}
	}

	p := Project{
		ID:     uuid.NewString(),
		Name:   filepath.Base(abs),
		Path:   abs,
		Order:  len(b.projects),
		Active: true,
	}
	b.projects = append(b.projects, p)

	if err := b.saveLocked(); err != nil {
		b.projects = b.projects[:len(b.projects)-1]
		return Project{}, err
	}
	b.emit(Event{Type: EventProjectsChanged, ProjectID: p.ID})
	return p, nil
}

// RemoveProject forgets a project. Its directory is untouched.
func (b *FileBackend) RemoveProject(ctx context.Context, projectID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := b.indexLocked(projectID)
	if idx < 0 {
		return fmt.Errorf("unknown project: %s", projectID)
	}
	b.projects = append(b.projects[:idx], b.projects[idx+1:]...)
	for i := range b.projects {
		b.projects[i].Order = i
	}

	if err := b.saveLocked(); err != nil {
		return err
	}
	b.emit(Event{Type: EventProjectsChanged, ProjectID: projectID})
	return nil
}

// SetProjectActive shows or hides a project's sessions.
func (b *FileBackend) SetProjectActive(ctx context.Context, projectID string, active bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := b.indexLocked(projectID)
	if idx < 0 {
		return fmt.Errorf("unknown project: %s", projectID)
	}
	b.projects[idx].Active = active

	if err := b.saveLocked(); err != nil {
		return err
	}
	b.emit(Event{Type: EventProjectsChanged, ProjectID: projectID})
	return nil
}

// ReorderProjects applies a new sidebar order. Ids not listed keep their
// relative order after the listed ones.
func (b *FileBackend) ReorderProjects(ctx context.Context, projectIDs []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	byID := make(map[string]Project, len(b.projects))
	for _, p := range b.projects {
		byID[p.ID] = p
	}

	next := make([]Project, 0, len(b.projects))
	for _, id := range projectIDs {
		if p, ok := byID[id]; ok {
			next = append(next, p)
			delete(byID, id)
		}
	}
	for _, p := range b.projects {
		if _, left := byID[p.ID]; left {
			next = append(next, p)
		}
	}
	for i := range next {
		next[i].Order = i
	}
	b.projects = next

	if err := b.saveLocked(); err != nil {
		return err
	}
	b.emit(Event{Type: EventProjectsChanged})
	return nil
}

// CreateWorktree records a worktree for a project and creates its directory
// next to the project as <project>-<branch>.
func (b *FileBackend) CreateWorktree(ctx context.Context, projectID, branch string) (Worktree, error) {
	if branch == "" {
		return Worktree{}, fmt.Errorf("empty branch name")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	idx := b.indexLocked(projectID)
	if idx < 0 {
		return Worktree{}, fmt.Errorf("unknown project: %s", projectID)
	}
	p := &b.projects[idx]

	for _, wt := range p.Worktrees {
		if wt.Branch == branch {
			return Worktree{}, fmt.Errorf("worktree for branch %q exists", branch)
		}
	}

	dir := p.Path + "-" + filepath.Base(branch)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Worktree{}, err
	}

	wt := Worktree{
		ID:     uuid.NewString(),
		Name:   branch,
		Path:   dir,
		Branch: branch,
	}
	p.Worktrees = append(p.Worktrees, wt)

	if err := b.saveLocked(); err != nil {
		p.Worktrees = p.Worktrees[:len(p.Worktrees)-1]
		return Worktree{}, err
	}
	b.emit(Event{Type: EventProjectsChanged, ProjectID: projectID, WorktreeID: wt.ID})
	return wt, nil
}

// RemoveWorktree forgets a worktree. Its directory is untouched.
func (b *FileBackend) RemoveWorktree(ctx context.Context, projectID, worktreeID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := b.indexLocked(projectID)
	if idx < 0 {
		return fmt.Errorf("unknown project: %s", projectID)
	}
	p := &b.projects[idx]

	for i, wt := range p.Worktrees {
		if wt.ID == worktreeID {
			p.Worktrees = append(p.Worktrees[:i], p.Worktrees[i+1:]...)
			if err := b.saveLocked(); err != nil {
				return err
			}
			b.emit(Event{Type: EventWorktreeRemoved, ProjectID: projectID, WorktreeID: worktreeID})
			return nil
		}
	}
	return fmt.Errorf("unknown worktree: %s", worktreeID)
}

// Events delivers change notifications until Close.
func (b *FileBackend) Events() <-chan Event {
	return b.events
}

// Close stops the manifest watcher.
func (b *FileBackend) Close() {
	if b.stop != nil {
		b.stop()
	}
}

// indexLocked finds a project by id. Caller holds b.mu.
func (b *FileBackend) indexLocked(projectID string) int {
	for i, p := range b.projects {
		if p.ID == projectID {
			return i
		}
	}
	return -1
}
