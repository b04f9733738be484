// Package persist stores the two pieces of core state that survive a
// restart: which sidebar groups are expanded, and the last task the user
// selected per working directory. Everything else is session-lifetime only.
package persist

import (
	"encoding/json"
	"os"
	"sync"
)

type state struct {
	ExpandedGroups map[string]bool   `json:"expanded_groups"`
	LastTaskByPath map[string]string `json:"last_task_by_path"`
}

// Store manages durable UI state.
type Store struct {
	mu       sync.RWMutex
	filePath string
	state    state
}

// NewStore creates a store backed by filePath.
func NewStore(filePath string) *Store {
	return &Store{
		filePath: filePath,
		state: state{
			ExpandedGroups: make(map[string]bool),
			LastTaskByPath: make(map[string]string),
		},
	}
}

// Load reads the state file. A missing file is not an error.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var loaded state
	if err := json.Unmarshal(data, &loaded); err != nil {
		return err
	}
	if loaded.ExpandedGroups == nil {
		loaded.ExpandedGroups = make(map[string]bool)
	}
	if loaded.LastTaskByPath == nil {
		loaded.LastTaskByPath = make(map[string]string)
	}
	s.state = loaded
	return nil
}

// Save writes the state file.
func (s *Store) Save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.state, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, data, 0644)
}

// IsExpanded reports whether a sidebar group is expanded. Groups default
// to expanded.
func (s *Store) IsExpanded(groupID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expanded, ok := s.state.ExpandedGroups[groupID]
	if !ok {
		return true
	}
	return expanded
}

// SetExpanded records a group's expanded state.
func (s *Store) SetExpanded(groupID string, expanded bool) error {
	s.mu.Lock()
	s.state.ExpandedGroups[groupID] = expanded
	s.mu.Unlock()
	return s.Save()
}

// LastTask returns the last task selected for a working directory.
func (s *Store) LastTask(path string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.LastTaskByPath[path]
}

// SetLastTask records the last task selected for a working directory.
func (s *Store) SetLastTask(path, taskName string) error {
	s.mu.Lock()
	s.state.LastTaskByPath[path] = taskName
	s.mu.Unlock()
	return s.Save()
}

// Cleanup drops records for paths and groups no longer present.
func (s *Store) Cleanup(livePaths, liveGroups []string) error {
	s.mu.Lock()

	paths := make(map[string]bool, len(livePaths))
	for _, p := range livePaths {
		paths[p] = true
	}
	for p := range s.state.LastTaskByPath {
		if !paths[p] {
			delete(s.state.LastTaskByPath, p)
		}
	}

	groups := make(map[string]bool, len(liveGroups))
	for _, g := range liveGroups {
		groups[g] = true
	}
	for g := range s.state.ExpandedGroups {
		if !groups[g] {
			delete(s.state.ExpandedGroups, g)
		}
	}

	s.mu.Unlock()
	return s.Save()
}
