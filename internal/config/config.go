// Package config handles application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// TaskKind classifies a task definition.
type TaskKind string

const (
	TaskKindBuild TaskKind = "build"
	TaskKindServe TaskKind = "serve"
	TaskKindTest  TaskKind = "test"
	TaskKindOther TaskKind = "other"
)

// TaskDef is a named background task the user can start in a session.
type TaskDef struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	Kind    TaskKind `yaml:"kind"`
	// Silent tasks run without a visible tab; they are still tracked
	// and killable.
	Silent bool `yaml:"silent"`
}

// Config holds application configuration.
type Config struct {
	// DataDir is the directory for persistent data (logs, state).
	DataDir string `yaml:"-"`

	// DefaultShell is the shell spawned for plain terminal tabs.
	DefaultShell string `yaml:"default_shell"`

	// ScrollbackLines bounds the per-channel terminal buffer.
	ScrollbackLines int `yaml:"scrollback_lines"`

	// Tasks are the named background task definitions.
	Tasks []TaskDef `yaml:"tasks"`

	// Keys maps action ids to key strings (see ParseKey for the format).
	// File entries override defaults per action.
	Keys map[string]string `yaml:"keys"`

	// AppOpen maps application names to the command used to open a
	// session path with them (e.g. editor: "code").
	AppOpen map[string]string `yaml:"app_open"`

	Debug bool `yaml:"debug"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		DataDir:         defaultDataDir(),
		DefaultShell:    getDefaultShell(),
		ScrollbackLines: 10000,
		Keys:            DefaultKeys(),
		AppOpen: map[string]string{
			"editor": "code",
		},
	}
}

// DefaultKeys returns the default action-to-key table.
func DefaultKeys() map[string]string {
	keys := map[string]string{
		"session.next":  "ctrl+j",
		"session.prev":  "ctrl+k",
		"session.close": "ctrl+w",
		"tab.new":       "ctrl+t",
		"tab.close":     "ctrl+x",
		"tab.next":      "tab",
		"drawer.toggle": "ctrl+d",
		"panel.toggle":  "ctrl+b",
		"focus.cycle":   "ctrl+o",
		"nav.back":      "ctrl+u",
		// Not ctrl+i: terminals emit the same byte for ctrl+i and tab,
		// which tab.next owns.
		"nav.forward":  "ctrl+l",
		"picker.open":  "ctrl+p",
		"picker.close": "esc",
		"task.stop":    "ctrl+c",
		"scratch.new":  "ctrl+n",
		"app.quit":     "ctrl+q",
		"diff.mode":    "ctrl+s",
	}
	// Index shortcuts jump to the Nth sidebar session.
	for i := 1; i <= 9; i++ {
		keys[fmt.Sprintf("session.jump.%d", i)] = fmt.Sprintf("alt+%d", i)
	}
	return keys
}

// Load loads configuration from the config file, falling back to defaults.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(cfg.ConfigFile())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, err
	}

	mergeConfig(cfg, &fileCfg)

	if err := ValidateKeys(cfg.Keys); err != nil {
		return nil, err
	}
	if err := validateTasks(cfg.Tasks); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeConfig merges file configuration into the default configuration.
// Only non-zero values from file are applied.
func mergeConfig(dst, src *Config) {
	if src.DefaultShell != "" {
		dst.DefaultShell = src.DefaultShell
	}
	if src.ScrollbackLines != 0 {
		dst.ScrollbackLines = src.ScrollbackLines
	}
	if len(src.Tasks) > 0 {
		dst.Tasks = src.Tasks
	}
	for action, key := range src.Keys {
		if key != "" {
			dst.Keys[action] = key
		}
	}
	for app, cmd := range src.AppOpen {
		if cmd != "" {
			dst.AppOpen[app] = cmd
		}
	}
	if src.Debug {
		dst.Debug = true
	}
}

// validateTasks rejects unnamed or duplicate task definitions.
func validateTasks(tasks []TaskDef) error {
	seen := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		if task.Name == "" {
			return fmt.Errorf("task with empty name (command %q)", task.Command)
		}
		if task.Command == "" {
			return fmt.Errorf("task %q has no command", task.Name)
		}
		if seen[task.Name] {
			return fmt.Errorf("duplicate task name %q", task.Name)
		}
		seen[task.Name] = true
	}
	return nil
}

// Task returns the task definition with the given name, if any.
func (c *Config) Task(name string) (TaskDef, bool) {
	for _, task := range c.Tasks {
		if task.Name == name {
			return task, true
		}
	}
	return TaskDef{}, false
}

// defaultDataDir returns the default data directory.
func defaultDataDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "deskmux")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".deskmux"
	}
	return filepath.Join(home, ".config", "deskmux")
}

// getDefaultShell returns the user's default shell.
func getDefaultShell() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	return "/bin/bash"
}

// ConfigFile returns the path to the config file.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "config.yaml")
}

// StateFile returns the path to the durable state file.
func (c *Config) StateFile() string {
	return filepath.Join(c.DataDir, "state.json")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0755)
}
