package config

import (
	"strings"
	"testing"

	"github.com/jesseduffield/gocui"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		input   string
		want    Key
		wantErr bool
	}{
		{"q", Key{Value: 'q', Mod: gocui.ModNone}, false},
		{"N", Key{Value: 'N', Mod: gocui.ModNone}, false},
		{"?", Key{Value: '?', Mod: gocui.ModNone}, false},
		{"enter", Key{Value: gocui.KeyEnter, Mod: gocui.ModNone}, false},
		{"esc", Key{Value: gocui.KeyEsc, Mod: gocui.ModNone}, false},
		{"tab", Key{Value: gocui.KeyTab, Mod: gocui.ModNone}, false},
		{"up", Key{Value: gocui.KeyArrowUp, Mod: gocui.ModNone}, false},
		{"ctrl+c", Key{Value: gocui.KeyCtrlC, Mod: gocui.ModNone}, false},
		{"ctrl+j", Key{Value: gocui.KeyCtrlJ, Mod: gocui.ModNone}, false},
		{"alt+1", Key{Value: '1', Mod: gocui.ModAlt}, false},
		{"alt+x", Key{Value: 'x', Mod: gocui.ModAlt}, false},
		{"", Key{}, true},
		{"ctrl+??", Key{}, true},
		{"alt+enter", Key{}, true},
		{"notakey", Key{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKey(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseKey(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDefaultKeysAllParse(t *testing.T) {
	if err := ValidateKeys(DefaultKeys()); err != nil {
		t.Errorf("default keymap invalid: %v", err)
	}
}

func TestDefaultKeysIncludeJumpShortcuts(t *testing.T) {
	keys := DefaultKeys()
	for _, action := range []string{"session.jump.1", "session.jump.9"} {
		if keys[action] == "" {
			t.Errorf("missing default binding for %s", action)
		}
	}
}

func TestValidateKeysAcceptsSharedKey(t *testing.T) {
	// One key on two actions is legal here; contexts decide who wins,
	// and the binding tables reject true same-context collisions.
	err := ValidateKeys(map[string]string{
		"picker.close": "esc",
		"app.quit":     "esc",
	})
	if err != nil {
		t.Errorf("shared key rejected: %v", err)
	}
}

func TestValidateKeysRejectsUnparseable(t *testing.T) {
	err := ValidateKeys(map[string]string{
		"a.one": "notakey",
	})
	if err == nil {
		t.Fatal("unparseable binding accepted")
	}
	if !strings.Contains(err.Error(), "a.one") {
		t.Errorf("error does not name the action: %v", err)
	}
}

func TestDefaultKeysAvoidTabAlias(t *testing.T) {
	// Terminals emit 0x09 for both tab and ctrl+i, and the keyboard
	// layer reports it as tab; a ctrl+i default would be unreachable.
	for action, key := range DefaultKeys() {
		if key == "ctrl+i" {
			t.Errorf("%s bound to ctrl+i, which terminals deliver as tab", action)
		}
	}
}

func TestValidateKeysEmptyUnbinds(t *testing.T) {
	// An empty value unbinds an action; it must not collide with others.
	err := ValidateKeys(map[string]string{
		"a.one": "",
		"a.two": "",
	})
	if err != nil {
		t.Errorf("empty bindings rejected: %v", err)
	}
}

func TestMergeConfig(t *testing.T) {
	dst := Default()
	src := &Config{
		DefaultShell: "/bin/zsh",
		Tasks:        []TaskDef{{Name: "build", Command: "make"}},
		Keys:         map[string]string{"tab.new": "ctrl+y"},
		AppOpen:      map[string]string{"editor": "vim"},
	}

	mergeConfig(dst, src)

	if dst.DefaultShell != "/bin/zsh" {
		t.Errorf("shell = %q", dst.DefaultShell)
	}
	if dst.ScrollbackLines != 10000 {
		t.Errorf("zero value overwrote scrollback: %d", dst.ScrollbackLines)
	}
	if dst.Keys["tab.new"] != "ctrl+y" {
		t.Errorf("key override lost: %q", dst.Keys["tab.new"])
	}
	if dst.Keys["tab.close"] != "ctrl+x" {
		t.Errorf("unrelated default lost: %q", dst.Keys["tab.close"])
	}
	if dst.AppOpen["editor"] != "vim" {
		t.Errorf("app open override lost: %q", dst.AppOpen["editor"])
	}
	if len(dst.Tasks) != 1 || dst.Tasks[0].Name != "build" {
		t.Errorf("tasks = %+v", dst.Tasks)
	}
}

func TestValidateTasks(t *testing.T) {
	tests := []struct {
		name    string
		tasks   []TaskDef
		wantErr bool
	}{
		{"ok", []TaskDef{{Name: "build", Command: "make"}}, false},
		{"empty name", []TaskDef{{Command: "make"}}, true},
		{"empty command", []TaskDef{{Name: "build"}}, true},
		{"duplicate", []TaskDef{
			{Name: "build", Command: "make"},
			{Name: "build", Command: "make -j"},
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validateTasks(tt.tasks); (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTaskLookup(t *testing.T) {
	cfg := &Config{Tasks: []TaskDef{{Name: "build", Command: "make", Silent: true}}}

	def, ok := cfg.Task("build")
	if !ok || !def.Silent {
		t.Errorf("Task(build) = %+v %v", def, ok)
	}
	if _, ok := cfg.Task("ghost"); ok {
		t.Error("found an undefined task")
	}
}

func TestKeyString(t *testing.T) {
	tests := []string{"q", "esc", "ctrl+c", "alt+3", "enter"}
	for _, s := range tests {
		k, err := ParseKey(s)
		if err != nil {
			t.Fatalf("ParseKey(%q): %v", s, err)
		}
		got := k.String()
		back, err := ParseKey(got)
		if err != nil || back != k {
			t.Errorf("round trip %q -> %q -> %+v (err %v)", s, got, back, err)
		}
	}
}
