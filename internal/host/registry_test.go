package host

import (
	"errors"
	"testing"
)

func nopHandler(ctx *Ctx) error { return nil }

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if reg.Count() != 0 {
		t.Errorf("new registry should be empty, got %d commands", reg.Count())
	}
}

func TestRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()

	cmd := &Command{
		Name:        "weather",
		Description: "Show the weather",
		Aliases:     []string{"w", "wx"},
		Script:      "weather",
		Handler:     nopHandler,
	}

	if err := reg.Register(cmd); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if got := reg.Lookup("weather"); got == nil || got.Name != "weather" {
		t.Errorf("Lookup by name failed, got %v", got)
	}
	if got := reg.Lookup("wx"); got == nil || got.Name != "weather" {
		t.Errorf("Lookup by alias failed, got %v", got)
	}
	if got := reg.Lookup("nope"); got != nil {
		t.Errorf("Lookup of unknown name should be nil, got %v", got)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	reg := NewRegistry()

	cmd := &Command{Name: "dupe", Handler: nopHandler}
	if err := reg.Register(cmd); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	err := reg.Register(&Command{Name: "dupe", Handler: nopHandler})
	if !errors.Is(err, ErrCommandExists) {
		t.Fatalf("expected ErrCommandExists, got %v", err)
	}
}

func TestRegisterAliasConflicts(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(&Command{Name: "afk", Aliases: []string{"away"}, Handler: nopHandler}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	tests := []struct {
		name    string
		cmd     *Command
		wantErr error
	}{
		{
			name:    "alias collides with command name",
			cmd:     &Command{Name: "other", Aliases: []string{"afk"}, Handler: nopHandler},
			wantErr: ErrAliasConflict,
		},
		{
			name:    "alias collides with alias",
			cmd:     &Command{Name: "other2", Aliases: []string{"away"}, Handler: nopHandler},
			wantErr: ErrAliasConflict,
		},
		{
			name:    "name collides with alias",
			cmd:     &Command{Name: "away", Handler: nopHandler},
			wantErr: ErrCommandExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.Register(tt.cmd)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRegisterValidation(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name    string
		cmd     *Command
		wantErr error
	}{
		{
			name:    "empty name",
			cmd:     &Command{Name: "", Handler: nopHandler},
			wantErr: ErrCommandNameEmpty,
		},
		{
			name:    "nil handler",
			cmd:     &Command{Name: "x", Handler: nil},
			wantErr: ErrHandlerNil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.Register(tt.cmd)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRemoveScript(t *testing.T) {
	reg := NewRegistry()

	cmds := []*Command{
		{Name: "a", Script: "one", Aliases: []string{"aa"}, Handler: nopHandler},
		{Name: "b", Script: "one", Handler: nopHandler},
		{Name: "c", Script: "two", Handler: nopHandler},
	}
	for _, cmd := range cmds {
		if err := reg.Register(cmd); err != nil {
			t.Fatalf("Register %s failed: %v", cmd.Name, err)
		}
	}

	removed := reg.RemoveScript("one")
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}
	if reg.Has("a") || reg.Has("aa") || reg.Has("b") {
		t.Error("commands of removed script still registered")
	}
	if !reg.Has("c") {
		t.Error("unrelated command was removed")
	}

	// Freed names can be reused.
	if err := reg.Register(&Command{Name: "a", Script: "three", Handler: nopHandler}); err != nil {
		t.Errorf("re-register after removal failed: %v", err)
	}
}

func TestAllAndNamesSorted(t *testing.T) {
	reg := NewRegistry()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := reg.Register(&Command{Name: name, Handler: nopHandler}); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	names := reg.Names()
	want := []string{"alpha", "mid", "zeta"}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], name)
		}
	}

	all := reg.All()
	if len(all) != 3 || all[0].Name != "alpha" {
		t.Errorf("All() not sorted: %v", all)
	}
}

func TestByScript(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(&Command{Name: "b", Script: "s", Handler: nopHandler}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(&Command{Name: "a", Script: "s", Handler: nopHandler}); err != nil {
		t.Fatal(err)
	}

	got := reg.ByScript("s")
	if len(got) != 2 || got[0].Name != "a" || got[1].Name != "b" {
		t.Errorf("ByScript returned %v", got)
	}
}
