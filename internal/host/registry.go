package host

import (
	"fmt"
	"sort"
	"sync"

	"scriptbot/internal/logging"
)

// Registry holds all registered commands and provides lookup by name or
// alias. It is thread-safe and supports registration at runtime, since
// scripts register commands whenever they are loaded or reloaded.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Command
	aliases  map[string]string // alias -> command name

	// byScript provides fast cleanup when a script is reloaded.
	byScript map[string][]string
}

// NewRegistry creates a new empty command registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]string),
		byScript: make(map[string][]string),
	}
}

// Register adds a command to the registry.
// Returns an error if the name or any alias is already taken.
func (r *Registry) Register(cmd *Command) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("invalid command: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[cmd.Name]; exists {
		return fmt.Errorf("%w: %s", ErrCommandExists, cmd.Name)
	}
	if owner, exists := r.aliases[cmd.Name]; exists {
		return fmt.Errorf("%w: %s (alias of %s)", ErrCommandExists, cmd.Name, owner)
	}
	for _, alias := range cmd.Aliases {
		if _, exists := r.commands[alias]; exists {
			return fmt.Errorf("%w: %s", ErrAliasConflict, alias)
		}
		if _, exists := r.aliases[alias]; exists {
			return fmt.Errorf("%w: %s", ErrAliasConflict, alias)
		}
	}

	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd.Name
	}
	r.byScript[cmd.Script] = append(r.byScript[cmd.Script], cmd.Name)

	logging.CommandDebug("Registered command: %s (script=%s, aliases=%v)", cmd.Name, cmd.Script, cmd.Aliases)
	return nil
}

// Lookup returns a command by name or alias, or nil if not found.
func (r *Registry) Lookup(nameOrAlias string) *Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if cmd, ok := r.commands[nameOrAlias]; ok {
		return cmd
	}
	if name, ok := r.aliases[nameOrAlias]; ok {
		return r.commands[name]
	}
	return nil
}

// Get returns a command by its primary name only, or nil if not found.
func (r *Registry) Get(name string) *Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commands[name]
}

// Has returns true if a command with the given name or alias is registered.
func (r *Registry) Has(nameOrAlias string) bool {
	return r.Lookup(nameOrAlias) != nil
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		result = append(result, cmd)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Names returns all registered command names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByScript returns the commands registered by a given script, sorted by name.
func (r *Registry) ByScript(script string) []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := r.byScript[script]
	result := make([]*Command, 0, len(names))
	for _, name := range names {
		if cmd, ok := r.commands[name]; ok {
			result = append(result, cmd)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Count returns the number of registered commands.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// RemoveScript unregisters every command owned by the given script.
// Returns the number of commands removed. Used on script reload.
func (r *Registry) RemoveScript(script string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := r.byScript[script]
	removed := 0
	for _, name := range names {
		cmd, ok := r.commands[name]
		if !ok {
			continue
		}
		delete(r.commands, name)
		for _, alias := range cmd.Aliases {
			delete(r.aliases, alias)
		}
		removed++
	}
	delete(r.byScript, script)

	if removed > 0 {
		logging.CommandDebug("Removed %d command(s) for script %s", removed, script)
	}
	return removed
}
