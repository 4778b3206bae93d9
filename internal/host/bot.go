// Package host implements the runtime surface loaded scripts register
// against: command registration, event listeners, dynamic config data,
// per-script JSON storage, leveled printing, and interval jobs.
//
// A Bot is constructed once by the CLI, its API symbols are exported into
// the script interpreter, and every script loaded afterwards talks to the
// same instance. Dispatch is the single entry point from the transport.
package host

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"scriptbot/internal/config"
	"scriptbot/internal/logging"
)

// DefaultDisableThreshold is how many consecutive handler errors a script
// may produce before its commands and listeners are disabled.
const DefaultDisableThreshold = 3

// Meta is the static metadata a script registers about itself.
type Meta struct {
	Name        string `json:"name"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Version     string `json:"version,omitempty"`
}

// HandlerFunc executes a command invocation.
type HandlerFunc func(ctx *Ctx) error

// ListenerFunc receives every non-command message for an event.
type ListenerFunc func(msg Message)

// Command is a chat command registered by a script.
type Command struct {
	// Name is the unique invocation word (without the prefix).
	Name string

	// Description explains what the command does.
	Description string

	// Usage is the human-readable argument summary.
	Usage string

	// Aliases are alternate invocation words.
	Aliases []string

	// Script is the owning script's name, set during registration.
	Script string

	// Handler executes the command.
	Handler HandlerFunc
}

// Validate checks if the command definition is valid.
func (c *Command) Validate() error {
	if c.Name == "" {
		return ErrCommandNameEmpty
	}
	if c.Handler == nil {
		return ErrHandlerNil
	}
	return nil
}

// ScriptEntry tracks a registered script and its health.
type ScriptEntry struct {
	Meta      Meta
	Disabled  bool
	Listeners int

	errorCount int
}

// Transport delivers outbound messages to the chat surface.
type Transport interface {
	Send(channel, text string) error
}

// listenerEntry ties a listener to its owning script so reloads and
// auto-disable can find it.
type listenerEntry struct {
	script string
	fn     ListenerFunc
}

// Bot is the host runtime scripts register commands and listeners with.
type Bot struct {
	mu        sync.RWMutex
	prefix    string
	transport Transport
	commands  *Registry
	listeners map[string][]listenerEntry
	scripts   map[string]*ScriptEntry
	data      *config.Data
	storage   *Storage
	sched     *Scheduler

	// current is the script being loaded; registrations are attributed
	// to it. Loads are strictly sequential, guarded by loadMu.
	loadMu  sync.Mutex
	current string

	disableThreshold int

	// onDisable is invoked when a script crosses the error threshold,
	// so the store can persist the disabled state.
	onDisable func(script string, reason error)
}

// Options configures a Bot.
type Options struct {
	Prefix           string
	Transport        Transport
	Data             *config.Data
	Storage          *Storage
	DisableThreshold int
	OnDisable        func(script string, reason error)
}

// New creates a Bot with the given options.
func New(opts Options) *Bot {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "!"
	}
	threshold := opts.DisableThreshold
	if threshold <= 0 {
		threshold = DefaultDisableThreshold
	}

	b := &Bot{
		prefix:           prefix,
		transport:        opts.Transport,
		commands:         NewRegistry(),
		listeners:        make(map[string][]listenerEntry),
		scripts:          make(map[string]*ScriptEntry),
		data:             opts.Data,
		storage:          opts.Storage,
		sched:            NewScheduler(),
		disableThreshold: threshold,
		onDisable:        opts.OnDisable,
	}
	b.registerHelp()
	return b
}

// Prefix returns the command prefix.
func (b *Bot) Prefix() string {
	return b.prefix
}

// Data returns the dynamic config data store shared with scripts.
func (b *Bot) Data() *config.Data {
	return b.data
}

// Storage returns the per-script JSON storage root.
func (b *Bot) Storage() *Storage {
	return b.storage
}

// Scheduler returns the interval job scheduler.
func (b *Bot) Scheduler() *Scheduler {
	return b.sched
}

// BeginScript marks the start of a script load. All registrations until
// EndScript are attributed to name. Loads are serialized.
func (b *Bot) BeginScript(name string) {
	b.loadMu.Lock()
	b.mu.Lock()
	b.current = name
	b.mu.Unlock()
}

// EndScript marks the end of the current script load.
func (b *Bot) EndScript() {
	b.mu.Lock()
	b.current = ""
	b.mu.Unlock()
	b.loadMu.Unlock()
}

// RegisterScript records a script's static metadata, making it
// discoverable. Scripts call this once from Setup.
func (b *Bot) RegisterScript(meta Meta) error {
	if meta.Name == "" {
		return ErrScriptNameEmpty
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if entry, ok := b.scripts[meta.Name]; ok {
		if entry.Meta != (Meta{}) && entry.Meta.Name == meta.Name && entry.Meta != meta {
			// Same script re-registering with updated metadata is fine;
			// a different script stealing the name is not.
			if b.current != "" && b.current != meta.Name {
				return fmt.Errorf("%w: %s", ErrScriptExists, meta.Name)
			}
		}
		entry.Meta = meta
		return nil
	}

	b.scripts[meta.Name] = &ScriptEntry{Meta: meta}
	logging.Script("Registered script: %s v%s by %s", meta.Name, meta.Version, meta.Author)
	return nil
}

// Command registers a chat command, attributed to the loading script.
func (b *Bot) Command(cmd *Command) error {
	b.mu.RLock()
	if cmd.Script == "" {
		cmd.Script = b.current
	}
	b.mu.RUnlock()

	if err := b.commands.Register(cmd); err != nil {
		return err
	}
	b.ensureEntry(cmd.Script)
	return nil
}

// On registers an event listener. The only event dispatched by the stdin
// transport is "message", but scripts may subscribe to any event name;
// Emit delivers to whatever is subscribed.
func (b *Bot) On(event string, fn ListenerFunc) {
	if fn == nil {
		return
	}

	b.mu.Lock()
	script := b.current
	b.listeners[event] = append(b.listeners[event], listenerEntry{script: script, fn: fn})
	b.mu.Unlock()

	b.ensureEntry(script)
	b.mu.Lock()
	if entry, ok := b.scripts[script]; ok {
		entry.Listeners++
	}
	b.mu.Unlock()

	logging.EventDebug("Listener registered: event=%s script=%s", event, script)
}

// Every schedules fn to run at the given interval, attributed to the
// loading script. The job name must be unique per script.
func (b *Bot) Every(name string, interval time.Duration, fn func()) error {
	b.mu.RLock()
	script := b.current
	b.mu.RUnlock()
	return b.sched.Add(script, name, interval, fn)
}

// ensureEntry creates a bare script entry for registrations that happen
// before (or without) RegisterScript.
func (b *Bot) ensureEntry(script string) {
	if script == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.scripts[script]; !ok {
		b.scripts[script] = &ScriptEntry{Meta: Meta{Name: script}}
	}
}

// Scripts returns a snapshot of all registered scripts, sorted by name.
func (b *Bot) Scripts() []ScriptEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]ScriptEntry, 0, len(b.scripts))
	for _, entry := range b.scripts {
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Meta.Name < result[j].Meta.Name
	})
	return result
}

// Script returns the entry for a script name, or nil.
func (b *Bot) Script(name string) *ScriptEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if entry, ok := b.scripts[name]; ok {
		snapshot := *entry
		return &snapshot
	}
	return nil
}

// Commands returns all registered commands sorted by name.
func (b *Bot) Commands() []*Command {
	return b.commands.All()
}

// Registry exposes the command registry (used by the loader for cleanup).
func (b *Bot) Registry() *Registry {
	return b.commands
}

// SetScriptDisabled flips a script's disabled state (store-driven).
// Disabling also pauses the script's scheduler jobs; enabling resumes
// them and resets the error count.
func (b *Bot) SetScriptDisabled(name string, disabled bool) {
	b.ensureEntry(name)
	b.mu.Lock()
	if entry, ok := b.scripts[name]; ok {
		entry.Disabled = disabled
		if !disabled {
			entry.errorCount = 0
		}
	}
	b.mu.Unlock()

	b.sched.SetScriptPaused(name, disabled)
}

// UnloadScript removes a script's commands, listeners, jobs, and entry.
// Used when a script file is deleted or before a reload.
func (b *Bot) UnloadScript(name string) {
	b.commands.RemoveScript(name)
	b.sched.RemoveScript(name)

	b.mu.Lock()
	defer b.mu.Unlock()
	for event, entries := range b.listeners {
		kept := entries[:0]
		for _, e := range entries {
			if e.script != name {
				kept = append(kept, e)
			}
		}
		b.listeners[event] = kept
	}
	delete(b.scripts, name)
	logging.Script("Unloaded script: %s", name)
}

// Dispatch routes an inbound message: a prefixed message is parsed and
// executed as a command; everything else fans out to "message" listeners.
func (b *Bot) Dispatch(ctx context.Context, msg Message) {
	if strings.HasPrefix(msg.Content, b.prefix) {
		b.dispatchCommand(ctx, msg)
		return
	}
	b.Emit("message", msg)
}

func (b *Bot) dispatchCommand(ctx context.Context, msg Message) {
	rest := strings.TrimPrefix(msg.Content, b.prefix)
	fields := strings.SplitN(strings.TrimSpace(rest), " ", 2)
	if len(fields) == 0 || fields[0] == "" {
		return
	}
	name := fields[0]
	args := ""
	if len(fields) == 2 {
		args = strings.TrimSpace(fields[1])
	}

	cmd := b.commands.Lookup(name)
	if cmd == nil {
		logging.CommandDebug("Unknown command: %s", name)
		// Unknown commands still reach message listeners, so AFK-style
		// scripts see every line.
		b.Emit("message", msg)
		return
	}

	if b.scriptDisabled(cmd.Script) {
		logging.CommandDebug("Dropping %s: script %s is disabled", name, cmd.Script)
		return
	}

	timer := logging.StartTimer(logging.CategoryCommand, "command "+cmd.Name)
	err := b.runHandler(ctx, cmd, msg, args)
	timer.Stop()

	if err != nil {
		logging.CommandError("Command %s failed: %v", cmd.Name, err)
		b.recordError(cmd.Script, err)
		return
	}
	b.recordSuccess(cmd.Script)
}

// runHandler executes a command handler, converting panics into errors so
// one misbehaving script cannot take down the host.
func (b *Bot) runHandler(ctx context.Context, cmd *Command, msg Message, args string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	c := &Ctx{
		Context: ctx,
		Message: msg,
		Args:    args,
		Command: cmd,
		bot:     b,
	}
	return cmd.Handler(c)
}

// Emit delivers msg to every listener subscribed to event. Listeners from
// disabled scripts are skipped; listener panics are contained and counted
// against the owning script.
func (b *Bot) Emit(event string, msg Message) {
	b.mu.RLock()
	entries := make([]listenerEntry, len(b.listeners[event]))
	copy(entries, b.listeners[event])
	b.mu.RUnlock()

	for _, e := range entries {
		if b.scriptDisabled(e.script) {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					logging.EventDebug("Listener panic (script=%s, event=%s): %v", e.script, event, r)
					b.recordError(e.script, fmt.Errorf("listener panic: %v", r))
				}
			}()
			e.fn(msg)
		}()
	}
}

func (b *Bot) scriptDisabled(script string) bool {
	if script == "" {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if entry, ok := b.scripts[script]; ok {
		return entry.Disabled
	}
	return false
}

// recordError counts a consecutive failure against a script, disabling it
// at the threshold.
func (b *Bot) recordError(script string, cause error) {
	if script == "" {
		return
	}

	b.mu.Lock()
	entry, ok := b.scripts[script]
	if !ok {
		entry = &ScriptEntry{Meta: Meta{Name: script}}
		b.scripts[script] = entry
	}
	entry.errorCount++
	disabled := false
	if entry.errorCount >= b.disableThreshold && !entry.Disabled {
		entry.Disabled = true
		disabled = true
	}
	b.mu.Unlock()

	if disabled {
		b.sched.SetScriptPaused(script, true)
		logging.ScriptError("Script %s disabled after %d consecutive errors (last: %v)", script, b.disableThreshold, cause)
		if b.onDisable != nil {
			b.onDisable(script, cause)
		}
	}
}

// recordSuccess resets a script's consecutive error count.
func (b *Bot) recordSuccess(script string) {
	if script == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if entry, ok := b.scripts[script]; ok {
		entry.errorCount = 0
	}
}

// Send delivers text to a channel through the transport.
func (b *Bot) Send(channel, text string) error {
	if b.transport == nil {
		return ErrNoTransport
	}
	return b.transport.Send(channel, text)
}

// Shutdown stops the scheduler and releases host resources.
func (b *Bot) Shutdown() {
	b.sched.Stop()
}
