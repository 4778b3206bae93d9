package script

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"scriptbot/internal/host"
	"scriptbot/internal/logging"
)

// ScriptExt is the file extension the loader recognizes in a scripts
// directory.
const ScriptExt = ".go"

// Loader reads script files, parses their metadata headers, and loads
// them through the executor. It tracks which script name each file path
// produced so watcher-driven reloads and removals can find them.
type Loader struct {
	bot  *host.Bot
	exec *Executor

	mu     sync.Mutex
	byPath map[string]string
}

// NewLoader creates a loader bound to the bot and executor.
func NewLoader(bot *host.Bot, exec *Executor) *Loader {
	return &Loader{
		bot:    bot,
		exec:   exec,
		byPath: make(map[string]string),
	}
}

// LoadSource loads a script from in-memory source. The filename is used
// for metadata defaults and path tracking; it need not exist on disk.
// Loading a path that was already loaded unloads the previous version
// first, so LoadSource doubles as reload.
func (l *Loader) LoadSource(ctx context.Context, filename, src string) error {
	meta := ParseHeader(filename, src)

	l.mu.Lock()
	if prev, ok := l.byPath[filename]; ok {
		l.bot.UnloadScript(prev)
		delete(l.byPath, filename)
	}
	l.mu.Unlock()

	// Header metadata goes in first so the script is discoverable even if
	// its Setup never calls RegisterScript. Setup may overwrite it.
	if err := l.bot.RegisterScript(meta); err != nil {
		return err
	}

	if err := l.exec.Load(ctx, meta.Name, src); err != nil {
		l.bot.UnloadScript(meta.Name)
		return err
	}

	l.mu.Lock()
	l.byPath[filename] = meta.Name
	l.mu.Unlock()
	return nil
}

// LoadFile loads a single script file from disk.
func (l *Loader) LoadFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read script file: %w", err)
	}
	return l.LoadSource(ctx, path, string(data))
}

// LoadDir loads every script file in dir in name order. A script that
// fails to load is logged and skipped; the rest still load. Returns the
// number of scripts loaded.
func (l *Loader) LoadDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read scripts directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ScriptExt) || strings.HasPrefix(name, ".") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	loaded := 0
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := l.LoadFile(ctx, path); err != nil {
			logging.ScriptError("Failed to load %s: %v", name, err)
			continue
		}
		loaded++
	}

	logging.Script("Loaded %d of %d scripts from %s", loaded, len(names), dir)
	return loaded, nil
}

// Unload removes the script loaded from path, if any.
func (l *Loader) Unload(path string) {
	l.mu.Lock()
	name, ok := l.byPath[path]
	if ok {
		delete(l.byPath, path)
	}
	l.mu.Unlock()

	if ok {
		l.bot.UnloadScript(name)
	}
}

// ScriptFor returns the script name loaded from path, if any.
func (l *Loader) ScriptFor(path string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name, ok := l.byPath[path]
	return name, ok
}

// Loaded returns the loaded script names, sorted.
func (l *Loader) Loaded() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	names := make([]string, 0, len(l.byPath))
	for _, name := range l.byPath {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
