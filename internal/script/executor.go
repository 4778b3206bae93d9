// Package script evaluates script source text inside a shared yaegi
// interpreter and registers the result with the host bot.
//
// Scripts are plain Go source interpreted at runtime. Every script loaded
// into an Executor shares one interpreter, so top-level definitions from
// one script are visible to scripts loaded after it. A script must define
//
//	func Setup(bot *host.Bot) error
//
// which is called once after evaluation to register metadata, commands,
// listeners, and jobs.
package script

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"regexp"
	"strconv"
	"sync"

	"scriptbot/internal/host"
	"scriptbot/internal/logging"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// packagePattern extracts the package clause from script source.
var packagePattern = regexp.MustCompile(`(?m)^package\s+(\w+)`)

// Executor evaluates script source in a shared interpreter.
type Executor struct {
	mu      sync.Mutex
	interp  *interp.Interpreter
	bot     *host.Bot
	allowed map[string]bool
}

// NewExecutor creates an executor bound to the given bot. The interpreter
// carries the stdlib whitelist plus the host API symbols.
func NewExecutor(bot *host.Bot) (*Executor, error) {
	e := &Executor{
		bot:     bot,
		allowed: defaultAllowedImports(),
	}

	i, err := e.newInterp()
	if err != nil {
		return nil, err
	}
	e.interp = i
	return e, nil
}

// defaultAllowedImports is the import whitelist applied before evaluation.
// Filesystem, network, and process access stay out: scripts reach the
// outside world only through the host API.
func defaultAllowedImports() map[string]bool {
	return map[string]bool{
		"strings":         true,
		"strconv":         true,
		"fmt":             true,
		"math":            true,
		"math/rand":       true,
		"regexp":          true,
		"encoding/json":   true,
		"encoding/base64": true,
		"time":            true,
		"sort":            true,
		"bytes":           true,
		"errors":          true,
		"unicode":         true,
		"unicode/utf8":    true,
		"path":            true,

		// The host API bridge
		"scriptbot/host": true,

		// EXPLICITLY BLOCKED (not listed):
		// "os", "os/exec" - filesystem and process access
		// "net", "net/http" - network access
		// "syscall", "unsafe" - system calls
	}
}

func (e *Executor) newInterp() (*interp.Interpreter, error) {
	i := interp.New(interp.Options{})

	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib symbols: %w", err)
	}
	if err := i.Use(hostSymbols()); err != nil {
		return nil, fmt.Errorf("failed to load host symbols: %w", err)
	}

	return i, nil
}

// Load evaluates src in the shared interpreter and runs its Setup
// against the bot, attributing all registrations to name.
func (e *Executor) Load(ctx context.Context, name, src string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.load(ctx, e.interp, name, src)
}

// LoadDetached evaluates src in a throwaway interpreter with its own
// registrations discarded bot-side by the caller. Used by `fetch --exec`
// to surface execution errors without poisoning the shared namespace.
func (e *Executor) LoadDetached(ctx context.Context, name, src string) error {
	i, err := e.newInterp()
	if err != nil {
		return err
	}
	return e.load(ctx, i, name, src)
}

func (e *Executor) load(ctx context.Context, i *interp.Interpreter, name, src string) error {
	code, pkg := normalizeSource(src)

	if err := e.validateImports(code); err != nil {
		return err
	}

	if err := evalWithContext(ctx, i, code); err != nil {
		return err
	}

	setupSym, err := i.Eval(pkg + ".Setup")
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSetupMissing, name)
	}

	setup, ok := setupSym.Interface().(func(*host.Bot) error)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSetupSignature, name)
	}

	e.bot.BeginScript(name)
	defer e.bot.EndScript()

	if err := runSetup(setup, e.bot); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSetupFailed, name, err)
	}

	logging.Script("Loaded script: %s", name)
	return nil
}

// evalWithContext evaluates code, honoring ctx cancellation the way the
// host runs any interpreted code: in a goroutine raced against the
// context. A timed-out evaluation's goroutine is abandoned.
func evalWithContext(ctx context.Context, i *interp.Interpreter, code string) error {
	done := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%w: panic: %v", ErrEvalFailed, r)
			}
		}()
		if _, err := i.Eval(code); err != nil {
			done <- fmt.Errorf("%w: %v", ErrEvalFailed, err)
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrEvalTimeout, ctx.Err())
	}
}

// runSetup invokes Setup, converting panics into errors.
func runSetup(setup func(*host.Bot) error, bot *host.Bot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return setup(bot)
}

// normalizeSource ensures the source has a package clause and returns the
// package name Setup is looked up under. Bare snippets are wrapped in
// "package script".
func normalizeSource(src string) (code, pkg string) {
	if m := packagePattern.FindStringSubmatch(src); m != nil {
		return src, m[1]
	}
	return "package script\n\n" + src, "script"
}

// validateImports checks that the source only imports whitelisted
// packages. Imports are taken from the parsed AST (ImportsOnly), so
// every spelling of the import clause is covered.
func (e *Executor) validateImports(src string) error {
	f, err := parser.ParseFile(token.NewFileSet(), "", src, parser.ImportsOnly)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEvalFailed, err)
	}

	var forbidden []string
	for _, spec := range f.Imports {
		pkg, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrEvalFailed, spec.Path.Value)
		}
		if !e.allowed[pkg] {
			forbidden = append(forbidden, pkg)
		}
	}

	if len(forbidden) > 0 {
		return fmt.Errorf("%w: %v", ErrForbiddenImport, forbidden)
	}
	return nil
}
