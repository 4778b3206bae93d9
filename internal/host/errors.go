package host

import "errors"

// Host registration and dispatch errors.
var (
	// ErrCommandNameEmpty is returned when a command has no name.
	ErrCommandNameEmpty = errors.New("command name cannot be empty")

	// ErrHandlerNil is returned when a command has no handler.
	ErrHandlerNil = errors.New("command handler cannot be nil")

	// ErrCommandExists is returned when registering a duplicate command name.
	ErrCommandExists = errors.New("command already registered")

	// ErrAliasConflict is returned when an alias collides with an existing
	// command name or alias.
	ErrAliasConflict = errors.New("alias conflicts with existing command")

	// ErrScriptExists is returned when a script name is registered twice.
	ErrScriptExists = errors.New("script already registered")

	// ErrScriptNameEmpty is returned when script metadata has no name.
	ErrScriptNameEmpty = errors.New("script name cannot be empty")

	// ErrNoTransport is returned when a script sends without a transport wired.
	ErrNoTransport = errors.New("no transport configured")

	// ErrIntervalTooShort is returned for sub-second scheduler intervals.
	ErrIntervalTooShort = errors.New("job interval must be at least one second")
)
