package host

import (
	"fmt"
	"strings"
)

// registerHelp installs the built-in help command. It carries no script
// attribution, so it can never be unloaded or auto-disabled by a
// misbehaving script.
func (b *Bot) registerHelp() {
	_ = b.commands.Register(&Command{
		Name:        "help",
		Description: "List commands and scripts, or show one command's usage",
		Usage:       "help [command]",
		Handler:     b.helpHandler,
	})
}

// helpHandler enumerates everything registered with the host, local and
// remotely loaded alike. With an argument it shows a single command.
func (b *Bot) helpHandler(ctx *Ctx) error {
	if ctx.Args != "" {
		name := strings.Fields(ctx.Args)[0]
		return b.helpFor(ctx, strings.TrimPrefix(name, b.prefix))
	}

	var sb strings.Builder
	sb.WriteString("Commands:\n")
	for _, cmd := range b.commands.All() {
		sb.WriteString(fmt.Sprintf("  %s%s", b.prefix, cmd.Name))
		if cmd.Description != "" {
			sb.WriteString(" - " + cmd.Description)
		}
		sb.WriteString("\n")
	}

	scripts := b.Scripts()
	if len(scripts) > 0 {
		sb.WriteString("Scripts:\n")
		for _, entry := range scripts {
			sb.WriteString("  " + entry.Meta.Name)
			if entry.Meta.Version != "" {
				sb.WriteString(" v" + entry.Meta.Version)
			}
			if entry.Meta.Author != "" {
				sb.WriteString(" by " + entry.Meta.Author)
			}
			if entry.Meta.Description != "" {
				sb.WriteString(" - " + entry.Meta.Description)
			}
			if entry.Disabled {
				sb.WriteString(" [disabled]")
			}
			sb.WriteString("\n")
		}
	}

	return ctx.Reply(strings.TrimRight(sb.String(), "\n"))
}

// helpFor shows one command's description, usage, aliases, and owner.
func (b *Bot) helpFor(ctx *Ctx, name string) error {
	cmd := b.commands.Lookup(name)
	if cmd == nil {
		return ctx.Reply("unknown command: " + name)
	}

	var sb strings.Builder
	sb.WriteString(b.prefix + cmd.Name)
	if cmd.Description != "" {
		sb.WriteString(" - " + cmd.Description)
	}
	if cmd.Usage != "" {
		sb.WriteString("\nUsage: " + cmd.Usage)
	}
	if len(cmd.Aliases) > 0 {
		sb.WriteString("\nAliases: " + strings.Join(cmd.Aliases, ", "))
	}
	if cmd.Script != "" {
		sb.WriteString("\nScript: " + cmd.Script)
	}
	return ctx.Reply(sb.String())
}
