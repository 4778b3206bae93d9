package host

import (
	"context"
	"fmt"
)

// Message is an inbound chat message.
type Message struct {
	// Author is the sender's display name.
	Author string

	// Channel identifies where the message arrived.
	Channel string

	// Content is the raw message text, including any command prefix.
	Content string

	// ReplyTo carries the author of the message being replied to,
	// when the transport knows it.
	ReplyTo string
}

// Ctx is the invocation context passed to command handlers.
type Ctx struct {
	// Context carries cancellation from the host run loop.
	Context context.Context

	// Message is the triggering message.
	Message Message

	// Args is the message text after the command word, trimmed.
	Args string

	// Command is the matched command.
	Command *Command

	bot *Bot
}

// Bot returns the host bot.
func (c *Ctx) Bot() *Bot {
	return c.bot
}

// Send delivers text to the channel the command arrived on.
func (c *Ctx) Send(text string) error {
	return c.bot.Send(c.Message.Channel, text)
}

// Sendf formats and sends text to the originating channel.
func (c *Ctx) Sendf(format string, args ...any) error {
	return c.Send(fmt.Sprintf(format, args...))
}

// Reply sends text addressed to the message author. When the command was
// a reply to someone else, that user is mentioned instead, matching how
// help-style commands forward answers.
func (c *Ctx) Reply(text string) error {
	target := c.Message.Author
	if c.Message.ReplyTo != "" {
		target = c.Message.ReplyTo
	}
	return c.Send(fmt.Sprintf("@%s %s", target, text))
}
