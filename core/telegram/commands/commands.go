// Package commands describes bot commands as the registry stores them.
package commands

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Command is a bot command with its handler and menu metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	// Aliases are extra texts that trigger the command, such as reply
	// keyboard labels. A leading slash is optional.
	Aliases []string
}

// Triggers lists every exact text the aliases answer to: each alias as
// written, plus its slash form when it has none.
func (c Command) Triggers() []string {
	var out []string
	for _, a := range c.Aliases {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		out = append(out, a)
		if !strings.HasPrefix(a, "/") {
			out = append(out, "/"+a)
		}
	}
	return out
}
