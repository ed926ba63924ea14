package model

import (
	"encoding/json"
	"strings"
)

// InteractionType discriminates inbound interaction events.
type InteractionType int

const (
	InteractionPing               InteractionType = 1
	InteractionApplicationCommand InteractionType = 2
)

// InboundEvent is one webhook request as received, before any verification.
type InboundEvent struct {
	Signature string
	Timestamp string
	Body      []byte
}

// Interaction is the decoded body of an interaction event
type Interaction struct {
	ID        string          `json:"id"`
	Type      InteractionType `json:"type"`
	Token     string          `json:"token"`
	ChannelID string          `json:"channel_id"`
	GuildID   string          `json:"guild_id,omitempty"`
	Member    *Member         `json:"member,omitempty"`
	User      *User           `json:"user,omitempty"`
	Data      *CommandData    `json:"data,omitempty"`
}

// Member is the guild member who invoked the interaction
type Member struct {
	User *User `json:"user"`
}

// User represents a platform user
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// CommandData carries the invoked command name and its options
type CommandData struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Options []CommandOption `json:"options,omitempty"`
}

// CommandOption is one name/value argument of a command invocation
type CommandOption struct {
	Name  string          `json:"name"`
	Type  int             `json:"type"`
	Value json.RawMessage `json:"value"`
}

// String returns the option value as text. Strings are unquoted; numbers and
// booleans keep their JSON form.
func (o CommandOption) String() string {
	var s string
	if err := json.Unmarshal(o.Value, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(o.Value))
}

// Username returns the name of the invoking user. Guild invocations carry it under
// member, direct messages under user.
func (i *Interaction) Username() string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.Username
	}
	if i.User != nil {
		return i.User.Username
	}
	return ""
}

// CommandName returns the invoked command, or "" when the interaction carries no command data.
func (i *Interaction) CommandName() string {
	if i.Data == nil {
		return ""
	}
	return i.Data.Name
}

// Options returns the command options in the order they were sent.
func (i *Interaction) Options() []CommandOption {
	if i.Data == nil {
		return nil
	}
	return i.Data.Options
}
