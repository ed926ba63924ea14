package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"discord_workflow/internal/command"
	"discord_workflow/internal/logger"
)

// maxMessageLength is the platform limit for message content
const maxMessageLength = 2000

// Messenger sends interaction acknowledgements and channel messages.
type Messenger interface {
	Acknowledge(ctx context.Context, interactionID, token, content string) error
	PostMessage(ctx context.Context, channelID, content string) error
}

// Client talks to the Discord REST API with the bot's credential.
type Client struct {
	session *discordgo.Session
}

// NewClient creates a client authenticated as the bot.
func NewClient(botToken string) (*Client, error) {
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	// every REST failure is terminal
	session.MaxRestRetries = 0
	session.ShouldRetryOnRateLimit = false
	return &Client{session: session}, nil
}

// Acknowledge answers the interaction callback with a visible message. It must be
// sent within the platform's initial response window.
func (c *Client) Acknowledge(ctx context.Context, interactionID, token, content string) error {
	err := c.session.InteractionRespond(
		&discordgo.Interaction{ID: interactionID, Token: token},
		&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{Content: truncate(content)},
		},
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to acknowledge interaction %s: %w", interactionID, err)
	}
	return nil
}

// PostMessage creates a message in the channel.
func (c *Client) PostMessage(ctx context.Context, channelID, content string) error {
	msg, err := c.session.ChannelMessageSend(channelID, truncate(content), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to post message to channel %s: %w", channelID, err)
	}
	logger.GetLogger().Info("posted message", zap.String("channel_id", channelID), zap.String("message_id", msg.ID))
	return nil
}

// RegisterCommands overwrites the application's global commands with the registry contents.
// It returns the names the platform accepted.
func (c *Client) RegisterCommands(ctx context.Context, appID string, registry *command.Registry) ([]string, error) {
	registered, err := c.session.ApplicationCommandBulkOverwrite(appID, "", ApplicationCommands(registry), discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to register commands: %w", err)
	}
	names := make([]string, 0, len(registered))
	for _, cmd := range registered {
		names = append(names, cmd.Name)
	}
	return names, nil
}

// ApplicationCommands converts descriptors into chat input command definitions.
func ApplicationCommands(registry *command.Registry) []*discordgo.ApplicationCommand {
	descriptors := registry.All()
	commands := make([]*discordgo.ApplicationCommand, 0, len(descriptors))
	for _, d := range descriptors {
		commands = append(commands, &discordgo.ApplicationCommand{
			Type:        discordgo.ChatApplicationCommand,
			Name:        d.Name,
			Description: d.Description,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        d.Option.Name,
					Description: d.Option.Description,
					Required:    d.Option.Required,
				},
			},
		})
	}
	return commands
}

func truncate(content string) string {
	runes := []rune(content)
	if len(runes) <= maxMessageLength {
		return content
	}
	return string(runes[:maxMessageLength-3]) + "..."
}
