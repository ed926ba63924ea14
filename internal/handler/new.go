package handler

import (
	"fmt"

	"discord_workflow/internal/command"
	"discord_workflow/internal/config"
	"discord_workflow/internal/secret"
	"discord_workflow/internal/service/discord"
	"discord_workflow/internal/service/workflow"
	"discord_workflow/internal/signature"
)

// NewFromConfig builds the production handler from the resolved configuration.
func NewFromConfig(cfg *config.Config, secrets secret.Provider) (*InteractionHandler, error) {
	verifier, err := signature.NewVerifier(cfg.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create verifier: %w", err)
	}

	messenger, err := discord.NewClient(cfg.BotToken)
	if err != nil {
		return nil, err
	}

	return NewInteractionHandler(
		verifier,
		command.Default(),
		secrets,
		messenger,
		workflow.NewClient(cfg.WorkflowEndpoint, cfg.WorkflowTimeout),
		cfg.CommandKeyName,
	), nil
}
