package handler

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"discord_workflow/internal/logger"
	"discord_workflow/internal/model"
	"discord_workflow/internal/service/workflow"
)

const (
	timeoutMessage   = "Workflow timed out"
	failedMessage    = "Workflow failed: %s"
	emptyTextMessage = "(no output)"
)

// handleCommand acknowledges the interaction, runs the workflow and posts the result.
// The acknowledgement must go out before the workflow call. Once dispatched, the command runs
// to completion bounded only by the workflow client's own timeout, even if the caller goes away.
func (h *InteractionHandler) handleCommand(ctx context.Context, interaction *model.Interaction) error {
	ctx = context.WithoutCancel(ctx)
	log := logger.GetLogger()
	name := interaction.CommandName()
	options := interaction.Options()

	log.Info("command received", zap.String("command", name), zap.String("channel_id", interaction.ChannelID))

	descriptor, err := h.commands.Lookup(name)
	if err != nil {
		return err
	}
	inputs, err := descriptor.BuildInputs(options)
	if err != nil {
		return err
	}

	apiKey, err := h.secrets.Get(ctx, h.keyName(name))
	if err != nil {
		return fmt.Errorf("failed to resolve workflow key for %s: %w", name, err)
	}

	if err := h.messenger.Acknowledge(ctx, interaction.ID, interaction.Token, descriptor.AckContent(options)); err != nil {
		log.Warn("failed to acknowledge interaction", zap.Error(err))
	}

	result, err := h.workflows.Run(ctx, workflow.Request{
		Inputs: inputs,
		User:   interaction.Username(),
		APIKey: apiKey,
	})
	content := resultMessage(result, err)
	if err != nil {
		log.Error("workflow run failed", zap.String("command", name), zap.Error(err))
	} else {
		log.Info("workflow run finished", zap.String("command", name), zap.String("run_id", result.RunID))
	}

	if err := h.messenger.PostMessage(ctx, interaction.ChannelID, content); err != nil {
		return err
	}
	return nil
}

// resultMessage turns a workflow outcome into channel text. Failure causes are logged, not posted.
func resultMessage(result workflow.Result, err error) string {
	if err != nil {
		var wfErr *workflow.Error
		if errors.As(err, &wfErr) {
			if wfErr.Kind == workflow.KindTimeout {
				return timeoutMessage
			}
			return fmt.Sprintf(failedMessage, wfErr.Kind)
		}
		return fmt.Sprintf(failedMessage, workflow.KindRequestFailed)
	}
	if result.Text == "" {
		return emptyTextMessage
	}
	return result.Text
}
