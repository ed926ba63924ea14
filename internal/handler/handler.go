package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"discord_workflow/internal/command"
	"discord_workflow/internal/logger"
	"discord_workflow/internal/model"
	"discord_workflow/internal/secret"
	"discord_workflow/internal/service/discord"
	"discord_workflow/internal/service/workflow"
	"discord_workflow/internal/signature"
)

// ErrUnrecognizedEventType is returned for interaction types other than ping and command.
var ErrUnrecognizedEventType = errors.New("unrecognized interaction type")

// Response bodies written on the wire.
const (
	bodyPong          = `{"type": 1}`
	bodyBadSignature  = `"Bad Signature"`
	bodyInternalError = `"Internal Server Error"`

	// bodyInvalidCommand answers unknown commands and missing options with a 400
	// instead of running the workflow with empty inputs.
	bodyInvalidCommand = `"Invalid Command"`
)

// Response is the status and optional JSON body returned to the platform.
type Response struct {
	StatusCode int
	Body       string
}

// Verifier validates the signature of an inbound event.
type Verifier interface {
	Verify(timestamp string, body []byte, signatureHex string) error
}

// InteractionHandler verifies inbound interaction events and dispatches commands to workflows.
type InteractionHandler struct {
	verifier  Verifier
	commands  *command.Registry
	secrets   secret.Provider
	messenger discord.Messenger
	workflows workflow.Runner
	keyName   func(command string) string
}

// NewInteractionHandler wires the handler. keyName maps a command name to the parameter
// holding its workflow API key.
func NewInteractionHandler(
	verifier Verifier,
	commands *command.Registry,
	secrets secret.Provider,
	messenger discord.Messenger,
	workflows workflow.Runner,
	keyName func(command string) string,
) *InteractionHandler {
	return &InteractionHandler{
		verifier:  verifier,
		commands:  commands,
		secrets:   secrets,
		messenger: messenger,
		workflows: workflows,
		keyName:   keyName,
	}
}

// Handle processes one inbound event. Errors never escape; they become status codes.
func (h *InteractionHandler) Handle(ctx context.Context, ev model.InboundEvent) Response {
	log := logger.GetLogger()

	resp, err := h.dispatch(ctx, ev)
	switch {
	case err == nil:
		return resp
	case errors.Is(err, signature.ErrInvalidSignature):
		log.Error("Bad Signature")
		return Response{StatusCode: http.StatusUnauthorized, Body: bodyBadSignature}
	case errors.Is(err, ErrUnrecognizedEventType):
		log.Warn("unrecognized interaction", zap.Error(err))
		return Response{StatusCode: http.StatusNotFound}
	case errors.Is(err, command.ErrUnknownCommand), errors.Is(err, command.ErrInvalidOptions):
		log.Warn("rejected command", zap.Error(err))
		return Response{StatusCode: http.StatusBadRequest, Body: bodyInvalidCommand}
	default:
		log.Error("Unexpected error", zap.Error(err))
		return Response{StatusCode: http.StatusInternalServerError, Body: bodyInternalError}
	}
}

// dispatch verifies the event before decoding anything from it.
func (h *InteractionHandler) dispatch(ctx context.Context, ev model.InboundEvent) (Response, error) {
	if err := h.verifier.Verify(ev.Timestamp, ev.Body, ev.Signature); err != nil {
		return Response{}, err
	}

	var interaction model.Interaction
	if err := json.Unmarshal(ev.Body, &interaction); err != nil {
		return Response{}, fmt.Errorf("failed to decode interaction: %w", err)
	}

	switch interaction.Type {
	case model.InteractionPing:
		return Response{StatusCode: http.StatusOK, Body: bodyPong}, nil
	case model.InteractionApplicationCommand:
		if err := h.handleCommand(ctx, &interaction); err != nil {
			return Response{}, err
		}
		return Response{StatusCode: http.StatusOK}, nil
	default:
		return Response{}, fmt.Errorf("type %d: %w", interaction.Type, ErrUnrecognizedEventType)
	}
}
