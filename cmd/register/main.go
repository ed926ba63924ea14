package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"discord_workflow/internal/command"
	"discord_workflow/internal/config"
	"discord_workflow/internal/logger"
	"discord_workflow/internal/secret"
	"discord_workflow/internal/service/discord"
)

// registrar overwrites the application's commands with the registry contents.
type registrar interface {
	RegisterCommands(ctx context.Context, appID string, registry *command.Registry) ([]string, error)
}

type registration struct {
	env      *config.Env
	secrets  secret.Provider
	newAPI   func(botToken string) (registrar, error)
	registry *command.Registry
}

func (r *registration) run(ctx context.Context) ([]string, error) {
	cfg, err := config.LoadRegistrar(ctx, r.env, r.secrets)
	if err != nil {
		return nil, err
	}
	api, err := r.newAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	names, err := api.RegisterCommands(ctx, cfg.AppID, r.registry)
	if err != nil {
		return nil, err
	}
	logger.GetLogger().Info("registered commands", zap.Strings("commands", names))
	return names, nil
}

// handle is the Lambda entry point; failures are reported in the response body.
func (r *registration) handle(ctx context.Context) (events.APIGatewayProxyResponse, error) {
	names, err := r.run(ctx)
	if err != nil {
		logger.GetLogger().Error("failed to register commands", zap.Error(err))
		body, _ := json.Marshal(map[string]string{"error": err.Error()})
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: string(body)}, nil
	}
	body, err := json.Marshal(names)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return events.APIGatewayProxyResponse{StatusCode: http.StatusOK, Body: string(body)}, nil
}

func main() {
	ctx := context.Background()

	env, err := config.FromOS()
	if err != nil {
		log.Fatalf("Failed to read environment: %v", err)
	}
	if err := logger.Init(env.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	secrets, err := config.NewSecretProvider(ctx, env)
	if err != nil {
		log.Fatalf("Failed to create secret provider: %v", err)
	}

	r := &registration{
		env:     env,
		secrets: secrets,
		newAPI: func(botToken string) (registrar, error) {
			return discord.NewClient(botToken)
		},
		registry: command.Default(),
	}

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		lambda.Start(r.handle)
		return
	}

	names, err := r.run(ctx)
	if err != nil {
		logger.GetLogger().Fatal("failed to register commands", zap.Error(err))
	}
	fmt.Println(names)
}
