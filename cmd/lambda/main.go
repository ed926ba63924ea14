package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"discord_workflow/internal/config"
	"discord_workflow/internal/handler"
	"discord_workflow/internal/logger"
)

var ginLambda *ginadapter.GinLambda

func init() {
	gin.SetMode(gin.ReleaseMode)
}

// setup resolves configuration once per cold start and builds the router.
func setup(ctx context.Context) (*gin.Engine, error) {
	env, err := config.FromOS()
	if err != nil {
		return nil, err
	}
	if err := logger.Init(env.LogLevel); err != nil {
		return nil, err
	}

	secrets, err := config.NewSecretProvider(ctx, env)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(ctx, env, secrets)
	if err != nil {
		return nil, err
	}

	h, err := handler.NewFromConfig(cfg, secrets)
	if err != nil {
		return nil, err
	}
	return handler.NewRouter(h), nil
}

func logLevel() string {
	return logger.GetLogger().Level().String()
}

func handleRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return ginLambda.ProxyWithContext(ctx, req)
}

func main() {
	router, err := setup(context.Background())
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer logger.Sync()

	logger.GetLogger().Info("interaction handler ready", zap.String("log_level", logLevel()))
	ginLambda = ginadapter.New(router)
	lambda.Start(handleRequest)
}
