package config

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"discord_workflow/internal/secret"
)

// Secret backends selectable with SECRET_BACKEND.
const (
	BackendSSM = "ssm"
	BackendS3  = "s3"
	BackendEnv = "env"
)

// Env holds the settings read from the process environment. It says where the
// secrets live, not what they are.
type Env struct {
	PublicKeyParam        string
	BotTokenParam         string
	AppIDParam            string
	WorkflowEndpointParam string
	CommandKeyPrefix      string // per-command API key lives at <prefix><command>

	WorkflowTimeout time.Duration
	LogLevel        string
	Port            string

	SecretBackend       string
	SecretBucket        string // s3 backend only
	SecretEncryptionKey []byte // s3 backend only, 32 bytes
}

// Config holds the values resolved from the secret backend at cold start.
// It is never modified after Load returns.
type Config struct {
	Env

	PublicKey        string // hex encoded ed25519 public key
	BotToken         string
	WorkflowEndpoint string
}

// RegistrarConfig holds what the command registrar needs.
type RegistrarConfig struct {
	AppID    string
	BotToken string
}

var defaults = map[string]string{
	"PUBLIC_KEY_PARAM":        "/discord/dify/PUBLIC_KEY",
	"BOT_TOKEN_PARAM":         "/discord/dify/DISCORD_BOT_TOKEN",
	"APP_ID_PARAM":            "/discord/dify/DISCORD_APP_ID",
	"WORKFLOW_ENDPOINT_PARAM": "/dify/ENDPOINT",
	"COMMAND_KEY_PREFIX":      "/dify/app/",
	"WORKFLOW_TIMEOUT":        "120s",
	"LOG_LEVEL":               "info",
	"PORT":                    "8080",
	"SECRET_BACKEND":          BackendSSM,
}

// LoadEnv reads the environment using lookup, falling back to defaults.
func LoadEnv(lookup func(string) (string, bool)) (*Env, error) {
	get := func(key string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return defaults[key]
	}

	timeout, err := time.ParseDuration(get("WORKFLOW_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKFLOW_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("WORKFLOW_TIMEOUT must be positive, got %s", timeout)
	}

	env := &Env{
		PublicKeyParam:        get("PUBLIC_KEY_PARAM"),
		BotTokenParam:         get("BOT_TOKEN_PARAM"),
		AppIDParam:            get("APP_ID_PARAM"),
		WorkflowEndpointParam: get("WORKFLOW_ENDPOINT_PARAM"),
		CommandKeyPrefix:      get("COMMAND_KEY_PREFIX"),
		WorkflowTimeout:       timeout,
		LogLevel:              get("LOG_LEVEL"),
		Port:                  get("PORT"),
		SecretBackend:         strings.ToLower(get("SECRET_BACKEND")),
		SecretBucket:          get("SECRET_BUCKET"),
	}

	switch env.SecretBackend {
	case BackendSSM, BackendEnv:
	case BackendS3:
		var missingVars []string
		if env.SecretBucket == "" {
			missingVars = append(missingVars, "SECRET_BUCKET")
		}
		rawKey := get("SECRET_ENCRYPTION_KEY")
		if rawKey == "" {
			missingVars = append(missingVars, "SECRET_ENCRYPTION_KEY")
		}
		if len(missingVars) > 0 {
			return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missingVars, ", "))
		}
		key, err := base64.StdEncoding.DecodeString(rawKey)
		if err != nil {
			return nil, fmt.Errorf("invalid SECRET_ENCRYPTION_KEY: %w", err)
		}
		env.SecretEncryptionKey = key
	default:
		return nil, fmt.Errorf("unknown SECRET_BACKEND %q", env.SecretBackend)
	}

	return env, nil
}

// FromOS reads the environment of the current process.
func FromOS() (*Env, error) {
	return LoadEnv(os.LookupEnv)
}

// NewSecretProvider builds the provider selected by SECRET_BACKEND.
func NewSecretProvider(ctx context.Context, env *Env) (secret.Provider, error) {
	if env.SecretBackend == BackendEnv {
		return secret.NewEnvProvider(), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	switch env.SecretBackend {
	case BackendS3:
		provider, err := secret.NewS3Provider(s3.NewFromConfig(awsCfg), env.SecretBucket, env.SecretEncryptionKey)
		if err != nil {
			return nil, err
		}
		return provider, nil
	default:
		return secret.NewSSMProvider(ssm.NewFromConfig(awsCfg)), nil
	}
}

// Load resolves every value the interaction handler needs. Any missing value fails the load.
func Load(ctx context.Context, env *Env, provider secret.Provider) (*Config, error) {
	cfg := &Config{Env: *env}

	required := []struct {
		name string
		dst  *string
	}{
		{env.PublicKeyParam, &cfg.PublicKey},
		{env.BotTokenParam, &cfg.BotToken},
		{env.WorkflowEndpointParam, &cfg.WorkflowEndpoint},
	}

	var missing []string
	for _, r := range required {
		value, err := provider.Get(ctx, r.name)
		if err != nil {
			missing = append(missing, fmt.Sprintf("%s (%v)", r.name, err))
			continue
		}
		*r.dst = value
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("failed to resolve parameters: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// LoadRegistrar resolves the application id and bot token for the command registrar.
func LoadRegistrar(ctx context.Context, env *Env, provider secret.Provider) (*RegistrarConfig, error) {
	appID, err := provider.Get(ctx, env.AppIDParam)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve application id: %w", err)
	}
	token, err := provider.Get(ctx, env.BotTokenParam)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve bot token: %w", err)
	}
	return &RegistrarConfig{AppID: appID, BotToken: token}, nil
}

// CommandKeyName returns the parameter name holding the workflow API key for a command.
func (e *Env) CommandKeyName(command string) string {
	return e.CommandKeyPrefix + command
}
