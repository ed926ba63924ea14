package config

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"discord_workflow/internal/secret"
)

func lookupFrom(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

type mapProvider map[string]string

func (m mapProvider) Get(_ context.Context, name string) (string, error) {
	v, ok := m[name]
	if !ok {
		return "", secret.ErrNotFound
	}
	return v, nil
}

func TestLoadEnv_Defaults(t *testing.T) {
	env, err := LoadEnv(lookupFrom(nil))
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if env.PublicKeyParam != "/discord/dify/PUBLIC_KEY" {
		t.Errorf("PublicKeyParam = %q", env.PublicKeyParam)
	}
	if env.WorkflowTimeout != 120*time.Second {
		t.Errorf("WorkflowTimeout = %s", env.WorkflowTimeout)
	}
	if env.SecretBackend != BackendSSM {
		t.Errorf("SecretBackend = %q", env.SecretBackend)
	}
	if got := env.CommandKeyName("neko"); got != "/dify/app/neko" {
		t.Errorf("CommandKeyName = %q", got)
	}
}

func TestLoadEnv_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"bad timeout", map[string]string{"WORKFLOW_TIMEOUT": "soon"}, "WORKFLOW_TIMEOUT"},
		{"negative timeout", map[string]string{"WORKFLOW_TIMEOUT": "-1s"}, "positive"},
		{"unknown backend", map[string]string{"SECRET_BACKEND": "vault"}, "unknown SECRET_BACKEND"},
		{"s3 without bucket", map[string]string{"SECRET_BACKEND": "s3"}, "SECRET_BUCKET, SECRET_ENCRYPTION_KEY"},
		{"s3 bad key", map[string]string{"SECRET_BACKEND": "s3", "SECRET_BUCKET": "b", "SECRET_ENCRYPTION_KEY": "%%"}, "SECRET_ENCRYPTION_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadEnv(lookupFrom(tt.env))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	env, _ := LoadEnv(lookupFrom(nil))
	provider := mapProvider{
		"/discord/dify/PUBLIC_KEY":        "abcd",
		"/discord/dify/DISCORD_BOT_TOKEN": "bot-token",
		"/dify/ENDPOINT":                  "https://dify.test",
	}

	cfg, err := Load(context.Background(), env, provider)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PublicKey != "abcd" || cfg.BotToken != "bot-token" || cfg.WorkflowEndpoint != "https://dify.test" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoad_ReportsEveryMissingParameter(t *testing.T) {
	env, _ := LoadEnv(lookupFrom(nil))
	_, err := Load(context.Background(), env, mapProvider{"/dify/ENDPOINT": "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	for _, name := range []string{"/discord/dify/PUBLIC_KEY", "/discord/dify/DISCORD_BOT_TOKEN"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not mention %s", err, name)
		}
	}
}

func TestLoadRegistrar(t *testing.T) {
	env, _ := LoadEnv(lookupFrom(nil))
	_, err := LoadRegistrar(context.Background(), env, mapProvider{})
	if !errors.Is(err, secret.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	cfg, err := LoadRegistrar(context.Background(), env, mapProvider{
		"/discord/dify/DISCORD_APP_ID":    "123",
		"/discord/dify/DISCORD_BOT_TOKEN": "bot-token",
	})
	if err != nil {
		t.Fatalf("LoadRegistrar: %v", err)
	}
	if cfg.AppID != "123" || cfg.BotToken != "bot-token" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}
