package discord

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"discord_workflow/internal/command"
)

// rewriteTransport sends every request to the test server, keeping the path.
type rewriteTransport struct {
	target *url.URL
}

func (t rewriteTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.URL.Scheme = t.target.Scheme
	r.URL.Host = t.target.Host
	r.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(r)
}

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   string
}

type fakeDiscord struct {
	mu       sync.Mutex
	requests []recordedRequest
	respond  func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeDiscord) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Auth:   r.Header.Get("Authorization"),
		Body:   string(body),
	})
	f.mu.Unlock()
	f.respond(w, r)
}

func newTestClient(t *testing.T, fake *fakeDiscord) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	target, _ := url.Parse(srv.URL)
	client, err := NewClient("bot-token")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	client.session.Client = &http.Client{Transport: rewriteTransport{target: target}}
	return client
}

func TestAcknowledge(t *testing.T) {
	fake := &fakeDiscord{respond: func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}}
	client := newTestClient(t, fake)

	if err := client.Acknowledge(context.Background(), "111", "tok", "<Input text=Tama>"); err != nil {
		t.Fatalf("Acknowledge: %v", err)
	}

	if len(fake.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(fake.requests))
	}
	req := fake.requests[0]
	if req.Method != http.MethodPost || !strings.HasSuffix(req.Path, "/interactions/111/tok/callback") {
		t.Errorf("unexpected request %s %s", req.Method, req.Path)
	}

	var body struct {
		Type int `json:"type"`
		Data struct {
			Content string `json:"content"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Type != 4 || body.Data.Content != "<Input text=Tama>" {
		t.Errorf("unexpected callback body: %s", req.Body)
	}
}

func TestPostMessage(t *testing.T) {
	fake := &fakeDiscord{respond: func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"999","channel_id":"222","content":"にゃーん"}`))
	}}
	client := newTestClient(t, fake)

	if err := client.PostMessage(context.Background(), "222", "にゃーん"); err != nil {
		t.Fatalf("PostMessage: %v", err)
	}

	req := fake.requests[0]
	if !strings.HasSuffix(req.Path, "/channels/222/messages") {
		t.Errorf("path = %s", req.Path)
	}
	if req.Auth != "Bot bot-token" {
		t.Errorf("authorization = %q", req.Auth)
	}
	if !strings.Contains(req.Body, `"content":"にゃーん"`) {
		t.Errorf("body = %s", req.Body)
	}
}

func TestPostMessage_ErrorStatus(t *testing.T) {
	fake := &fakeDiscord{respond: func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"Missing Access","code":50001}`))
	}}
	client := newTestClient(t, fake)

	if err := client.PostMessage(context.Background(), "222", "hi"); err == nil {
		t.Fatal("expected error")
	}
}

func TestPostMessage_NoRetry(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"bad gateway", http.StatusBadGateway},
		{"rate limited", http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeDiscord{respond: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				if tt.status == http.StatusTooManyRequests {
					w.Header().Set("Retry-After", "1")
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"message":"try again","retry_after":1,"global":false}`))
			}}
			client := newTestClient(t, fake)

			if err := client.PostMessage(context.Background(), "222", "hi"); err == nil {
				t.Fatal("expected error")
			}
			if len(fake.requests) != 1 {
				t.Errorf("requests = %d, want 1", len(fake.requests))
			}
		})
	}
}

func TestRegisterCommands(t *testing.T) {
	fake := &fakeDiscord{respond: func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"1","name":"neko","description":"にゃーん"},{"id":"2","name":"summary","description":"要約"}]`))
	}}
	client := newTestClient(t, fake)

	names, err := client.RegisterCommands(context.Background(), "app-1", command.Default())
	if err != nil {
		t.Fatalf("RegisterCommands: %v", err)
	}
	if len(names) != 2 || names[0] != "neko" || names[1] != "summary" {
		t.Errorf("names = %v", names)
	}

	req := fake.requests[0]
	if req.Method != http.MethodPut || !strings.HasSuffix(req.Path, "/applications/app-1/commands") {
		t.Errorf("unexpected request %s %s", req.Method, req.Path)
	}
	var sent []struct {
		Name    string `json:"name"`
		Options []struct {
			Name     string `json:"name"`
			Type     int    `json:"type"`
			Required bool   `json:"required"`
		} `json:"options"`
	}
	if err := json.Unmarshal([]byte(req.Body), &sent); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(sent) != 2 || sent[0].Options[0].Name != "text" || sent[1].Options[0].Name != "url" {
		t.Errorf("unexpected commands: %s", req.Body)
	}
	if sent[0].Options[0].Type != 3 || !sent[0].Options[0].Required {
		t.Errorf("expected required string option: %s", req.Body)
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("猫", maxMessageLength+10)
	got := []rune(truncate(long))
	if len(got) != maxMessageLength {
		t.Errorf("len = %d, want %d", len(got), maxMessageLength)
	}
	if truncate("short") != "short" {
		t.Error("short content should be unchanged")
	}
}
