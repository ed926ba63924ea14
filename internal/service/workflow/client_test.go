package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRun_Success(t *testing.T) {
	var gotAuth string
	var gotBody runRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/workflows/run" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"workflow_run_id":"run-1","task_id":"task-1","data":{"id":"run-1","status":"succeeded","outputs":{"text":"にゃーん"}}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", 5*time.Second)
	result, err := client.Run(context.Background(), Request{
		Inputs: map[string]string{"query": "Tama"},
		User:   "tama",
		APIKey: "app-key",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Text != "にゃーん" {
		t.Errorf("Text = %q", result.Text)
	}
	if result.RunID != "run-1" {
		t.Errorf("RunID = %q", result.RunID)
	}
	if gotAuth != "Bearer app-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody.ResponseMode != "blocking" || gotBody.User != "tama" || gotBody.Inputs["query"] != "Tama" {
		t.Errorf("unexpected request body: %+v", gotBody)
	}
}

func TestRun_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(srv.URL, 50*time.Millisecond)
	_, err := client.Run(context.Background(), Request{Inputs: map[string]string{"url": "http://x.test"}})

	var wfErr *Error
	if !errors.As(err, &wfErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if wfErr.Kind != KindTimeout {
		t.Errorf("Kind = %s, want %s", wfErr.Kind, KindTimeout)
	}
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   ErrorKind
		cause  string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"code":"unauthorized"}`, KindRequestFailed, "unexpected status 401"},
		{"server error", http.StatusInternalServerError, `boom`, KindRequestFailed, "boom"},
		{"run failed", http.StatusOK, `{"data":{"status":"failed","error":"node crashed","outputs":null}}`, KindRequestFailed, "node crashed"},
		{"not json", http.StatusOK, `<html>`, KindInvalidResponse, "decode response"},
		{"no data", http.StatusOK, `{"workflow_run_id":"x"}`, KindInvalidResponse, "no data"},
		{"no text", http.StatusOK, `{"data":{"status":"succeeded","outputs":{"answer":"x"}}}`, KindInvalidResponse, "data.outputs.text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Second).Run(context.Background(), Request{})
			var wfErr *Error
			if !errors.As(err, &wfErr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if wfErr.Kind != tt.want {
				t.Errorf("Kind = %s, want %s", wfErr.Kind, tt.want)
			}
			if !strings.Contains(wfErr.Cause, tt.cause) {
				t.Errorf("Cause = %q, want containing %q", wfErr.Cause, tt.cause)
			}
		})
	}
}

func TestRun_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).Run(context.Background(), Request{})
	var wfErr *Error
	if !errors.As(err, &wfErr) || wfErr.Kind != KindRequestFailed {
		t.Errorf("expected request_failed, got %v", err)
	}
}

func TestRun_SendsEmptyInputsObject(t *testing.T) {
	var raw map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		w.Write([]byte(`{"data":{"status":"succeeded","outputs":{"text":"ok"}}}`))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, time.Second).Run(context.Background(), Request{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if string(raw["inputs"]) != "{}" {
		t.Errorf("inputs = %s, want {}", raw["inputs"])
	}
}
