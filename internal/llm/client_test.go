package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AthlureSolutions/sitelure/internal/config"
	"github.com/AthlureSolutions/sitelure/internal/generator"
)

func newTestClient(t *testing.T, url string, retries int) *Client {
	t.Helper()
	c, err := New(config.GeneratorConfig{
		BaseURL:    url,
		APIKey:     "sk-test",
		Model:      "test-model",
		MaxRetries: retries,
	}, WithInitialInterval(time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func writeCompletion(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": text}}},
	})
}

func TestComplete_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header: %q", got)
		}

		var in chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if in.Model != "test-model" {
			t.Errorf("model=%q", in.Model)
		}
		if in.Temperature != 0.3 {
			t.Errorf("temperature=%v", in.Temperature)
		}
		if in.ResponseFormat["type"] != "json_object" {
			t.Errorf("response_format=%v", in.ResponseFormat)
		}
		if len(in.Messages) != 2 || in.Messages[0].Role != "system" || in.Messages[1].Role != "user" {
			t.Errorf("unexpected messages: %+v", in.Messages)
		}
		writeCompletion(w, `{"ok":true}`)
	}))
	defer srv.Close()

	text, err := newTestClient(t, srv.URL, 0).Complete(context.Background(), generator.Request{
		System: "sys", User: "prompt", Temperature: 0.3,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != `{"ok":true}` {
		t.Errorf("text=%q", text)
	}
}

func TestComplete_RetriesTransientStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		writeCompletion(w, "{}")
	}))
	defer srv.Close()

	if _, err := newTestClient(t, srv.URL, 2).Complete(context.Background(), generator.Request{User: "p"}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestComplete_DoesNotRetryClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 3).Complete(context.Background(), generator.Request{User: "p"})
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 HTTPError, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestComplete_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 1).Complete(context.Background(), generator.Request{User: "p"})
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 HTTPError, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestComplete_EmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeCompletion(w, "  ")
	}))
	defer srv.Close()

	if _, err := newTestClient(t, srv.URL, 0).Complete(context.Background(), generator.Request{User: "p"}); err == nil {
		t.Fatal("expected error for empty completion")
	}
}

func TestNew_RequiresBaseURLAndModel(t *testing.T) {
	if _, err := New(config.GeneratorConfig{Model: "m"}); err == nil {
		t.Error("expected error without base_url")
	}
	if _, err := New(config.GeneratorConfig{BaseURL: "http://x"}); err == nil {
		t.Error("expected error without model")
	}
}
