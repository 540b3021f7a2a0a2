package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Origin-of-Miracles/Anima/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, APIKey: "test-key"})
}

func TestChatSuccess(t *testing.T) {
	var seen chatCompletionRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&seen); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"content": "老师好！"}}],
			"usage": {"prompt_tokens": 42, "completion_tokens": 7, "total_tokens": 49}
		}`))
	})

	res, err := client.Chat(context.Background(), llm.Request{
		Messages: []llm.Message{llm.User("你好")},
	})
	if err != nil {
		t.Fatalf("Chat() error: %v", err)
	}
	if res.Content != "老师好！" {
		t.Errorf("Content = %q, want %q", res.Content, "老师好！")
	}
	if res.Usage.PromptTokens != 42 || res.Usage.CompletionTokens != 7 {
		t.Errorf("Usage = %+v, want 42/7", res.Usage)
	}
	if seen.Model != defaultModel {
		t.Errorf("request model = %q, want default %q", seen.Model, defaultModel)
	}
}

func TestChatOverrides(t *testing.T) {
	var seen chatCompletionRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&seen)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	temp := 1.2
	_, err := client.Chat(context.Background(), llm.Request{
		Model:       "gpt-4o",
		Temperature: &temp,
		Messages:    []llm.Message{llm.User("hi")},
	})
	if err != nil {
		t.Fatalf("Chat() error: %v", err)
	}
	if seen.Model != "gpt-4o" {
		t.Errorf("request model = %q, want override", seen.Model)
	}
	if seen.Temperature != 1.2 {
		t.Errorf("request temperature = %v, want 1.2", seen.Temperature)
	}
}

func TestChatMissingUsageDefaultsToZero(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})
	res, err := client.Chat(context.Background(), llm.Request{Messages: []llm.Message{llm.User("hi")}})
	if err != nil {
		t.Fatalf("Chat() error: %v", err)
	}
	if res.Usage.PromptTokens != 0 || res.Usage.CompletionTokens != 0 {
		t.Errorf("Usage = %+v, want zeros", res.Usage)
	}
}

func TestChatNoAPIKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL})
	_, err := client.Chat(context.Background(), llm.Request{Messages: []llm.Message{llm.User("hi")}})
	if !errors.Is(err, llm.ErrNoAPIKey) {
		t.Fatalf("error = %v, want ErrNoAPIKey", err)
	}
	if called {
		t.Error("endpoint was called despite missing credential")
	}
}

func TestChatUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	})
	_, err := client.Chat(context.Background(), llm.Request{Messages: []llm.Message{llm.User("hi")}})

	var ue *llm.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("error = %v, want UpstreamError", err)
	}
	if ue.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", ue.StatusCode)
	}
	if !llm.Retryable(err) {
		t.Error("429 should be retryable")
	}
}

func TestChatMalformedResponse(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", "not json at all"},
		{"empty choices", `{"choices":[]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := client.Chat(context.Background(), llm.Request{Messages: []llm.Message{llm.User("hi")}})
			var pe *llm.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error = %v, want ParseError", err)
			}
			if llm.Retryable(err) {
				t.Error("parse errors must not be retryable")
			}
		})
	}
}

func TestChatTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := New(Config{BaseURL: srv.URL, APIKey: "k"})
	_, err := client.Chat(context.Background(), llm.Request{Messages: []llm.Message{llm.User("hi")}})

	var te *llm.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want TransportError", err)
	}
	if !llm.Retryable(err) {
		t.Error("transport errors should be retryable")
	}
}
