package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/frogcom/api/internal/llm"
)

func testGenerationParams() llm.GenerationParams {
	return llm.GenerationParams{
		Model:       "Qwen/Qwen2.5-0.5B-Instruct",
		MaxTokens:   128,
		Temperature: 0.7,
		TopP:        0.9,
	}
}

func completionBody(content string) string {
	return `{"choices":[{"message":{"role":"assistant","content":` +
		mustJSON(content) + `},"finish_reason":"stop"}]}`
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestCompleteSuccess(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody("The answer is 42.")))
	}))
	defer srv.Close()

	client := NewOpenAIClient(srv.URL, zap.NewNop())
	out, err := client.Complete(context.Background(),
		[]llm.Turn{{Role: llm.RoleUser, Content: "What is the answer?"}},
		testGenerationParams())
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if out != "The answer is 42." {
		t.Errorf("output = %q", out)
	}
	if gotReq.Model != "Qwen/Qwen2.5-0.5B-Instruct" {
		t.Errorf("request model = %q", gotReq.Model)
	}
	if gotReq.Stream {
		t.Error("stream must be false")
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Role != "user" {
		t.Errorf("request messages = %+v", gotReq.Messages)
	}
}

func TestCompleteErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"bad request", http.StatusBadRequest, ErrInvalidParams},
		{"unprocessable", http.StatusUnprocessableEntity, ErrInvalidParams},
		{"gateway timeout", http.StatusGatewayTimeout, ErrTimeout},
		{"internal error", http.StatusInternalServerError, ErrUnavailable},
		{"service unavailable", http.StatusServiceUnavailable, ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":{"message":"nope"}}`))
			}))
			defer srv.Close()

			client := NewOpenAIClient(srv.URL, zap.NewNop())
			_, err := client.Complete(context.Background(),
				[]llm.Turn{{Role: llm.RoleUser, Content: "hi"}}, testGenerationParams())
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCompleteContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server starts its background read and can
		// observe the client disconnect, cancelling the request context.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := NewOpenAIClient(srv.URL, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Complete(ctx,
		[]llm.Turn{{Role: llm.RoleUser, Content: "hi"}}, testGenerationParams())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
}

func TestCompleteClientTimeout(t *testing.T) {
	// The client's own timeout fires with no caller deadline; it must still
	// map to ErrTimeout, not ErrUnavailable.
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewOpenAIClient(srv.URL, zap.NewNop())
	client.client.Timeout = 50 * time.Millisecond

	_, err := client.Complete(context.Background(),
		[]llm.Turn{{Role: llm.RoleUser, Content: "hi"}}, testGenerationParams())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
}

func TestCompleteConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // nothing listening anymore

	client := NewOpenAIClient(srv.URL, zap.NewNop())
	_, err := client.Complete(context.Background(),
		[]llm.Turn{{Role: llm.RoleUser, Content: "hi"}}, testGenerationParams())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(srv.URL, zap.NewNop())
	_, err := client.Complete(context.Background(),
		[]llm.Turn{{Role: llm.RoleUser, Content: "hi"}}, testGenerationParams())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}

func TestCompleteInBodyError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"error":{"message":"model not loaded","type":"server_error"}}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(srv.URL, zap.NewNop())
	_, err := client.Complete(context.Background(),
		[]llm.Turn{{Role: llm.RoleUser, Content: "hi"}}, testGenerationParams())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}

func TestHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewOpenAIClient(srv.URL, zap.NewNop())
	if !client.Healthy(context.Background()) {
		t.Error("Healthy() = false for a responding upstream")
	}

	down := NewOpenAIClient("http://127.0.0.1:1", zap.NewNop())
	if down.Healthy(context.Background()) {
		t.Error("Healthy() = true for a dead upstream")
	}
}
