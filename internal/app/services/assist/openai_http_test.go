package assist

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCompleteParsesChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Fatalf("missing api key header")
		}
		body, _ := io.ReadAll(r.Body)
		var payload map[string]interface{}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload["n"].(float64) != 2 {
			t.Fatalf("expected n=2, got %v", payload["n"])
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"first reply"}},{"message":{"content":" second reply "}}]}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient(server.Client(), server.URL, "sk-test", "", nil)
	if err != nil {
		t.Fatalf("NewOpenAIClient returned error: %v", err)
	}

	out, err := client.Complete(context.Background(), "system", "user", 2)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if len(out) != 2 || out[0] != "first reply" || out[1] != "second reply" {
		t.Fatalf("unexpected completions: %v", out)
	}
}

func TestCompleteSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limit"}}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient(server.Client(), server.URL, "sk-test", "", nil)
	if err != nil {
		t.Fatalf("NewOpenAIClient returned error: %v", err)
	}
	if _, err := client.Complete(context.Background(), "s", "u", 1); err == nil {
		t.Fatalf("expected error for 429")
	}
}
