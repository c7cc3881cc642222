package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estateflow/internal/config"
)

func newGeminiForTest(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGeminiClient(&config.GeminiConfig{
		APIKey:          "test-key",
		APIBase:         srv.URL,
		Model:           "gemini-test",
		Temperature:     0.7,
		MaxOutputTokens: 800,
		Timeout:         5,
	}, nil)
}

func TestGeminiClient_Converse(t *testing.T) {
	var gotPath, gotKey string
	var gotReq GenerateContentRequest

	c := newGeminiForTest(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotReq)
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"Here are "},{"text":"some villas."}]}}]}`)
	})

	reply, err := c.Converse(context.Background(), "User: hi\n\nAssistant:")
	require.NoError(t, err)
	assert.Equal(t, "Here are some villas.", reply)
	assert.Equal(t, "/models/gemini-test:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	require.Len(t, gotReq.Contents, 1)
	assert.Equal(t, "User: hi\n\nAssistant:", gotReq.Contents[0].Parts[0].Text)
	assert.Equal(t, 800, gotReq.GenerationConfig.MaxOutputTokens)
}

func TestGeminiClient_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		category string
	}{
		{name: "server error", status: 500, body: `{"error":"boom"}`, category: "status"},
		{name: "rate limited", status: 429, body: `quota`, category: "status"},
		{name: "not json", status: 200, body: `<html>oops</html>`, category: "malformed"},
		{name: "no candidates", status: 200, body: `{"candidates":[]}`, category: "malformed"},
		{name: "blocked", status: 200, body: `{"promptFeedback":{"blockReason":"SAFETY"}}`, category: "malformed"},
		{name: "empty text", status: 200, body: `{"candidates":[{"content":{"parts":[{"text":"  "}]}}]}`, category: "malformed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newGeminiForTest(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			_, err := c.Converse(context.Background(), "prompt")
			require.Error(t, err)
			assert.Equal(t, tt.category, FailureCategory(err))
		})
	}
}

func TestGeminiClient_StatusErrorCarriesCode(t *testing.T) {
	c := newGeminiForTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, strings.Repeat("x", 500))
	})

	_, err := c.Converse(context.Background(), "prompt")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Len(t, statusErr.Body, 200)
}

func TestGeminiClient_LenientBody(t *testing.T) {
	c := newGeminiForTest(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, ")]}'\n"+`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
	})

	reply, err := c.Converse(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
}

func TestGeminiClient_MissingKey(t *testing.T) {
	c := NewGeminiClient(&config.GeminiConfig{APIBase: "http://127.0.0.1:1", Model: "m"}, nil)
	assert.False(t, c.IsEnabled())

	_, err := c.Converse(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestGeminiClient_Transport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c := NewGeminiClient(&config.GeminiConfig{APIKey: "k", APIBase: srv.URL, Model: "m", Timeout: 1}, nil)
	_, err := c.Converse(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrTransport)
}

func newOpenAIForTest(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIClient(&config.OpenAIConfig{
		APIKey:    "sk-test",
		APIBase:   srv.URL + "/v1",
		ChatModel: "gpt-test",
		Timeout:   5,
		Enabled:   true,
	}, nil)
}

func TestOpenAIClient_Converse(t *testing.T) {
	var gotPath, gotAuth string
	c := newOpenAIForTest(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","object":"chat.completion","model":"gpt-test","choices":[{"index":0,"message":{"role":"assistant","content":" Sure thing. "},"finish_reason":"stop"}],"usage":{"total_tokens":12}}`)
	})

	reply, err := c.Converse(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Sure thing.", reply)
	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "Bearer sk-test", gotAuth)
}

func TestOpenAIClient_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		category string
	}{
		{name: "unauthorized", status: 401, body: `{"error":{"message":"bad key","type":"invalid_request_error"}}`, category: "status"},
		{name: "server error without json", status: 502, body: `bad gateway`, category: "status"},
		{name: "no choices", status: 200, body: `{"id":"1","choices":[]}`, category: "malformed"},
		{name: "broken json", status: 200, body: `{"id": nope}`, category: "malformed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newOpenAIForTest(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			_, err := c.Converse(context.Background(), "prompt")
			require.Error(t, err)
			assert.Equal(t, tt.category, FailureCategory(err), err.Error())
		})
	}
}

func TestOpenAIClient_MissingKey(t *testing.T) {
	c := NewOpenAIClient(&config.OpenAIConfig{ChatModel: "m"}, nil)
	_, err := c.Converse(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestFailureMessage_DistinctPerCategory(t *testing.T) {
	errs := map[string]error{
		"credential": fmt.Errorf("x: %w", ErrMissingCredential),
		"transport":  fmt.Errorf("%w: dial tcp", ErrTransport),
		"deadline":   context.DeadlineExceeded,
		"status":     &StatusError{Provider: "Gemini", StatusCode: 500},
		"auth":       &StatusError{Provider: "Gemini", StatusCode: 403},
		"rate":       &StatusError{Provider: "Gemini", StatusCode: 429},
		"malformed":  fmt.Errorf("%w: no candidates", ErrMalformedResponse),
		"unknown":    errors.New("???"),
	}

	seen := map[string]string{}
	for name, err := range errs {
		msg := FailureMessage(err)
		assert.NotEmpty(t, msg, name)
		if name == "deadline" {
			assert.Equal(t, MsgTransport, msg)
			continue
		}
		if other, dup := seen[msg]; dup {
			t.Errorf("%s and %s share message %q", name, other, msg)
		}
		seen[msg] = name
	}

	assert.Contains(t, FailureMessage(&StatusError{StatusCode: 500}), "HTTP 500")
	assert.Empty(t, FailureMessage(nil))
}
