package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/myrjola/mysteries/internal/e2etest"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

// newLookupEnv returns an environment for an isolated server on a random port with an in-memory database.
func newLookupEnv(overrides map[string]string) func(string) (string, bool) {
	env := map[string]string{
		"MYSTERIES_ADDR":          "localhost:0",
		"MYSTERIES_SQLITE_URL":    ":memory:",
		"MYSTERIES_PPROF_ADDR":    "",
		"MYSTERIES_SEED_FIXTURES": "false",
	}
	for k, v := range overrides {
		env[k] = v
	}
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

// startTestServer starts the application and stops it when the test ends.
func startTestServer(t *testing.T, lookupEnv func(string) (string, bool)) *e2etest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	server, err := e2etest.StartServer(ctx, io.Discard, lookupEnv, run)
	require.NoError(t, err)
	return server
}

// fakeOpenAI answers every chat completion with content and counts the calls.
type fakeOpenAI struct {
	server *httptest.Server
	calls  atomic.Int32
}

func newFakeOpenAI(t *testing.T, content string) *fakeOpenAI {
	t.Helper()
	f := &fakeOpenAI{} //nolint:exhaustruct // server is set below
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		f.calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{ //nolint:exhaustruct // test
			ID:     "chatcmpl-test",
			Object: "chat.completion",
			Choices: []openai.ChatCompletionChoice{{ //nolint:exhaustruct // test
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
			}},
		})
	}))
	t.Cleanup(f.server.Close)
	return f
}
