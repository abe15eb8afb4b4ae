package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinnerplanner/horizon"
	"dinnerplanner/kitchen"
	"dinnerplanner/planner"
)

// mockHTTPClient implements the HTTPClient interface for testing
type mockHTTPClient struct {
	response *http.Response
	err      error
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.response, m.err
}

// createMockResponse creates a mock HTTP response
func createMockResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func plan() horizon.PlanSet {
	return horizon.PlanSet{
		HouseholdID: "hh-1",
		Days:        []planner.Day{{Date: kitchen.MustDate("2025-03-10"), RecipeSlug: "soup", RecipeName: "Lentil Soup"}},
	}
}

func TestNewNarrator(t *testing.T) {
	tests := []struct {
		name    string
		opts    NarratorOpts
		wantErr bool
	}{
		{"valid", NarratorOpts{BaseEndpoint: "http://localhost:11434/", ModelID: "llama3.2"}, false},
		{"missing endpoint", NarratorOpts{ModelID: "llama3.2"}, true},
		{"missing model", NarratorOpts{BaseEndpoint: "http://localhost:11434"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := NewNarrator(tt.opts)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "http://localhost:11434/api/chat", n.endpoint)
			assert.Equal(t, 0.2, n.options.Temperature)
			assert.NotEmpty(t, n.systemPrompt)
		})
	}
}

func TestNarrator_Narrate(t *testing.T) {
	tests := []struct {
		name     string
		response *http.Response
		err      error
		want     string
		wantErr  bool
	}{
		{
			name:     "successful narration",
			response: createMockResponse(200, `{"message": {"role": "assistant", "content": " Monday: Lentil Soup. \n"}, "done": true}`),
			want:     "Monday: Lentil Soup.",
		},
		{
			name:     "server error",
			response: createMockResponse(500, `{"error": "model not loaded"}`),
			wantErr:  true,
		},
		{
			name:     "empty content",
			response: createMockResponse(200, `{"message": {"role": "assistant", "content": ""}, "done": true}`),
			wantErr:  true,
		},
		{
			name:     "malformed body",
			response: createMockResponse(200, `not json`),
			wantErr:  true,
		},
		{
			name:    "transport error",
			err:     errors.New("connection refused"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := NewNarrator(NarratorOpts{
				BaseEndpoint: "http://localhost:11434",
				ModelID:      "llama3.2",
				HTTPClient:   &mockHTTPClient{response: tt.response, err: tt.err},
			})
			require.NoError(t, err)

			got, err := n.Narrate(context.Background(), plan())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNarrator_WireRequest(t *testing.T) {
	var got wireRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message": {"role": "assistant", "content": "ok"}, "done": true}`))
	}))
	defer srv.Close()

	n, err := NewNarrator(NarratorOpts{BaseEndpoint: srv.URL, ModelID: "llama3.2", MaxTokens: 200})
	require.NoError(t, err)

	text, err := n.Narrate(context.Background(), plan())
	require.NoError(t, err)
	assert.Equal(t, "ok", text)

	assert.Equal(t, "llama3.2", got.Model)
	assert.False(t, got.Stream)
	assert.Equal(t, 200, got.Options.NumPredict)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Contains(t, got.Messages[1].Content, `"recipe":"Lentil Soup"`)
}
