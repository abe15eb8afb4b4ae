// Package ollama narrates plans with a local model over Ollama's chat API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"dinnerplanner"
	"dinnerplanner/coordinator"
	"dinnerplanner/horizon"
)

type options struct {
	Temperature   float64 `json:"temperature,omitempty"`
	TopP          float64 `json:"top_p,omitempty"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
	NumCtx        int     `json:"num_ctx,omitempty"`
	NumPredict    int     `json:"num_predict,omitempty"`
}

// Message is one Ollama chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
	Options  options   `json:"options,omitempty"`
}

type wireResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

type NarratorOpts struct {
	BaseEndpoint string
	ModelID      string
	HTTPClient   dinnerplanner.HTTPClient
	Temperature  float64
	MaxTokens    int
}

// Narrator implements dinnerplanner.Narrator against an Ollama server.
type Narrator struct {
	endpoint     string
	model        string
	systemPrompt string
	httpClient   dinnerplanner.HTTPClient
	options      options
}

func NewNarrator(opts NarratorOpts) (*Narrator, error) {
	if strings.TrimSpace(opts.BaseEndpoint) == "" {
		return nil, fmt.Errorf("ollama base endpoint is required")
	}
	if opts.ModelID == "" {
		return nil, fmt.Errorf("ollama model id is required")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	temp := opts.Temperature
	if temp == 0 {
		temp = 0.2
	}

	return &Narrator{
		endpoint:     strings.TrimRight(opts.BaseEndpoint, "/") + "/api/chat",
		model:        opts.ModelID,
		systemPrompt: coordinator.NarrationSystemPrompt,
		httpClient:   opts.HTTPClient,
		options: options{
			Temperature:   temp,
			TopP:          0.9,
			RepeatPenalty: 1.05,
			NumCtx:        8192,
			NumPredict:    opts.MaxTokens,
		},
	}, nil
}

func (n *Narrator) Narrate(ctx context.Context, ps horizon.PlanSet) (string, error) {
	prompt, err := coordinator.NarrationPrompt(ps)
	if err != nil {
		return "", err
	}

	slog.Info("NARRATOR: Invoking Ollama", "model", n.model, "days", len(ps.Days))

	reqBytes, err := json.Marshal(wireRequest{
		Model: n.model,
		Messages: []Message{
			{Role: "system", Content: n.systemPrompt},
			{Role: "user", Content: prompt},
		},
		Stream:  false,
		Options: n.options,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewBuffer(reqBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("NARRATOR: %s: %s", resp.Status, string(body))
	}

	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	text := strings.TrimSpace(wr.Message.Content)
	if text == "" {
		return "", fmt.Errorf("model returned no text")
	}

	slog.Info("NARRATOR: Ollama invoke succeeded", "content_len", len(text))
	return text, nil
}
