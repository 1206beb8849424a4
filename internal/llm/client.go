// Package llm talks to the local model service for embeddings and chat
// completions. Both calls may fail when the service is down; callers are
// expected to degrade (keyword-only search, fallback replies) rather than
// surface the failure.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/mstolt/recall/internal/model"
)

// Client generates embeddings and chat completions.
type Client interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Complete(ctx context.Context, messages []model.Message) (string, error)
}

// Fallbacks is the fixed reply pool used when the completion service is
// unreachable.
var Fallbacks = []string{
	"My brain is buffering... (the model might be offline?)",
	"Can't reach the model right now, try again in a moment.",
	"I'm feeling a bit disconnected... check my connection?",
}

// Fallback picks a canned reply for use when Complete fails.
func Fallback() string {
	return Fallbacks[rand.Intn(len(Fallbacks))]
}

// Ollama reaches a local Ollama instance over HTTP.
type Ollama struct {
	baseURL    string
	chatModel  string
	embedModel string
	client     *http.Client
}

// Compile-time check that Ollama implements Client.
var _ Client = (*Ollama)(nil)

// NewOllama creates a client for the given base URL and models.
func NewOllama(baseURL, chatModel, embedModel string) *Ollama {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if chatModel == "" {
		chatModel = "llama3.2:3b"
	}
	if embedModel == "" {
		embedModel = "nomic-embed-text"
	}
	return &Ollama{
		baseURL:    baseURL,
		chatModel:  chatModel,
		embedModel: embedModel,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed generates an embedding vector for text.
func (o *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	body, _ := json.Marshal(embedRequest{Model: o.embedModel, Prompt: text})
	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama error %d: %s", resp.StatusCode, string(b))
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return result.Embedding, nil
}

type chatRequest struct {
	Model    string          `json:"model"`
	Messages []model.Message `json:"messages"`
	Stream   bool            `json:"stream"`
}

type chatResponse struct {
	Message model.Message `json:"message"`
}

// Complete sends a chat exchange and returns the model's reply text.
func (o *Ollama) Complete(ctx context.Context, messages []model.Message) (string, error) {
	body, _ := json.Marshal(chatRequest{Model: o.chatModel, Messages: messages})
	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama error %d: %s", resp.StatusCode, string(b))
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Message.Content, nil
}
