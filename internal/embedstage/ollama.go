package embedstage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/codanna-go/codanna/internal/errors"
)

// DefaultOllamaHost is the default Ollama API endpoint.
const DefaultOllamaHost = "http://localhost:11434"

// DefaultOllamaModel is the recommended embedding model for code and docs.
const DefaultOllamaModel = "qwen3-embedding:0.6b"

// OllamaConfig configures an OllamaGenerator.
type OllamaConfig struct {
	Host    string
	Model   string
	Timeout time.Duration
}

func (c OllamaConfig) withDefaults() OllamaConfig {
	if c.Host == "" {
		c.Host = DefaultOllamaHost
	}
	if c.Model == "" {
		c.Model = DefaultOllamaModel
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	return c
}

// OllamaGenerator embeds text by calling a locally running Ollama server's
// /api/embed endpoint.
type OllamaGenerator struct {
	client *http.Client
	config OllamaConfig
}

// NewOllamaGenerator returns a generator configured against cfg.
func NewOllamaGenerator(cfg OllamaConfig) *OllamaGenerator {
	cfg = cfg.withDefaults()
	return &OllamaGenerator{
		client: &http.Client{Timeout: cfg.Timeout},
		config: cfg,
	}
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// GenerateEmbeddings implements EmbeddingGenerator by posting texts to
// Ollama's batch embed endpoint and normalizing the returned vectors to
// unit length, matching the vector store's write-time contract.
func (g *OllamaGenerator) GenerateEmbeddings(texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), g.config.Timeout)
	defer cancel()

	var input any = texts
	if len(texts) == 1 {
		input = texts[0]
	}

	body, err := json.Marshal(ollamaEmbedRequest{Model: g.config.Model, Input: input})
	if err != nil {
		return nil, errors.Wrap("embedstage", errors.CodeEmbedGenerate, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.Host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap("embedstage", errors.CodeEmbedGenerate, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, errors.Wrap("embedstage", errors.CodeEmbedGenerate, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, errors.New("embedstage", errors.CodeEmbedGenerate,
			fmt.Sprintf("ollama embed failed with status %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	var parsed ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap("embedstage", errors.CodeEmbedGenerate, err)
	}

	out := make([][]float32, len(parsed.Embeddings))
	for i, emb := range parsed.Embeddings {
		vec := make([]float32, len(emb))
		for j, v := range emb {
			vec[j] = float32(v)
		}
		out[i] = normalize(vec)
	}
	return out, nil
}

// Available checks Ollama's health by listing installed models.
func (g *OllamaGenerator) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.config.Host+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Close releases the underlying HTTP transport's idle connections.
func (g *OllamaGenerator) Close() error {
	g.client.CloseIdleConnections()
	return nil
}
