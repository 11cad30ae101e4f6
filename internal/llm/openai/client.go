package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/kg-pipeline/internal/common"
	"github.com/joseph-ayodele/kg-pipeline/internal/llm"
)

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ExtractTriplets implements llm.TripletExtractor with a JSON-object chat completion.
// The model output is validated strictly first; with LenientTriplets set, a
// failing document is sanitized and validated again.
func (c *Client) ExtractTriplets(ctx context.Context, req llm.TripletRequest) ([]llm.Triplet, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"source_file", req.SourceFile,
		"text_len", len(req.Text),
		"strict", req.Strict,
	)

	schema := llm.BuildTripletJSONSchema(req.EntityKinds, req.RelationKinds, req.Strict)
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildExtractionSystemPrompt(req)},
			{"role": "user", "content": llm.BuildExtractionUserPrompt(req) + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	content, err := c.chat(ctx, body)
	if err != nil {
		c.logger.Error("llm.extract.http_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, nil, err
	}
	rawContent := []byte(content)

	if err := llm.ValidateJSONAgainstSchema(schema, rawContent); err != nil {
		if !c.cfg.LenientTriplets {
			c.logger.Error("llm.extract.schema_validation_failed", "req_id", rid, "error", err)
			return nil, rawContent, common.Tag(common.ErrServiceError, fmt.Errorf("schema validation failed: %w", err))
		}
		cleaned, dropped, sErr := llm.SanitizeTriplets(rawContent)
		if sErr != nil {
			c.logger.Error("llm.extract.sanitize_failed", "req_id", rid, "error", sErr)
			return nil, rawContent, common.Tag(common.ErrServiceError, fmt.Errorf("sanitize failed: %w", sErr))
		}
		if vErr := llm.ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			c.logger.Error("llm.extract.schema_validation_failed", "req_id", rid, "error", vErr)
			return nil, rawContent, common.Tag(common.ErrServiceError, fmt.Errorf("schema validation failed: %w", vErr))
		}
		c.logger.Warn("llm.extract.lenient_sanitize_applied", "req_id", rid, "dropped", dropped)
		rawContent = cleaned
	}

	var out struct {
		Triplets []llm.Triplet `json:"triplets"`
	}
	if err := json.Unmarshal(rawContent, &out); err != nil {
		return nil, rawContent, common.Tag(common.ErrServiceError, fmt.Errorf("unmarshal triplets: %w", err))
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"triplets", len(out.Triplets),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out.Triplets, rawContent, nil
}

// Answer implements llm.Answerer.
func (c *Client) Answer(ctx context.Context, req llm.AnswerRequest) (string, error) {
	start := time.Now()
	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "system", "content": llm.AnswerSystemPrompt()},
			{"role": "user", "content": llm.BuildAnswerPrompt(req)},
		},
	}
	content, err := c.chat(ctx, body)
	if err != nil {
		return "", err
	}
	c.logger.Info("llm.answer.ok",
		"contexts", len(req.Contexts),
		"facts", len(req.Facts),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

// Embed implements llm.Embedder via POST {base}/embeddings.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if !c.CanEmbed() {
		return nil, common.Tag(common.ErrInvalidInput, errors.New("no embedding model configured"))
	}
	body := map[string]any{"model": c.cfg.EmbeddingModel, "input": texts}
	raw, err := llm.SendJSON(ctx, c.http, c.endpoint("/embeddings"), body, c.headers(), c.logger)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, common.Tag(common.ErrServiceError, fmt.Errorf("decode embeddings: %w", err))
	}
	if len(resp.Data) != len(texts) {
		return nil, common.Tag(common.ErrServiceError,
			fmt.Errorf("embeddings: got %d vectors for %d inputs", len(resp.Data), len(texts)))
	}
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, common.Tag(common.ErrServiceError, fmt.Errorf("embeddings: index %d out of range", d.Index))
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

func (c *Client) chat(ctx context.Context, body map[string]any) (string, error) {
	raw, err := llm.SendJSON(ctx, c.http, c.endpoint("/chat/completions"), body, c.headers(), c.logger)
	if err != nil {
		return "", err
	}
	var cc chatResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", common.Tag(common.ErrServiceError, fmt.Errorf("decode openai response: %w", err))
	}
	if len(cc.Choices) == 0 {
		return "", common.Tag(common.ErrServiceError, errors.New("no choices in openai response"))
	}
	return strings.TrimSpace(cc.Choices[0].Message.Content), nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + path
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
