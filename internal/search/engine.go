package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

const DefaultLimit = 10

// Query is one orchestration turn. Records is the projected catalog snapshot
// for this call; it is always passed explicitly, the engine holds no catalog
// state between calls.
type Query struct {
	Text        string
	ImagePath   string
	Preferences string
	Limit       int
	Records     []Record
	Prior       *Selection
}

// Response is the orchestrator outcome. Backend failures surface as
// Status "error" with a message; they are never propagated as panics or
// raw errors to the caller.
type Response struct {
	Status    string     `json:"status"`
	Results   []Record   `json:"results,omitempty"`
	Operation Operation  `json:"operation_performed,omitempty"`
	Selection *Selection `json:"selection,omitempty"`
	Message   string     `json:"message,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type Engine struct {
	gen    Generator
	logger *slog.Logger
}

func NewEngine(gen Generator, logger *slog.Logger) *Engine {
	return &Engine{gen: gen, logger: logger}
}

// Search runs one blocking orchestration turn: ingest the optional image,
// build the instruction payload, invoke the backend, parse its untrusted
// reply, and fold the result into the selection context.
func (e *Engine) Search(ctx context.Context, q Query) Response {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	req, err := e.buildRequest(q, limit)
	if err != nil {
		return Response{Status: StatusError, Message: err.Error()}
	}

	e.logger.Info("search started", "query", q.Text, "has_image", req.Image != nil, "limit", limit, "records", len(q.Records))

	raw, err := e.gen.Generate(ctx, *req)
	if err != nil {
		e.logger.Error("backend invocation failed", "error", err)
		return Response{Status: StatusError, Message: fmt.Sprintf("inference failed: %v", err)}
	}

	parsed, err := parseBackendResult(raw)
	if err != nil {
		e.logger.Error("backend returned unusable response", "error", err)
		return Response{Status: StatusError, Message: fmt.Sprintf("inference returned malformed response: %v", err)}
	}

	prior := Selection{}
	if q.Prior != nil {
		prior = *q.Prior
	}
	next := prior.Apply(parsed.Operation, parsed.Results)

	results := Truncate(next.Records(), limit)
	if len(next.Records()) > limit {
		e.logger.Debug("selection exceeds limit, truncating", "selected", len(next.Records()), "limit", limit)
	}

	e.logger.Info("search complete", "operation", parsed.Operation, "results", len(results))
	return Response{
		Status:    StatusSuccess,
		Results:   results,
		Operation: parsed.Operation,
		Selection: &next,
	}
}

// SearchStream builds the same request as Search but returns the backend's
// raw fragment stream. The stream is finite, single-consumer, and not
// restartable; the concatenated fragments satisfy the blocking output
// contract.
func (e *Engine) SearchStream(ctx context.Context, q Query) (<-chan Chunk, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	req, err := e.buildRequest(q, limit)
	if err != nil {
		return nil, err
	}

	e.logger.Info("search stream started", "query", q.Text, "has_image", req.Image != nil, "limit", limit)
	return e.gen.GenerateStream(ctx, *req)
}

// buildRequest ingests the optional image and assembles the prompt. Image
// ingestion failures degrade to text-only mode with a warning; the image
// channel is never required.
func (e *Engine) buildRequest(q Query, limit int) (*Request, error) {
	var image *ImageDescriptor
	if q.ImagePath != "" {
		desc, err := IngestImage(q.ImagePath)
		if err != nil {
			e.logger.Warn("image ingestion failed, degrading to text-only search", "error", err)
		} else {
			image = desc
		}
	}

	prompt, err := BuildPrompt(q.Text, q.Preferences, image != nil, limit, q.Records, q.Prior)
	if err != nil {
		return nil, err
	}

	return &Request{Instructions: prompt, Image: image}, nil
}

type backendResult struct {
	Results   []Record  `json:"results"`
	Operation Operation `json:"operation_performed"`
}

// parseBackendResult decodes the backend's reply defensively: models wrap
// JSON in markdown fences often enough that stripping them first is cheaper
// than failing the turn.
func parseBackendResult(raw string) (*backendResult, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("empty response")
	}

	var result backendResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if result.Operation == "" {
		result.Operation = OpNoChange
		if len(result.Results) > 0 {
			result.Operation = OpAdded
		}
	}
	return &result, nil
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
