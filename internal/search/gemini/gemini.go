package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ngelashvili/supra-backend/internal/search"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// request types mirror the Gemini generateContent API structure.
type request struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMIMEType string  `json:"responseMimeType"`
}

type response struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type Client struct {
	apiKey  string
	model   string
	client  *http.Client
	baseURL string
}

func NewClient(apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
		baseURL: defaultBaseURL,
	}
}

func buildPayload(req search.Request) ([]byte, error) {
	var parts []part
	if req.Image != nil {
		parts = append(parts, part{InlineData: &inlineData{
			MIMEType: req.Image.MIMEType,
			Data:     req.Image.Data,
		}})
	}
	parts = append(parts, part{Text: req.Instructions})

	body := request{
		Contents: []content{{Parts: parts}},
		GenerationConfig: generationConfig{
			Temperature:      0.1,
			ResponseMIMEType: "application/json",
		},
	}
	return json.Marshal(body)
}

func (c *Client) newHTTPRequest(ctx context.Context, endpoint string, payload []byte) (*http.Request, error) {
	url := fmt.Sprintf("%s/models/%s:%s?key=%s", c.baseURL, c.model, endpoint, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) Generate(ctx context.Context, req search.Request) (string, error) {
	payload, err := buildPayload(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := c.newHTTPRequest(ctx, "generateContent", payload)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to call gemini: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close gemini response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, errBody)
	}

	var respBody response
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	var text strings.Builder
	for _, cand := range respBody.Candidates {
		for _, p := range cand.Content.Parts {
			text.WriteString(p.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty gemini response")
	}
	return text.String(), nil
}

// GenerateStream calls the streamGenerateContent SSE endpoint and emits one
// Chunk per text fragment. It stops draining when ctx is cancelled; the
// transport-level request is simply abandoned, no cancel signal is sent to
// the backend.
func (c *Client) GenerateStream(ctx context.Context, req search.Request) (<-chan search.Chunk, error) {
	payload, err := buildPayload(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := c.newHTTPRequest(ctx, "streamGenerateContent", payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	q := httpReq.URL.Query()
	q.Set("alt", "sse")
	httpReq.URL.RawQuery = q.Encode()

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call gemini: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, errBody)
	}

	ch := make(chan search.Chunk, 16)

	go func() {
		defer close(ch)
		defer func() {
			if err := resp.Body.Close(); err != nil {
				slog.Error("failed to close gemini stream body", "error", err)
			}
		}()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			if ctx.Err() != nil {
				return
			}

			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			data := line[6:]

			var event response
			if err := json.Unmarshal([]byte(data), &event); err != nil {
				continue
			}

			for _, cand := range event.Candidates {
				for _, p := range cand.Content.Parts {
					if p.Text == "" {
						continue
					}
					select {
					case ch <- search.Chunk{Text: p.Text}:
					case <-ctx.Done():
						return
					}
				}
			}
		}

		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			ch <- search.Chunk{Err: fmt.Errorf("read gemini stream: %w", err)}
		}
	}()

	return ch, nil
}
