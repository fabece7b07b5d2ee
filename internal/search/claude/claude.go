package claude

import (
	"context"
	"encoding/base64"
	"fmt"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/ngelashvili/supra-backend/internal/search"
)

// maxTokens leaves headroom for a full limit-sized result set plus the JSON
// envelope.
const maxTokens = 4096

type Client struct {
	client *anthropic.Client
	model  string
}

// NewClient wraps the Anthropic Messages API as a search.Generator. Extra
// options (base URL, HTTP client) pass through to the underlying client.
func NewClient(apiKey, model string, opts ...anthropic.ClientOption) *Client {
	return &Client{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

func (c *Client) buildRequest(req search.Request) (anthropic.MessagesRequest, error) {
	var content []anthropic.MessageContent
	if req.Image != nil {
		decoded, err := base64.StdEncoding.DecodeString(req.Image.Data)
		if err != nil {
			return anthropic.MessagesRequest{}, fmt.Errorf("invalid image data: %w", err)
		}
		content = append(content, anthropic.NewImageMessageContent(
			anthropic.NewMessageContentSource(
				anthropic.MessagesContentSourceTypeBase64,
				req.Image.MIMEType,
				decoded,
			),
		))
	}
	content = append(content, anthropic.NewTextMessageContent(req.Instructions))

	temperature := float32(0.1)
	return anthropic.MessagesRequest{
		Model:       anthropic.Model(c.model),
		MaxTokens:   maxTokens,
		Temperature: &temperature,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: content},
		},
	}, nil
}

func (c *Client) Generate(ctx context.Context, req search.Request) (string, error) {
	msgReq, err := c.buildRequest(req)
	if err != nil {
		return "", err
	}

	resp, err := c.client.CreateMessages(ctx, msgReq)
	if err != nil {
		return "", fmt.Errorf("failed to call claude: %w", err)
	}

	for _, block := range resp.Content {
		if text := block.GetText(); text != "" {
			return text, nil
		}
	}
	return "", fmt.Errorf("empty claude response")
}

func (c *Client) GenerateStream(ctx context.Context, req search.Request) (<-chan search.Chunk, error) {
	msgReq, err := c.buildRequest(req)
	if err != nil {
		return nil, err
	}

	ch := make(chan search.Chunk, 16)

	go func() {
		defer close(ch)

		_, err := c.client.CreateMessagesStream(ctx, anthropic.MessagesStreamRequest{
			MessagesRequest: msgReq,
			OnContentBlockDelta: func(data anthropic.MessagesEventContentBlockDeltaData) {
				text := data.Delta.GetText()
				if text == "" {
					return
				}
				select {
				case ch <- search.Chunk{Text: text}:
				case <-ctx.Done():
				}
			},
		})
		if err != nil && ctx.Err() == nil {
			ch <- search.Chunk{Err: fmt.Errorf("claude stream failed: %w", err)}
		}
	}()

	return ch, nil
}
