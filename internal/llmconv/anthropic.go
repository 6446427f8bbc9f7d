package llmconv

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

// AnthropicConfig configures an AnthropicClient.
type AnthropicConfig struct {
	// APIKey is the Anthropic API authentication key (required).
	APIKey string
	// BaseURL overrides the default Anthropic API base URL (optional).
	BaseURL string
	// DefaultModel is used when ConversationOptions.Model is empty.
	DefaultModel string
	// MaxTokens bounds each turn's response. Default: 4096.
	MaxTokens int64
}

// perMillionPricing is a best-effort USD-per-million-token table used to
// estimate TotalCostUSD, since the streaming API reports token counts but
// not a dollar figure. Prices are approximate and only used for the running
// cost display; they are not an authoritative billing source.
var perMillionPricing = map[string][2]float64{
	"claude-opus-4-20250514":     {15.00, 75.00},
	"claude-sonnet-4-20250514":   {3.00, 15.00},
	"claude-3-5-sonnet-20241022": {3.00, 15.00},
	"claude-3-opus-20240229":     {15.00, 75.00},
	"claude-3-sonnet-20240229":   {3.00, 15.00},
	"claude-3-haiku-20240307":    {0.25, 1.25},
}

func estimateCostUSD(model string, usage *Usage) float64 {
	prices, ok := perMillionPricing[model]
	if !ok || usage == nil {
		return 0
	}
	in := float64(usage.InputTokens+usage.CacheReadTokens) / 1_000_000 * prices[0]
	out := float64(usage.OutputTokens) / 1_000_000 * prices[1]
	return in + out
}

// AnthropicClient is the real Client backing production sessions. It wraps
// the upstream SDK without reimplementing its tool-calling, retry, or
// vision machinery: a conversation here is a plain, single-writer
// text-in/text-out turn loop, which is all the Session Actor needs.
type AnthropicClient struct {
	client       anthropic.Client
	defaultModel string
	maxTokens    int64
}

// NewAnthropicClient constructs a Client against the Anthropic API.
func NewAnthropicClient(config AnthropicConfig) (*AnthropicClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("llmconv: anthropic API key is required")
	}
	if config.DefaultModel == "" {
		config.DefaultModel = "claude-sonnet-4-20250514"
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 4096
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if strings.TrimSpace(config.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &AnthropicClient{
		client:       anthropic.NewClient(opts...),
		defaultModel: config.DefaultModel,
		maxTokens:    config.MaxTokens,
	}, nil
}

func (c *AnthropicClient) NewConversation(ctx context.Context, opts ConversationOptions) (Conversation, error) {
	model := opts.Model
	if model == "" {
		model = c.defaultModel
	}
	return &anthropicConversation{
		client: c.client,
		model:  model,
		system: opts.SystemPrompt,
		maxTok: c.maxTokens,
	}, nil
}

// anthropicConversation holds the running message history for one session's
// lifetime. Only the owning Session Actor goroutine ever calls Query, but mu
// guards Close racing a final in-flight Query during shutdown.
type anthropicConversation struct {
	mu      sync.Mutex
	client  anthropic.Client
	model   string
	system  string
	maxTok  int64
	history []anthropic.MessageParam
	closed  bool
}

func (c *anthropicConversation) Query(ctx context.Context, text string) (<-chan Message, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, fmt.Errorf("llmconv: conversation closed")
	}
	c.history = append(c.history, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		Messages:  append([]anthropic.MessageParam(nil), c.history...),
		MaxTokens: c.maxTok,
	}
	if c.system != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: c.system}}
	}
	c.mu.Unlock()

	stream := c.client.Messages.NewStreaming(ctx, params)

	ch := make(chan Message, 4)
	go c.consumeStream(ctx, stream, ch)
	return ch, nil
}

func (c *anthropicConversation) consumeStream(ctx context.Context, stream *ssestream.Stream[anthropic.MessageStreamEventUnion], ch chan<- Message) {
	defer close(ch)

	var textBuilder strings.Builder
	var inputTokens, outputTokens, cacheCreation, cacheRead int64
	msgID := fmt.Sprintf("anthropic-%d", time.Now().UnixNano())

	send := func(m Message) bool {
		select {
		case <-ctx.Done():
			return false
		case ch <- m:
			return true
		}
	}

	for stream.Next() {
		event := stream.Current()
		switch event.Type {
		case "message_start":
			start := event.AsMessageStart()
			inputTokens = start.Message.Usage.InputTokens
			cacheCreation = start.Message.Usage.CacheCreationInputTokens
			cacheRead = start.Message.Usage.CacheReadInputTokens
			msgID = start.Message.ID

		case "content_block_delta":
			delta := event.AsContentBlockDelta().Delta
			if delta.Type == "text_delta" && delta.Text != "" {
				textBuilder.WriteString(delta.Text)
				if !send(Message{ID: msgID, Text: delta.Text}) {
					return
				}
			}

		case "message_delta":
			if usage := event.AsMessageDelta().Usage; usage.OutputTokens > 0 {
				outputTokens = usage.OutputTokens
			}

		case "message_stop":
			usage := &Usage{
				InputTokens:         inputTokens,
				OutputTokens:        outputTokens,
				CacheCreationTokens: cacheCreation,
				CacheReadTokens:     cacheRead,
			}
			c.mu.Lock()
			c.history = append(c.history, anthropic.NewAssistantMessage(anthropic.NewTextBlock(textBuilder.String())))
			c.mu.Unlock()
			send(Message{
				ID:    msgID,
				Usage: usage,
				Result: &Result{
					Subtype:      SubtypeSuccess,
					TotalCostUSD: estimateCostUSD(c.model, usage),
				},
			})
			return
		}
	}

	if err := stream.Err(); err != nil {
		send(Message{
			ID: msgID,
			Result: &Result{
				Subtype: SubtypeErrorDuringExecution,
				IsError: true,
			},
		})
	}
}

func (c *anthropicConversation) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
