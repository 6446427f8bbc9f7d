package llmconv

import (
	"context"
	"fmt"
)

// FakeClient is an in-memory Client for tests: each conversation replies to
// every Query with a fixed canned response and a success Result, without
// touching any network.
type FakeClient struct {
	// Reply is returned as the assistant text for every turn. If empty,
	// the reply echoes the input text.
	Reply string
	// CostPerTurn is the cumulative total_cost_usd reported on each turn's
	// Result (simulating an upstream that reports a running total).
	CostPerTurn float64
	// FailNextQuery, if set, causes the next Query call to return this
	// error instead of starting a stream.
	FailNextQuery error

	turns int
}

func (c *FakeClient) NewConversation(ctx context.Context, opts ConversationOptions) (Conversation, error) {
	return &fakeConversation{client: c, opts: opts}, nil
}

type fakeConversation struct {
	client *FakeClient
	opts   ConversationOptions
	closed bool
}

func (c *fakeConversation) Query(ctx context.Context, text string) (<-chan Message, error) {
	if c.client.FailNextQuery != nil {
		err := c.client.FailNextQuery
		c.client.FailNextQuery = nil
		return nil, err
	}

	reply := c.client.Reply
	if reply == "" {
		reply = "echo: " + text
	}

	c.client.turns++

	ch := make(chan Message, 2)
	go func() {
		defer close(ch)
		msgID := fmt.Sprintf("fake-%d", c.client.turns)
		select {
		case <-ctx.Done():
			return
		case ch <- Message{
			ID:   msgID,
			Text: reply,
			Usage: &Usage{
				InputTokens:  int64(len(text)),
				OutputTokens: int64(len(reply)),
			},
		}:
		}
		select {
		case <-ctx.Done():
		case ch <- Message{
			ID: msgID,
			Result: &Result{
				Subtype:      SubtypeSuccess,
				TotalCostUSD: c.client.CostPerTurn,
			},
		}:
		}
	}()
	return ch, nil
}

func (c *fakeConversation) Close() error {
	c.closed = true
	return nil
}
