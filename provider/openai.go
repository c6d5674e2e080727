package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/socratic-labs/tutor/core/protocol"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// OpenAI is an adapter for OpenAI-compatible chat-completion endpoints.
// Outbound calls are rate limited client-side so a chatty caller cannot
// exhaust a vendor quota.
type OpenAI struct {
	name    string
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	limiter *rate.Limiter
}

// NewOpenAI creates an adapter for the given endpoint. A non-positive rps
// disables client-side rate limiting.
func NewOpenAI(name, baseURL, apiKey, model string, rps float64) *OpenAI {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &OpenAI{
		name:    name,
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{},
		limiter: limiter,
	}
}

func (o *OpenAI) Name() string {
	return o.name
}

func (o *OpenAI) Invoke(ctx context.Context, req Request) Response {
	start := time.Now()

	if err := o.limiter.Wait(ctx); err != nil {
		return o.fail(start, err)
	}

	msgs := make([]chatMessage, 0, len(req.History)+2)
	if req.SystemPrompt != "" {
		msgs = append(msgs, chatMessage{Role: string(protocol.RoleSystem), Content: req.SystemPrompt})
	}
	for _, turn := range req.History {
		msgs = append(msgs, chatMessage{Role: string(turn.Role), Content: turn.DisplayText()})
	}
	msgs = append(msgs, chatMessage{Role: string(protocol.RoleUser), Content: req.UserPrompt})

	body, err := json.Marshal(chatRequest{Model: o.model, Messages: msgs})
	if err != nil {
		return o.fail(start, err)
	}

	url := fmt.Sprintf("%s/chat/completions", o.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return o.fail(start, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return o.fail(start, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return o.fail(start, fmt.Errorf("endpoint returned status %d", resp.StatusCode))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return o.fail(start, err)
	}
	if len(decoded.Choices) == 0 || decoded.Choices[0].Message.Content == "" {
		return o.fail(start, errors.New("endpoint returned no completion"))
	}

	return Response{
		Text:    decoded.Choices[0].Message.Content,
		Latency: time.Since(start),
	}
}

func (o *OpenAI) fail(start time.Time, err error) Response {
	kind := ErrKindUnavailable
	if errors.Is(err, context.DeadlineExceeded) {
		kind = ErrKindTimeout
	}
	return Response{
		Latency: time.Since(start),
		Err:     &ErrorInfo{Kind: kind, Message: err.Error()},
	}
}
