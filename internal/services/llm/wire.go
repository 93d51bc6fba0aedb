package llm

import (
	"fmt"
	"strings"

	"reelforge/internal/services/httpretry"
)

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func newJSONRequest(model string, temperature float64, system, user string) chatRequest {
	return chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    temperature,
		ResponseFormat: responseFormat{Type: "json_object"},
	}
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type chatChoice struct {
	FinishReason string `json:"finish_reason"`
	Message      struct {
		Content   string `json:"content"`
		Refusal   string `json:"refusal"`
		ToolCalls []struct {
			Function struct {
				Name      string `json:"name"`
				Arguments string `json:"arguments"`
			} `json:"function"`
		} `json:"tool_calls"`
	} `json:"message"`
}

// emptyReplyError is a 2xx response without usable content. Providers return
// these under load, so they count as retryable.
type emptyReplyError struct {
	op           string
	finishReason string
	snippet      string
}

func (e *emptyReplyError) Error() string {
	return fmt.Sprintf("%s: empty reply (finish_reason=%q, body=%s)", e.op, e.finishReason, e.snippet)
}

func (e *emptyReplyError) Retryable() bool { return true }

// content returns the first non-empty message body, falling back to tool call
// arguments for models that answer JSON mode through a function call.
func (r chatResponse) content(op string, raw []byte) (string, error) {
	finish := ""
	for _, choice := range r.Choices {
		msg := choice.Message
		if text := strings.TrimSpace(msg.Content); text != "" {
			return text, nil
		}
		for _, call := range msg.ToolCalls {
			if args := strings.TrimSpace(call.Function.Arguments); args != "" {
				return args, nil
			}
		}
		if refusal := strings.TrimSpace(msg.Refusal); refusal != "" {
			return "", fmt.Errorf("%s: %w: %s", op, ErrRefused, refusal)
		}
		if finish == "" {
			finish = choice.FinishReason
		}
	}
	return "", &emptyReplyError{op: op, finishReason: finish, snippet: httpretry.Snippet(string(raw))}
}
