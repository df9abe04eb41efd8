package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/acretu/smart-librarian/internal/core/domain"
)

type ChatModel struct {
	client *Client
}

func NewChatModel(client *Client) *ChatModel {
	return &ChatModel{client: client}
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatMessagePayload struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
}

// Complete runs one chat-completions exchange. Tool calls proposed by
// the model are surfaced to the caller; this adapter never executes
// them itself.
func (c *ChatModel) Complete(ctx context.Context, messages []domain.ChatMessage, tools []domain.ToolDefinition) (domain.ChatTurn, error) {
	payloadMessages := make([]chatMessagePayload, 0, len(messages))
	for _, msg := range messages {
		payload := chatMessagePayload{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		for _, call := range msg.ToolCalls {
			toolCall := chatToolCall{ID: call.ID, Type: "function"}
			toolCall.Function.Name = call.Name
			toolCall.Function.Arguments = call.Arguments
			payload.ToolCalls = append(payload.ToolCalls, toolCall)
		}
		payloadMessages = append(payloadMessages, payload)
	}

	request := map[string]any{
		"model":    c.client.chatModel,
		"messages": payloadMessages,
	}
	if len(tools) > 0 {
		toolPayloads := make([]map[string]any, 0, len(tools))
		for _, tool := range tools {
			toolPayloads = append(toolPayloads, map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":        tool.Name,
					"description": tool.Description,
					"parameters":  json.RawMessage(tool.Parameters),
				},
			})
		}
		request["tools"] = toolPayloads
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content   string         `json:"content"`
				ToolCalls []chatToolCall `json:"tool_calls"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.client.postJSON(ctx, "/v1/chat/completions", request, &response, "chat"); err != nil {
		return domain.ChatTurn{}, err
	}
	if len(response.Choices) == 0 {
		return domain.ChatTurn{}, fmt.Errorf("chat: response contains no choices")
	}

	message := response.Choices[0].Message
	turn := domain.ChatTurn{Text: message.Content}
	for _, call := range message.ToolCalls {
		turn.ToolCalls = append(turn.ToolCalls, domain.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return turn, nil
}
