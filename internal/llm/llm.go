package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dulakshi2002/Edu-Code/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// Suggestion is the assistant's proposed answer to a community question.
type Suggestion struct {
	Answer string `json:"answer"`
	Code   string `json:"code,omitempty"`
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// SuggestAnswer asks the model for an answer to a forum question. Replies
// already posted are passed along so the suggestion does not repeat them.
func (c *Client) SuggestAnswer(ctx context.Context, q model.ForumQuestion) (*Suggestion, error) {
	chatMsgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: buildSuggestSystemPrompt(q)},
		{Role: openai.ChatMessageRoleUser, Content: buildQuestionMessage(q)},
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: chatMsgs,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw)

	var s Suggestion
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}
	if strings.TrimSpace(s.Answer) == "" {
		return nil, fmt.Errorf("LLM returned an empty answer")
	}
	return &s, nil
}

func buildSuggestSystemPrompt(q model.ForumQuestion) string {
	var sb strings.Builder
	sb.WriteString("You are a programming tutor answering a student's question on a learning platform.\n\n")
	if len(q.ProgrammingLanguages) > 0 {
		sb.WriteString("LANGUAGES: " + strings.Join(q.ProgrammingLanguages, ", ") + "\n\n")
	}
	if len(q.Comments) > 0 {
		sb.WriteString("REPLIES ALREADY POSTED (do not repeat them):\n")
		for i, cm := range q.Comments {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, cm.Description))
			if cm.Code != "" {
				sb.WriteString("```\n" + cm.Code + "\n```\n")
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("INSTRUCTIONS:\n")
	sb.WriteString("- Explain the cause of the problem and how to fix it.\n")
	sb.WriteString("- Keep the explanation short and suitable for a beginner.\n")
	sb.WriteString("- Put corrected code, if any, in the code field without markdown fences.\n")
	sb.WriteString("\nRespond ONLY with a JSON object with these fields:\n")
	sb.WriteString(`{"answer": "<explanation>", "code": "<corrected code or empty string>"}`)
	sb.WriteString("\n")
	return sb.String()
}

func buildQuestionMessage(q model.ForumQuestion) string {
	var sb strings.Builder
	sb.WriteString("TITLE: " + q.Name + "\n\n")
	sb.WriteString(q.Description + "\n")
	if q.ErrorCode != "" {
		sb.WriteString("\nERROR OR CODE:\n" + q.ErrorCode + "\n")
	}
	if q.Notes != "" {
		sb.WriteString("\nNOTES:\n" + q.Notes + "\n")
	}
	return sb.String()
}
