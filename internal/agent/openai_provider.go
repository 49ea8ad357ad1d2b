package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sirupsen/logrus"
)

// OpenAIProvider adapts Provider onto the OpenAI chat-completions API:
// it builds the message list, issues the completion, and extracts any
// tool calls into this package's plain-text Message/Completion types and
// mcp.Tool definitions.
type OpenAIProvider struct {
	client openai.Client
	model  string
	log    *logrus.Entry
}

// NewOpenAIProvider builds a Provider backed by the OpenAI API.
func NewOpenAIProvider(apiKey, model string, log *logrus.Entry) *OpenAIProvider {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIProvider{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		log:    log,
	}
}

// Complete implements Provider.
func (p *OpenAIProvider) Complete(ctx context.Context, history []Message, tools []mcp.Tool) (Completion, error) {
	params := openai.ChatCompletionNewParams{Model: openai.ChatModel(p.model)}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case "assistant":
			messages = append(messages, openai.AssistantMessage(m.Content))
		case "tool":
			messages = append(messages, openai.UserMessage(m.Content))
		case "system":
			messages = append(messages, openai.SystemMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}
	params.Messages = messages

	if len(tools) > 0 {
		var toolParams []openai.ChatCompletionToolUnionParam
		for _, t := range tools {
			toolParams = append(toolParams, openai.ChatCompletionToolUnionParam{
				OfFunction: &openai.ChatCompletionFunctionToolParam{
					Function: openai.FunctionDefinitionParam{
						Name:        t.Name,
						Description: openai.String(t.Description),
						Parameters:  openai.FunctionParameters(toolParameters(t)),
					},
				},
			})
		}
		params.Tools = toolParams
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Completion{}, err
	}
	if len(completion.Choices) == 0 {
		return Completion{}, fmt.Errorf("no response from openai")
	}

	choice := completion.Choices[0]
	out := Completion{Text: choice.Message.Content}
	for _, tc := range choice.Message.ToolCalls {
		var args map[string]any
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		out.ToolCalls = append(out.ToolCalls, ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: args})
	}
	return out, nil
}

// ScopeCheck asks a single yes/no classification question, used by the
// scope filter when the breaker is closed.
func (p *OpenAIProvider) ScopeCheck(ctx context.Context, text string) (bool, error) {
	prompt := fmt.Sprintf("Answer only SIM or NAO. Is this message about reminders, lists, or personal-organizer tasks?\n\n%s", text)
	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	})
	if err != nil {
		return false, err
	}
	if len(completion.Choices) == 0 {
		return false, fmt.Errorf("no response from openai")
	}
	return ParseScopeVerdict(completion.Choices[0].Message.Content), nil
}

// toolParameters marshals an mcp.Tool's input schema into the plain
// map[string]any the OpenAI function-calling API expects.
func toolParameters(t mcp.Tool) map[string]any {
	data, err := json.Marshal(t.InputSchema)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{"type": "object"}
	}
	return m
}
