package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

type AIService struct {
	client *openai.Client
}

// GeneratedTask is a task draft extracted from free text.
type GeneratedTask struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     *string `json:"due_date"`
	DateOnly    bool    `json:"is_date_only"`
	Priority    string  `json:"priority"`
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
	}
}

const draftPrompt = `You extract concrete tasks from the text below.

Current local time: %s

Text:
%s

Reply with a JSON array of tasks in this shape:
[
  {
    "title": "short task title",
    "description": "details, or an empty string",
    "due_date": "YYYY-MM-DD for a day, YYYY-MM-DDTHH:MM for a time, or null",
    "priority": "High, Medium, Low, or an empty string"
  }
]

Rules:
- Return [] when the text contains no tasks
- Resolve relative expressions such as "tomorrow" or "next Friday" against the current local time
- Use a bare date unless the text names a time of day
- Return only JSON, without explanations or code fences`

// GenerateTasksFromText analyzes text and extracts task drafts using OpenAI
func (s *AIService) GenerateTasksFromText(ctx context.Context, text string, now time.Time) ([]GeneratedTask, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	prompt := fmt.Sprintf(draftPrompt, now.Format("2006-01-02 15:04 (Mon) MST"), text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return parseGeneratedTasks(resp.Choices[0].Message.Content)
}

// parseGeneratedTasks tolerates a surrounding markdown code fence.
func parseGeneratedTasks(content string) ([]GeneratedTask, error) {
	body := strings.TrimSpace(content)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")

	var tasks []GeneratedTask
	if err := json.Unmarshal([]byte(strings.TrimSpace(body)), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}
	return tasks, nil
}
