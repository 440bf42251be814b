package tools

import (
	"context"
	"time"

	"github.com/google/generative-ai-go/genai"
)

// dateLayout renders e.g. "2024-03-08 (Friday, March 8, 2024)".
const dateLayout = "2006-01-02 (Monday, January 2, 2006)"

// DateTool reports the current date. now is injectable for tests.
type DateTool struct {
	now func() time.Time
}

func NewDateTool() *DateTool {
	return &DateTool{now: time.Now}
}

func (t *DateTool) Name() string { return "get_current_date" }

func (t *DateTool) Description() string {
	return "Returns the current date. Use this when the user asks about today's date or what day it is."
}

func (t *DateTool) Call(_ context.Context, _ string) (string, error) {
	return t.now().Format(dateLayout), nil
}

func (t *DateTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"query": {Type: genai.TypeString, Description: "Ignored; present for tool-call compatibility."},
			},
		},
	}
}
