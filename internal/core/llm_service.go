package core

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	chromem "github.com/philippgille/chromem-go"
	"google.golang.org/api/option"

	"github.com/alokm/hr-assistant/internal/logging"
)

const (
	defaultChatModelName      = "gemini-2.0-flash-exp"
	defaultEmbeddingModelName = "text-embedding-004"

	chatTemperature = 0.7
)

// systemInstruction is the fixed persona and tool-selection guidance shown
// to the model on every exchange.
const systemInstruction = `You are an advanced HR policy assistant with access to multiple tools. Your role is to:

1. Answer HR policy questions using the policy knowledge base
2. Provide current date and holiday information when asked
3. Help HR professionals with policy interpretation and compliance

Decision making:
- For questions about HR policies, procedures, leave rules, benefits, use the 'search_hr_policies' tool
- For questions about today's date or the current date, use the 'get_current_date' tool
- For questions about holidays, public holidays or the holiday list, use the 'check_holidays' tool
- For questions about whether today is a holiday, use the 'check_today_holiday' tool
- For questions about upcoming or next holidays, use the 'get_upcoming_holidays' tool

Guidelines:
- Always think step-by-step before choosing a tool
- Use the most specific tool for the query
- If a question requires multiple tools, use them sequentially
- If information is not available, clearly state that and suggest alternatives
- Cite specific policies when using information from the knowledge base

Be helpful, accurate, and professional in all interactions.`

// LLMService owns the Gemini client handle. It is constructed once at
// startup and shared by the agent and the embedding pipeline.
type LLMService struct {
	client *genai.Client
	log    *logging.Logger
}

// NewLLMService creates the Gemini client.
func NewLLMService(ctx context.Context, apiKey string, log *logging.Logger) (*LLMService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &LLMService{client: client, log: log.Sub("llm")}, nil
}

func (s *LLMService) Close() {
	if s.client == nil {
		return
	}
	if err := s.client.Close(); err != nil {
		s.log.Error().Err(err).Msg("error closing GenAI client")
	}
}

// Generate runs one reasoning step: system instruction, tool declarations,
// prior contents as chat history, and the given parts as the new message.
func (s *LLMService) Generate(ctx context.Context, decls []*genai.FunctionDeclaration, hist []*genai.Content, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	model := s.client.GenerativeModel(defaultChatModelName)

	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}
	temp := float32(chatTemperature)
	model.GenerationConfig = genai.GenerationConfig{Temperature: &temp}
	if len(decls) > 0 {
		model.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	session := model.StartChat()
	session.History = hist

	resp, err := session.SendMessage(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini SendMessage failed: %w", err)
	}
	return resp, nil
}

// Embed returns the embedding vector for the given text.
func (s *LLMService) Embed(ctx context.Context, text string) ([]float32, error) {
	em := s.client.EmbeddingModel(defaultEmbeddingModelName)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request failed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding data received from gemini")
	}
	return res.Embedding.Values, nil
}

// EmbeddingFunc adapts Embed to the chromem-go embedding signature.
func (s *LLMService) EmbeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return s.Embed(ctx, text)
	}
}
