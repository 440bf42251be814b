package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"github.com/alokm/hr-assistant/internal/history"
	"github.com/alokm/hr-assistant/internal/logging"
	"github.com/alokm/hr-assistant/internal/tools"
)

// maxToolIterations caps how many reasoning rounds one exchange may take,
// so tool-call loops always terminate.
const maxToolIterations = 5

// exhaustedAnswer is returned when every round produced tool calls and the
// model never emitted final text.
const exhaustedAnswer = "I wasn't able to finish working through that question. Please try rephrasing it."

var (
	// ErrHistoryUnavailable marks a failure of the conversation store, which
	// the HTTP layer reports as service-unavailable.
	ErrHistoryUnavailable = errors.New("chat history service unavailable")

	// ErrEmptyResponse marks a reasoning response with no usable content.
	ErrEmptyResponse = errors.New("empty response from reasoning service")
)

// generator is the reasoning step. Implemented by LLMService; tests swap in
// a scripted fake.
type generator interface {
	Generate(ctx context.Context, decls []*genai.FunctionDeclaration, hist []*genai.Content, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// HistoryStore is the subset of the history store the agent needs.
type HistoryStore interface {
	Load(sessionID string) ([]history.Turn, error)
	Append(sessionID string, turn history.Turn) error
}

// Agent binds the reasoning service, the tool registry and the history
// store into a single request/response cycle with session isolation.
type Agent struct {
	llm      generator
	registry *tools.Registry
	store    HistoryStore
	log      *logging.Logger
}

func NewAgent(llm generator, registry *tools.Registry, store HistoryStore, log *logging.Logger) *Agent {
	return &Agent{
		llm:      llm,
		registry: registry,
		store:    store,
		log:      log.Sub("agent"),
	}
}

// Invoke turns a user utterance into a final answer and records the
// resulting turn pair under the session. Tool failures degrade to text fed
// back to the model; history and reasoning failures propagate.
func (a *Agent) Invoke(ctx context.Context, query, sessionID string) (string, error) {
	prior, err := a.store.Load(sessionID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
	}

	contents := historyToContents(prior)
	parts := []genai.Part{genai.Text(query)}
	decls := a.registry.Declarations()

	a.log.Info().
		Str("sessionId", sessionID).
		Int("historyLen", len(prior)).
		Msg("processing exchange")

	answer := ""
	lastText := ""
	for i := 0; i < maxToolIterations; i++ {
		resp, err := a.llm.Generate(ctx, decls, contents, parts...)
		if err != nil {
			return "", fmt.Errorf("reasoning step failed: %w", err)
		}

		content := candidateContent(resp)
		if content == nil {
			return "", ErrEmptyResponse
		}

		// The model turn (text and/or function calls) joins the context so
		// the next round sees what it asked for.
		contents = append(contents, &genai.Content{Role: "user", Parts: parts})
		contents = append(contents, content)

		if text := textOf(content); text != "" {
			answer = text
			lastText = text
		}

		calls := functionCalls(content)
		if len(calls) == 0 {
			break
		}

		a.log.Info().Int("toolCalls", len(calls)).Int("round", i+1).Msg("executing tool calls")

		// contents above aliases the current parts slice, so the next
		// round's responses go into a fresh one.
		parts = make([]genai.Part, 0, len(calls))
		for _, fc := range calls {
			out := a.registry.Dispatch(ctx, fc.Name, fc.Args)
			parts = append(parts, genai.FunctionResponse{
				Name:     fc.Name,
				Response: map[string]any{"output": out},
			})
		}
		answer = "" // a pending tool round supersedes interim text
	}

	if answer == "" {
		// Iteration cap reached mid-loop; answer with the best we have.
		a.log.Warn().Str("sessionId", sessionID).Msg("tool iteration cap reached without final text")
		answer = lastText
		if answer == "" {
			answer = exhaustedAnswer
		}
	}

	if err := a.appendTurnPair(sessionID, query, answer); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
	}
	return answer, nil
}

func (a *Agent) appendTurnPair(sessionID, query, answer string) error {
	if err := a.store.Append(sessionID, history.Turn{Role: history.RoleUser, Content: query}); err != nil {
		return err
	}
	return a.store.Append(sessionID, history.Turn{Role: history.RoleAssistant, Content: answer})
}

// historyToContents maps stored turns onto Gemini chat contents. The
// assistant role maps to the API's "model" role.
func historyToContents(turns []history.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == history.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(t.Content)},
		})
	}
	return contents
}

func candidateContent(resp *genai.GenerateContentResponse) *genai.Content {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return nil
	}
	if content.Role == "" {
		content.Role = "model"
	}
	return content
}

func textOf(content *genai.Content) string {
	var b strings.Builder
	for _, part := range content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}

func functionCalls(content *genai.Content) []genai.FunctionCall {
	var calls []genai.FunctionCall
	for _, part := range content.Parts {
		if fc, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, fc)
		}
	}
	return calls
}
