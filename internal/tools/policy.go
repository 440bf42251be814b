package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"github.com/alokm/hr-assistant/internal/vectorstore"
)

// NoContextFound is the sentinel returned when retrieval yields nothing.
const NoContextFound = "No context found."

// defaultRetrievalK is the number of chunks retrieved per policy search.
const defaultRetrievalK = 3

// Retriever is the similarity-search dependency of the policy tool.
// Satisfied by vectorstore.Store.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]vectorstore.Result, error)
}

// PolicySearchTool answers policy questions from the vector index.
type PolicySearchTool struct {
	retriever Retriever
	k         int
}

// NewPolicySearchTool creates the policy search tool. k <= 0 selects the
// default of 3 chunks.
func NewPolicySearchTool(retriever Retriever, k int) *PolicySearchTool {
	if k <= 0 {
		k = defaultRetrievalK
	}
	return &PolicySearchTool{retriever: retriever, k: k}
}

func (t *PolicySearchTool) Name() string { return "search_hr_policies" }

func (t *PolicySearchTool) Description() string {
	return "Search the HR policy knowledge base for information about company policies, leave policies, " +
		"benefits, procedures, and guidelines. Use this when the user asks about HR policies, leave rules, " +
		"company procedures, or any policy-related questions."
}

func (t *PolicySearchTool) Call(ctx context.Context, input string) (string, error) {
	in := parseInput(input)
	if in.Query == "" {
		return "", fmt.Errorf("policy search requires a query")
	}

	k := t.k
	if in.K > 0 {
		k = in.K
	}

	results, err := t.retriever.Search(ctx, in.Query, k)
	if err != nil {
		// Degrade to a descriptive string so the exchange survives.
		return fmt.Sprintf("Error searching policies: %v", err), nil
	}
	if len(results) == 0 {
		return NoContextFound, nil
	}

	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Content)
	}
	return strings.Join(texts, "\n\n"), nil
}

func (t *PolicySearchTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"query": {Type: genai.TypeString, Description: "The policy question to search for."},
			},
			Required: []string{"query"},
		},
	}
}
