package tools

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTool struct {
	name string
	out  string
	err  error
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub" }
func (s *stubTool) Call(_ context.Context, _ string) (string, error) {
	return s.out, s.err
}
func (s *stubTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{Name: s.name, Description: "stub"}
}

func TestRegistryDispatch(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "echo", out: "hello"})

	out := r.Dispatch(context.Background(), "echo", map[string]any{"query": "hi"})
	assert.Equal(t, "hello", out)
}

func TestRegistryDispatchUnknownTool(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "echo", out: "hello"})

	out := r.Dispatch(context.Background(), "nope", nil)
	assert.Contains(t, out, `unknown tool "nope"`)
	assert.Contains(t, out, "echo", "lists available tools")
}

func TestRegistryDispatchToolErrorDegradesToString(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "boom", err: errors.New("kaput")})

	out := r.Dispatch(context.Background(), "boom", nil)
	assert.Contains(t, out, "Error running boom")
	assert.Contains(t, out, "kaput")
}

func TestRegistryNamesAreUnique(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "dup", out: "first"})
	r.Register(&stubTool{name: "dup", out: "second"})

	require.Len(t, r.List(), 1)
	assert.Equal(t, "second", r.Dispatch(context.Background(), "dup", nil))
}

func TestRegistryDeclarationsPreserveOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "a"})
	r.Register(&stubTool{name: "b"})
	r.Register(&stubTool{name: "c"})

	decls := r.Declarations()
	require.Len(t, decls, 3)
	assert.Equal(t, "a", decls[0].Name)
	assert.Equal(t, "b", decls[1].Name)
	assert.Equal(t, "c", decls[2].Name)
}

func TestDateToolFormat(t *testing.T) {
	tool := NewDateTool()
	tool.now = func() time.Time { return time.Date(2024, time.March, 8, 12, 0, 0, 0, time.UTC) }

	out, err := tool.Call(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-08 (Friday, March 8, 2024)", out)
}

func TestDateToolContainsISODate(t *testing.T) {
	out, err := NewDateTool().Call(context.Background(), "{}")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \(`), out)
	assert.Contains(t, out, time.Now().Format("2006-01-02"))
}
