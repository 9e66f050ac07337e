// Package tools provides the retrieval helpers (web search, knowledge-base
// retrieval, SQL query) that agents may invoke to enhance their input before
// calling the LLM. The implementations here are stand-ins that echo their
// invocation; real providers plug in behind the same interface.
package tools

import (
	"context"
	"fmt"
)

// Tool is a single retrieval helper invocable by name.
type Tool interface {
	Name() string
	Invoke(ctx context.Context, query string) (string, error)
}

// Manager resolves tools by name for agent use.
type Manager struct {
	tools map[string]Tool
}

// NewManager creates a manager holding the given tools.
func NewManager(ts ...Tool) *Manager {
	m := &Manager{tools: make(map[string]Tool, len(ts))}
	for _, t := range ts {
		m.tools[t.Name()] = t
	}
	return m
}

// NewMockManager creates a manager with the full mock tool set.
func NewMockManager() *Manager {
	return NewManager(WebSearch{}, RAG{}, SQL{})
}

// Invoke runs the named tool. Unknown tool names are an error; agents treat
// tool failures as non-fatal and proceed without the enhancement.
func (m *Manager) Invoke(ctx context.Context, name, query string) (string, error) {
	t, ok := m.tools[name]
	if !ok {
		return "", fmt.Errorf("unknown tool %q", name)
	}
	return t.Invoke(ctx, query)
}

// Names returns the registered tool names.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.tools))
	for name := range m.tools {
		names = append(names, name)
	}
	return names
}

// WebSearch is a mock web search tool.
type WebSearch struct{}

func (WebSearch) Name() string { return "websearch" }

func (WebSearch) Invoke(_ context.Context, query string) (string, error) {
	return fmt.Sprintf("web search results for %q", query), nil
}

// RAG is a mock retrieval-augmented-generation tool.
type RAG struct{}

func (RAG) Name() string { return "rag" }

func (RAG) Invoke(_ context.Context, query string) (string, error) {
	return fmt.Sprintf("knowledge base passages for %q", query), nil
}

// SQL is a mock SQL query tool.
type SQL struct{}

func (SQL) Name() string { return "sql" }

func (SQL) Invoke(_ context.Context, query string) (string, error) {
	return fmt.Sprintf("query results for %q", query), nil
}
