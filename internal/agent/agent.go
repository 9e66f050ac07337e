package agent

import "context"

// Agent is the interface that all worker agents must implement. Each agent
// kind (summarizer, analyst, validator, aggregator) provides its own
// implementation backed by an LLM or any other content producer.
type Agent interface {
	// Run executes one unit of work. The context carries deadlines and
	// cancellation signals for timeout enforcement. The returned map is
	// opaque to the engine; its shape is a contract between the agent and
	// the aggregation layer.
	Run(ctx context.Context, input string, taskContext map[string]any) (map[string]any, error)

	// Info reports the agent's type tag, display name, and capabilities.
	Info() Info
}

// Info describes a registered agent, mirroring the agent cards the planner
// presents to the LLM when assigning tasks.
type Info struct {
	Type         string   `json:"type"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities,omitempty"`
}
