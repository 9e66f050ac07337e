// Package agent defines the common interface that all worker agents must
// implement, the capability registry that resolves open agent-type tags to
// registered agents, and the retry invoker that drives an agent's structured
// and raw output paths.
package agent
