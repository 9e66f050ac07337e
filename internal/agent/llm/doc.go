// Package llm implements the built-in worker agents (summarizer, analyst,
// validator, aggregator) on top of an OpenAI-compatible chat backend. Each
// worker declares the result fields it must produce and runs through the
// shared retry invoker: structured JSON completion first, raw completion
// wrapped into the minimal valid shape as the in-attempt fallback.
package llm
