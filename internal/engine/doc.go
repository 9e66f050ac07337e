// Package engine orchestrates plan execution: tasks are dispatched to
// registered agents phase by phase, task outcomes stream to subscribers as
// events, and all responses reduce into a single aggregated report.
//
// Phases run sequentially (worker, validation, summary); tasks within a phase
// run concurrently. Results of earlier phases are injected into later-phase
// task contexts before dispatch. Persistence is a side-channel: store failures
// are logged and never abort orchestration.
package engine
