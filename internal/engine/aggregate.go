package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/deepmodel/agenthub/internal/model"
)

// resultSummaryLimit bounds the per-task digest excerpt length.
const resultSummaryLimit = 100

// Aggregate reduces all task responses of one plan execution into a single
// report. It is a pure function of its inputs aside from the report
// timestamp: identical responses and start time yield an identical result.
func Aggregate(sessionID string, responses []model.TaskResponse, start time.Time) *model.AggregatedResult {
	var completed, failed, timedOut int
	for _, resp := range responses {
		switch resp.Status {
		case model.StatusCompleted:
			completed++
		case model.StatusTimedOut:
			timedOut++
		default:
			failed++
		}
	}

	// An empty response list means nothing ran, which is a failure, not a
	// vacuous success.
	overall := model.OverallPartialSuccess
	switch {
	case len(responses) == 0 || completed == 0:
		overall = model.OverallFailed
	case completed == len(responses):
		overall = model.OverallCompleted
	}

	digests := make([]model.TaskDigest, 0, len(responses))
	for _, resp := range responses {
		digests = append(digests, model.TaskDigest{
			TaskID:        resp.TaskID,
			AgentType:     resp.AgentType,
			AgentName:     resp.AgentName,
			Status:        resp.Status,
			ExecutionTime: resp.ExecutionTime,
			ResultSummary: summarizeResult(resp),
			ErrorMessage:  resp.ErrorMessage,
		})
	}

	return &model.AggregatedResult{
		SessionID:     sessionID,
		OverallStatus: overall,
		ExecutionSummary: fmt.Sprintf("Executed %d tasks: %d completed, %d failed, %d timed out",
			len(responses), completed, failed, timedOut),
		TaskResults:        digests,
		FinalOutput:        finalOutput(responses),
		TotalExecutionTime: time.Since(start).Seconds(),
		Timestamp:          time.Now().UTC(),
	}
}

// finalOutput selects the user-facing text from the responses. Later phases
// take precedence over earlier ones because they had visibility into earlier
// results. Failures and timeouts are reported in a trailing section
// regardless of which branch produced the primary text.
func finalOutput(responses []model.TaskResponse) string {
	var out string
	switch {
	case hasCompleted(responses, model.AgentAggregation):
		out = aggregationOutput(responses)
	case hasCompleted(responses, model.AgentSummary):
		out = joinField(responses, model.AgentSummary, "summary")
	case hasCompleted(responses, model.AgentValidation):
		out = joinField(responses, model.AgentValidation, "validation_summary")
	case hasCompleted(responses, model.AgentAnalyst):
		out = joinField(responses, model.AgentAnalyst, "executive_summary")
	default:
		out = "No results generated"
	}

	var issues []string
	for _, resp := range responses {
		if resp.Status == model.StatusFailed || resp.Status == model.StatusTimedOut {
			issues = append(issues, fmt.Sprintf("- %s agent: %s", resp.AgentType, resp.ErrorMessage))
		}
	}
	if len(issues) > 0 {
		out += "\n\n## Issues Encountered\n" + strings.Join(issues, "\n")
	}
	return out
}

// aggregationOutput renders the first completed aggregation response: primary
// summary, then insights, recommendations, and a confidence percentage when
// present.
func aggregationOutput(responses []model.TaskResponse) string {
	var data map[string]any
	for _, resp := range responses {
		if resp.Status == model.StatusCompleted && resp.AgentType == model.AgentAggregation {
			data = resp.ResultData
			break
		}
	}

	var b strings.Builder
	b.WriteString(stringField(data, "final_summary"))

	if insights := listField(data, "key_insights"); len(insights) > 0 {
		b.WriteString("\n\n## Key Insights\n")
		for _, item := range insights {
			b.WriteString("- " + item + "\n")
		}
	}
	if recs := listField(data, "recommendations"); len(recs) > 0 {
		b.WriteString("\n## Recommendations\n")
		for _, item := range recs {
			b.WriteString("- " + item + "\n")
		}
	}
	if score, ok := floatField(data, "confidence_score"); ok {
		b.WriteString(fmt.Sprintf("\n## Confidence Score: %.1f%%\n", score*100))
	}
	return b.String()
}

// summarizeResult produces the short per-task digest line: error text first,
// then the richest known result field, then a generic placeholder.
func summarizeResult(resp model.TaskResponse) string {
	if resp.ErrorMessage != "" {
		return excerpt("Error: " + resp.ErrorMessage)
	}
	if len(resp.ResultData) == 0 {
		return "No result data"
	}
	if s := stringField(resp.ResultData, "summary"); s != "" {
		return excerpt("Summary: " + s)
	}
	if s := stringField(resp.ResultData, "executive_summary"); s != "" {
		return excerpt("Analysis: " + s)
	}
	if s := stringField(resp.ResultData, "final_summary"); s != "" {
		return excerpt("Summary: " + s)
	}
	if s := stringField(resp.ResultData, "overall_status"); s != "" {
		return "Validation: " + s
	}
	return "Result generated successfully"
}

func excerpt(s string) string {
	if len(s) <= resultSummaryLimit {
		return s
	}
	return s[:resultSummaryLimit] + "..."
}

func hasCompleted(responses []model.TaskResponse, agentType string) bool {
	for _, resp := range responses {
		if resp.Status == model.StatusCompleted && resp.AgentType == agentType {
			return true
		}
	}
	return false
}

// joinField newline-joins the given field across all completed responses of
// one agent type, in response order.
func joinField(responses []model.TaskResponse, agentType, field string) string {
	var parts []string
	for _, resp := range responses {
		if resp.Status != model.StatusCompleted || resp.AgentType != agentType {
			continue
		}
		if s := stringField(resp.ResultData, field); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

// listField reads a list of strings, tolerating the []any shape JSON
// decoding produces.
func listField(data map[string]any, key string) []string {
	switch v := data[key].(type) {
	case []string:
		return v
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
		return items
	default:
		return nil
	}
}

// floatField reads a numeric field, tolerating both float64 and int shapes.
func floatField(data map[string]any, key string) (float64, bool) {
	switch v := data[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
