package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/deepmodel/agenthub/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func makeTestSession() *Session {
	now := time.Now().UTC().Truncate(time.Second)
	return &Session{
		ID:              model.NewID(),
		UserInput:       "analyze market trends",
		DetectedIntents: []string{"data_analysis", "market_analysis"},
		Status:          "planning",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func makeTestTask(sessionID string) *TaskRecord {
	now := time.Now().UTC().Truncate(time.Second)
	return &TaskRecord{
		TaskID:    model.NewID(),
		SessionID: sessionID,
		AgentType: model.AgentAnalyst,
		AgentName: "Analyst Agent",
		Status:    model.StatusPending,
		InputData: "analyze market trends",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateAndGetSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sess := makeTestSession()

	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.UserInput != sess.UserInput {
		t.Errorf("UserInput = %q, want %q", got.UserInput, sess.UserInput)
	}
	if len(got.DetectedIntents) != 2 || got.DetectedIntents[0] != "data_analysis" {
		t.Errorf("DetectedIntents = %v, want %v", got.DetectedIntents, sess.DetectedIntents)
	}
	if got.Status != "planning" {
		t.Errorf("Status = %q, want %q", got.Status, "planning")
	}
}

func TestGetSessionNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetSession(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUpdateSessionStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sess := makeTestSession()

	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := s.UpdateSessionStatus(ctx, sess.ID, "completed"); err != nil {
		t.Fatalf("UpdateSessionStatus: %v", err)
	}

	got, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Status != "completed" {
		t.Errorf("Status = %q, want %q", got.Status, "completed")
	}
}

func TestCreateAndGetTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task := makeTestTask("session-1")

	if err := s.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	got, err := s.GetTask(ctx, task.TaskID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.AgentType != model.AgentAnalyst {
		t.Errorf("AgentType = %q, want %q", got.AgentType, model.AgentAnalyst)
	}
	if got.Status != model.StatusPending {
		t.Errorf("Status = %q, want %q", got.Status, model.StatusPending)
	}
	if got.Result != nil {
		t.Errorf("Result = %v, want nil for fresh task", got.Result)
	}
}

func TestUpdateTaskStatusLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task := makeTestTask("session-1")

	if err := s.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if err := s.UpdateTaskStatus(ctx, task.TaskID, model.StatusRunning, TaskUpdate{}); err != nil {
		t.Fatalf("UpdateTaskStatus to running: %v", err)
	}
	upd := TaskUpdate{
		Result:        map[string]any{"executive_summary": "growth is strong"},
		ExecutionTime: 1.25,
	}
	if err := s.UpdateTaskStatus(ctx, task.TaskID, model.StatusCompleted, upd); err != nil {
		t.Fatalf("UpdateTaskStatus to completed: %v", err)
	}

	got, err := s.GetTask(ctx, task.TaskID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Status != model.StatusCompleted {
		t.Errorf("Status = %q, want %q", got.Status, model.StatusCompleted)
	}
	if got.Result["executive_summary"] != "growth is strong" {
		t.Errorf("Result = %v, missing executive_summary", got.Result)
	}
	if got.ExecutionTime != 1.25 {
		t.Errorf("ExecutionTime = %v, want 1.25", got.ExecutionTime)
	}
}

func TestUpdateTaskStatusInvalidTransition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task := makeTestTask("session-1")

	if err := s.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if err := s.UpdateTaskStatus(ctx, task.TaskID, model.StatusRunning, TaskUpdate{}); err != nil {
		t.Fatalf("UpdateTaskStatus to running: %v", err)
	}
	if err := s.UpdateTaskStatus(ctx, task.TaskID, model.StatusFailed, TaskUpdate{ErrorMessage: "boom"}); err != nil {
		t.Fatalf("UpdateTaskStatus to failed: %v", err)
	}

	// Terminal status is final.
	err := s.UpdateTaskStatus(ctx, task.TaskID, model.StatusCompleted, TaskUpdate{})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("error = %v, want ErrInvalidTransition", err)
	}
}

func TestUpdateTaskStatusNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateTaskStatus(context.Background(), "missing", model.StatusRunning, TaskUpdate{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestListSessionTasks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	ids := make([]string, 3)
	for i := 0; i < 3; i++ {
		task := makeTestTask("session-1")
		task.CreatedAt = base.Add(time.Duration(i) * time.Second)
		ids[i] = task.TaskID
		if err := s.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask[%d]: %v", i, err)
		}
	}
	other := makeTestTask("session-2")
	if err := s.CreateTask(ctx, other); err != nil {
		t.Fatalf("CreateTask other session: %v", err)
	}

	tasks, err := s.ListSessionTasks(ctx, "session-1")
	if err != nil {
		t.Fatalf("ListSessionTasks: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(tasks))
	}
	for i, task := range tasks {
		if task.TaskID != ids[i] {
			t.Errorf("tasks[%d].TaskID = %q, want %q (creation order)", i, task.TaskID, ids[i])
		}
	}
}

func TestGetTaskStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	setup := []struct {
		agentType string
		status    string
		execTime  float64
	}{
		{model.AgentAnalyst, model.StatusCompleted, 2.0},
		{model.AgentSummary, model.StatusCompleted, 4.0},
		{model.AgentValidation, model.StatusFailed, 0},
	}
	for i, tc := range setup {
		task := makeTestTask("session-1")
		task.AgentType = tc.agentType
		if err := s.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask[%d]: %v", i, err)
		}
		if err := s.UpdateTaskStatus(ctx, task.TaskID, model.StatusRunning, TaskUpdate{}); err != nil {
			t.Fatalf("to running[%d]: %v", i, err)
		}
		upd := TaskUpdate{ExecutionTime: tc.execTime}
		if err := s.UpdateTaskStatus(ctx, task.TaskID, tc.status, upd); err != nil {
			t.Fatalf("to terminal[%d]: %v", i, err)
		}
	}

	stats, err := s.GetTaskStats(ctx)
	if err != nil {
		t.Fatalf("GetTaskStats: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("Total = %d, want 3", stats.Total)
	}
	if stats.CountByStatus[model.StatusCompleted] != 2 {
		t.Errorf("completed count = %d, want 2", stats.CountByStatus[model.StatusCompleted])
	}
	if stats.CountByAgentType[model.AgentAnalyst] != 1 {
		t.Errorf("analyst count = %d, want 1", stats.CountByAgentType[model.AgentAnalyst])
	}
	if stats.AvgExecutionTime != 3.0 {
		t.Errorf("AvgExecutionTime = %v, want 3.0", stats.AvgExecutionTime)
	}
}

func TestGetTaskStatsEmpty(t *testing.T) {
	s := newTestStore(t)

	stats, err := s.GetTaskStats(context.Background())
	if err != nil {
		t.Fatalf("GetTaskStats: %v", err)
	}
	if stats.Total != 0 {
		t.Errorf("Total = %d, want 0", stats.Total)
	}
	if stats.AvgExecutionTime != 0 {
		t.Errorf("AvgExecutionTime = %v, want 0", stats.AvgExecutionTime)
	}
}
