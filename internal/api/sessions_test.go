package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deepmodel/agenthub/internal/model"
	"github.com/deepmodel/agenthub/internal/store"
)

// runProcess executes a synchronous process call and returns the session ID.
func runProcess(t *testing.T, ts *httptest.Server, input string) string {
	t.Helper()
	resp := postProcess(t, ts, "/v1/process", `{"input": "`+input+`"}`)
	defer resp.Body.Close()

	var body processResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode process response: %v", err)
	}
	return body.SessionID
}

func TestGetSession(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	id := runProcess(t, ts, "summarize this document")

	resp, err := http.Get(ts.URL + "/v1/sessions/" + id)
	if err != nil {
		t.Fatalf("GET session: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var sess store.Session
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if sess.ID != id {
		t.Errorf("session ID = %q, want %q", sess.ID, id)
	}
	if sess.UserInput != "summarize this document" {
		t.Errorf("user_input = %q, want original input", sess.UserInput)
	}
	if sess.Status != model.OverallCompleted {
		t.Errorf("status = %q, want %q", sess.Status, model.OverallCompleted)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/sessions/nonexistent")
	if err != nil {
		t.Fatalf("GET session: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestListSessionTasks(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	id := runProcess(t, ts, "analyze the market data and verify the findings")

	resp, err := http.Get(ts.URL + "/v1/sessions/" + id + "/tasks")
	if err != nil {
		t.Fatalf("GET tasks: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body listTasksResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode tasks: %v", err)
	}
	if body.SessionID != id {
		t.Errorf("session_id = %q, want %q", body.SessionID, id)
	}
	if len(body.Tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(body.Tasks))
	}
	for _, task := range body.Tasks {
		if task.Status != model.StatusCompleted {
			t.Errorf("task %s status = %q, want %q", task.TaskID, task.Status, model.StatusCompleted)
		}
	}
}

func TestListSessionTasksNotFound(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/sessions/nonexistent/tasks")
	if err != nil {
		t.Fatalf("GET tasks: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
