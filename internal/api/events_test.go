package api

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/deepmodel/agenthub/internal/engine"
	"github.com/deepmodel/agenthub/internal/model"
	"github.com/deepmodel/agenthub/internal/store"
)

func createPlanningSession(t *testing.T, srv *Server, id string) {
	t.Helper()
	now := time.Now().UTC()
	err := srv.store.CreateSession(context.Background(), &store.Session{
		ID:              id,
		UserInput:       "analyze",
		DetectedIntents: []string{"data_analysis"},
		Status:          "planning",
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
}

func TestStreamEventsNotFound(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/sessions/nonexistent/events")
	if err != nil {
		t.Fatalf("GET events: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestStreamEventsSettledSessionEmptyStream(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	id := runProcess(t, ts, "summarize this document")

	resp, err := http.Get(ts.URL + "/v1/sessions/" + id + "/events")
	if err != nil {
		t.Fatalf("GET events: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	// Settled session: the stream ends immediately with no events.
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "data:") {
			t.Errorf("unexpected event line %q for settled session", scanner.Text())
		}
	}
}

func TestStreamEventsDeliversTaskEvents(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	createPlanningSession(t, srv, "s-live")

	// Publish after the client has had time to subscribe, then close the
	// topic so the handler sends its done event and returns.
	go func() {
		time.Sleep(250 * time.Millisecond)
		srv.engine.Broker().Publish("s-live", engine.TaskEvent{
			TaskID:    "t1",
			AgentType: model.AgentAnalyst,
			Status:    model.StatusRunning,
			Timestamp: time.Now().UTC(),
		})
		srv.engine.Broker().Publish("s-live", engine.TaskEvent{
			TaskID:    "t1",
			AgentType: model.AgentAnalyst,
			Status:    model.StatusCompleted,
			Timestamp: time.Now().UTC(),
		})
		srv.engine.Broker().Close("s-live")
	}()

	resp, err := http.Get(ts.URL + "/v1/sessions/s-live/events")
	if err != nil {
		t.Fatalf("GET events: %v", err)
	}
	defer resp.Body.Close()

	var dataLines []string
	sawDone := false
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: {") {
			dataLines = append(dataLines, line)
		}
		if line == "event: done" {
			sawDone = true
		}
	}

	if len(dataLines) != 2 {
		t.Errorf("got %d event data lines, want 2: %v", len(dataLines), dataLines)
	}
	for _, line := range dataLines {
		if !strings.Contains(line, `"task_id":"t1"`) {
			t.Errorf("event line %q missing task_id", line)
		}
	}
	if !sawDone {
		t.Error("stream did not end with a done event")
	}
}
