package mockapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSyncGuardRejectsConcurrentStart(t *testing.T) {
	guard := NewSyncGuard(time.Hour) // never auto-completes within the test

	first, err := guard.Start("shop.example.com")
	if err != nil {
		t.Fatalf("first start should succeed, got %v", err)
	}
	if first.Status != "running" {
		t.Errorf("expected running status, got %s", first.Status)
	}

	blocked, err := guard.Start("shop.example.com")
	if !errors.Is(err, ErrSyncInProgress) {
		t.Fatalf("expected ErrSyncInProgress, got %v", err)
	}
	if blocked.ID != first.ID {
		t.Errorf("expected the blocking job to be the running one, got %s", blocked.ID)
	}

	// Other domains are unaffected
	if _, err := guard.Start("other.example.com"); err != nil {
		t.Errorf("a different domain should start its own sync, got %v", err)
	}
}

func TestSyncGuardCompletionAllowsRestart(t *testing.T) {
	guard := NewSyncGuard(time.Hour)

	first, err := guard.Start("shop.example.com")
	if err != nil {
		t.Fatal(err)
	}

	guard.Complete(first.ID)

	if guard.Running("shop.example.com") {
		t.Error("guard should not report a running sync after completion")
	}

	finished, err := guard.Get(first.ID)
	if err != nil {
		t.Fatalf("finished job should remain queryable, got %v", err)
	}
	if finished.Status != "completed" {
		t.Errorf("expected completed status, got %s", finished.Status)
	}
	if finished.FinishedAt.IsZero() {
		t.Error("expected FinishedAt to be set")
	}

	if _, err := guard.Start("shop.example.com"); err != nil {
		t.Errorf("restart after completion should succeed, got %v", err)
	}
}

func TestSyncGuardAutoCompletes(t *testing.T) {
	guard := NewSyncGuard(30 * time.Millisecond)

	job, err := guard.Start("shop.example.com")
	if err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for guard.Running("shop.example.com") {
		if time.Now().After(deadline) {
			t.Fatal("sync did not auto-complete in time")
		}
		time.Sleep(10 * time.Millisecond)
	}

	finished, err := guard.Get(job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if finished.Status != "completed" {
		t.Errorf("expected completed status, got %s", finished.Status)
	}
}

func TestSyncGuardDoubleCompleteIsNoop(t *testing.T) {
	guard := NewSyncGuard(time.Hour)

	job, _ := guard.Start("shop.example.com")
	guard.Complete(job.ID)
	guard.Complete(job.ID) // timer firing later must not panic or corrupt state

	if _, err := guard.Get(job.ID); err != nil {
		t.Errorf("job should still be queryable, got %v", err)
	}
}

func TestSyncGuardGetUnknownJob(t *testing.T) {
	guard := NewSyncGuard(time.Hour)

	if _, err := guard.Get("nope"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestSyncHandler(t *testing.T) {
	t.Run("start then conflict", func(t *testing.T) {
		handler := NewSyncHandler(NewSyncGuard(time.Hour), "shop.example.com")

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/sync/catalog", nil))
		if w.Code != http.StatusAccepted {
			t.Fatalf("expected status 202 on first start, got %d", w.Code)
		}
		var started SyncStartResponse
		if err := json.NewDecoder(w.Body).Decode(&started); err != nil {
			t.Fatalf("failed to decode start response: %v", err)
		}

		w = httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/sync/catalog", nil))
		if w.Code != http.StatusConflict {
			t.Fatalf("expected status 409 on second start, got %d", w.Code)
		}
		if w.Header().Get("Retry-After") == "" {
			t.Error("expected Retry-After header on conflict")
		}

		var conflict struct {
			ErrorResponse
			RunningJobID string `json:"runningJobId"`
		}
		if err := json.NewDecoder(w.Body).Decode(&conflict); err != nil {
			t.Fatalf("failed to decode conflict response: %v", err)
		}
		if conflict.RunningJobID != started.Job.ID {
			t.Errorf("expected blocking job %s, got %s", started.Job.ID, conflict.RunningJobID)
		}
		if !strings.Contains(conflict.Message, "already running") {
			t.Errorf("expected readable conflict copy, got %q", conflict.Message)
		}
	})

	t.Run("status endpoint", func(t *testing.T) {
		guard := NewSyncGuard(time.Hour)
		handler := NewSyncHandler(guard, "shop.example.com")

		job, _ := guard.Start("shop.example.com")

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sync/catalog/"+job.ID, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}

		var resp SyncStartResponse
		json.NewDecoder(w.Body).Decode(&resp)
		if resp.Job.ID != job.ID {
			t.Errorf("expected job %s, got %s", job.ID, resp.Job.ID)
		}
	})

	t.Run("unknown job returns 404", func(t *testing.T) {
		handler := NewSyncHandler(NewSyncGuard(time.Hour), "shop.example.com")

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sync/catalog/unknown-id", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", w.Code)
		}
	})
}
