package mockapi

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Guard errors
var (
	ErrSyncInProgress = errors.New("a catalog sync is already running")
	ErrJobNotFound    = errors.New("sync job not found")
)

// SyncJob describes one catalog sync run
type SyncJob struct {
	ID         string    `json:"id"`
	Domain     string    `json:"domain"`
	Status     string    `json:"status"` // "running" or "completed"
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
}

// SyncGuard allows at most one running catalog sync per domain. A second
// start while one runs is rejected with ErrSyncInProgress and the running
// job, so the API can tell the client what is blocking it.
type SyncGuard struct {
	mu       sync.Mutex
	running  map[string]*SyncJob // keyed by domain
	finished map[string]*SyncJob // keyed by job ID
	duration time.Duration
}

// NewSyncGuard creates a guard whose jobs auto-complete after duration
func NewSyncGuard(duration time.Duration) *SyncGuard {
	return &SyncGuard{
		running:  make(map[string]*SyncJob),
		finished: make(map[string]*SyncJob),
		duration: duration,
	}
}

// Start begins a sync for a domain. It fails with ErrSyncInProgress and the
// blocking job while one is running.
func (g *SyncGuard) Start(domain string) (*SyncJob, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if job, ok := g.running[domain]; ok {
		blocked := *job
		return &blocked, ErrSyncInProgress
	}

	job := &SyncJob{
		ID:        uuid.New().String(),
		Domain:    domain,
		Status:    "running",
		StartedAt: time.Now(),
	}
	g.running[domain] = job

	// Auto-complete after the configured duration, like a real sync ending.
	time.AfterFunc(g.duration, func() {
		g.Complete(job.ID)
	})

	started := *job
	return &started, nil
}

// Complete finishes the job with the given ID. Completing an already
// finished job is a no-op so the timer and explicit completion never race.
func (g *SyncGuard) Complete(jobID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for domain, job := range g.running {
		if job.ID == jobID {
			job.Status = "completed"
			job.FinishedAt = time.Now()
			delete(g.running, domain)
			g.finished[job.ID] = job
			return
		}
	}
}

// Get returns the job with the given ID, running or finished
func (g *SyncGuard) Get(jobID string) (*SyncJob, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, job := range g.running {
		if job.ID == jobID {
			copied := *job
			return &copied, nil
		}
	}
	if job, ok := g.finished[jobID]; ok {
		copied := *job
		return &copied, nil
	}
	return nil, ErrJobNotFound
}

// Running reports whether a sync is currently running for a domain
func (g *SyncGuard) Running(domain string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.running[domain]
	return ok
}

// SyncHandler exposes the guard at /api/sync/catalog
type SyncHandler struct {
	guard  *SyncGuard
	domain string
}

// NewSyncHandler creates a sync handler for the harness domain
func NewSyncHandler(guard *SyncGuard, domain string) *SyncHandler {
	return &SyncHandler{guard: guard, domain: domain}
}

// SyncStartResponse is returned when a sync is accepted
type SyncStartResponse struct {
	Job SyncJob `json:"job"`
}

// syncConflictResponse tells the client which job is blocking a new start
type syncConflictResponse struct {
	ErrorResponse
	RunningJobID string `json:"runningJobId"`
}

// ServeHTTP handles POST /api/sync/catalog and GET /api/sync/catalog/{id}
func (h *SyncHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost:
		h.start(w)
	case r.Method == http.MethodGet:
		h.status(w, r)
	default:
		writeError(w, "Only POST and GET are supported on this endpoint.", http.StatusMethodNotAllowed)
	}
}

func (h *SyncHandler) start(w http.ResponseWriter) {
	job, err := h.guard.Start(h.domain)
	if err != nil {
		if errors.Is(err, ErrSyncInProgress) {
			log.Printf("Sync rejected for %s: job %s still running", h.domain, job.ID)
			w.Header().Set("Retry-After", "2")
			writeJSON(w, http.StatusConflict, syncConflictResponse{
				ErrorResponse: ErrorResponse{
					Error:   http.StatusText(http.StatusConflict),
					Message: "A catalog sync is already running. Please wait for it to finish before starting another.",
				},
				RunningJobID: job.ID,
			})
			return
		}
		log.Printf("Error starting sync for %s: %v", h.domain, err)
		writeError(w, "We couldn't start the catalog sync. Please try again.", http.StatusInternalServerError)
		return
	}

	log.Printf("Catalog sync %s started for %s", job.ID, h.domain)
	writeJSON(w, http.StatusAccepted, SyncStartResponse{Job: *job})
}

func (h *SyncHandler) status(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, "/api/sync/catalog/")
	if jobID == "" || strings.Contains(jobID, "/") {
		writeError(w, "That sync job address is incomplete.", http.StatusNotFound)
		return
	}

	job, err := h.guard.Get(jobID)
	if err != nil {
		writeError(w, "We couldn't find that sync job. It may have been cleaned up.", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, SyncStartResponse{Job: *job})
}

// String implements fmt.Stringer for log lines
func (j *SyncJob) String() string {
	return fmt.Sprintf("sync %s (%s, %s)", j.ID, j.Domain, j.Status)
}
