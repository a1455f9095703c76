package mockapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/omnidesk/widget/internal/models"
)

// Settings errors
var (
	// ErrVersionConflict is returned when a save carries a stale base version.
	ErrVersionConflict = errors.New("settings version conflict")
)

// SettingsSave records one accepted write for audit and test assertions
type SettingsSave struct {
	Version  int64                 `json:"version"`
	Settings models.WidgetSettings `json:"settings"`
	SavedAt  time.Time             `json:"savedAt"`
}

// SettingsStore is a per-domain compare-and-swap settings resource. Each
// domain holds a monotonically increasing version; a save must present the
// version it read, and loses if anyone else saved in between.
type SettingsStore struct {
	mu      sync.Mutex
	domains map[string]*domainSettings
}

type domainSettings struct {
	settings models.WidgetSettings
	version  int64
	history  []SettingsSave
	// forceConflict bumps the version out of band on the next save attempt,
	// reproducing the scripted first-save conflict the UI tests need.
	forceConflict bool
}

// NewSettingsStore creates a settings store; domains start at version 1 with
// default settings on first access
func NewSettingsStore() *SettingsStore {
	return &SettingsStore{domains: make(map[string]*domainSettings)}
}

func (s *SettingsStore) domain(domain string) *domainSettings {
	d, ok := s.domains[domain]
	if !ok {
		d = &domainSettings{settings: models.DefaultWidgetSettings(), version: 1}
		s.domains[domain] = d
	}
	return d
}

// Get returns the current settings and version for a domain
func (s *SettingsStore) Get(domain string) (models.WidgetSettings, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.domain(domain)
	return d.settings, d.version
}

// Save applies a compare-and-swap write. baseVersion must equal the current
// version; on mismatch the current version is returned with
// ErrVersionConflict so the client can reload and retry.
func (s *SettingsStore) Save(domain string, settings models.WidgetSettings, baseVersion int64) (int64, error) {
	if err := settings.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.domain(domain)
	if d.forceConflict {
		// Simulates another writer sneaking in between the client's read
		// and its save.
		d.version++
		d.forceConflict = false
	}

	if baseVersion != d.version {
		return d.version, fmt.Errorf("%w: save based on version %d but current version is %d",
			ErrVersionConflict, baseVersion, d.version)
	}

	d.version++
	d.settings = settings
	d.history = append(d.history, SettingsSave{
		Version:  d.version,
		Settings: settings,
		SavedAt:  time.Now(),
	})
	return d.version, nil
}

// ForceConflictOnce makes the next save attempt for a domain conflict
// regardless of the version it carries
func (s *SettingsStore) ForceConflictOnce(domain string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.domain(domain).forceConflict = true
}

// History returns the accepted saves for a domain, oldest first
func (s *SettingsStore) History(domain string) []SettingsSave {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.domain(domain)
	return append([]SettingsSave(nil), d.history...)
}

// SettingsHandler exposes the settings store at /api/domains/{domain}/settings
type SettingsHandler struct {
	store *SettingsStore
}

// NewSettingsHandler creates a settings handler over a store
func NewSettingsHandler(store *SettingsStore) *SettingsHandler {
	return &SettingsHandler{store: store}
}

// SettingsResponse is the GET response and the successful PUT response
type SettingsResponse struct {
	Settings models.WidgetSettings `json:"settings"`
	Version  int64                 `json:"version"`
}

// SettingsSaveRequest is the PUT body
type SettingsSaveRequest struct {
	Settings models.WidgetSettings `json:"settings"`
	Version  int64                 `json:"version"`
}

// conflictResponse extends the error envelope with the server's version so
// the client can reload without a second round trip
type conflictResponse struct {
	ErrorResponse
	CurrentVersion int64 `json:"currentVersion"`
}

// ServeHTTP handles GET and PUT on /api/domains/{domain}/settings
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	domain := domainFromPath(r.URL.Path)
	if domain == "" {
		writeError(w, "The settings address is incomplete. Check the domain in the URL.", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		settings, version := h.store.Get(domain)
		writeJSON(w, http.StatusOK, SettingsResponse{Settings: settings, Version: version})

	case http.MethodPut:
		h.save(w, r, domain)

	default:
		writeError(w, "Only GET and PUT are supported on this endpoint.", http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) save(w http.ResponseWriter, r *http.Request, domain string) {
	var req SettingsSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "We couldn't read the settings you submitted. Please try again.", http.StatusBadRequest)
		return
	}

	newVersion, err := h.store.Save(domain, req.Settings, req.Version)
	if err != nil {
		if errors.Is(err, ErrVersionConflict) {
			log.Printf("Settings conflict on %s: %v", domain, err)
			writeJSON(w, http.StatusConflict, conflictResponse{
				ErrorResponse: ErrorResponse{
					Error:   http.StatusText(http.StatusConflict),
					Message: "Someone else saved these settings while you were editing. Reload to get the latest version, then try again.",
				},
				CurrentVersion: newVersion,
			})
			return
		}
		writeError(w, "Some of those settings aren't valid. Please review the form and try again.", http.StatusUnprocessableEntity)
		return
	}

	log.Printf("Settings saved for %s at version %d", domain, newVersion)
	settings, version := h.store.Get(domain)
	writeJSON(w, http.StatusOK, SettingsResponse{Settings: settings, Version: version})
}

// domainFromPath extracts {domain} from /api/domains/{domain}/settings
func domainFromPath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	// api / domains / {domain} / settings
	if len(parts) != 4 || parts[0] != "api" || parts[1] != "domains" || parts[3] != "settings" {
		return ""
	}
	return parts[2]
}
