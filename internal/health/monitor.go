package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zainulabidin776/apodflow/internal/core/domain"
	"github.com/zainulabidin776/apodflow/internal/infra/storage"
)

// Pinger checks liveness of an external dependency.
type Pinger interface {
	Health(ctx context.Context) error
}

// Monitor aggregates health status from the pipeline's dependencies.
type Monitor struct {
	db         Pinger
	history    storage.HistoryStore
	staleAfter time.Duration
	lastCheck  time.Time
	lastReport *Report
	mu         sync.Mutex
}

// NewMonitor creates a health monitor. staleAfter bounds how old the
// newest CSV row may be before the history sink counts as degraded.
func NewMonitor(db Pinger, history storage.HistoryStore, staleAfter time.Duration) *Monitor {
	return &Monitor{db: db, history: history, staleAfter: staleAfter}
}

// Check performs a health check across all components. Results are
// cached for 10 seconds to keep probes cheap under scrape pressure.
func (m *Monitor) Check(ctx context.Context) *Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.lastCheck) < 10*time.Second && m.lastReport != nil {
		return m.lastReport
	}

	components := map[string]ComponentHealth{
		"postgres": m.checkDB(ctx),
		"history":  m.checkHistory(),
	}

	status := StatusHealthy
	for _, c := range components {
		if c.Status == StatusCritical {
			status = StatusCritical
			break
		}
		if c.Status == StatusDegraded {
			status = StatusDegraded
		}
	}

	m.lastCheck = time.Now()
	m.lastReport = &Report{SystemStatus: status, Components: components}
	return m.lastReport
}

func (m *Monitor) checkDB(ctx context.Context) ComponentHealth {
	h := ComponentHealth{Name: "postgres", Status: StatusHealthy}
	if err := m.db.Health(ctx); err != nil {
		h.Status = StatusCritical
		h.Detail = err.Error()
	}
	return h
}

func (m *Monitor) checkHistory() ComponentHealth {
	h := ComponentHealth{Name: "history", Status: StatusHealthy}
	if !m.history.Exists() {
		// Fresh deployment before the first run; not an outage.
		h.Status = StatusDegraded
		h.Detail = "history file not yet written"
		return h
	}

	latest, err := m.history.Latest()
	if errors.Is(err, storage.ErrRecordNotFound) || (err == nil && latest == nil) {
		h.Status = StatusDegraded
		h.Detail = "history file has no rows"
		return h
	}
	if err != nil {
		h.Status = StatusCritical
		h.Detail = err.Error()
		return h
	}

	day, err := time.Parse(domain.DateLayout, latest.Date)
	if err != nil {
		h.Status = StatusDegraded
		h.Detail = fmt.Sprintf("unparseable latest date %q", latest.Date)
		return h
	}
	if age := time.Since(day); age > m.staleAfter {
		h.Status = StatusDegraded
		h.Detail = fmt.Sprintf("newest row is %s old", age.Round(time.Hour))
	}
	return h
}
