package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu              sync.Mutex
	requestCount    map[string]int64
	errorCount      map[string]int64
	issuesRaised    map[string]int64
	statusChanges   map[string]int64
	requestDuration map[string]time.Duration
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Requests            map[string]int64 `json:"requests"`
	Errors              map[string]int64 `json:"errors"`
	IssuesRaised        map[string]int64 `json:"issues_raised"`
	StatusChanges       map[string]int64 `json:"status_changes"`
	RequestDurationMsec map[string]int64 `json:"request_duration_ms"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:    make(map[string]int64),
		errorCount:      make(map[string]int64),
		issuesRaised:    make(map[string]int64),
		statusChanges:   make(map[string]int64),
		requestDuration: make(map[string]time.Duration),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestDuration[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordIssueRaised counts a newly raised issue by service type.
func (m *Metrics) RecordIssueRaised(serviceType string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issuesRaised[serviceType]++
}

// RecordStatusChange counts a status update by the status it moved to.
func (m *Metrics) RecordStatusChange(newStatus string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusChanges[newStatus]++
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	durations := make(map[string]int64, len(m.requestDuration))
	for key, total := range m.requestDuration {
		durations[key] = total.Milliseconds()
	}
	return Snapshot{
		Requests:            copyCounts(m.requestCount),
		Errors:              copyCounts(m.errorCount),
		IssuesRaised:        copyCounts(m.issuesRaised),
		StatusChanges:       copyCounts(m.statusChanges),
		RequestDurationMsec: durations,
	}
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
