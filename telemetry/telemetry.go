// Package telemetry collects in-process statement statistics and can export
// them in batches to an HTTP endpoint. Nothing runs in the background; the
// owner decides when to Flush.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"
)

// Event is one recorded operation.
type Event struct {
	EventType    string         `json:"event_type"`
	Operation    string         `json:"operation"`
	Provider     string         `json:"provider,omitempty"`
	Duration     time.Duration  `json:"duration"`
	Error        string         `json:"error,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
	Version      string         `json:"version"`
	OS           string         `json:"os"`
	Architecture string         `json:"architecture"`
}

// Stats aggregates the events of one operation.
type Stats struct {
	Operation string
	Count     int
	Errors    int
	Total     time.Duration
	Max       time.Duration
}

// Mean returns the average duration.
func (s Stats) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// Collector records operations. Statistics are always kept; events are only
// buffered for export when the collector is enabled.
type Collector struct {
	enabled    bool
	endpoint   string
	version    string
	provider   string
	batchSize  int
	httpClient *http.Client

	mu     sync.Mutex
	events []Event
	stats  map[string]*Stats
}

// Option configures a Collector.
type Option func(*Collector)

// WithEndpoint sets the export endpoint.
func WithEndpoint(url string) Option {
	return func(c *Collector) { c.endpoint = url }
}

// WithHTTPClient replaces the export client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Collector) { c.httpClient = hc }
}

// WithBatchSize caps the number of events sent per request.
func WithBatchSize(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithProvider tags every event with the database provider.
func WithProvider(p string) Option {
	return func(c *Collector) { c.provider = p }
}

// NewCollector creates a collector. Export is off when enabled is false or
// POSDATA_TELEMETRY_DISABLED is set.
func NewCollector(version string, enabled bool, opts ...Option) *Collector {
	c := &Collector{
		enabled:    enabled && !isTelemetryDisabled(),
		endpoint:   getTelemetryEndpoint(),
		version:    version,
		batchSize:  50,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		stats:      make(map[string]*Stats),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether events are exported.
func (c *Collector) Enabled() bool { return c.enabled }

// Record adds one operation.
func (c *Collector) Record(op string, d time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.stats[op]
	if !ok {
		s = &Stats{Operation: op}
		c.stats[op] = s
	}
	s.Count++
	s.Total += d
	s.Max = max(s.Max, d)
	if err != nil {
		s.Errors++
	}

	if !c.enabled {
		return
	}
	event := Event{
		EventType:    "query",
		Operation:    op,
		Provider:     c.provider,
		Duration:     d,
		Timestamp:    time.Now(),
		Version:      c.version,
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
	}
	if err != nil {
		event.Error = err.Error()
	}
	c.events = append(c.events, event)
}

// Snapshot returns the statistics per operation, sorted by name.
func (c *Collector) Snapshot() []Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Stats, 0, len(c.stats))
	for _, s := range c.stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Operation < out[j].Operation })
	return out
}

// Pending returns the number of buffered events.
func (c *Collector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// Flush posts the buffered events in batches. Events of a failed batch are
// put back so a later Flush can retry them.
func (c *Collector) Flush(ctx context.Context) error {
	c.mu.Lock()
	events := c.events
	c.events = nil
	c.mu.Unlock()

	for start := 0; start < len(events); start += c.batchSize {
		end := min(start+c.batchSize, len(events))
		if err := c.send(ctx, events[start:end]); err != nil {
			c.mu.Lock()
			c.events = append(events[start:], c.events...)
			c.mu.Unlock()
			return err
		}
	}
	return nil
}

func (c *Collector) send(ctx context.Context, events []Event) error {
	payload := map[string]any{
		"events": events,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telemetry: encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("telemetry: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", fmt.Sprintf("posdata/%s", c.version))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telemetry: send batch: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("telemetry: endpoint returned %s", resp.Status)
	}
	return nil
}

// isTelemetryDisabled checks the opt-out environment variable.
func isTelemetryDisabled() bool {
	v := os.Getenv("POSDATA_TELEMETRY_DISABLED")
	return v == "1" || v == "true"
}

// getTelemetryEndpoint returns the telemetry endpoint URL
func getTelemetryEndpoint() string {
	if endpoint := os.Getenv("POSDATA_TELEMETRY_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	return "http://localhost:4318/posdata/events"
}
