package engine

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/waheeda129/face-attendance/internal/attendapi"
	"github.com/waheeda129/face-attendance/internal/store"
)

// Built-in sync parameters. Interval fields of SyncConfig fall back to
// these when zero; threshold and cooldown do not (zero is meaningful
// for both).
const (
	DefaultSampleInterval    = 2500 * time.Millisecond
	DefaultTelemetryInterval = time.Second
	DefaultCooldownWindow    = 60 * time.Second
	DefaultThresholdPercent  = 85
)

// SyncConfig is the engine configuration. It is replaced wholesale on
// settings updates, never partially mutated.
type SyncConfig struct {
	BaseURL                    string
	ConfidenceThresholdPercent int
	CooldownWindow             time.Duration
	CameraDeviceID             string
	SampleInterval             time.Duration
	TelemetryInterval          time.Duration
}

// withDefaults fills interval fields that were left zero. Threshold and
// cooldown are taken as-is: a zero cooldown disables dedup and a zero
// threshold accepts every identified detection.
func (c SyncConfig) withDefaults() SyncConfig {
	if c.SampleInterval <= 0 {
		c.SampleInterval = DefaultSampleInterval
	}
	if c.TelemetryInterval <= 0 {
		c.TelemetryInterval = DefaultTelemetryInterval
	}
	return c
}

// SyncConfigFromSettings derives a SyncConfig from remote settings,
// filling gaps from built-in defaults. A threshold outside 0-100 counts
// as malformed and falls back. A persisted apiUrl redirects the engine
// when it is absolute; anything else keeps the current base URL.
func SyncConfigFromSettings(baseURL string, settings *attendapi.Settings, thresholdDefault, cooldownMsDefault, sampleMsDefault int) SyncConfig {
	cfg := SyncConfig{
		BaseURL:                    baseURL,
		ConfidenceThresholdPercent: thresholdDefault,
		CooldownWindow:             time.Duration(cooldownMsDefault) * time.Millisecond,
		SampleInterval:             time.Duration(sampleMsDefault) * time.Millisecond,
	}
	if settings != nil {
		if settings.MinConfidenceThreshold >= 0 && settings.MinConfidenceThreshold <= 100 {
			cfg.ConfidenceThresholdPercent = settings.MinConfidenceThreshold
		}
		cfg.CameraDeviceID = settings.CameraDeviceID
		if u, err := url.Parse(settings.APIURL); err == nil && u.IsAbs() {
			cfg.BaseURL = settings.APIURL
		}
	}
	return cfg
}

// Coordinator owns the sync lifecycle: it wires sampler output into the
// gate, gate output into the record store, and runs the periodic tick
// loop. It also fronts the backend client for the store and sampler so
// a config swap atomically redirects all remote traffic.
type Coordinator struct {
	mu         sync.Mutex
	cfg        SyncConfig
	client     *attendapi.Client
	remote     *store.APIRemote
	runCtx     context.Context
	cancel     context.CancelFunc
	running    bool
	generation uint64

	store   *store.RecordStore
	gate    *Gate
	sampler *Sampler
	events  *Broadcaster
}

// NewCoordinator creates a stopped coordinator over the given capture
// source. The record store and gate are created here and owned by the
// coordinator for the lifetime of the session.
func NewCoordinator(source FrameSource, events *Broadcaster, storeOpts ...store.Option) *Coordinator {
	c := &Coordinator{
		gate:   NewGate(DefaultThresholdPercent, DefaultCooldownWindow),
		events: events,
	}
	opts := append([]store.Option{store.WithEventFunc(c.publishStoreEvent)}, storeOpts...)
	c.store = store.New(c, opts...)
	c.sampler = NewSampler(source, c)
	return c
}

// Store exposes the record store for read access and manual operations.
func (c *Coordinator) Store() *store.RecordStore {
	return c.store
}

// Events exposes the engine event broadcaster.
func (c *Coordinator) Events() *Broadcaster {
	return c.events
}

// Client returns the current backend client, nil before the first
// Start.
func (c *Coordinator) Client() *attendapi.Client {
	return c.currentClient()
}

// Config returns the current configuration.
func (c *Coordinator) Config() SyncConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Running reports whether the tick loop is active.
func (c *Coordinator) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Start applies the configuration, hydrates the store from the backend
// (falling back to empty collections on failure, never to stale data),
// and begins the periodic sampling and telemetry loops.
func (c *Coordinator) Start(cfg SyncConfig) error {
	client, err := attendapi.NewClient(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid sync config: %w", err)
	}

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("sync already running")
	}
	c.cfg = cfg.withDefaults()
	c.client = client
	c.remote = store.NewAPIRemote(client)
	c.gate.SetConfig(c.cfg.ConfidenceThresholdPercent, c.cfg.CooldownWindow)
	c.generation++
	gen := c.generation
	ctx, cancel := context.WithCancel(context.Background())
	c.runCtx = ctx
	c.cancel = cancel
	c.running = true
	c.mu.Unlock()

	c.hydrate(ctx, gen)
	go c.runSampling(ctx)
	go c.runTelemetry(ctx)
	return nil
}

// Stop cancels the tick loop and pending sampling. Store state is left
// untouched and in-flight reconciliations run to completion. A tick
// completing after Stop is discarded before it can emit.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.running = false
	c.generation++
	c.cancel()
}

// UpdateConfig swaps the configuration atomically and propagates it. A
// base-URL change redirects the client, invalidates in-progress ticks,
// and triggers re-hydration; it never cancels in-flight
// reconciliations.
func (c *Coordinator) UpdateConfig(cfg SyncConfig) error {
	client, err := attendapi.NewClient(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid sync config: %w", err)
	}

	c.mu.Lock()
	cfg = cfg.withDefaults()
	urlChanged := cfg.BaseURL != c.cfg.BaseURL
	c.cfg = cfg
	c.gate.SetConfig(cfg.ConfidenceThresholdPercent, cfg.CooldownWindow)
	if urlChanged {
		c.client = client
		c.remote = store.NewAPIRemote(client)
		c.generation++
	}
	gen := c.generation
	ctx := c.runCtx
	rehydrate := urlChanged && c.running
	c.mu.Unlock()

	if rehydrate {
		go c.hydrate(ctx, gen)
	}
	return nil
}

// LogManual appends a manual attendance entry, bypassing threshold and
// cooldown.
func (c *Coordinator) LogManual(studentID, studentName string, status store.AttendanceStatus) (store.AttendanceRecord, error) {
	rec := NewManualRecord(studentID, studentName, status)
	if err := c.store.AppendOptimistic(rec); err != nil {
		return store.AttendanceRecord{}, err
	}
	return rec, nil
}

// hydrate replaces both collections from the backend. On failure the
// collection is replaced with an empty one; a live session never shows
// stale or mock data.
func (c *Coordinator) hydrate(ctx context.Context, gen uint64) {
	client := c.currentClient()
	if client == nil {
		return
	}

	students, studentsErr := client.ListStudents(ctx)
	records, attendanceErr := client.ListAttendance(ctx)

	c.mu.Lock()
	stale := gen != c.generation || !c.running
	c.mu.Unlock()
	if stale {
		return
	}

	if studentsErr != nil {
		c.store.ReplaceAllStudents(nil)
		c.events.Publish(Event{Type: "hydrate_failed", Message: fmt.Sprintf("roster hydration failed: %v", studentsErr)})
	} else {
		converted := make([]store.Student, len(students))
		for i, s := range students {
			converted[i] = store.StudentFromWire(s)
		}
		c.store.ReplaceAllStudents(converted)
	}

	if attendanceErr != nil {
		c.store.ReplaceAllAttendance(nil)
		c.events.Publish(Event{Type: "hydrate_failed", Message: fmt.Sprintf("attendance hydration failed: %v", attendanceErr)})
	} else {
		converted := make([]store.AttendanceRecord, len(records))
		for i, r := range records {
			converted[i] = store.FromWire(r)
		}
		c.store.ReplaceAllAttendance(converted)
	}

	c.events.Publish(Event{Type: "hydrated", Data: map[string]int{
		"students":   len(students),
		"attendance": len(records),
	}})
}

// runSampling fires ticks on the configured interval. Each tick runs in
// its own goroutine: recognition calls may overlap, and a call that
// never completes cannot block subsequent ticks.
func (c *Coordinator) runSampling(ctx context.Context) {
	timer := time.NewTimer(c.sampleInterval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			gen := c.currentGeneration()
			go c.tick(ctx, gen)
			timer.Reset(c.sampleInterval())
		}
	}
}

// tick runs one sampling cycle and folds the result through the gate
// into the store. The generation check under the coordinator lock makes
// a completion after Stop or after a config swap a no-op.
func (c *Coordinator) tick(ctx context.Context, gen uint64) {
	threshold := float64(c.thresholdPercent()) / 100
	res := c.sampler.Tick(ctx, threshold)

	c.mu.Lock()
	if !c.running || gen != c.generation {
		c.mu.Unlock()
		return
	}
	accepted := c.gate.Filter(res.Detections)
	for _, rec := range accepted {
		if err := c.store.AppendOptimistic(rec); err != nil {
			c.events.Publish(Event{Type: "append_rejected", Message: err.Error(), Data: rec.ID})
		}
	}
	c.mu.Unlock()

	tickData := map[string]any{
		"outcome":   res.Outcome,
		"faceCount": res.FaceCount,
		"accepted":  len(accepted),
	}
	if len(res.Boxes) > 0 {
		tickData["boxes"] = res.Boxes
	}
	c.events.Publish(Event{Type: "tick", Message: res.Message, Data: tickData})
	for _, rec := range accepted {
		c.events.Publish(Event{Type: "attendance_logged", Message: rec.StudentName, Data: rec})
	}
}

// runTelemetry publishes the capture frame rate for the dashboard
// display. Not part of the sync contract.
func (c *Coordinator) runTelemetry(ctx context.Context) {
	ticker := time.NewTicker(c.telemetryInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.events.Publish(Event{Type: "telemetry", Data: map[string]float64{
				"fps": c.sampler.FrameRate(),
			}})
		}
	}
}

func (c *Coordinator) publishStoreEvent(eventType, message string, data any) {
	c.events.Publish(Event{Type: eventType, Message: message, Data: data})
}

func (c *Coordinator) currentClient() *attendapi.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client
}

func (c *Coordinator) currentGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func (c *Coordinator) sampleInterval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.SampleInterval
}

func (c *Coordinator) telemetryInterval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.TelemetryInterval
}

func (c *Coordinator) thresholdPercent() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.ConfidenceThresholdPercent
}

// AppendAttendance implements store.RemoteWriter against the current
// backend client.
func (c *Coordinator) AppendAttendance(ctx context.Context, record store.AttendanceRecord) (*store.AttendanceRecord, error) {
	c.mu.Lock()
	remote := c.remote
	c.mu.Unlock()
	if remote == nil {
		return nil, errors.New("sync engine not configured")
	}
	return remote.AppendAttendance(ctx, record)
}

// DeleteAttendance implements store.RemoteWriter against the current
// backend client.
func (c *Coordinator) DeleteAttendance(ctx context.Context, id string) error {
	c.mu.Lock()
	remote := c.remote
	c.mu.Unlock()
	if remote == nil {
		return errors.New("sync engine not configured")
	}
	return remote.DeleteAttendance(ctx, id)
}

// DeleteStudent implements store.RemoteWriter against the current
// backend client.
func (c *Coordinator) DeleteStudent(ctx context.Context, id string) error {
	c.mu.Lock()
	remote := c.remote
	c.mu.Unlock()
	if remote == nil {
		return errors.New("sync engine not configured")
	}
	return remote.DeleteStudent(ctx, id)
}

// Recognize implements Recognizer against the current backend client.
func (c *Coordinator) Recognize(ctx context.Context, frame []byte, threshold float64) (*attendapi.RecognizeResult, error) {
	client := c.currentClient()
	if client == nil {
		return nil, errors.New("sync engine not configured")
	}
	return client.Recognize(ctx, frame, threshold)
}

// Detect implements Detector against the current backend client.
func (c *Coordinator) Detect(ctx context.Context, frame []byte) (*attendapi.DetectResult, error) {
	client := c.currentClient()
	if client == nil {
		return nil, errors.New("sync engine not configured")
	}
	return client.Detect(ctx, frame)
}
