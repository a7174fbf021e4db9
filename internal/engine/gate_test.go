package engine

import (
	"testing"
	"time"

	"github.com/waheeda129/face-attendance/internal/store"
)

// gateAt creates a gate with a controllable clock.
func gateAt(thresholdPercent int, window time.Duration, clock *fakeClock) *Gate {
	g := NewGate(thresholdPercent, window)
	g.now = clock.now
	return g
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func TestGateSuppressesWithinCooldownWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)}
	g := gateAt(85, 60*time.Second, clock)

	first := g.Filter([]Detection{{StudentID: "S1", StudentName: "Amina", Confidence: 0.90}})
	if len(first) != 1 {
		t.Fatalf("expected first detection accepted, got %d records", len(first))
	}

	clock.advance(10 * time.Second)
	second := g.Filter([]Detection{{StudentID: "S1", StudentName: "Amina", Confidence: 0.95}})
	if len(second) != 0 {
		t.Errorf("expected second detection suppressed within cooldown, got %d records", len(second))
	}

	clock.advance(51 * time.Second) // past the 60s window now
	third := g.Filter([]Detection{{StudentID: "S1", StudentName: "Amina", Confidence: 0.95}})
	if len(third) != 1 {
		t.Errorf("expected acceptance after window expiry, got %d records", len(third))
	}
}

func TestGateRejectsBelowThreshold(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	g := gateAt(85, 60*time.Second, clock)

	accepted := g.Filter([]Detection{{StudentID: "S1", Confidence: 0.80}})
	if len(accepted) != 0 {
		t.Errorf("expected zero records below threshold, got %d", len(accepted))
	}

	// Boundary: exactly at threshold qualifies.
	accepted = g.Filter([]Detection{{StudentID: "S2", Confidence: 0.85}})
	if len(accepted) != 1 {
		t.Errorf("expected acceptance at exact threshold, got %d", len(accepted))
	}
}

func TestGateZeroWindowDisablesDedup(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	g := gateAt(85, 0, clock)

	for i := 0; i < 3; i++ {
		accepted := g.Filter([]Detection{{StudentID: "S1", Confidence: 0.90}})
		if len(accepted) != 1 {
			t.Fatalf("tick %d: expected acceptance with zero window, got %d", i, len(accepted))
		}
	}
}

func TestGateCollapsesSameIdentityWithinBatch(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	g := gateAt(85, 60*time.Second, clock)

	accepted := g.Filter([]Detection{
		{StudentID: "S1", Confidence: 0.92},
		{StudentID: "S1", Confidence: 0.97},
		{StudentID: "S2", Confidence: 0.88},
	})
	if len(accepted) != 2 {
		t.Fatalf("expected one acceptance per identity, got %d", len(accepted))
	}
	if accepted[0].StudentID != "S1" || accepted[1].StudentID != "S2" {
		t.Errorf("unexpected accepted identities: %+v", accepted)
	}
}

func TestGateIgnoresUnidentifiedDetections(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	g := gateAt(0, 0, clock)

	accepted := g.Filter([]Detection{{Confidence: 0.99}})
	if len(accepted) != 0 {
		t.Errorf("unidentified detections must never produce attendance, got %d", len(accepted))
	}
}

func TestGateAcceptedRecordShape(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)}
	g := gateAt(85, 60*time.Second, clock)

	accepted := g.Filter([]Detection{{StudentID: "S1", StudentName: "Amina", Confidence: 0.9234}})
	if len(accepted) != 1 {
		t.Fatalf("expected one record, got %d", len(accepted))
	}
	rec := accepted[0]
	if rec.ID == "" {
		t.Error("expected generated record id")
	}
	if rec.Status != store.StatusPresent {
		t.Errorf("expected status Present, got %q", rec.Status)
	}
	if rec.Confidence != 92.34 {
		t.Errorf("expected confidence scaled to 92.34, got %v", rec.Confidence)
	}
	if rec.State != store.StateProvisional {
		t.Errorf("expected provisional record, got %q", rec.State)
	}
	if !rec.Timestamp.Equal(clock.t) {
		t.Errorf("expected timestamp %v, got %v", clock.t, rec.Timestamp)
	}
}

func TestGateConfigChangeKeepsCooldownTable(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	g := gateAt(85, 60*time.Second, clock)

	if got := g.Filter([]Detection{{StudentID: "S1", Confidence: 0.90}}); len(got) != 1 {
		t.Fatalf("expected initial acceptance, got %d", len(got))
	}

	g.SetConfig(50, 60*time.Second)
	clock.advance(10 * time.Second)

	if got := g.Filter([]Detection{{StudentID: "S1", Confidence: 0.90}}); len(got) != 0 {
		t.Errorf("config change must not re-open a consumed cooldown window, got %d", len(got))
	}
}

func TestNewManualRecordBypassesGate(t *testing.T) {
	rec := NewManualRecord("S1", "Amina", "")

	if rec.Confidence != 0 {
		t.Errorf("manual entries carry confidence 0, got %v", rec.Confidence)
	}
	if rec.Status != store.StatusPresent {
		t.Errorf("expected default status Present, got %q", rec.Status)
	}
	if !rec.Manual {
		t.Error("expected manual flag set")
	}

	late := NewManualRecord("S1", "Amina", store.StatusLate)
	if late.Status != store.StatusLate {
		t.Errorf("expected explicit status honored, got %q", late.Status)
	}
}
