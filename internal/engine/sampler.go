package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/waheeda129/face-attendance/internal/attendapi"
)

// Outcome classifies a sampling tick.
type Outcome string

const (
	// OutcomeOK: recognition ran; zero or more detections returned.
	OutcomeOK Outcome = "ok"
	// OutcomeCaptureUnavailable: no frame could be acquired (device
	// missing, permission denied). Non-fatal, retried next tick.
	OutcomeCaptureUnavailable Outcome = "capture-unavailable"
	// OutcomeUnsupported: the deployment has no recognition runtime.
	// Not a failure and not escalated; the loop keeps ticking.
	OutcomeUnsupported Outcome = "capability-unavailable"
	// OutcomeTransient: the recognition call failed (network, 5xx).
	// Retried on the next tick, no internal retry loop.
	OutcomeTransient Outcome = "transient-error"
)

// TickResult is the normalized output of one sampling tick. Boxes are
// only set in the detection-only degraded mode.
type TickResult struct {
	Outcome    Outcome
	Message    string
	FaceCount  int
	Detections []Detection
	Boxes      []attendapi.FaceBox
}

// FrameSource acquires the current frame as an encoded image.
type FrameSource interface {
	Frame(ctx context.Context) ([]byte, error)
	FrameRate() float64
}

// Recognizer submits a frame for recognition.
type Recognizer interface {
	Recognize(ctx context.Context, frame []byte, threshold float64) (*attendapi.RecognizeResult, error)
}

// Detector is the optional detection-only capability: when the
// recognizer also implements it, a deployment without a recognition
// runtime still gets face boxes on the live panel.
type Detector interface {
	Detect(ctx context.Context, frame []byte) (*attendapi.DetectResult, error)
}

// Sampler drives one acquisition-and-recognition cycle per tick,
// isolating the rest of the engine from capture and recognition
// failures: every failure mode maps to an outcome with zero detections.
type Sampler struct {
	source     FrameSource
	recognizer Recognizer
}

// NewSampler creates a sampler over the given capture source and
// recognition client.
func NewSampler(source FrameSource, recognizer Recognizer) *Sampler {
	return &Sampler{source: source, recognizer: recognizer}
}

// Tick acquires a frame, submits it with the given match threshold
// (0..1), and normalizes the response. It never returns an error;
// failures become outcomes.
func (s *Sampler) Tick(ctx context.Context, threshold float64) TickResult {
	frame, err := s.source.Frame(ctx)
	if err != nil {
		return TickResult{
			Outcome: OutcomeCaptureUnavailable,
			Message: fmt.Sprintf("capture unavailable: %v", err),
		}
	}

	result, err := s.recognizer.Recognize(ctx, frame, threshold)
	if err != nil {
		if errors.Is(err, attendapi.ErrRecognitionUnsupported) {
			return s.detectOnly(ctx, frame)
		}
		return TickResult{
			Outcome: OutcomeTransient,
			Message: fmt.Sprintf("recognition call failed: %v", err),
		}
	}

	detections := make([]Detection, 0, len(result.Faces))
	for _, face := range result.Faces {
		d := Detection{Confidence: face.Confidence}
		if face.StudentID != nil {
			d.StudentID = *face.StudentID
		}
		if face.StudentName != nil {
			d.StudentName = *face.StudentName
		}
		detections = append(detections, d)
	}

	return TickResult{
		Outcome:    OutcomeOK,
		Message:    result.Message,
		FaceCount:  len(result.Faces),
		Detections: detections,
	}
}

// detectOnly is the degraded path for deployments without a recognition
// runtime: face boxes without identities, so the live panel still shows
// where faces are. A detect failure (or no Detector at all) leaves just
// the status message.
func (s *Sampler) detectOnly(ctx context.Context, frame []byte) TickResult {
	unsupported := TickResult{
		Outcome: OutcomeUnsupported,
		Message: "recognition unsupported on this deployment",
	}

	detector, ok := s.recognizer.(Detector)
	if !ok {
		return unsupported
	}
	result, err := detector.Detect(ctx, frame)
	if err != nil {
		return unsupported
	}

	return TickResult{
		Outcome:   OutcomeUnsupported,
		Message:   "recognition unsupported; detection only",
		FaceCount: len(result.Faces),
		Boxes:     result.Faces,
	}
}

// FrameRate reports the capture source's current frame rate, for the
// telemetry display.
func (s *Sampler) FrameRate() float64 {
	return s.source.FrameRate()
}
