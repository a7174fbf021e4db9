package attendapi

import (
	"time"
)

// Student is a roster record as the backend serves it.
type Student struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	StudentID  string `json:"studentId"`
	Department string `json:"department"`
	Email      string `json:"email"`
	PhotoURL   string `json:"photoUrl"`
	Status     string `json:"status"`
}

// NewStudent is the payload for creating a roster record. Optional fields
// are filled with backend defaults when omitted (name "Unnamed",
// department "General", auto-generated studentId).
type NewStudent struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name,omitempty"`
	StudentID   string    `json:"studentId,omitempty"`
	Department  string    `json:"department,omitempty"`
	Email       string    `json:"email,omitempty"`
	PhotoURL    string    `json:"photoUrl,omitempty"`
	PhotoBase64 string    `json:"photoBase64,omitempty"`
	Status      string    `json:"status,omitempty"`
	Embedding   []float32 `json:"embedding,omitempty"`
}

// AttendanceRecord is an attendance entry as the backend serves it.
// Timestamps travel as ISO 8601 strings; see ParseTimestamp.
type AttendanceRecord struct {
	ID          string  `json:"id"`
	StudentID   string  `json:"studentId"`
	StudentName string  `json:"studentName"`
	Timestamp   string  `json:"timestamp"`
	Status      string  `json:"status"`
	Confidence  float64 `json:"confidence"`
}

// Settings is the persisted dashboard configuration.
type Settings struct {
	CameraDeviceID         string `json:"cameraDeviceId"`
	MinConfidenceThreshold int    `json:"minConfidenceThreshold"`
	APIURL                 string `json:"apiUrl"`
	Theme                  string `json:"theme"`
}

// FaceBox is a detection bounding box in frame coordinates.
type FaceBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// RecognizedFace is one face in a recognize response. StudentID is null
// for faces the backend saw but could not identify.
type RecognizedFace struct {
	Box         FaceBox `json:"box"`
	StudentID   *string `json:"studentId"`
	StudentName *string `json:"studentName"`
	Confidence  float64 `json:"confidence"`
	Status      string  `json:"status"`
}

// RecognizeResult is the response of POST /recognize.
type RecognizeResult struct {
	Available bool             `json:"available"`
	Message   string           `json:"message,omitempty"`
	Faces     []RecognizedFace `json:"faces"`
}

// DetectResult is the response of POST /detect: face boxes only, no
// identities.
type DetectResult struct {
	Available bool      `json:"available"`
	Message   string    `json:"message,omitempty"`
	Faces     []FaceBox `json:"faces"`
}

// DeleteResponse is the generic success envelope for delete endpoints.
type DeleteResponse struct {
	Success bool `json:"success"`
}

// HealthResponse is the response of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// timestampLayouts covers the formats the backend emits: RFC 3339 and
// Python's isoformat() without a zone designator.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses a backend timestamp string. Zone-less values are
// interpreted as UTC, matching the backend's utcnow().
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp renders a timestamp the way the backend expects.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
