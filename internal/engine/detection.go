package engine

// Detection is one per-tick recognition candidate. It is ephemeral:
// produced by the sampler, consumed by the gate, never stored.
// An empty StudentID means a face was seen but not identified; such
// detections are surfaced for display only and never produce an
// attendance event.
type Detection struct {
	StudentID   string  `json:"studentId,omitempty"`
	StudentName string  `json:"studentName,omitempty"`
	Confidence  float64 `json:"confidence"` // 0..1 as the recognizer reports it
}

// Identified reports whether the detection carries a roster identity.
func (d Detection) Identified() bool {
	return d.StudentID != ""
}
