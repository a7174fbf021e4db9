// Package capture provides frame sources for the sync engine: an HTTP
// snapshot source for network cameras and a file source for frames
// dumped to disk by an external capture process.
package capture

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"
)

// maxFrameBytes caps a single downloaded frame. A snapshot endpoint
// that streams forever must not wedge the tick.
const maxFrameBytes = 32 << 20

// rateWindowSpan is the sliding window used for the frame rate
// estimate.
const rateWindowSpan = 5 * time.Second

// rateWindow estimates the frame rate from recent acquisition times.
type rateWindow struct {
	mu      sync.Mutex
	samples []time.Time
	now     func() time.Time
}

func newRateWindow() *rateWindow {
	return &rateWindow{now: time.Now}
}

func (r *rateWindow) mark() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	cutoff := now.Add(-rateWindowSpan)
	kept := r.samples[:0]
	for _, s := range r.samples {
		if s.After(cutoff) {
			kept = append(kept, s)
		}
	}
	r.samples = append(kept, now)
}

func (r *rateWindow) rate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-rateWindowSpan)
	count := 0
	for _, s := range r.samples {
		if s.After(cutoff) {
			count++
		}
	}
	return float64(count) / rateWindowSpan.Seconds()
}

// SnapshotSource pulls single frames from a camera snapshot endpoint.
type SnapshotSource struct {
	url          string
	maxFrameSize int
	client       *http.Client
	window       *rateWindow
}

// NewSnapshotSource creates a source over an HTTP snapshot URL. Frames
// larger than maxFrameSize pixels on either axis are scaled down before
// being handed to the engine; zero disables scaling.
func NewSnapshotSource(rawURL string, maxFrameSize int) (*SnapshotSource, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || !parsed.IsAbs() {
		return nil, fmt.Errorf("invalid snapshot URL %q", rawURL)
	}
	return &SnapshotSource{
		url:          rawURL,
		maxFrameSize: maxFrameSize,
		client:       &http.Client{Timeout: 10 * time.Second},
		window:       newRateWindow(),
	}, nil
}

// Frame downloads the current snapshot.
func (s *SnapshotSource) Frame(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("snapshot request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot endpoint returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFrameBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot body: %w", err)
	}

	if s.maxFrameSize > 0 {
		data, err = ResizeFrame(data, s.maxFrameSize)
		if err != nil {
			return nil, err
		}
	}

	s.window.mark()
	return data, nil
}

// FrameRate reports frames acquired per second over the recent window.
func (s *SnapshotSource) FrameRate() float64 {
	return s.window.rate()
}

// FileSource reads the latest frame from a file path. Useful when an
// external process owns the camera and drops frames to disk.
type FileSource struct {
	path         string
	maxFrameSize int
	window       *rateWindow
}

// NewFileSource creates a source over a frame file.
func NewFileSource(path string, maxFrameSize int) *FileSource {
	return &FileSource{path: path, maxFrameSize: maxFrameSize, window: newRateWindow()}
}

// Frame reads the frame file.
func (f *FileSource) Frame(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame file: %w", err)
	}

	if f.maxFrameSize > 0 {
		data, err = ResizeFrame(data, f.maxFrameSize)
		if err != nil {
			return nil, err
		}
	}

	f.window.mark()
	return data, nil
}

// FrameRate reports frames read per second over the recent window.
func (f *FileSource) FrameRate() float64 {
	return f.window.rate()
}
