// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/h2see/eavesdrop/internal/models"
)

// MockStreamSource is a test double for [services.StreamSource].
//
// Snapshots and Errs are consumed in lockstep per call; when the call
// index runs past the configured slices the last entry repeats.
type MockStreamSource struct {
	Snapshots []*models.StreamSnapshot
	Errs      []error
	Calls     int
	mu        sync.Mutex
}

func (m *MockStreamSource) CurrentStream(ctx context.Context, user string) (*models.StreamSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.Calls
	m.Calls++

	var err error
	if len(m.Errs) > 0 {
		if i >= len(m.Errs) {
			err = m.Errs[len(m.Errs)-1]
		} else {
			err = m.Errs[i]
		}
	}
	if err != nil {
		return nil, err
	}

	if len(m.Snapshots) == 0 {
		return nil, errors.New("no snapshots configured")
	}
	if i >= len(m.Snapshots) {
		i = len(m.Snapshots) - 1
	}

	snap := *m.Snapshots[i]
	return &snap, nil
}

func (m *MockStreamSource) Name() string { return "mock-source" }

// PlayerCall records one command issued against a MockPlayer.
type PlayerCall struct {
	Method     string
	DeviceID   string
	TrackID    string
	PositionMS int
}

// MockPlayer is a test double for [services.Player].
type MockPlayer struct {
	DeviceList  []models.Device
	Playback    *models.PlaybackState
	DevicesErr  error
	PlaybackErr error
	PlayErr     error
	SeekErr     error
	Calls       []PlayerCall
	mu          sync.Mutex
}

func (m *MockPlayer) Devices(ctx context.Context) ([]models.Device, error) {
	if m.DevicesErr != nil {
		return nil, m.DevicesErr
	}
	return m.DeviceList, nil
}

func (m *MockPlayer) CurrentPlayback(ctx context.Context) (*models.PlaybackState, error) {
	if m.PlaybackErr != nil {
		return nil, m.PlaybackErr
	}
	if m.Playback == nil {
		return &models.PlaybackState{}, nil
	}
	state := *m.Playback
	return &state, nil
}

func (m *MockPlayer) Play(ctx context.Context, deviceID, trackID string, positionMS int) error {
	m.mu.Lock()
	m.Calls = append(m.Calls, PlayerCall{Method: "play", DeviceID: deviceID, TrackID: trackID, PositionMS: positionMS})
	m.mu.Unlock()
	return m.PlayErr
}

func (m *MockPlayer) Seek(ctx context.Context, deviceID string, positionMS int) error {
	m.mu.Lock()
	m.Calls = append(m.Calls, PlayerCall{Method: "seek", DeviceID: deviceID, PositionMS: positionMS})
	m.mu.Unlock()
	return m.SeekErr
}

func (m *MockPlayer) Name() string { return "mock-player" }

// MockRecorder captures sync records for inspection.
type MockRecorder struct {
	Records []models.SyncRecord
	Err     error
	mu      sync.Mutex
}

func (m *MockRecorder) Record(record models.SyncRecord) error {
	m.mu.Lock()
	m.Records = append(m.Records, record)
	m.mu.Unlock()
	return m.Err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
	Requests []*http.Request
	mu       sync.Mutex
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	return m.response, m.err
}
