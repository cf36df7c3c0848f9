// package testing provides shared test doubles and filesystem assertions.
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/lecternhq/lectern/internal/models"
	"github.com/lecternhq/lectern/internal/remote"
)

// MockAdapter is an in-memory [remote.Adapter] with configurable behavior.
// The zero value serves an empty backend that acks every push.
type MockAdapter struct {
	mu sync.Mutex

	Series  []*models.SeriesRecord
	Sermons []*models.SermonRecord

	PullErr error
	PushErr error

	// Reject lists record IDs the backend should refuse on push.
	Reject map[string]string

	Pushed []remote.PushItem
}

var _ remote.Adapter = (*MockAdapter)(nil)

func (m *MockAdapter) PullSeries(ctx context.Context, userID string, since time.Time) ([]*models.SeriesRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PullErr != nil {
		return nil, m.PullErr
	}
	var out []*models.SeriesRecord
	for _, s := range m.Series {
		if s.UserID == userID && (since.IsZero() || s.UpdatedAt.After(since)) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MockAdapter) PullSermons(ctx context.Context, userID string, since time.Time) ([]*models.SermonRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PullErr != nil {
		return nil, m.PullErr
	}
	var out []*models.SermonRecord
	for _, s := range m.Sermons {
		if s.UserID == userID && (since.IsZero() || s.UpdatedAt.After(since)) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MockAdapter) Push(ctx context.Context, table, userID string, items []remote.PushItem) ([]remote.PushResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PushErr != nil {
		return nil, m.PushErr
	}
	results := make([]remote.PushResult, 0, len(items))
	for _, item := range items {
		m.Pushed = append(m.Pushed, item)
		if reason, ok := m.Reject[item.ID]; ok {
			results = append(results, remote.PushResult{ID: item.ID, OK: false, Error: reason})
			continue
		}
		results = append(results, remote.PushResult{ID: item.ID, OK: true})
	}
	return results, nil
}

// PushCount returns how many items the backend has seen.
func (m *MockAdapter) PushCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Pushed)
}

// FWriter always fails to write.
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after writing a set number of bytes.
type LimitedWriter struct {
	Limit   int
	written int
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written+len(p) > l.Limit {
		return 0, errors.New("write limit exceeded")
	}
	l.written += len(p)
	return len(p), nil
}

// MockRoundTripper substitutes a canned response for any HTTP request.
type MockRoundTripper struct {
	Response *http.Response
	Err      error
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.Response, m.Err
}

// FCloser is a ReadCloser whose reads always fail.
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
