// Package mocks holds testify mocks for the collaborators the orchestrator
// reports to.
package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/monkey-cli/internal/observability"
	"github.com/xkilldash9x/monkey-cli/internal/screenshot"
)

// -- Screenshot Mock --

// MockScreenshotTaker mocks orchestrator.ScreenshotTaker.
type MockScreenshotTaker struct {
	mock.Mock
}

func (m *MockScreenshotTaker) Capture(ctx context.Context, page screenshot.Capturer, label, pageURL, errMsg string) (string, bool) {
	args := m.Called(ctx, page, label, pageURL, errMsg)
	return args.String(0), args.Bool(1)
}

// -- Action Logger Mock --

// MockActionLogger mocks orchestrator.ActionLogger and keeps every record it
// receives.
type MockActionLogger struct {
	mock.Mock

	mu      sync.Mutex
	records []observability.ActionRecord
}

func (m *MockActionLogger) LogAction(rec observability.ActionRecord) {
	m.mu.Lock()
	m.records = append(m.records, rec)
	m.mu.Unlock()
	m.Called(rec)
}

// Records returns a copy of the logged records.
func (m *MockActionLogger) Records() []observability.ActionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]observability.ActionRecord(nil), m.records...)
}
