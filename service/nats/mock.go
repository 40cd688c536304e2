package nats

import (
	"context"
	"sync"
)

// MockPublisher is an in-memory Publisher for tests and for deployments
// without NATS configured.
type MockPublisher struct {
	mu       sync.Mutex
	Analyses []*AnalysisEvent
	Reports  []*ReportEvent
}

// NewMockPublisher creates a mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishAnalysis(_ context.Context, event *AnalysisEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Analyses = append(m.Analyses, event)
	return nil
}

func (m *MockPublisher) PublishReport(_ context.Context, event *ReportEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reports = append(m.Reports, event)
	return nil
}

func (m *MockPublisher) Close() error { return nil }
