package api

import (
	"context"
	"sync"

	"github.com/diogo/techsolve/internal/models"
)

// TroubleshootCall records the arguments of one Troubleshoot call
type TroubleshootCall struct {
	History  []models.Message
	Text     string
	Image    string
	Category models.Category
}

// MockClient is a Troubleshooter for tests and offline demos
type MockClient struct {
	// Mock return values
	Answer *models.Answer
	Err    error

	// Block, when non-nil, holds every call until it is closed or the
	// context ends.
	Block chan struct{}

	mu    sync.Mutex
	calls []TroubleshootCall
}

// Ensure MockClient implements Troubleshooter
var _ Troubleshooter = (*MockClient)(nil)

func (m *MockClient) Troubleshoot(ctx context.Context, history []models.Message, text, image string, category models.Category) (*models.Answer, error) {
	m.mu.Lock()
	m.calls = append(m.calls, TroubleshootCall{
		History:  append([]models.Message(nil), history...),
		Text:     text,
		Image:    image,
		Category: category,
	})
	m.mu.Unlock()

	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.Err != nil {
		return nil, m.Err
	}
	if m.Answer == nil {
		return &models.Answer{Text: models.FallbackAnswerText}, nil
	}
	answer := *m.Answer
	return &answer, nil
}

// Calls returns the recorded calls
func (m *MockClient) Calls() []TroubleshootCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TroubleshootCall(nil), m.calls...)
}

// LastCall returns the most recent call, if any
func (m *MockClient) LastCall() (TroubleshootCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return TroubleshootCall{}, false
	}
	return m.calls[len(m.calls)-1], true
}
