package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/diogo/techsolve/internal/api"
	apierrors "github.com/diogo/techsolve/internal/errors"
	"github.com/diogo/techsolve/internal/models"
)

func TestMain(m *testing.M) {
	// genai pulls in opencensus, which starts its stats worker in init
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	)
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("msg-%d", n)
	}
}

func newTestSession(client api.Troubleshooter, opts ...Option) *Session {
	opts = append([]Option{
		WithIDGenerator(sequentialIDs()),
		WithStatusInterval(time.Millisecond),
	}, opts...)
	return NewSession(client, opts...)
}

func TestSend_EmptyInputIsNoop(t *testing.T) {
	mock := &api.MockClient{}
	s := newTestSession(mock)

	for _, input := range []string{"", "   ", "\n\t"} {
		require.NoError(t, s.Send(context.Background(), input, ""))
	}

	assert.Empty(t, s.Messages())
	assert.Empty(t, mock.Calls())
	assert.True(t, s.Diagnostic().IsIdle())
}

func TestSend_Success(t *testing.T) {
	links := []models.GroundingLink{{Web: &models.WebSource{URI: "https://kb.example/psu", Title: "PSU guide"}}}
	mock := &api.MockClient{Answer: &models.Answer{Text: "## Fix\n1. Reseat RAM", GroundingLinks: links}}
	s := newTestSession(mock)

	err := s.Send(context.Background(), "PC won't POST", "")
	require.NoError(t, err)

	msgs := s.Messages()
	require.Len(t, msgs, 2)

	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, "PC won't POST", msgs[0].Content)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "## Fix\n1. Reseat RAM", msgs[1].Content)
	assert.Equal(t, links, msgs[1].GroundingLinks)
	assert.False(t, msgs[1].Timestamp.Before(msgs[0].Timestamp))
	assert.NotEqual(t, msgs[0].ID, msgs[1].ID)

	assert.True(t, s.Diagnostic().IsIdle())
	assert.False(t, s.Busy())
}

func TestSend_Failure(t *testing.T) {
	cause := apierrors.NewAPIError(500, "m", "internal")
	mock := &api.MockClient{Err: cause}
	s := newTestSession(mock)

	err := s.Send(context.Background(), "No WiFi", "")
	assert.ErrorIs(t, err, cause)

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
	assert.Equal(t, models.ConnectionErrorText, msgs[1].Content)
	assert.Empty(t, msgs[1].GroundingLinks)
	assert.True(t, s.Diagnostic().IsIdle())
}

func TestSend_ImageOnly(t *testing.T) {
	mock := &api.MockClient{}
	s := newTestSession(mock)
	s.AttachImage("data:image/png;base64,AAAA")

	require.NoError(t, s.Send(context.Background(), "", s.PendingImage()))

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "", msgs[0].Content)
	assert.True(t, msgs[0].HasImage())
	assert.Empty(t, s.PendingImage(), "pending image is cleared on send")

	call, ok := mock.LastCall()
	require.True(t, ok)
	assert.Equal(t, "data:image/png;base64,AAAA", call.Image)
}

func TestSend_PassesPriorHistoryAndCategory(t *testing.T) {
	mock := &api.MockClient{Answer: &models.Answer{Text: "ok"}}
	s := newTestSession(mock, WithCategory(models.CategoryNetworking))

	require.NoError(t, s.Send(context.Background(), "first", ""))
	require.NoError(t, s.Send(context.Background(), "second", ""))

	calls := mock.Calls()
	require.Len(t, calls, 2)
	assert.Empty(t, calls[0].History)
	require.Len(t, calls[1].History, 2)
	assert.Equal(t, "first", calls[1].History[0].Content)
	assert.Equal(t, "ok", calls[1].History[1].Content)
	assert.Equal(t, "second", calls[1].Text)
	assert.Equal(t, models.CategoryNetworking, calls[1].Category)
	assert.Len(t, s.Messages(), 4)
}

func TestSend_TimestampsNeverDecrease(t *testing.T) {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	ticks := []time.Time{base, base.Add(-time.Minute)}
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := ticks[0]
		if len(ticks) > 1 {
			ticks = ticks[1:]
		}
		return now
	}

	s := newTestSession(&api.MockClient{}, WithClock(clock))
	require.NoError(t, s.Send(context.Background(), "hi", ""))

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, base, msgs[0].Timestamp)
	assert.Equal(t, base, msgs[1].Timestamp)
}

func TestSend_BusyWhileInFlight(t *testing.T) {
	mock := &api.MockClient{Block: make(chan struct{})}
	s := newTestSession(mock)

	done := make(chan error, 1)
	go func() { done <- s.Send(context.Background(), "slow", "") }()

	require.Eventually(t, s.Busy, time.Second, time.Millisecond)
	assert.ErrorIs(t, s.Send(context.Background(), "again", ""), ErrBusy)
	assert.True(t, s.Diagnostic().IsAnalyzing)
	assert.Len(t, s.Messages(), 1)

	close(mock.Block)
	require.NoError(t, <-done)
	assert.Len(t, s.Messages(), 2)
	assert.Len(t, mock.Calls(), 1)
}

func TestSend_StatusSequence(t *testing.T) {
	mock := &api.MockClient{Block: make(chan struct{})}
	s := newTestSession(mock, WithStatusInterval(0))

	done := make(chan error, 1)
	go func() { done <- s.Send(context.Background(), "boot loop", "") }()

	require.Eventually(t, func() bool {
		return s.Diagnostic().Progress == 100
	}, time.Second, time.Millisecond)

	d := s.Diagnostic()
	assert.True(t, d.IsAnalyzing)
	assert.Equal(t, DefaultStatusScript[len(DefaultStatusScript)-1], d.Status)

	close(mock.Block)
	require.NoError(t, <-done)

	var seen []models.DiagnosticState
	for len(s.Updates()) > 0 {
		seen = append(seen, <-s.Updates())
	}
	require.Len(t, seen, len(DefaultStatusScript)+2)
	assert.Equal(t, InitialStatus, seen[0].Status)
	assert.Equal(t, 0, seen[0].Progress)
	for i, status := range DefaultStatusScript {
		assert.Equal(t, status, seen[i+1].Status)
		assert.Equal(t, (i+1)*20, seen[i+1].Progress)
	}
	assert.True(t, seen[len(seen)-1].IsIdle())
}

func TestSend_SequenceStopsWhenRequestSettles(t *testing.T) {
	s := newTestSession(&api.MockClient{}, WithStatusInterval(20*time.Millisecond))

	require.NoError(t, s.Send(context.Background(), "quick", ""))
	assert.True(t, s.Diagnostic().IsIdle())

	// later steps of the script must not revive the indicator
	time.Sleep(60 * time.Millisecond)
	assert.True(t, s.Diagnostic().IsIdle())
}

func TestSend_ContextCanceled(t *testing.T) {
	mock := &api.MockClient{Block: make(chan struct{})}
	s := newTestSession(mock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Send(ctx, "hang", "") }()

	require.Eventually(t, s.Busy, time.Second, time.Millisecond)
	cancel()

	err := <-done
	assert.True(t, errors.Is(err, context.Canceled))
	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, models.ConnectionErrorText, msgs[1].Content)
	assert.True(t, s.Diagnostic().IsIdle())
}

func TestSession_Category(t *testing.T) {
	s := newTestSession(&api.MockClient{})
	assert.Equal(t, models.CategoryHardware, s.Category())

	require.NoError(t, s.SetCategory(models.CategoryAI))
	assert.Equal(t, models.CategoryAI, s.Category())

	require.NoError(t, s.SetCategory("Networking"))
	assert.Equal(t, models.CategoryNetworking, s.Category())

	err := s.SetCategory("quantum")
	assert.ErrorIs(t, err, apierrors.ErrUnknownCategory)
	assert.Equal(t, models.CategoryNetworking, s.Category())
}

func TestSession_WithCategoryIgnoresInvalid(t *testing.T) {
	s := newTestSession(&api.MockClient{}, WithCategory("bogus"))
	assert.Equal(t, models.DefaultCategory, s.Category())
}

func TestSession_WithCategoryNormalizesLabel(t *testing.T) {
	mock := &api.MockClient{}
	s := newTestSession(mock, WithCategory("AI & ML"))
	assert.Equal(t, models.CategoryAI, s.Category())

	require.NoError(t, s.Send(context.Background(), "CUDA out of memory", ""))
	call, ok := mock.LastCall()
	require.True(t, ok)
	assert.Equal(t, models.CategoryAI, call.Category)
}

// emptyClient returns neither an answer nor an error
type emptyClient struct{}

func (emptyClient) Troubleshoot(ctx context.Context, history []models.Message, text, image string, category models.Category) (*models.Answer, error) {
	return nil, nil
}

func TestSend_NilAnswerIsInvalidResponse(t *testing.T) {
	s := newTestSession(emptyClient{})

	err := s.Send(context.Background(), "Fan is noisy", "")
	assert.ErrorIs(t, err, apierrors.ErrInvalidResponse)

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, models.ConnectionErrorText, msgs[1].Content)
	assert.False(t, s.Busy())
	assert.True(t, s.Diagnostic().IsIdle())
}

func TestSession_ImageLifecycle(t *testing.T) {
	s := newTestSession(&api.MockClient{})
	assert.Empty(t, s.PendingImage())

	s.AttachImage("data:image/jpeg;base64,AA==")
	assert.Equal(t, "data:image/jpeg;base64,AA==", s.PendingImage())

	s.ClearImage()
	assert.Empty(t, s.PendingImage())
}

func TestSession_Reset(t *testing.T) {
	s := newTestSession(&api.MockClient{})
	require.NoError(t, s.Send(context.Background(), "one", ""))
	require.Len(t, s.Messages(), 2)

	s.Reset()
	assert.Empty(t, s.Messages())
	assert.Empty(t, s.RecentPrompts(5))
}

func TestSession_RecentPrompts(t *testing.T) {
	s := newTestSession(&api.MockClient{})
	ctx := context.Background()

	for i := 1; i <= 6; i++ {
		require.NoError(t, s.Send(ctx, fmt.Sprintf("issue %d", i), ""))
	}
	require.NoError(t, s.Send(ctx, "", "data:image/png;base64,AA=="))

	got := s.RecentPrompts(5)
	assert.Equal(t, []string{"issue 3", "issue 4", "issue 5", "issue 6", models.ImageOnlyLabel}, got)

	assert.Len(t, s.RecentPrompts(100), 7)
	assert.Nil(t, s.RecentPrompts(0))
}
