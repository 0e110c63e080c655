// Package chat orchestrates a troubleshooting conversation: history,
// category, pending attachment and the decorative diagnostic progress.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/diogo/techsolve/internal/api"
	apierrors "github.com/diogo/techsolve/internal/errors"
	"github.com/diogo/techsolve/internal/models"
)

// ErrBusy is returned by Send while a previous request is still running
var ErrBusy = errors.New("a diagnostic request is already in progress")

// InitialStatus is shown as soon as a request starts
const InitialStatus = "Initializing diagnostic sequence..."

// DefaultStatusInterval is the delay between scripted statuses
const DefaultStatusInterval = 800 * time.Millisecond

// DefaultStatusScript is played while waiting for the model. It reflects
// no real progress.
var DefaultStatusScript = []string{
	"Scanning knowledge base...",
	"Analyzing visual telemetry...",
	"Cross-referencing technical manuals...",
	"Simulating failure scenarios...",
	"Formulating remediation steps...",
}

const updatesBuffer = 64

// Session holds the state of one conversation. It is safe for concurrent
// use; Send blocks for the duration of the model call.
type Session struct {
	client   api.Troubleshooter
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
	interval time.Duration
	script   []string

	mu           sync.RWMutex
	messages     []models.Message
	category     models.Category
	pendingImage string
	diagnostic   models.DiagnosticState
	busy         bool

	updates chan models.DiagnosticState
}

// Option configures a Session
type Option func(*Session)

// WithClock overrides the time source used for message timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the message ID generator
func WithIDGenerator(gen func() string) Option {
	return func(s *Session) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithStatusInterval sets the delay between scripted statuses
func WithStatusInterval(d time.Duration) Option {
	return func(s *Session) {
		if d >= 0 {
			s.interval = d
		}
	}
}

// WithStatusScript replaces the scripted statuses
func WithStatusScript(script []string) Option {
	return func(s *Session) {
		s.script = append([]string(nil), script...)
	}
}

// WithCategory sets the initial category
func WithCategory(c models.Category) Option {
	return func(s *Session) {
		if id, err := models.ParseCategory(string(c)); err == nil {
			s.category = id
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession creates a Session backed by client
func NewSession(client api.Troubleshooter, opts ...Option) *Session {
	s := &Session{
		client:   client,
		logger:   zap.NewNop(),
		now:      time.Now,
		newID:    uuid.NewString,
		interval: DefaultStatusInterval,
		script:   DefaultStatusScript,
		category: models.DefaultCategory,
		updates:  make(chan models.DiagnosticState, updatesBuffer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send submits one user turn. Input with no text and no image is ignored.
// The user message is recorded before the call and exactly one assistant
// message after it. When the call fails the assistant message carries a
// fixed error text and the cause is returned.
func (s *Session) Send(ctx context.Context, input, image string) error {
	if strings.TrimSpace(input) == "" && image == "" {
		return nil
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.busy = true

	history := append([]models.Message(nil), s.messages...)
	category := s.category
	userMsg := models.Message{
		ID:        s.newID(),
		Role:      models.RoleUser,
		Content:   input,
		Timestamp: s.now(),
		Image:     image,
	}
	s.messages = append(s.messages, userMsg)
	s.pendingImage = ""
	s.setDiagnosticLocked(models.DiagnosticState{
		IsAnalyzing: true,
		Status:      InitialStatus,
	})
	s.mu.Unlock()

	seqCtx, stopSequence := context.WithCancel(ctx)
	wg := conc.NewWaitGroup()
	wg.Go(func() { s.playScript(seqCtx) })

	answer, err := s.client.Troubleshoot(ctx, history, userMsg.Content, userMsg.Image, category)
	if err == nil && answer == nil {
		err = apierrors.ErrInvalidResponse
	}

	stopSequence()
	wg.Wait()

	reply := models.Message{
		ID:   s.newID(),
		Role: models.RoleAssistant,
	}
	if err != nil {
		s.logger.Error("troubleshoot request failed",
			zap.Error(err),
			zap.String("category", string(category)),
		)
		reply.Content = models.ConnectionErrorText
	} else {
		reply.Content = answer.Text
		reply.GroundingLinks = answer.GroundingLinks
	}

	s.mu.Lock()
	reply.Timestamp = s.now()
	if reply.Timestamp.Before(userMsg.Timestamp) {
		reply.Timestamp = userMsg.Timestamp
	}
	s.messages = append(s.messages, reply)
	s.busy = false
	s.setDiagnosticLocked(models.IdleDiagnostic())
	s.mu.Unlock()

	return err
}

// playScript advances the decorative status until ctx is cancelled or
// the script ends. The first status is shown immediately.
func (s *Session) playScript(ctx context.Context) {
	n := len(s.script)
	for i, status := range s.script {
		if i > 0 {
			timer := time.NewTimer(s.interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
		if ctx.Err() != nil {
			return
		}

		s.mu.Lock()
		if s.diagnostic.IsAnalyzing {
			s.setDiagnosticLocked(models.DiagnosticState{
				IsAnalyzing: true,
				Status:      status,
				Progress:    (i + 1) * 100 / n,
			})
		}
		s.mu.Unlock()
	}
}

// setDiagnosticLocked stores d and notifies listeners. s.mu must be held.
func (s *Session) setDiagnosticLocked(d models.DiagnosticState) {
	s.diagnostic = d
	select {
	case s.updates <- d:
	default:
		s.logger.Debug("dropping diagnostic update, listener is behind")
	}
}

// Updates delivers every diagnostic state change. Updates are dropped
// when the buffer is full; Diagnostic always has the latest state.
func (s *Session) Updates() <-chan models.DiagnosticState {
	return s.updates
}

// Messages returns a copy of the conversation history
func (s *Session) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Message(nil), s.messages...)
}

// Diagnostic returns the current diagnostic state
func (s *Session) Diagnostic() models.DiagnosticState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.diagnostic
}

// Busy reports whether a request is in flight
func (s *Session) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy
}

// Category returns the selected category
func (s *Session) Category() models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.category
}

// SetCategory changes the category used by the next request
func (s *Session) SetCategory(c models.Category) error {
	id, err := models.ParseCategory(string(c))
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.category = id
	s.mu.Unlock()
	return nil
}

// AttachImage sets the image sent with the next message
func (s *Session) AttachImage(dataURI string) {
	s.mu.Lock()
	s.pendingImage = dataURI
	s.mu.Unlock()
}

// PendingImage returns the image waiting to be sent, if any
func (s *Session) PendingImage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingImage
}

// ClearImage drops the pending image
func (s *Session) ClearImage() {
	s.AttachImage("")
}

// Reset clears the conversation history. A request already in flight
// still appends its answer when it completes.
func (s *Session) Reset() {
	s.mu.Lock()
	s.messages = nil
	s.mu.Unlock()
}

// RecentPrompts returns up to n of the latest user prompts, oldest first.
// Image-only prompts are labelled "Image Scan".
func (s *Session) RecentPrompts(n int) []string {
	if n <= 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var prompts []string
	for _, m := range s.messages {
		if m.Role != models.RoleUser {
			continue
		}
		label := m.Content
		if label == "" {
			label = models.ImageOnlyLabel
		}
		prompts = append(prompts, label)
	}
	if len(prompts) > n {
		prompts = prompts[len(prompts)-n:]
	}
	return prompts
}
