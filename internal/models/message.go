package models

import "time"

// Role identifies the author of a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// WebSource is the destination of a citation
type WebSource struct {
	URI   string `json:"uri" yaml:"uri"`
	Title string `json:"title" yaml:"title"`
}

// GroundingLink is a citation attached to an assistant answer,
// taken verbatim from the service's web-search augmentation.
type GroundingLink struct {
	Web *WebSource `json:"web,omitempty" yaml:"web,omitempty"`
}

// Message is one entry of the conversation history.
// Messages are never modified after creation.
type Message struct {
	ID             string          `json:"id" yaml:"id"`
	Role           Role            `json:"role" yaml:"role"`
	Content        string          `json:"content" yaml:"content"`
	Timestamp      time.Time       `json:"timestamp" yaml:"timestamp"`
	Image          string          `json:"image,omitempty" yaml:"image,omitempty"` // data URI
	GroundingLinks []GroundingLink `json:"grounding_links,omitempty" yaml:"grounding_links,omitempty"`
}

// HasImage reports whether the message carries an image attachment
func (m Message) HasImage() bool {
	return m.Image != ""
}

// Sources returns the grounding links that point somewhere
func (m Message) Sources() []WebSource {
	var out []WebSource
	for _, link := range m.GroundingLinks {
		if link.Web != nil && link.Web.URI != "" {
			out = append(out, *link.Web)
		}
	}
	return out
}

// Answer is the result of a single troubleshooting call
type Answer struct {
	Text           string
	GroundingLinks []GroundingLink
}

// DiagnosticState is the transient progress indicator shown while a
// request is in flight. It carries no information about real progress.
type DiagnosticState struct {
	IsAnalyzing bool
	Progress    int // 0-100
	Status      string
}

// IdleDiagnostic returns the resting state
func IdleDiagnostic() DiagnosticState {
	return DiagnosticState{}
}

// IsIdle reports whether no analysis is running and progress is reset
func (d DiagnosticState) IsIdle() bool {
	return !d.IsAnalyzing && d.Progress == 0
}
