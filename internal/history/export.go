// Package history exports the in-memory conversation to a transcript file.
// Nothing is ever read back.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/diogo/techsolve/internal/models"
)

// ExportFormat represents the format for exporting conversations
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
	ExportFormatYAML     ExportFormat = "yaml"
)

// ExportOptions configures how conversations are exported
type ExportOptions struct {
	Format         ExportFormat
	IncludeImages  bool // Include attachment data URIs in JSON/YAML export
	IncludeSources bool // Include verification sources
}

// DefaultExportOptions returns sensible defaults for export
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Format:         ExportFormatMarkdown,
		IncludeImages:  false,
		IncludeSources: true,
	}
}

// Transcript is a snapshot of a conversation ready for export
type Transcript struct {
	Title      string
	Category   models.Category
	Model      string
	ExportedAt time.Time
	Messages   []models.Message
}

// FormatFromPath picks the export format from a file extension.
// Unknown extensions export as markdown.
func FormatFromPath(path string) ExportFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ExportFormatJSON
	case ".yaml", ".yml":
		return ExportFormatYAML
	default:
		return ExportFormatMarkdown
	}
}

// ParseFormat resolves a format name
func ParseFormat(name string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(name))); f {
	case ExportFormatMarkdown, ExportFormatJSON, ExportFormatYAML:
		return f, nil
	case "md":
		return ExportFormatMarkdown, nil
	case "yml":
		return ExportFormatYAML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (use markdown, json or yaml)", name)
	}
}

// Export renders the transcript in the requested format
func Export(t Transcript, opts ExportOptions) ([]byte, error) {
	switch opts.Format {
	case ExportFormatJSON:
		return ToJSON(t, opts)
	case ExportFormatYAML:
		return ToYAML(t, opts)
	case ExportFormatMarkdown, "":
		return []byte(ToMarkdown(t, opts)), nil
	default:
		return nil, fmt.Errorf("unknown export format %q", opts.Format)
	}
}

// WriteFile exports the transcript to path, choosing the format from the
// extension, and returns the format used.
func WriteFile(path string, t Transcript, opts ExportOptions) (ExportFormat, error) {
	opts.Format = FormatFromPath(path)

	data, err := Export(t, opts)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return opts.Format, nil
}

// ToMarkdown exports a conversation to Markdown format
func ToMarkdown(t Transcript, opts ExportOptions) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# ")
	sb.WriteString(titleOf(t))
	sb.WriteString("\n\n")

	// Metadata
	if t.Category != "" {
		sb.WriteString("**Domain:** ")
		sb.WriteString(t.Category.Info().Label)
		sb.WriteString("\n")
	}
	if t.Model != "" {
		sb.WriteString("**Model:** ")
		sb.WriteString(t.Model)
		sb.WriteString("\n")
	}
	if !t.ExportedAt.IsZero() {
		sb.WriteString("**Exported:** ")
		sb.WriteString(t.ExportedAt.Format("2006-01-02 15:04:05"))
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("**Messages:** %d", len(t.Messages)))
	sb.WriteString("\n\n---\n\n")

	// Messages
	for i, msg := range t.Messages {
		role := "User"
		if msg.Role == models.RoleAssistant {
			role = "TechSolve"
		}

		sb.WriteString("## ")
		sb.WriteString(role)
		if !msg.Timestamp.IsZero() {
			sb.WriteString(" (")
			sb.WriteString(msg.Timestamp.Format("15:04:05"))
			sb.WriteString(")")
		}
		sb.WriteString("\n\n")

		if msg.HasImage() {
			sb.WriteString("*[image attached]*\n\n")
		}

		sb.WriteString(msg.Content)
		sb.WriteString("\n")

		if sources := msg.Sources(); opts.IncludeSources && len(sources) > 0 {
			sb.WriteString("\n### Verification Sources\n\n")
			for _, src := range sources {
				title := src.Title
				if title == "" {
					title = src.URI
				}
				sb.WriteString(fmt.Sprintf("- [%s](%s)\n", title, src.URI))
			}
		}

		// Separator between messages (except last)
		if i < len(t.Messages)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}

type exportMessage struct {
	ID        string             `json:"id" yaml:"id"`
	Role      models.Role        `json:"role" yaml:"role"`
	Content   string             `json:"content" yaml:"content"`
	Timestamp time.Time          `json:"timestamp" yaml:"timestamp"`
	HasImage  bool               `json:"has_image,omitempty" yaml:"has_image,omitempty"`
	Image     string             `json:"image,omitempty" yaml:"image,omitempty"`
	Sources   []models.WebSource `json:"sources,omitempty" yaml:"sources,omitempty"`
}

type exportTranscript struct {
	Title      string          `json:"title" yaml:"title"`
	Category   models.Category `json:"category,omitempty" yaml:"category,omitempty"`
	Model      string          `json:"model,omitempty" yaml:"model,omitempty"`
	ExportedAt time.Time       `json:"exported_at" yaml:"exported_at"`
	Messages   []exportMessage `json:"messages" yaml:"messages"`
}

func toExport(t Transcript, opts ExportOptions) exportTranscript {
	out := exportTranscript{
		Title:      titleOf(t),
		Category:   t.Category,
		Model:      t.Model,
		ExportedAt: t.ExportedAt,
		Messages:   make([]exportMessage, len(t.Messages)),
	}

	for i, msg := range t.Messages {
		out.Messages[i] = exportMessage{
			ID:        msg.ID,
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
			HasImage:  msg.HasImage(),
		}
		if opts.IncludeImages {
			out.Messages[i].Image = msg.Image
		}
		if opts.IncludeSources {
			out.Messages[i].Sources = msg.Sources()
		}
	}
	return out
}

// ToJSON exports a conversation to JSON format
func ToJSON(t Transcript, opts ExportOptions) ([]byte, error) {
	return json.MarshalIndent(toExport(t, opts), "", "  ")
}

// ToYAML exports a conversation to YAML format
func ToYAML(t Transcript, opts ExportOptions) ([]byte, error) {
	return yaml.Marshal(toExport(t, opts))
}

// titleOf derives a title from the first user prompt
func titleOf(t Transcript) string {
	if t.Title != "" {
		return t.Title
	}
	for _, msg := range t.Messages {
		if msg.Role != models.RoleUser {
			continue
		}
		title := strings.TrimSpace(strings.SplitN(msg.Content, "\n", 2)[0])
		if title == "" {
			title = models.ImageOnlyLabel
		}
		if r := []rune(title); len(r) > 60 {
			title = string(r[:57]) + "..."
		}
		return title
	}
	return "TechSolve Session"
}
