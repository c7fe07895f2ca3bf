// Package history exports a conversation transcript to a file.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/diogo/chatstream/internal/models"
)

// ExportFormat represents the format for exporting conversations
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
)

// ExportOptions configures how a transcript is exported
type ExportOptions struct {
	Format   ExportFormat
	Title    string
	Endpoint string // recorded in the header when set
	// ExportedAt stamps the export; zero means time.Now()
	ExportedAt time.Time
}

// DefaultExportOptions returns sensible defaults for export
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Format: ExportFormatMarkdown,
		Title:  "Conversation",
	}
}

// FormatForPath picks the export format from a file extension
func FormatForPath(path string) ExportFormat {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ExportFormatJSON
	}
	return ExportFormatMarkdown
}

func (o ExportOptions) stamp() time.Time {
	if o.ExportedAt.IsZero() {
		return time.Now()
	}
	return o.ExportedAt
}

// ExportMarkdown renders the transcript as a Markdown document
func ExportMarkdown(t models.Transcript, opts ExportOptions) string {
	var sb strings.Builder

	title := opts.Title
	if title == "" {
		title = DefaultExportOptions().Title
	}
	sb.WriteString("# ")
	sb.WriteString(title)
	sb.WriteString("\n\n")

	if opts.Endpoint != "" {
		fmt.Fprintf(&sb, "**Endpoint:** %s\n", opts.Endpoint)
	}
	fmt.Fprintf(&sb, "**Exported:** %s\n", opts.stamp().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "**Messages:** %d\n\n---\n\n", t.Len())

	msgs := t.Messages()
	for i, msg := range msgs {
		role := "User"
		if msg.Role == models.RoleAssistant {
			role = "Assistant"
		}
		sb.WriteString("## ")
		sb.WriteString(role)
		sb.WriteString("\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")

		if i < len(msgs)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}

type exportedTranscript struct {
	Title      string           `json:"title"`
	Endpoint   string           `json:"endpoint,omitempty"`
	ExportedAt time.Time        `json:"exported_at"`
	Messages   []models.Message `json:"messages"`
}

// ExportJSON renders the transcript as indented JSON
func ExportJSON(t models.Transcript, opts ExportOptions) ([]byte, error) {
	title := opts.Title
	if title == "" {
		title = DefaultExportOptions().Title
	}
	return json.MarshalIndent(exportedTranscript{
		Title:      title,
		Endpoint:   opts.Endpoint,
		ExportedAt: opts.stamp(),
		Messages:   t.Messages(),
	}, "", "  ")
}

// WriteExport writes the transcript to path. An empty opts.Format is
// derived from the file extension.
func WriteExport(path string, t models.Transcript, opts ExportOptions) error {
	if path == "" {
		return fmt.Errorf("export path is empty")
	}
	if opts.Format == "" {
		opts.Format = FormatForPath(path)
	}

	var data []byte
	switch opts.Format {
	case ExportFormatJSON:
		b, err := ExportJSON(t, opts)
		if err != nil {
			return fmt.Errorf("failed to encode transcript: %w", err)
		}
		data = b
	case ExportFormatMarkdown:
		data = []byte(ExportMarkdown(t, opts))
	default:
		return fmt.Errorf("unknown export format %q", opts.Format)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
