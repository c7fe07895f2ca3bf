package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/diogo/chatstream/internal/models"
)

var fixedTime = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

func sampleTranscript() models.Transcript {
	return models.NewTranscript(
		models.UserMessage("What is Go?"),
		models.AssistantMessage("A **compiled** language."),
		models.UserMessage("Thanks"),
	)
}

func TestExportMarkdown(t *testing.T) {
	opts := ExportOptions{Title: "Go chat", Endpoint: "http://localhost:8000/chat", ExportedAt: fixedTime}
	out := ExportMarkdown(sampleTranscript(), opts)

	for _, want := range []string{
		"# Go chat\n",
		"**Endpoint:** http://localhost:8000/chat",
		"**Exported:** 2025-03-14 15:09:26",
		"**Messages:** 3",
		"## User\n\nWhat is Go?",
		"## Assistant\n\nA **compiled** language.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown export missing %q\n%s", want, out)
		}
	}

	if n := strings.Count(out, "\n---\n"); n != 3 {
		t.Errorf("expected 3 separators (header + 2 between messages), got %d", n)
	}
	if strings.Index(out, "What is Go?") > strings.Index(out, "compiled") {
		t.Error("messages must keep transcript order")
	}
}

func TestExportMarkdownDefaults(t *testing.T) {
	out := ExportMarkdown(models.NewTranscript(), ExportOptions{ExportedAt: fixedTime})

	if !strings.HasPrefix(out, "# Conversation\n") {
		t.Errorf("expected default title, got %q", out)
	}
	if strings.Contains(out, "Endpoint") {
		t.Error("endpoint line should be omitted when unset")
	}
	if !strings.Contains(out, "**Messages:** 0") {
		t.Error("empty transcript should report zero messages")
	}
}

func TestExportJSON(t *testing.T) {
	data, err := ExportJSON(sampleTranscript(), ExportOptions{Title: "x", ExportedAt: fixedTime})
	if err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}

	var got exportedTranscript
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Title != "x" || !got.ExportedAt.Equal(fixedTime) {
		t.Errorf("unexpected header: %+v", got)
	}
	if len(got.Messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(got.Messages))
	}
	if got.Messages[1] != models.AssistantMessage("A **compiled** language.") {
		t.Errorf("Messages[1] = %+v", got.Messages[1])
	}
	if !strings.Contains(string(data), `"role": "assistant"`) {
		t.Error("roles should be exported by name")
	}
}

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path string
		want ExportFormat
	}{
		{"chat.json", ExportFormatJSON},
		{"CHAT.JSON", ExportFormatJSON},
		{"chat.md", ExportFormatMarkdown},
		{"chat", ExportFormatMarkdown},
	}
	for _, tt := range tests {
		if got := FormatForPath(tt.path); got != tt.want {
			t.Errorf("FormatForPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestWriteExport(t *testing.T) {
	dir := t.TempDir()
	tr := sampleTranscript()

	mdPath := filepath.Join(dir, "nested", "chat.md")
	if err := WriteExport(mdPath, tr, ExportOptions{ExportedAt: fixedTime}); err != nil {
		t.Fatalf("WriteExport(md) error = %v", err)
	}
	md, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(md), "# Conversation") {
		t.Errorf("unexpected markdown file: %s", md)
	}

	jsonPath := filepath.Join(dir, "chat.json")
	if err := WriteExport(jsonPath, tr, ExportOptions{ExportedAt: fixedTime}); err != nil {
		t.Fatalf("WriteExport(json) error = %v", err)
	}
	js, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(js) {
		t.Error("json export should be valid JSON")
	}
}

func TestWriteExportErrors(t *testing.T) {
	if err := WriteExport("", sampleTranscript(), ExportOptions{}); err == nil {
		t.Error("empty path should fail")
	}
	path := filepath.Join(t.TempDir(), "x.txt")
	if err := WriteExport(path, sampleTranscript(), ExportOptions{Format: "yaml"}); err == nil {
		t.Error("unknown format should fail")
	}
}
