// Package models contains the conversation types shared by the stream
// consumer and the renderers.
package models

// Request/response wire details
const (
	HeaderContentType = "Content-Type"
	HeaderAccept      = "Accept"
	HeaderRequestID   = "X-Request-Id"
	HeaderUserAgent   = "User-Agent"

	ContentTypeJSON = "application/json"
)

// PromptRequest is the JSON body sent to the completion endpoint
type PromptRequest struct {
	Prompt string `json:"prompt"`
}

// ExamplePrompts are the default clickable prompt templates.
// Selecting one only fills the input; it never submits.
var ExamplePrompts = []string{
	"Explain [topic] in simple terms.",
	"Summarize this text in 3 sentences: [paste text]",
	"Write a blog post on [topic] with an engaging introduction.",
	"Write a professional resume summary for a [job title] with [X] years of experience.",
	"What are the most common interview questions for a [job title]?",
	"Write a [language] function to [task].",
	"Act as a [role] and answer my question: [question]",
	"Translate this text to [language]: [text]",
	"Create a daily schedule for a [profession].",
	"Write a short story about [topic].",
}

// DefaultExamplePrompts returns a copy of the built-in example prompts
func DefaultExamplePrompts() []string {
	out := make([]string, len(ExamplePrompts))
	copy(out, ExamplePrompts)
	return out
}
