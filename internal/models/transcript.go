package models

// Transcript is an ordered, immutable list of messages.
//
// Every operation that changes the conversation returns a new Transcript
// backed by its own array, so a snapshot handed to a renderer never changes
// underneath it. The zero value is an empty transcript.
type Transcript struct {
	messages []Message
}

// NewTranscript builds a transcript from the given messages.
// The slice is copied.
func NewTranscript(messages ...Message) Transcript {
	return Transcript{messages: cloneMessages(messages, 0)}
}

// Len returns the number of messages
func (t Transcript) Len() int {
	return len(t.messages)
}

// IsEmpty reports whether the transcript has no messages
func (t Transcript) IsEmpty() bool {
	return len(t.messages) == 0
}

// At returns the message at index i. It panics when i is out of range.
func (t Transcript) At(i int) Message {
	return t.messages[i]
}

// Last returns the trailing message, if any
func (t Transcript) Last() (Message, bool) {
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// Messages returns a copy of the messages in order
func (t Transcript) Messages() []Message {
	return cloneMessages(t.messages, 0)
}

// Append returns a new transcript with msg added at the end
func (t Transcript) Append(msg Message) Transcript {
	out := cloneMessages(t.messages, 1)
	out = append(out, msg)
	return Transcript{messages: out}
}

// ReplaceTrailing returns a new transcript whose last message is msg.
// On an empty transcript it behaves like Append.
func (t Transcript) ReplaceTrailing(msg Message) Transcript {
	if len(t.messages) == 0 {
		return t.Append(msg)
	}
	out := cloneMessages(t.messages, 0)
	out[len(out)-1] = msg
	return Transcript{messages: out}
}

// WithReply returns base followed by one assistant message holding content.
// It is how a streaming reply is re-derived from the transcript captured at
// submission time: the full accumulated text, never a delta.
func (t Transcript) WithReply(content string) Transcript {
	return t.Append(AssistantMessage(content))
}

// LastReply returns the content of the most recent assistant message
func (t Transcript) LastReply() (string, bool) {
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].Role == RoleAssistant {
			return t.messages[i].Content, true
		}
	}
	return "", false
}

// Exchanges returns the number of user messages in the transcript
func (t Transcript) Exchanges() int {
	n := 0
	for _, m := range t.messages {
		if m.IsUser() {
			n++
		}
	}
	return n
}

func cloneMessages(src []Message, extra int) []Message {
	out := make([]Message, len(src), len(src)+extra)
	copy(out, src)
	return out
}
