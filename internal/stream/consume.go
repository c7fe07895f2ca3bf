package stream

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	apierrors "github.com/diogo/chatstream/internal/errors"
)

// DefaultReadBufferSize is the largest chunk handed to the decoder per read
const DefaultReadBufferSize = 32 * 1024

// Accumulator folds decoded chunks into the growing reply text
type Accumulator struct {
	dec    *Decoder
	text   strings.Builder
	chunks int
}

// NewAccumulator returns an accumulator decoding with dec
func NewAccumulator(dec *Decoder) *Accumulator {
	if dec == nil {
		dec = NewDecoder()
	}
	return &Accumulator{dec: dec}
}

// Add decodes chunk and returns the full text so far. grew reports whether
// the chunk produced any text.
func (a *Accumulator) Add(chunk []byte) (text string, grew bool, err error) {
	a.chunks++
	delta, err := a.dec.Decode(chunk)
	if delta != "" {
		a.text.WriteString(delta)
	}
	return a.text.String(), delta != "", err
}

// Finish flushes the decoder at end of stream
func (a *Accumulator) Finish() (text string, grew bool, err error) {
	delta, err := a.dec.Flush()
	if delta != "" {
		a.text.WriteString(delta)
	}
	return a.text.String(), delta != "", err
}

// Text returns the accumulated text
func (a *Accumulator) Text() string {
	return a.text.String()
}

// Chunks returns how many chunks were added
func (a *Accumulator) Chunks() int {
	return a.chunks
}

// Consume reads r until EOF, calling onText with the full accumulated text
// each time a chunk adds to it. It returns the final text and chunk count.
// Read and decode failures are returned as *errors.StreamError along with
// the text received up to that point.
func Consume(ctx context.Context, r io.Reader, dec *Decoder, bufSize int, onText func(string)) (string, int, error) {
	if bufSize <= 0 {
		bufSize = DefaultReadBufferSize
	}
	acc := NewAccumulator(dec)
	buf := make([]byte, bufSize)

	emit := func(text string, grew bool) {
		if grew && onText != nil {
			onText(text)
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return acc.Text(), acc.Chunks(), apierrors.NewStreamError(acc.Chunks(), err)
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			text, grew, err := acc.Add(buf[:n])
			emit(text, grew)
			if err != nil {
				return acc.Text(), acc.Chunks(), apierrors.NewStreamError(acc.Chunks(), err)
			}
		}

		if errors.Is(readErr, io.EOF) {
			text, grew, err := acc.Finish()
			emit(text, grew)
			if err != nil {
				return acc.Text(), acc.Chunks(), apierrors.NewStreamError(acc.Chunks(), err)
			}
			return acc.Text(), acc.Chunks(), nil
		}
		if readErr != nil {
			return acc.Text(), acc.Chunks(), apierrors.NewStreamError(acc.Chunks(), readErr)
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
