// Package stream sends prompts to the completion endpoint and folds the
// streamed reply into transcript snapshots.
package stream

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	apierrors "github.com/diogo/chatstream/internal/errors"
	"github.com/diogo/chatstream/internal/models"
)

// Outcome says how a submission ended
type Outcome int

const (
	// OutcomeSkipped means the prompt was blank and nothing happened
	OutcomeSkipped Outcome = iota
	// OutcomeUnconfigured means the prompt was recorded but no endpoint is set
	OutcomeUnconfigured
	// OutcomeNoBody means the endpoint answered without a readable body
	OutcomeNoBody
	// OutcomeCompleted means the reply was read to the end
	OutcomeCompleted
	// OutcomeFailed means the request or the stream failed; see Result.Err
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeUnconfigured:
		return "unconfigured"
	case OutcomeNoBody:
		return "no-body"
	case OutcomeCompleted:
		return "completed"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Result describes one submission
type Result struct {
	RequestID string
	Outcome   Outcome
	Reply     string
	Chunks    int
	Err       error
}

// Snapshot is the observable state of a session. Transcript values are
// immutable, so a snapshot stays valid after later updates.
type Snapshot struct {
	// Revision increases by one with every published snapshot.
	Revision   uint64
	RequestID  string
	Transcript models.Transcript
	Loading    bool
	Err        error
}

// Opener starts a streamed reply. *Client implements it.
type Opener interface {
	Open(ctx context.Context, requestID, prompt string) (*Response, error)
}

// Session owns one conversation and serializes submissions to it
type Session struct {
	opener  Opener
	logger  *slog.Logger
	newID   func() string
	bufSize int

	// pubMu orders delivery to subscribers; it is always taken before mu.
	pubMu sync.Mutex

	mu       sync.Mutex
	snap     Snapshot
	inFlight bool
	subs     map[int]func(Snapshot)
	nextSub  int
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithLogger sets the session logger
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRequestIDs replaces the request id generator
func WithRequestIDs(fn func() string) SessionOption {
	return func(s *Session) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithReadBufferSize bounds the size of a single read from the body
func WithReadBufferSize(n int) SessionOption {
	return func(s *Session) {
		s.bufSize = n
	}
}

// WithTranscript starts the session from an existing transcript
func WithTranscript(t models.Transcript) SessionOption {
	return func(s *Session) {
		s.snap.Transcript = t
	}
}

// NewSession creates a session sending through opener.
// A nil opener means no endpoint is configured.
func NewSession(opener Opener, opts ...SessionOption) *Session {
	s := &Session{
		opener:  opener,
		logger:  discardLogger(),
		newID:   uuid.NewString,
		bufSize: DefaultReadBufferSize,
		subs:    make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configured reports whether submissions will reach an endpoint
func (s *Session) Configured() bool {
	return s.opener != nil
}

// Snapshot returns the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Busy reports whether a request is in flight
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Subscribe registers fn to receive every published snapshot, in order.
// fn runs on the publishing goroutine and must not call Submit or Reset.
// The returned function removes the subscription.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Reset drops the conversation. It fails with ErrBusy while a request is active.
func (s *Session) Reset() error {
	var busy bool
	s.commit(func(snap *Snapshot) bool {
		if s.inFlight {
			busy = true
			return false
		}
		snap.Transcript = models.NewTranscript()
		snap.RequestID = ""
		snap.Err = nil
		return true
	})
	if busy {
		return apierrors.ErrBusy
	}
	return nil
}

// Submit sends prompt and streams the reply into the transcript.
// It blocks until the request ends. Cancelling ctx tears the request down.
func (s *Session) Submit(ctx context.Context, prompt string) (Result, error) {
	if strings.TrimSpace(prompt) == "" {
		return Result{Outcome: OutcomeSkipped}, nil
	}

	requestID := s.newID()
	log := s.logger.With("request_id", requestID)

	var (
		base     models.Transcript
		rejected bool
	)
	s.commit(func(snap *Snapshot) bool {
		if s.inFlight {
			rejected = true
			return false
		}
		s.inFlight = true
		base = snap.Transcript.Append(models.UserMessage(prompt))
		snap.Transcript = base
		snap.RequestID = requestID
		snap.Loading = true
		snap.Err = nil
		return true
	})
	if rejected {
		log.Debug("submission rejected, request in flight")
		return Result{RequestID: requestID, Outcome: OutcomeFailed, Err: apierrors.ErrBusy}, apierrors.ErrBusy
	}

	res := s.run(ctx, log, requestID, base, prompt)

	s.commit(func(snap *Snapshot) bool {
		s.inFlight = false
		snap.Loading = false
		snap.Err = res.Err
		return true
	})

	log.Debug("request finished", "outcome", res.Outcome.String(), "chunks", res.Chunks, "bytes", len(res.Reply))
	return res, res.Err
}

func (s *Session) run(ctx context.Context, log *slog.Logger, requestID string, base models.Transcript, prompt string) Result {
	res := Result{RequestID: requestID}

	if s.opener == nil {
		res.Outcome = OutcomeUnconfigured
		return res
	}

	resp, err := s.opener.Open(ctx, requestID, prompt)
	switch {
	case errors.Is(err, apierrors.ErrEndpointNotConfigured):
		res.Outcome = OutcomeUnconfigured
		return res
	case errors.Is(err, apierrors.ErrNoBody):
		log.Debug("response has no body")
		res.Outcome = OutcomeNoBody
		return res
	case err != nil:
		log.Debug("request failed", "error", err)
		res.Outcome = OutcomeFailed
		res.Err = err
		return res
	}
	defer resp.Body.Close()

	dec := NewDecoderForContentType(resp.ContentType)
	log.Debug("streaming reply", "status", resp.StatusCode, "charset", dec.Charset())

	reply, chunks, err := Consume(ctx, resp.Body, dec, s.bufSize, func(text string) {
		s.commit(func(snap *Snapshot) bool {
			snap.Transcript = base.WithReply(text)
			return true
		})
	})
	res.Reply = reply
	res.Chunks = chunks
	if err != nil {
		log.Debug("stream ended early", "chunks", chunks, "dropped_bytes", dec.Pending(), "error", err)
		res.Outcome = OutcomeFailed
		res.Err = err
		return res
	}
	log.Debug("reply complete", "chunks", chunks, "length", len(reply))
	res.Outcome = OutcomeCompleted
	return res
}

// commit applies fn to a copy of the current snapshot under the lock and,
// when fn returns true, stores it with the next revision and delivers it to
// every subscriber in registration order.
func (s *Session) commit(fn func(*Snapshot) bool) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	next := s.snap
	if !fn(&next) {
		s.mu.Unlock()
		return
	}
	next.Revision = s.snap.Revision + 1
	s.snap = next

	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subs := make([]func(Snapshot), 0, len(ids))
	for _, id := range ids {
		subs = append(subs, s.subs[id])
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(next)
	}
}
