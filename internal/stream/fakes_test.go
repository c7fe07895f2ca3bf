package stream

import (
	"context"
	"io"
	"strings"
	"sync"

	http "github.com/bogdanfinn/fhttp"
)

// fakeDoer records requests and answers with a canned response
type fakeDoer struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
	respond  func(req *http.Request) (*http.Response, error)
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	var body string
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		body = string(b)
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.bodies = append(f.bodies, body)
	f.mu.Unlock()
	return f.respond(req)
}

func (f *fakeDoer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func textResponse(status int, contentType, body string) *http.Response {
	h := http.Header{}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &http.Response{
		StatusCode: status,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// chunkedBody delivers each chunk as a separate Read through a pipe
func chunkedBody(chunks ...[]byte) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		for _, c := range chunks {
			if _, err := pw.Write(c); err != nil {
				return
			}
		}
		pw.Close()
	}()
	return pr
}

// failingBody delivers chunks and then fails with err
func failingBody(err error, chunks ...[]byte) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		for _, c := range chunks {
			if _, werr := pw.Write(c); werr != nil {
				return
			}
		}
		pw.CloseWithError(err)
	}()
	return pr
}

// fakeOpener hands out scripted responses and records prompts
type fakeOpener struct {
	mu      sync.Mutex
	prompts []string
	ids     []string
	open    func(ctx context.Context, prompt string) (*Response, error)
}

func (f *fakeOpener) Open(ctx context.Context, requestID, prompt string) (*Response, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.ids = append(f.ids, requestID)
	f.mu.Unlock()
	return f.open(ctx, prompt)
}

func (f *fakeOpener) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func streamOf(chunks ...string) func(context.Context, string) (*Response, error) {
	return func(context.Context, string) (*Response, error) {
		bs := make([][]byte, len(chunks))
		for i, c := range chunks {
			bs[i] = []byte(c)
		}
		return &Response{Body: chunkedBody(bs...), ContentType: "text/plain; charset=utf-8", StatusCode: 200}, nil
	}
}

// recorder collects published snapshots
type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recorder) add(s Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
}

func (r *recorder) all() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot(nil), r.snaps...)
}

// trailing returns the reply text of each snapshot published while the
// request was still loading
func (r *recorder) trailing() []string {
	var out []string
	for _, s := range r.all() {
		if !s.Loading {
			continue
		}
		if last, ok := s.Transcript.Last(); ok && !last.IsUser() {
			out = append(out, last.Content)
		}
	}
	return out
}
